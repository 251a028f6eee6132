package config

import (
	"log"
	"os"
)

// Config holds all validated environment variables
type Config struct {
	Port            string
	PublicBaseURL   string
	APIBaseURL      string
	KakaoMapKey     string
	PortOneUserCode string
	IdentityURL     string
	IdentityAnonKey string
	SessionSecret   string
	RedisAddr       string
	RedisPassword   string
}

// Global instance
var Envs Config

// LoadAndValidate ensures all required ENV keys are present
func LoadAndValidate() {
	Envs = Config{
		Port:            getOpt("PORT", "8080"),
		PublicBaseURL:   getOpt("PUBLIC_BASE_URL", "http://localhost:8080"),
		APIBaseURL:      getReq("API_BASE_URL"),
		KakaoMapKey:     getReq("KAKAO_MAP_KEY"),
		PortOneUserCode: getReq("PORTONE_USER_CODE"),
		IdentityURL:     getReq("IDENTITY_URL"),
		IdentityAnonKey: getReq("IDENTITY_ANON_KEY"),
		SessionSecret:   getReq("SESSION_SECRET"),
		RedisAddr:       getOpt("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
	}
}

func getReq(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Environment variable %s is required but missing", key)
	}
	return val
}

func getOpt(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
