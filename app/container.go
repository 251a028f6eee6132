package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"charterbus/api"
	"charterbus/auth"
	"charterbus/config"
	"charterbus/db"
	"charterbus/maps"
	"charterbus/portone"
	"charterbus/stores"

	"github.com/redis/go-redis/v9"
)

const widgetScriptURL = "https://cdn.iamport.kr/js/iamport.payment-1.2.0.js"

// App container holds all application state and resources
type App struct {
	Config   config.Config
	Redis    *redis.Client
	Identity *auth.IdentityClient
	Gate     *auth.Gate
	API      *api.Client
	Kakao    *maps.KakaoClient
	Loader   *portone.ScriptLoader
	Gateway  *portone.Gateway

	Sessions      *stores.SessionStore
	Quotes        *stores.QuoteStore
	Verifications *stores.VerificationStore
	Payments      *stores.PaymentStore

	Flows *FlowRegistry
}

// Instance is the global singleton for the app container
var Instance *App

// Initialize bootstraps the app with all dependencies
func Initialize() {
	// 1. Load & Validate Config
	config.LoadAndValidate()

	// 2. Redis Connection
	db.InitRedis()

	sessions := stores.NewSessionStore(db.RedisClient)
	identity := auth.NewIdentityClient(config.Envs.IdentityURL, config.Envs.IdentityAnonKey)

	gateway, err := portone.NewGateway(config.Envs.PortOneUserCode)
	if err != nil {
		log.Fatalf("payment gateway: %v", err)
	}

	Instance = &App{
		Config:   config.Envs,
		Redis:    db.RedisClient,
		Identity: identity,
		Gate:     auth.NewGate(identity, sessions),
		API:      api.NewClient(config.Envs.APIBaseURL),
		Kakao:    maps.NewKakaoClient(config.Envs.KakaoMapKey),
		Loader:   portone.NewScriptLoader(probeWidgetScript),
		Gateway:  gateway,

		Sessions:      sessions,
		Quotes:        stores.NewQuoteStore(db.RedisClient),
		Verifications: stores.NewVerificationStore(db.RedisClient),
		Payments:      stores.NewPaymentStore(db.RedisClient),

		Flows: NewFlowRegistry(),
	}

	log.Println("✅ CharterBus App Container initialized successfully")
}

// probeWidgetScript confirms the payment widget script is reachable
// before any payment screen is served.
func probeWidgetScript(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, widgetScriptURL, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("widget script: %s", resp.Status)
	}
	return nil
}

// Close gracefully shuts down all resources
func (a *App) Close() {
	if a.Flows != nil {
		a.Flows.Stop()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
}
