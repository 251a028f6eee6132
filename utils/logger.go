package utils

import (
	"os"

	"go.uber.org/zap"
)

var Logger *zap.Logger

// InitLogger builds the process-wide logger. JSON to stdout so the
// container runtime picks it up; LOG_LEVEL=debug widens it locally.
func InitLogger() {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.InitialFields = map[string]interface{}{"service": "charterbus-web"}
	if os.Getenv("LOG_LEVEL") == "debug" {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	Logger = logger
}
