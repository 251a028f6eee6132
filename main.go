package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"charterbus/app"
	"charterbus/handlers"
	"charterbus/middleware"
	"charterbus/utils"
)

var serverStartTime time.Time

func main() {
	serverStartTime = time.Now()

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	utils.InitLogger()
	utils.Logger.Info("Starting CharterBus Server...")

	app.Initialize()
	defer app.Instance.Close()

	// Context for background services (cancellation)
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	utils.StartRetentionWorker(bgCtx, app.Instance.Redis)

	// Use release mode in production
	if os.Getenv("GIN_MODE") == "release" || os.Getenv("NODE_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.SetTrustedProxies(nil)

	r.Use(middleware.CORS(app.Instance.Config.PublicBaseURL))

	// Security Middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.RateLimit())
	r.Use(middleware.TimeoutMiddleware())
	r.Use(middleware.MaxBodySize(1 * 1024 * 1024)) // 1MB limit

	// Health Check
	r.GET("/health", func(c *gin.Context) {
		redisStatus := "connected"
		redisLatency := "N/A"
		start := time.Now()
		if _, err := app.Instance.Redis.Ping(c.Request.Context()).Result(); err != nil {
			redisStatus = fmt.Sprintf("error: %v", err)
		} else {
			redisLatency = fmt.Sprintf("%dms", time.Since(start).Milliseconds())
		}

		uptime := time.Since(serverStartTime)
		uptimeStr := fmt.Sprintf("%dd %dh %dm %ds",
			int(uptime.Hours())/24, int(uptime.Hours())%24, int(uptime.Minutes())%60, int(uptime.Seconds())%60)

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"status":  "healthy",
			"server": gin.H{
				"goVersion": runtime.Version(),
				"uptime":    uptimeStr,
				"startedAt": serverStartTime.Format(time.RFC3339),
			},
			"redis": gin.H{"status": redisStatus, "latency": redisLatency},
		})
	})

	// Load Routes (Modular registration with middleware injection)
	requireSession := middleware.RequireSession(app.Instance.Gate)
	handlers.RegisterAuthRoutes(r, requireSession)
	handlers.RegisterBookingRoutes(r, requireSession)
	handlers.RegisterVerificationRoutes(r, requireSession)
	handlers.RegisterReservationRoutes(r, requireSession)
	handlers.RegisterPaymentRoutes(r, requireSession)

	port := app.Instance.Config.Port
	if port == "" {
		port = "8000"
	}

	// Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	log.Printf("🚌 CharterBus Server running on port %s", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 1. Cancel background workers
	bgCancel()

	// 2. Shutdown HTTP server (stop accepting new requests)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// 3. Wait for tracked background tasks (SafeGo) to complete
	log.Println("Waiting for background tasks to drain...")
	utils.WaitForBackgroundTasks(5 * time.Second)

	log.Println("Server exiting")
}
