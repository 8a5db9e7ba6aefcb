package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swiftjobs-backend/config"
	_ "swiftjobs-backend/docs" // Important for Swagger
	"swiftjobs-backend/internal/bootstrap"
	"swiftjobs-backend/internal/delivery/http/middleware"
	v1 "swiftjobs-backend/internal/delivery/http/v1"
	"swiftjobs-backend/internal/scheduler"
	"swiftjobs-backend/pkg/auth"
	"swiftjobs-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title           SwiftJobs API
// @version         1.0
// @description     Matching, swipes and salary negotiation for the SwiftJobs job marketplace.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	if err := logger.Init(cfg.LogJSON, cfg.LogDebug); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Log.Sync() //nolint:errcheck
	logger.Log.Info("Starting swiftjobs backend", zap.String("port", cfg.Port))
	if !cfg.LogDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 3. Stores, collaborators and usecases
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	app, err := bootstrap.New(startCtx, cfg, logger.Log)
	cancelStart()
	if err != nil {
		logger.Log.Fatal("Failed to initialise application", zap.Error(err))
	}
	defer app.Close()

	// 4. Stale negotiation sweeper
	sweeper, err := scheduler.NewSweeper(app.Repos.Negotiations, scheduler.Config{
		Spec:   cfg.NegotiationSweepSpec,
		MaxAge: cfg.NegotiationStaleAfter,
	}, app.Metrics, logger.Log.Named("sweeper"))
	if err != nil {
		logger.Log.Fatal("Invalid sweeper configuration", zap.Error(err))
	}
	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	if err := sweeper.Start(runCtx); err != nil {
		logger.Log.Fatal("Failed to start sweeper", zap.Error(err))
	}

	// 5. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ProfileUC:     app.ProfileUC,
		JobUC:         app.JobUC,
		SwipeUC:       app.SwipeUC,
		MatchUC:       app.MatchUC,
		NegotiationUC: app.NegotiationUC,
		HealthUC:      app.HealthUC,
		Verifier:      auth.NewVerifier(cfg.JWTSecret, cfg.JWKSURL),
		RateLimiter:   middleware.NewRateLimiter(app.Redis, logger.Log),
		Metrics:       app.Metrics,
		Config:        cfg,
		Log:           logger.Log,
	})

	// 6. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Listen failed", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	stopRun()
	sweeper.Stop()

	// negotiations run inside requests, so give them time to finish
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ExternalTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exiting")
}
