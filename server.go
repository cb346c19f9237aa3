package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gaorsystempe-cpu/operacionesFeet/businesstime"
	"github.com/gaorsystempe-cpu/operacionesFeet/config"
	"github.com/gaorsystempe-cpu/operacionesFeet/erpsync"
	"github.com/gaorsystempe-cpu/operacionesFeet/middlewares"
	"github.com/gaorsystempe-cpu/operacionesFeet/utils"
	"github.com/gaorsystempe-cpu/operacionesFeet/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := config.EnvString("CORS_ALLOWED_ORIGINS", "")
	if config.IsProduction() {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = utils.SplitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders(middlewares.TokenHeader, middlewares.CorrelationHeader, "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationHeader)
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	return corsConfig
}

func newRouter(logger *logrus.Logger, handlers *erpsync.Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.Use(cors.New(corsConfig()))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true (needs REDIS_ADDRESS)
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if config.EnvBoolDefault("RATE_LIMIT_ENABLED", false) {
		limit := int64(config.IntFromEnv("RATE_LIMIT_MAX_REQUESTS", 600))
		window := time.Duration(config.IntFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
		r.Use(func(c *gin.Context) {
			// Redis connects after the port opens; until then requests pass.
			middlewares.NewRateLimiter(config.GetRedisDB(), limit, window).Middleware()(c)
		})
	}

	r.Use(middlewares.RequestLogger(logger))
	r.Use(gin.Recovery())
	handlers.Register(r, middlewares.TokenMiddleware(config.EnvString("API_TOKEN", "")))
	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	port := config.EnvString("PORT", defaultPort)
	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	settings := config.GetOdooSettings()
	if !settings.Configured() {
		logger.WithFields(logrus.Fields{"field": "odoo"}).Warn("ODOO_URL/ODOO_DB/ODOO_LOGIN/ODOO_API_KEY not set; sync endpoints will answer 503")
	}
	pipeline := workflow.NewPipeline(workflow.OdooConnector(settings), workflow.NewStore(), settings.OrderLimit)
	sessions := erpsync.NewLoginCache(settings, workflow.Login)
	handlers := erpsync.NewHandlers(pipeline, sessions)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: newRouter(logger, handlers),
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectRedisWithRetry(sigCtx, config.IntFromEnv("REDIS_CONNECT_ATTEMPTS", 5))

	if config.EnvBoolDefault("SYNC_ON_START", false) && settings.Configured() {
		go func() {
			ctx := utils.SetTriggerInContext(sigCtx, "startup")
			sess, err := sessions.Session(ctx)
			if err != nil {
				config.LogError(logger, "server.go", "main", "startup login", nil, err)
				return
			}
			if err := pipeline.Fetch(ctx, sess, businesstime.CurrentMonth(time.Now())); err != nil {
				config.LogError(logger, "server.go", "main", "startup sync", nil, err)
			}
		}()
	}

	logger.WithFields(logrus.Fields{
		"info": "Server started",
		"port": port,
	}).Info("reconcile api listening")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	config.CloseRedis()
}
