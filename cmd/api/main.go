package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/finsight-labs/finsight/internal/adapters/http"
	"github.com/finsight-labs/finsight/internal/bootstrap"
	"github.com/finsight-labs/finsight/internal/config"
	"github.com/finsight-labs/finsight/internal/observability/logging"
	"github.com/finsight-labs/finsight/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("finsight-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	httpMetrics := metrics.NewHTTPServerMetrics("finsight-api")
	router := httpadapter.NewRouter(httpadapter.RouterConfig{
		Ingestor:  app.Ingestor,
		Lifecycle: app.Lifecycle,
		Analysis:  app.Analysis,
		Auth:      app.Auth,
		Clients:   app.Clients,
		Admin:     app.Admin,
		CA:        app.CA,

		Metrics:        httpMetrics,
		RateLimitRPS:   cfg.APIRateLimitRPS,
		RateLimitBurst: cfg.APIRateLimitBurst,
		MaxUploadSize:  cfg.MaxUploadSize,
	}).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
