package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finsight-labs/finsight/internal/bootstrap"
	"github.com/finsight-labs/finsight/internal/config"
	"github.com/finsight-labs/finsight/internal/observability/logging"
	"github.com/finsight-labs/finsight/internal/observability/metrics"
)

const serviceName = "finsight-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	handler := func(handlerCtx context.Context, documentID string) error {
		workerMetrics.StartDocument()
		start := time.Now()

		if doc, err := app.Documents.GetAny(handlerCtx, documentID); err == nil {
			workerMetrics.ObserveQueueLag(serviceName, time.Since(doc.CreatedAt))
		}

		processCtx, cancel := context.WithTimeout(handlerCtx, cfg.ProcessTimeout)
		defer cancel()

		err := app.Processor.ProcessByID(processCtx, documentID)
		workerMetrics.FinishDocument(serviceName, time.Since(start), err)
		return err
	}

	// The failure hook runs outside the handler, including on panics, so a
	// crashed pipeline still parks the document in `failed`.
	onFailure := func(failureCtx context.Context, documentID string, handlerErr error) {
		markCtx, cancel := context.WithTimeout(context.WithoutCancel(failureCtx), 10*time.Second)
		defer cancel()
		if err := app.Documents.MarkFailed(markCtx, documentID); err != nil {
			logger.Error("mark failed after handler error", "document_id", documentID, "error", err)
		}
	}

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	if err := app.Queue.Subscribe(ctx, handler, onFailure); err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
