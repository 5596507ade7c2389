package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/bootstrap"
	"github.com/lam0glia/marketplace-relay/domain"
	"github.com/lam0glia/marketplace-relay/event"
	"github.com/lam0glia/marketplace-relay/http/handler"
	"github.com/lam0glia/marketplace-relay/http/route"
	"github.com/lam0glia/marketplace-relay/repository"
	"github.com/lam0glia/marketplace-relay/service"
	"github.com/lam0glia/marketplace-relay/use_case"
	"github.com/lam0glia/marketplace-relay/worker"
	"github.com/lam0glia/marketplace-relay/zlog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(realMain())
}

// realMain returns the exit code so deferred cleanup runs before os.Exit.
func realMain() int {
	app, err := bootstrap.NewApp()
	if err != nil {
		log.Printf("failed to bootstrap app: %s", err)
		return 1
	}

	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("failed to close app: %s", err)
		}
	}()

	zlog.InitGlobal(app.Logger)

	if err = run(app); err != nil {
		app.Logger.Error("relay stopped", zap.Error(err))
		return 1
	}

	return 0
}

func run(app *bootstrap.App) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := app.Logger

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	zlog.RegisterMetrics(registry)

	var (
		sink    domain.PresenceSink
		workers []worker.Worker
	)

	if app.RedisClient != nil {
		presenceRepository := repository.NewPresence(app.RedisClient, app.Env.PresenceTTL)
		mirror := worker.NewPresenceMirror(
			use_case.NewUpdatePresence(presenceRepository),
			presenceRepository,
			app.Env.PresenceTTL,
			worker.DefaultPresenceQueueSize,
			logger.Named("presence_mirror"),
		)

		sink = mirror
		workers = append(workers, mirror)
	}

	hub := service.NewHub(logger, service.NewMetrics(registry), sink)
	pushOrderStatus := use_case.NewPushOrderStatus(hub)

	if app.RabbitMQConnection != nil {
		orderEvents := event.NewOrderEvents(app.RabbitMQConnection, app.Env.OrderExchange, app.Env.OrderQueue)

		deliveries, err := orderEvents.Consume()
		if err != nil {
			return fmt.Errorf("consume order events: %w", err)
		}

		defer orderEvents.Close()

		workers = append(workers, worker.NewOrderStatus(deliveries, pushOrderStatus, logger.Named("order_worker")))
	}

	for _, w := range workers {
		go w.Run(ctx)
	}

	h := handler.NewHandler(
		handler.NewWebSocket(hub, service.NewSonyflakeUID(app.SonyFlake), app.Env.OriginAllowed, app.Env.SendBufferSize),
		handler.NewOrder(pushOrderStatus),
		handler.NewHealth(hub.Status),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.Env.HTTPPortNumber),
		Handler:           route.Setup(h, app.Env.EnvironmentName, logger, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("listening",
			zap.Int("port", app.Env.HTTPPortNumber),
			zap.Strings("namespaces", []string{
				domain.NamespaceChat,
				domain.NamespaceRefund,
				domain.NamespaceCancellation,
				domain.NamespaceOrder,
			}))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	hub.Shutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	for _, w := range workers {
		select {
		case <-w.Done():
		case <-shutdownCtx.Done():
		}
	}

	return nil
}
