// Command devserver serves a local stand-in for the notification API: history,
// the live stream, read-state endpoints and a publish endpoint for injecting
// test notifications.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rendezvous-app/webclient/pkg/config"
	"github.com/rendezvous-app/webclient/pkg/httpserver"
	"github.com/rendezvous-app/webclient/pkg/inbox"
	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/redis"
	"github.com/rendezvous-app/webclient/pkg/requestid"
)

type appConfig struct {
	Log   logger.Config
	HTTP  httpserver.Config
	Inbox inbox.Config
	Redis redis.Config
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "devserver:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(append(logger.FromConfig(cfg.Log),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)...)
	logger.SetAsDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := inbox.NewMetrics(reg)

	var (
		storage inbox.Storage
		checks  []httpserver.Check
	)
	switch cfg.Inbox.Storage {
	case inbox.StorageRedis:
		client, err := redis.Connect(ctx, cfg.Redis, redis.WithLogger(log))
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		storage = inbox.NewRedisStorage(client,
			inbox.WithKeyPrefix(cfg.Inbox.KeyPrefix),
			inbox.WithRetention(cfg.Inbox.Retention),
		)
		checks = append(checks, httpserver.Check{Name: "redis", Func: redis.Healthcheck(client)})
	case inbox.StorageMemory, "":
		storage = inbox.NewMemoryStorage()
	default:
		return fmt.Errorf("unknown storage %q", cfg.Inbox.Storage)
	}

	streams := inbox.NewBroadcastDeliverer(cfg.Inbox.StreamBuffer,
		inbox.WithBroadcastLogger(log),
		inbox.WithMaxBroadcasters(cfg.Inbox.MaxBroadcasters),
	)
	manager := inbox.NewManager(storage, streams,
		inbox.WithManagerLogger(log),
		inbox.WithManagerMetrics(metrics),
	)
	handler := inbox.NewHandler(manager, streams,
		inbox.WithHandlerLogger(log),
		inbox.WithHandlerMetrics(metrics),
		inbox.WithHeartbeat(cfg.Inbox.HeartbeatInterval),
		inbox.WithHistoryLimit(cfg.Inbox.HistoryLimit),
	)

	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.RealIP, middleware.Recoverer)
	r.Get("/health", httpserver.HealthCheckHandler(log, 2*time.Second))
	r.Get("/ready", httpserver.HealthCheckHandler(log, 2*time.Second, checks...))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Mount("/", handler.Routes())

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithShutdownHook(func() { _ = streams.Close() }),
	)
	log.InfoContext(ctx, "dev notification backend", slog.String("storage", cfg.Inbox.Storage))
	return srv.Run(ctx, r)
}
