// Command notifyfeed follows one role's notifications from the terminal. It
// prints arrivals, rings the terminal bell and accepts the commands list,
// read <id>, readall and quit on stdin. With WIDGET_ADDR set it also serves
// the bell widget stream and metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rendezvous-app/webclient/pkg/backend"
	"github.com/rendezvous-app/webclient/pkg/config"
	"github.com/rendezvous-app/webclient/pkg/httpserver"
	"github.com/rendezvous-app/webclient/pkg/livechannel"
	"github.com/rendezvous-app/webclient/pkg/logger"
	"github.com/rendezvous-app/webclient/pkg/notifications"
	"github.com/rendezvous-app/webclient/pkg/session"
)

type appConfig struct {
	Log        logger.Config
	API        backend.Config
	Session    session.Config
	WidgetAddr string `env:"WIDGET_ADDR"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "notifyfeed:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, in io.Reader, out io.Writer) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	role, err := notifications.ParseRole(cfg.Session.Role)
	if err != nil {
		return err
	}

	// logs go to stderr so they do not interleave with the feed
	log := logger.New(append(logger.FromConfig(cfg.Log), logger.WithOutput(os.Stderr))...)
	logger.SetAsDefault(log)

	client, err := backend.New(cfg.API, backend.WithLogger(log))
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	sess, err := session.New(client, role,
		session.WithLogger(log),
		session.WithConfig(cfg.Session),
		session.WithAlerter(livechannel.NewTerminalBell(out)),
		session.WithRegisterer(reg),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := newConsole(sess, out)
	if err := c.start(ctx); err != nil {
		return err
	}
	defer sess.Close()

	if cfg.WidgetAddr != "" {
		go serveWidget(ctx, cfg.WidgetAddr, sess, reg, log)
	}
	return c.run(ctx, in)
}

func serveWidget(ctx context.Context, addr string, sess *session.Session, reg *prometheus.Registry, log *slog.Logger) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Mount("/bell", sess.Feed().Routes())
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := httpserver.New(httpserver.WithAddr(addr), httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil && !errors.Is(err, context.Canceled) {
		log.ErrorContext(ctx, "widget server stopped", logger.Error(err))
	}
}
