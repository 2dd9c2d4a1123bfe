package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/config"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/events/kafka"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/events/logsink"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/httpapi"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/identity"
	interfaces "github.com/sheikh-saqib/bookkeeping-approvals/internal/interfaces"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/ledger"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/session"
	"github.com/sheikh-saqib/bookkeeping-approvals/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	flags.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	flags.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "postgres connection string; empty uses in-memory stores")
	flags.StringSliceVar(&cfg.KafkaBrokers, "kafka-brokers", cfg.KafkaBrokers, "kafka brokers for record notifications; empty logs them instead")
	flags.StringVar(&cfg.KafkaTopic, "kafka-topic", cfg.KafkaTopic, "kafka topic for record notifications")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (DEBUG, INFO, WARN, ERROR)")
	flags.BoolVar(&cfg.AutoProvisionOwner, "auto-provision-owner", cfg.AutoProvisionOwner, "assign the owner role to unknown actors")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer stores.Close()

	var sink interfaces.NotificationSink = logsink.New(logger)
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaCompression)
		if err != nil {
			return err
		}
		defer publisher.Close()
		sink = publisher
	}

	sessions, err := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return err
	}

	resolver := identity.NewResolver(stores.Roles,
		identity.WithAutoProvisionOwner(cfg.AutoProvisionOwner),
		identity.WithLogger(logger),
	)
	if cfg.AutoProvisionOwner {
		logger.Warn("auto-provisioning of owner roles is enabled")
	}
	ledgerService := ledger.NewLedger(stores.Records, resolver,
		ledger.WithNotificationSink(sink),
		ledger.WithLogger(logger),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewServer(ledgerService, resolver, sessions, logger).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr, "postgres", cfg.DatabaseURL != "", "kafka", len(cfg.KafkaBrokers) > 0)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
