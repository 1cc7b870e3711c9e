package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"indorunners-backend-go/internal/config"
	"indorunners-backend-go/internal/db"
	httpapi "indorunners-backend-go/internal/http"
	"indorunners-backend-go/internal/migrations"
	"indorunners-backend-go/internal/rabbit"
	"indorunners-backend-go/internal/services"
	"indorunners-backend-go/internal/store"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("config")
	}

	log, closeLogs := setupLogger(cfg.LogDir, cfg.LogRetentionDays, cfg.LogLevel)
	defer closeLogs()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	defer conn.Close()
	if err := migrations.Apply(conn); err != nil {
		log.Fatal().Err(err).Msg("migrations")
	}
	if applied, err := migrations.Applied(conn); err == nil {
		log.Info().Strs("versions", applied).Msg("schema ready")
	}
	st := store.New(conn, cfg.QueryTimeout())

	publisher := services.NopPublisher()
	if cfg.AMQPURL != "" {
		client, err := rabbit.Dial(cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq")
		}
		defer client.Close()
		publisher = client
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := services.NewMetricsHub(log)
	go hub.Run(ctx)

	server := httpapi.NewServer(cfg, st, hub, publisher, log)
	go metricsLoop(ctx, server)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("shutdown complete")
}

func metricsLoop(ctx context.Context, server *httpapi.Server) {
	ticker := time.NewTicker(server.Config.MetricsInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now().UTC()
			sample, err := services.CaptureMetrics(ctx, server.Store, server.Config.MetricsDiskPath, now)
			if err != nil {
				server.Log.Warn().Err(err).Msg("metrics capture")
				continue
			}
			server.MetricsHub.Broadcast(sample)
			if _, err := server.Store.PruneMetricSamples(ctx, now.Add(-server.Config.MetricsRetention())); err != nil {
				server.Log.Warn().Err(err).Msg("metrics prune")
			}
		case <-ctx.Done():
			return
		}
	}
}
