package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightreserve/config"
	"github.com/Domenick1991/flightreserve/internal/audit"
	"github.com/Domenick1991/flightreserve/internal/kafka"
	"github.com/Domenick1991/flightreserve/internal/logger"
	"github.com/Domenick1991/flightreserve/internal/notify"
	"github.com/Domenick1991/flightreserve/internal/repository"
	"github.com/go-co-op/gocron/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logg.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	auditor := audit.NewAuditor(repository.NewReservationRepository(pool), logg.Named("audit"))

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logg.Fatal("create scheduler", zap.Error(err))
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(time.Duration(cfg.Worker.AuditIntervalMinutes)*time.Minute),
		gocron.NewTask(func() {
			if _, err := auditor.Run(ctx); err != nil {
				logg.Error("audit run", zap.Error(err))
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logg.Fatal("schedule audit", zap.Error(err))
	}
	scheduler.Start()

	notifier := notify.NewNotifier(logg.Named("notify"))
	var consumer *kafka.Consumer
	if cfg.Kafka.NotificationsTopic != "" {
		consumer = kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logg.Named("kafka"))
		go func() {
			if err := consumer.ConsumeEvents(ctx, notifier.Send); err != nil && ctx.Err() == nil {
				logg.Error("consumer stopped", zap.Error(err))
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	logg.Info("shutting down", zap.String("signal", s.String()))

	cancel()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logg.Warn("close consumer", zap.Error(err))
		}
	}
	if err := scheduler.Shutdown(); err != nil {
		logg.Warn("stop scheduler", zap.Error(err))
	}
}
