package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightreserve/api"
	"github.com/Domenick1991/flightreserve/config"
	"github.com/Domenick1991/flightreserve/internal/auth"
	"github.com/Domenick1991/flightreserve/internal/bootstrap"
	"github.com/Domenick1991/flightreserve/internal/cache"
	"github.com/Domenick1991/flightreserve/internal/kafka"
	"github.com/Domenick1991/flightreserve/internal/logger"
	"github.com/Domenick1991/flightreserve/internal/repository"
	"github.com/Domenick1991/flightreserve/internal/service/booking"
	"github.com/Domenick1991/flightreserve/internal/service/flights"
	"github.com/Domenick1991/flightreserve/internal/service/sessions"
	"github.com/Domenick1991/flightreserve/internal/service/users"
	"github.com/gin-gonic/gin"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logg.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		logg.Fatal("migrate", zap.Error(err))
	}

	redisCache := cache.NewRedisCache(cfg.Redis)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		logg.Warn("redis unavailable", zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logg.Named("kafka"))
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		logg.Warn("kafka unavailable, events will be dropped", zap.Error(err))
	}

	tx := repository.NewTxManager(pool)
	userRepo := repository.NewUserRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)

	flightService := flights.NewFlightService(tx, flightRepo, cfg.Catalog.UpcomingLimit, flights.WithLogger(logg.Named("flights")))
	if _, err := flightService.Seed(ctx); err != nil {
		logg.Fatal("seed catalog", zap.Error(err))
	}

	bookingService := booking.NewBookingService(
		tx,
		userRepo,
		flightRepo,
		reservationRepo,
		booking.WithProducer(producer, cfg.Kafka.ReservationTopic),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithLogger(logg.Named("booking")),
	)
	userService := users.NewUserService(tx, userRepo, auth.NewBcryptHasher(cfg.Auth.BcryptCost), bookingService, logg.Named("users"))
	sessionService := sessions.NewSessionService(
		userService,
		auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL()),
		redisCache,
		cfg.Auth.MaxLoginAttempts,
		cfg.Auth.LoginWindow(),
		logg.Named("sessions"),
	)

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterDeps{
		Flights:    flightService,
		Bookings:   bookingService,
		Users:      userService,
		Sessions:   sessionService,
		Log:        logg.Named("http"),
		Health:     pool.Ping,
		SwaggerDir: cfg.HTTP.SwaggerDir,
	})

	if err := bootstrap.Run(ctx, cfg.HTTP, router, logg); err != nil {
		logg.Fatal("server error", zap.Error(err))
	}
}
