// Command fakeapi runs the development booking backend the client talks to.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/skyclient/api"
	"github.com/Domenick1991/skyclient/config"
	"github.com/Domenick1991/skyclient/internal/bootstrap"
	"github.com/Domenick1991/skyclient/internal/cache"
	"github.com/Domenick1991/skyclient/internal/fakeapi"
	"github.com/Domenick1991/skyclient/internal/kafka"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repositories struct {
	users    repository.UserRepository
	flights  repository.FlightRepository
	bookings repository.BookingRepository
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.NewStructured("error", "console").Error("load config", map[string]interface{}{"error": err})
		os.Exit(1)
	}
	log := logger.NewStructured(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Server.Validate(); err != nil {
		log.Error("invalid server configuration", map[string]interface{}{"error": err})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server error", map[string]interface{}{"error": err})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	repos, closeRepos, err := openRepositories(ctx, cfg.Server, log)
	if err != nil {
		return err
	}
	defer closeRepos()

	flights, err := fakeapi.LoadCatalog(cfg.Server.SeedFile, time.Now())
	if err != nil {
		return err
	}
	if err := repos.flights.Upsert(ctx, flights); err != nil {
		return err
	}
	log.Info("flight catalog loaded", map[string]interface{}{"flights": len(flights)})

	var bookingOpts []fakeapi.BookingServiceOption
	if cfg.Cache.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Cache.Redis, cfg.Cache.FlightsTTL())
		defer redisCache.Close()
		bookingOpts = append(bookingOpts, fakeapi.WithSeatLocker(redisCache))
	}
	if cfg.Server.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Server.Kafka.Brokers, log)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.Warn("kafka not reachable, booking events may be lost", map[string]interface{}{"error": err})
		}
		bookingOpts = append(bookingOpts, fakeapi.WithEvents(producer, cfg.Server.Kafka.BookingEventsTopic))
	}

	tokens := fakeapi.NewTokenIssuer(cfg.Server.JWTSecret, cfg.Server.TokenTTL(), nil)
	services := api.Services{
		Auth:     fakeapi.NewAuthService(repos.users, tokens, log),
		Flights:  fakeapi.NewCatalogService(repos.flights),
		Bookings: fakeapi.NewBookingService(repos.bookings, repos.flights, log, bookingOpts...),
	}

	gin.SetMode(gin.ReleaseMode)
	return bootstrap.Run(ctx, cfg.Server.Address, api.NewRouter(services, log), log)
}

// openRepositories uses Postgres when a DSN is configured and process
// memory otherwise.
func openRepositories(ctx context.Context, cfg config.ServerConfig, log logger.Logger) (repositories, func(), error) {
	if cfg.DatabaseDSN == "" {
		log.Info("no database configured, using in-memory repositories", nil)
		return repositories{
			users:    repository.NewMemoryUserRepository(),
			flights:  repository.NewMemoryFlightRepository(),
			bookings: repository.NewMemoryBookingRepository(),
		}, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		return repositories{}, nil, err
	}
	applied, err := repository.Migrate(ctx, pool)
	if err != nil {
		pool.Close()
		return repositories{}, nil, err
	}
	log.Info("database ready", map[string]interface{}{"migrations_applied": applied})

	return repositories{
		users:    repository.NewUserRepository(pool),
		flights:  repository.NewFlightRepository(pool),
		bookings: repository.NewBookingRepository(pool),
	}, pool.Close, nil
}
