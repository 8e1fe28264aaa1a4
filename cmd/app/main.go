// Command app is the command-line travel booking client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/skyclient/config"
	"github.com/Domenick1991/skyclient/internal/cache"
	"github.com/Domenick1991/skyclient/internal/logger"
	"github.com/Domenick1991/skyclient/internal/remote"
	"github.com/Domenick1991/skyclient/internal/service/flights"
	"github.com/Domenick1991/skyclient/internal/session"
	"github.com/Domenick1991/skyclient/internal/storage"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewStructured(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger, args []string) error {
	backend, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Target, err)
	}
	defer backend.Close()

	records, err := storage.NewRecords(backend, log)
	if err != nil {
		return err
	}

	api := remote.NewHTTPClient(cfg.API.BaseURL,
		remote.WithTimeout(cfg.API.Timeout()),
		remote.WithLogger(log),
	)

	var flightCache flights.FlightCache
	if cfg.Cache.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Cache.Redis, cfg.Cache.FlightsTTL())
		defer redisCache.Close()
		flightCache = redisCache
	}

	machine := session.NewMachine(ctx, api, records.Credential, records.Preferences, log)
	defer machine.Close()

	a := newApp(machine, api, flightCache, os.Stdin, os.Stdout, log)
	return a.run(ctx, args)
}
