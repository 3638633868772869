package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/duaragha/cat-tracker-sub000/common/database"
	"github.com/duaragha/cat-tracker-sub000/common/logger"
	"github.com/duaragha/cat-tracker-sub000/common/mqtt"
	commonredis "github.com/duaragha/cat-tracker-sub000/common/redis"
	"github.com/duaragha/cat-tracker-sub000/internal/config"
	httpapi "github.com/duaragha/cat-tracker-sub000/internal/http"
	"github.com/duaragha/cat-tracker-sub000/internal/repository"
	"github.com/duaragha/cat-tracker-sub000/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log, "cat-tracker-api")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	var (
		db       *sql.DB
		profiles repository.ProfileRepository
		entries  repository.EntriesRepository
	)
	if cfg.MemoryStore {
		mem := repository.NewMemoryRepo()
		profiles, entries = mem.Profiles(), mem.Entries()
		log.Warn("Using in-memory store, data is lost on restart")
	} else {
		var driver string
		db, driver, err = database.Open(&cfg.Database)
		if err != nil {
			return err
		}
		defer database.Close(db)
		log.Info("Database connected", zap.String("driver", driver), zap.String("dsn", cfg.Database.Redacted()))

		if err := database.RunMigrations(db, driver, log); err != nil {
			return err
		}
		profiles = repository.NewSQLProfileRepository(db, driver)
		entries = repository.NewSQLEntriesRepository(db, driver)
	}

	var notifiers service.MultiNotifier
	if cfg.Redis.Enabled {
		redisClient := commonredis.NewRedisClient(&cfg.Redis)
		defer commonredis.Close(redisClient)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := commonredis.Ping(ctx, redisClient)
		cancel()
		if err != nil {
			log.Warn("Redis unreachable, change stream disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			notifiers = append(notifiers, service.NewStreamNotifier(redisClient, cfg.ChangeStream, log))
			log.Info("Publishing changes to Redis stream", zap.String("stream", cfg.ChangeStream))
		}
	}
	if cfg.MQTT.Enabled {
		mc, err := mqtt.NewClient(&cfg.MQTT, log)
		if err != nil {
			log.Warn("MQTT unreachable, change notifications disabled", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		} else {
			defer mc.Disconnect()
			notifiers = append(notifiers, service.NewMQTTNotifier(mc, cfg.MQTT.Topic, cfg.MQTT.QoS, log))
			log.Info("Publishing changes to MQTT", zap.String("topic", cfg.MQTT.Topic))
		}
	}

	var notifier service.Notifier = service.NopNotifier{}
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	svc := service.NewTrackerService(profiles, entries, notifier, log)
	router := httpapi.NewRouter(log)
	router.RegisterTrackerRoutes(httpapi.NewTrackerHandler(svc, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
