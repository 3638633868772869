package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/duaragha/cat-tracker-sub000/common/logger"
	commonredis "github.com/duaragha/cat-tracker-sub000/common/redis"
	"github.com/duaragha/cat-tracker-sub000/internal/config"
	"github.com/duaragha/cat-tracker-sub000/internal/store"
	tracksync "github.com/duaragha/cat-tracker-sub000/internal/sync"
	"github.com/duaragha/cat-tracker-sub000/internal/workingset"
)

var (
	configPath string
	serverURL  string
	offline    bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "cat-tracker",
	Short:         "cat-tracker records your cat's litter, food, sleep, weight, photos and treats",
	Long:          "cat-tracker is an offline-first client: every change is saved locally first and synced to the cat-tracker API when it is reachable.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default: <data dir>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL (overrides CAT_TRACKER_SERVER)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Work on the local cache only")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// app is what a command runs against.
type app struct {
	cfg    *config.ClientConfig
	log    *zap.Logger
	ws     *workingset.Store
	remote *tracksync.Client
	kv     store.KV
}

func loadConfig() (*config.ClientConfig, error) {
	path := configPath
	if path == "" {
		if dir := os.Getenv("CAT_TRACKER_DATA_DIR"); dir != "" {
			path = filepath.Join(dir, "config.yaml")
		} else if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".cat-tracker", "config.yaml")
		}
	}
	cfg, err := config.LoadClient(path)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.Server = strings.TrimRight(serverURL, "/")
	}
	return cfg, nil
}

func newLogger(cfg *config.ClientConfig) (*zap.Logger, error) {
	lc := cfg.Log
	// console output goes to stderr so it never mixes with command output
	lc.Format = "console"
	switch {
	case verbose:
		lc.Level = "debug"
	case os.Getenv("LOG_LEVEL") == "":
		lc.Level = "warn"
	}
	return logger.New(lc, "cat-tracker")
}

func newKV(cfg *config.ClientConfig, log *zap.Logger) (store.KV, func(), error) {
	switch cfg.CacheBackend {
	case "redis":
		client := commonredis.NewRedisClient(&cfg.Redis)
		return store.NewRedisKV(client), func() { _ = commonredis.Close(client) }, nil
	default:
		kv, err := store.NewFileKV(cfg.CacheDir(), log)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() {}, nil
	}
}

// withStore builds the working set, starts it, runs fn and closes it again.
// Close pushes anything fn changed when the API is reachable.
func withStore(ctx context.Context, opts workingset.Options, fn func(a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	kv, closeKV, err := newKV(cfg, log)
	if err != nil {
		return err
	}
	defer closeKV()

	remote := tracksync.NewClient(cfg.Server, cfg.RequestTimeout, log)
	opts.Debounce = cfg.SyncDebounce
	opts.Interval = cfg.SyncInterval
	opts.ProbeInterval = cfg.ProbeInterval
	opts.RequestTimeout = cfg.RequestTimeout
	opts.Offline = opts.Offline || offline
	opts.Logger = log

	ws := workingset.New(kv, remote, opts)
	if err := ws.Start(ctx); err != nil {
		return err
	}
	runErr := fn(&app{cfg: cfg, log: log, ws: ws, remote: remote, kv: kv})
	if err := ws.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func run(cmd *cobra.Command, fn func(a *app) error) error {
	return withStore(cmd.Context(), workingset.Options{}, fn)
}

// offlineOptions is for commands that must not reconcile with the API first.
func offlineOptions() workingset.Options {
	return workingset.Options{Offline: true}
}
