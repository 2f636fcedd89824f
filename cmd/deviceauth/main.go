package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MrEthical07/deviceauth"
	"github.com/MrEthical07/deviceauth/authstate"
	"github.com/MrEthical07/deviceauth/biometric"
	"github.com/MrEthical07/deviceauth/directory"
	"github.com/MrEthical07/deviceauth/kv"
	"github.com/MrEthical07/deviceauth/metrics/export/prometheus"
	"github.com/MrEthical07/deviceauth/vault"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "deviceauth:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.level()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	dir, err := directory.OpenSQLite(ctx, filepath.Join(cfg.DataDir, "users.db"))
	if err != nil {
		return err
	}
	defer dir.Close()

	signingKey, retiredKeys, err := loadSessionKeys(cfg.DataDir, cfg.SessionKeyID)
	if err != nil {
		return fmt.Errorf("session key: %w", err)
	}
	deviceSecret := []byte(cfg.DeviceSecret)
	if len(deviceSecret) == 0 {
		if deviceSecret, err = loadOrCreateSecret(cfg.DataDir, "device.secret", 32); err != nil {
			return fmt.Errorf("device secret: %w", err)
		}
	}
	credVault, err := vault.NewFileVault(cfg.DataDir, deviceSecret)
	if err != nil {
		return err
	}

	engineCfg := deviceauth.DefaultConfig()
	engineCfg.Lockout.MaxAttempts = cfg.MaxAttempts
	engineCfg.Lockout.Duration = cfg.Lockout
	engineCfg.Session.TTL = cfg.SessionTTL
	engineCfg.Session.PrivateKey = signingKey
	engineCfg.Session.KeyID = cfg.SessionKeyID
	engineCfg.Session.VerifyKeys = retiredKeys
	engineCfg.Registration.EnforceFormat = cfg.EnforceFormat
	engineCfg.Storage.KeyPrefix = cfg.KeyPrefix
	engineCfg.Vault.SaveOnLogin = cfg.SaveOnLogin

	builder := deviceauth.New().
		WithConfig(engineCfg).
		WithStore(store).
		WithDirectory(dir).
		WithVault(credVault).
		WithLogger(logger)

	if cfg.Passcode != "" {
		sensor := biometric.NewTerminalSensor(os.Stdin, os.Stdout, cfg.Passcode)
		builder.WithBiometric(biometric.NewPrompt(sensor, biometric.WithLogger(logger)))
	}

	if cfg.AuditLog != "" {
		f, err := os.OpenFile(cfg.AuditLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("audit log: %w", err)
		}
		defer f.Close()
		builder.WithAuditSink(deviceauth.NewJSONWriterSink(f))
	} else {
		builder.WithAuditSink(deviceauth.NewSlogSink(logger))
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	for _, w := range engineCfg.Lint() {
		logger.Info("config lint", "code", w.Code, "message", w.Message)
	}

	if cfg.MetricsAddr != "" {
		srv := metricsServer(cfg.MetricsAddr, engine)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("metrics listening", "addr", cfg.MetricsAddr)
	}

	provider := authstate.New(engine, authstate.WithLogger(logger))
	r := newREPL(engine, provider, bufio.NewReader(os.Stdin), os.Stdout)
	r.readSecret = terminalSecret(r)

	provider.Load(ctx)
	return r.run(ctx)
}

func openStore(cfg cliConfig) (kv.Store, error) {
	switch cfg.Store {
	case "memory":
		return kv.NewMemory(), nil
	case "redis":
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{cfg.RedisAddr},
		})
		return kv.NewRedis(client, cfg.RedisPrefix), nil
	default:
		return kv.OpenBolt(filepath.Join(cfg.DataDir, "state.db"), "deviceauth")
	}
}

func metricsServer(addr string, engine *deviceauth.Engine) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", prometheus.NewExporter(engine).Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
