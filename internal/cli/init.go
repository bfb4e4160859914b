// Package cli provides the initialization steps of cmd/pdv.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pdv/internal/config"
	"pdv/internal/ledger"
	"pdv/internal/ledger/memory"
	"pdv/internal/log"
	"pdv/internal/storage"
)

// SetupLogger builds the application logger from configuration and makes it
// the process default.
func SetupLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	if cfg != nil {
		lc.Level = log.ParseLevel(cfg.LogLevel)
		lc.Format = cfg.LogFormat
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error; it is optional in production.
func LoadEnvFile(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadAndValidateConfig loads configuration, applies overrides in order and
// validates the result.
func LoadAndValidateConfig(overrides ...func(*config.Config)) (*config.Config, error) {
	cfg := config.Load()
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLedgerFactory returns the per-session ledger constructor for backend.
func NewLedgerFactory(backend string) (ledger.Factory, error) {
	switch backend {
	case ledger.BackendMemory, "":
		return memory.NewFactory(), nil
	case ledger.BackendSQLite:
		return storage.NewFactory(), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", backend)
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
