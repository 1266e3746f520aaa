package storage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Config controls how the storage backend is opened.
type Config struct {
	Driver string
	DSN    string
}

// Enabled reports whether run history should be persisted at all.
func (c Config) Enabled() bool {
	return c.Driver != "none"
}

// Open constructs a Storage based on the given configuration.
func Open(ctx context.Context, cfg Config, log logrus.FieldLogger) (Storage, error) {
	drv := cfg.Driver
	if drv == "" {
		drv = "memory"
	}
	switch drv {
	case "memory":
		log.Debug("storage: using in-memory backend")
		return NewMemory(), nil

	case "sqlite", "postgres":
		log.WithField("driver", drv).Info("storage: using gorm backend")
		st, err := NewGormStorage(drv, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := st.Ping(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("storage ping: %w", err)
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("storage migrate: %w", err)
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", drv)
	}
}
