// Package bootstrap wires the runtime dependencies shared by the server
// and operator commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"librarium/internal/cache"
	"librarium/internal/config"
	"librarium/internal/database"
	"librarium/internal/middleware"
	"librarium/internal/models"
	"librarium/internal/observability"
	"librarium/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const serviceVersion = "1.0.0"

// Runtime holds the connections a process needs. Redis may be nil.
type Runtime struct {
	DB              *gorm.DB
	Redis           *redis.Client
	shutdownTracing func(context.Context) error
}

// InitRuntime configures tracing, connects to the database and Redis and, in
// development, makes sure the configured root admin exists.
func InitRuntime(cfg *config.Config) (*Runtime, error) {
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "librarium-api",
		ServiceVersion: serviceVersion,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   1,
	})
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)

	if err := EnsureDevRootAdmin(cfg, db); err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	return &Runtime{DB: db, Redis: cache.GetClient(), shutdownTracing: shutdownTracing}, nil
}

// Close flushes pending spans. Database and Redis are closed by their owner.
func (r *Runtime) Close(ctx context.Context) error {
	if r == nil || r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}

// EnsureDevRootAdmin creates or promotes the DEV_ROOT_ADMIN_* account. It is a
// no-op outside development or when no email is configured.
func EnsureDevRootAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || !cfg.IsDevelopment() {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.DevRootAdminEmail))
	if email == "" {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootAdminUsername)
	if username == "" {
		username = "root"
	}
	password := cfg.DevRootAdminPassword
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("DEV_ROOT_ADMIN_PASSWORD: %w", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("LOWER(email) = ?", email).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash root password: %w", err)
			}
			root = models.User{
				Email:    email,
				Username: username,
				Password: string(hashed),
				IsActive: true,
				IsAdmin:  true,
			}
			return tx.Create(&root).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&models.User{}).Where("id = ?", root.ID).
				Updates(map[string]any{"is_admin": true, "is_active": true}).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development root admin ensured", slog.String("email", email))
	return nil
}
