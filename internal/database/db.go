package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tenant-deployment-system/internal/config"
	"tenant-deployment-system/internal/model"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table owned by this service, parents before children.
var Models = []any{
	&model.Tenant{},
	&model.License{},
	&model.LicenseFeature{},
	&model.LicenseCheck{},
	&model.Deployment{},
	&model.User{},
	&model.LoginLog{},
	&model.OperationLog{},
}

func dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.Open(cfg.Database.DSN), nil
	case "sqlite", "":
		dsn := cfg.Database.DSN
		if !strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, ":memory:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		if !strings.Contains(dsn, "foreign_keys") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_pragma=foreign_keys(1)"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// Open connects to the configured store and applies the pool settings.
func Open(cfg *config.Config) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := logger.Info
	if cfg.App.Env == "production" {
		level = logger.Warn
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: NewZapGormLogger(zap.L(), level, cfg.App.Env != "production"),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	zap.L().Info("database connection configured", zap.String("driver", cfg.Database.Driver))
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// EnsureAdmin creates the default admin account when none exists.
func EnsureAdmin(db *gorm.DB, password string) error {
	var adminCount int64
	if err := db.Model(&model.User{}).Where("username = ?", "admin").Count(&adminCount).Error; err != nil {
		return err
	}
	if adminCount > 0 {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &model.User{
		Username:  "admin",
		Password:  string(hashedPassword),
		Email:     "admin@example.com",
		Role:      model.RoleAdmin,
		Status:    "active",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("create admin account: %w", err)
	}

	zap.L().Info("default admin account created")
	return nil
}
