package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/asset-portal/internal"
	"github.com/frahmantamala/asset-portal/internal/core/datamodel/clientstate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open connects to the configured driver and applies pending migrations.
func Open(ctx context.Context, cfg internal.StorageConfig) (*gorm.DB, error) {
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, Dialect(cfg.Driver), "up"); err != nil {
		return nil, err
	}
	return db, nil
}

// Connect opens the configured database without touching its schema.
func Connect(cfg internal.StorageConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.Source)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.Source)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if cfg.Driver != "postgres" {
		// a single connection keeps ":memory:" databases coherent
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Ping checks the underlying connection.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate runs a goose command ("up", "down", "status", ...) against the embedded migrations.
func Migrate(ctx context.Context, db *gorm.DB, dialect, command string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql db: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Dialect maps a storage driver name to its goose dialect.
func Dialect(driver string) string {
	if driver == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Load(ctx context.Context) (string, error) {
	var entry clientstate.Entry
	err := s.db.WithContext(ctx).Where(&clientstate.Entry{Key: TokenKey}).Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load token: %w", err)
	}
	return entry.Value, nil
}

func (s *GormStore) Save(ctx context.Context, token string) error {
	entry := clientstate.Entry{Key: TokenKey, Value: token, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *GormStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Delete(&clientstate.Entry{Key: TokenKey}).Error; err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
