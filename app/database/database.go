package database

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/puestito/ventas-pos/app/config"
	"github.com/puestito/ventas-pos/app/logging"
)

//go:embed migrations/*.sql
var migrations embed.FS

const slowQueryThreshold = 500 * time.Millisecond

// Open connects gorm to PostgreSQL through the configured driver and applies
// the pool settings. The connection is verified before returning.
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	dialector := postgres.New(postgres.Config{
		DriverName: cfg.Driver,
		DSN:        cfg.DSN(),
	})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(logging.StdLogger(logger, zapcore.WarnLevel), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "connect to %s:%d/%s", cfg.Host, cfg.Port, cfg.Name)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get sql.DB")
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

// Ping checks that the database answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate applies every pending embedded migration.
func Migrate(cfg config.DatabaseConfig, logger *zap.Logger) error {
	return runMigrations(cfg, logger, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown rolls back every embedded migration.
func MigrateDown(cfg config.DatabaseConfig, logger *zap.Logger) error {
	return runMigrations(cfg, logger, func(m *migrate.Migrate) error { return m.Down() })
}

func newMigrate(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open embedded migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "create migrator")
	}
	return m, nil
}

func runMigrations(cfg config.DatabaseConfig, logger *zap.Logger, step func(*migrate.Migrate) error) error {
	m, err := newMigrate(cfg)
	if err != nil {
		return err
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn("failed to close migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return pkgerrors.Wrap(err, "run migrations")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return pkgerrors.Wrap(err, "read migration version")
	}
	logger.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
