package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/loan-tracker/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewPostgresHandle returns a lazily connected handle to the loans database.
func NewPostgresHandle(cfg config.DatabaseConfig, log logrus.FieldLogger) *Handle[*sqlx.DB] {
	return NewHandle("postgres", DialPostgres(cfg, log), func(db *sqlx.DB) error {
		return db.Close()
	}, log)
}

// DialPostgres connects, configures the pool and, if enabled, migrates the schema.
func DialPostgres(cfg config.DatabaseConfig, log logrus.FieldLogger) DialFunc[*sqlx.DB] {
	return func(ctx context.Context) (*sqlx.DB, error) {
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.URL)
		if err != nil {
			return nil, err
		}

		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

		if cfg.AutoMigrate {
			if err := Migrate(db, log); err != nil {
				db.Close()
				return nil, err
			}
		}

		return db, nil
	}
}

// Migrate applies the embedded schema migrations.
func Migrate(db *sqlx.DB, log logrus.FieldLogger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("schema is up to date")
	}

	return nil
}
