// Package db opens the gorm connection and provides the generic repository used by every feature.
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"

	connectTimeout = 60 * time.Second
	retryInterval  = 3 * time.Second
)

// Config holds the connection settings read from the environment.
type Config struct {
	Driver        string `env:"DB_DRIVER,default=postgres"`
	Host          string `env:"DB_HOST,default=localhost"`
	Port          string `env:"DB_PORT,default=5432"`
	User          string `env:"DB_USER"`
	Password      string `env:"DB_PASSWORD"`
	Name          string `env:"DB_NAME"`
	SQLitePath    string `env:"DB_SQLITE_PATH,default=sns_backend.db"`
	InstanceName  string `env:"INSTANCE_CONNECTION_NAME"`
	RunMigrations bool   `env:"RUN_MIGRATIONS,default=false"`
}

// BuildDSN returns the data source name for cfg.Driver.
// When InstanceName is set, the Cloud SQL unix socket takes precedence over host and port.
func BuildDSN(cfg Config) string {
	switch cfg.Driver {
	case DriverMySQL:
		if cfg.InstanceName != "" {
			return fmt.Sprintf("%s:%s@unix(/cloudsql/%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
				cfg.User, cfg.Password, cfg.InstanceName, cfg.Name)
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	case DriverSQLite:
		return cfg.SQLitePath
	default:
		host := cfg.Host
		if cfg.InstanceName != "" {
			host = "/cloudsql/" + cfg.InstanceName
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
	}
}

// Dialector returns the gorm dialector for driver.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverPostgres, "":
		return postgres.Open(dsn), nil
	case DriverMySQL:
		return gmysql.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// ConnectWithRetry calls open until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "error", err)
		time.Sleep(retryInterval)
	}
}

// Open connects to the configured database and migrates models when RunMigrations is set.
func Open(cfg Config, models ...any) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)
	if _, err := Dialector(cfg.Driver, dsn); err != nil {
		return nil, err
	}

	db, err := ConnectWithRetry(dsn, connectTimeout, func(dsn string) (*gorm.DB, error) {
		d, _ := Dialector(cfg.Driver, dsn)
		return gorm.Open(d, &gorm.Config{TranslateError: true})
	})
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		slog.Info("migrations applied", "models", len(models))
	}
	return db, nil
}

// IsUniqueViolation reports whether err came from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// MySQL 1062: duplicate entry for a unique key
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
