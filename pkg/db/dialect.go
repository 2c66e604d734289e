package db

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/smallbiznis/tailorbook/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

var ErrMissingPath = errors.New("sqlite database path is empty")

// Driver maps DATABASE_TYPE spellings onto a supported driver name.
func Driver(dbType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(dbType)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database type %q", dbType)
	}
}

// DSN renders the connection string for the configured driver.
func DSN(cfg config.Config) (string, error) {
	driver, err := Driver(cfg.DBType)
	if err != nil {
		return "", err
	}

	switch driver {
	case Postgres:
		sslMode := cfg.DBSSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, sslMode), nil
	case MySQL:
		q := url.Values{}
		q.Set("charset", "utf8mb4")
		q.Set("parseTime", "True")
		q.Set("loc", "UTC")
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, q.Encode()), nil
	default:
		if strings.TrimSpace(cfg.DBPath) == "" {
			return "", ErrMissingPath
		}
		return cfg.DBPath, nil
	}
}

func Dialect(cfg config.Config) (gorm.Dialector, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	driver, _ := Driver(cfg.DBType)
	switch driver {
	case Postgres:
		return postgres.Open(dsn), nil
	case MySQL:
		return mysql.Open(dsn), nil
	default:
		return sqlite.Open(dsn), nil
	}
}
