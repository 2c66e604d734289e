package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides Config and the hot-reloaded records schema.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewRecordsConfigHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	NodeID      int64

	OTLPEndpoint string

	Records RecordsConfig
	Auth    AuthConfig
	Redis   RedisConfig
	Receipt ReceiptConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// RecordsConfig selects the storage backend and identity strategies.
type RecordsConfig struct {
	Store            string
	Dir              string
	SerialStrategy   string
	BillIdentity     string
	StrictValidation bool
}

type AuthConfig struct {
	Enabled      bool
	Username     string
	PasswordHash string
	Password     string
	SessionTTL   time.Duration
	CookieSecure bool
}

type ReceiptConfig struct {
	ShopName string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

const (
	StoreFile     = "file"
	StoreMemory   = "memory"
	StoreDatabase = "database"

	SerialStrategyScan    = "scan"
	SerialStrategyLocked  = "locked"
	SerialStrategyCounter = "counter"

	BillIdentityTimestamp = "timestamp"
	BillIdentitySnowflake = "snowflake"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	cookieSecure := environment == "production"
	if !cookieSecure {
		cookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	return Config{
		AppName:      getenv("APP_SERVICE", "tailorbook"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  environment,
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		NodeID:       getenvInt64("NODE_ID", 1),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		Records: RecordsConfig{
			Store:            normalizeChoice(getenv("RECORDS_STORE", StoreFile), StoreFile, StoreFile, StoreMemory, StoreDatabase),
			Dir:              strings.TrimSpace(getenv("RECORDS_DIR", ".")),
			SerialStrategy:   normalizeChoice(getenv("RECORDS_SERIAL_STRATEGY", SerialStrategyScan), SerialStrategyScan, SerialStrategyScan, SerialStrategyLocked, SerialStrategyCounter),
			BillIdentity:     normalizeChoice(getenv("RECORDS_BILL_IDENTITY", BillIdentityTimestamp), BillIdentityTimestamp, BillIdentityTimestamp, BillIdentitySnowflake),
			StrictValidation: getenvBool("RECORDS_STRICT_VALIDATION", false),
		},
		Auth: AuthConfig{
			Enabled:      getenvBool("AUTH_ENABLED", false),
			Username:     strings.TrimSpace(getenv("AUTH_USERNAME", "admin")),
			PasswordHash: strings.TrimSpace(getenv("AUTH_PASSWORD_HASH", "")),
			Password:     getenv("AUTH_PASSWORD", ""),
			SessionTTL:   getenvDuration("AUTH_SESSION_TTL", 12*time.Hour),
			CookieSecure: cookieSecure,
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       int(getenvInt64("REDIS_DB", 0)),
			LockTTL:  getenvDuration("REDIS_LOCK_TTL", 5*time.Second),
		},
		Receipt: ReceiptConfig{
			ShopName: strings.TrimSpace(getenv("RECEIPT_SHOP_NAME", "Tailor Book")),
		},
		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "tailorbook"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "tailorbook.db"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 10)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func normalizeChoice(raw, def string, allowed ...string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if value == a {
			return a
		}
	}
	return def
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
