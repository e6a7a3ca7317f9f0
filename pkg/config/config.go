package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Orders        OrdersConfig
	Notifications NotificationsConfig
	Outbox        OutboxConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VELAMART_APP_ENV" required:"true"`
	Port         string `envconfig:"VELAMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VELAMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VELAMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VELAMART_DB_DSN"`
	Driver string `envconfig:"VELAMART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"VELAMART_DB_HOST"`
	Port     int    `envconfig:"VELAMART_DB_PORT" default:"5432"`
	User     string `envconfig:"VELAMART_DB_USER"`
	Password string `envconfig:"VELAMART_DB_PASSWORD"`
	Name     string `envconfig:"VELAMART_DB_NAME"`
	SSLMode  string `envconfig:"VELAMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VELAMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VELAMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VELAMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VELAMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VELAMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VELAMART_REDIS_ADDR"`
	Password     string        `envconfig:"VELAMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"VELAMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VELAMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VELAMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VELAMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VELAMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VELAMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VELAMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VELAMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VELAMART_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VELAMART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VELAMART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VELAMART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VELAMART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VELAMART_ARGON_KEY_LEN" default:"32"`
}

// OrdersConfig tunes order-engine behavior.
type OrdersConfig struct {
	// RestockOnCancel restores item stock when an order is cancelled. Off by
	// default to match the historical behavior of the platform.
	RestockOnCancel     bool `envconfig:"VELAMART_ORDERS_RESTOCK_ON_CANCEL" default:"false"`
	OrderNumberAttempts int  `envconfig:"VELAMART_ORDERS_NUMBER_ATTEMPTS" default:"5"`
}

type NotificationsConfig struct {
	CacheTTL time.Duration `envconfig:"VELAMART_NOTIFICATIONS_CACHE_TTL" default:"5m"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"VELAMART_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"VELAMART_OUTBOX_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"VELAMART_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VELAMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VELAMART_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for envVar, value := range map[string]string{
		"VELAMART_DB_HOST": db.Host,
		"VELAMART_DB_USER": db.User,
		"VELAMART_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, envVar)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either VELAMART_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
