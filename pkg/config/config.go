package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "bulkbuy"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "BULKBUY_APP_ENV"
	EnvDBDSN  = "BULKBUY_DB_DSN"
	EnvDBHost = "BULKBUY_DB_HOST"
	EnvDBUser = "BULKBUY_DB_USER"
	EnvDBName = "BULKBUY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	FeatureFlags  FeatureFlagsConfig
	Consolidation ConsolidationConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	CORS          CORSConfig
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
	Env          string `envconfig:"BULKBUY_APP_ENV" required:"true"`
	Port         string `envconfig:"BULKBUY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BULKBUY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BULKBUY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BULKBUY_DB_DSN"`
	Driver string `envconfig:"BULKBUY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BULKBUY_DB_HOST"`
	LegacyPort     int    `envconfig:"BULKBUY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BULKBUY_DB_USER"`
	LegacyPassword string `envconfig:"BULKBUY_DB_PASSWORD"`
	LegacyName     string `envconfig:"BULKBUY_DB_NAME"`
	LegacySSLMode  string `envconfig:"BULKBUY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BULKBUY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BULKBUY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BULKBUY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BULKBUY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BULKBUY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BULKBUY_REDIS_ADDR"`
	Password     string        `envconfig:"BULKBUY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BULKBUY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BULKBUY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BULKBUY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BULKBUY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BULKBUY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BULKBUY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BULKBUY_AUTO_MIGRATE" default:"false"`
}

// ConsolidationConfig tunes the lot rebuild behavior.
type ConsolidationConfig struct {
	// RebuildOnSplit triggers a lot rebuild automatically when a cart is
	// split to lots, in addition to the manual admin endpoint.
	RebuildOnSplit bool `envconfig:"BULKBUY_CONSOLIDATION_REBUILD_ON_SPLIT" default:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BULKBUY_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BULKBUY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BULKBUY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic           string `envconfig:"BULKBUY_PUBSUB_DOMAIN_TOPIC" default:"bulkbuy-domain-events"`
	DomainSubscription    string `envconfig:"BULKBUY_PUBSUB_DOMAIN_SUBSCRIPTION"`
	LogisticsTopic        string `envconfig:"BULKBUY_PUBSUB_LOGISTICS_TOPIC" default:"bulkbuy-logistics-events"`
	LogisticsSubscription string `envconfig:"BULKBUY_PUBSUB_LOGISTICS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BULKBUY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BULKBUY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BULKBUY_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"BULKBUY_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
