package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Tracking     TrackingConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"ASSETFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"ASSETFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ASSETFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ASSETFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ASSETFLOW_DB_DSN"`
	Driver string `envconfig:"ASSETFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ASSETFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"ASSETFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ASSETFLOW_DB_USER"`
	LegacyPassword string `envconfig:"ASSETFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"ASSETFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"ASSETFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ASSETFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ASSETFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ASSETFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ASSETFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ASSETFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ASSETFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"ASSETFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"ASSETFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ASSETFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ASSETFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ASSETFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ASSETFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ASSETFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes how to verify access tokens minted by the identity
// provider. The API only parses tokens; MintActorToken exists for tooling.
type JWTConfig struct {
	Secret            string `envconfig:"ASSETFLOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ASSETFLOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ASSETFLOW_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TrackingConfig tunes movement tracking number allocation.
type TrackingConfig struct {
	SuffixLength int `envconfig:"ASSETFLOW_TRACKING_SUFFIX_LENGTH" default:"8"`
	MaxAttempts  int `envconfig:"ASSETFLOW_TRACKING_MAX_ATTEMPTS" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ASSETFLOW_AUTO_MIGRATE" default:"false"`
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
