package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	CORS          CORSConfig
	Stream        StreamConfig
	Cache         CacheConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values that parse but cannot run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("%s must not be blank", EnvJWTSecret)
	}
	if c.JWT.ExpirationMinutes <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpMinutes)
	}
	if c.Stream.Heartbeat <= 0 {
		return fmt.Errorf("%s must be positive", EnvStreamHeartbeat)
	}
	if c.Stream.SubscriberBuffer <= 0 {
		return fmt.Errorf("%s must be positive", EnvStreamBuffer)
	}
	if _, err := c.App.Location(); err != nil {
		return fmt.Errorf("invalid app timezone %q: %w", c.App.Timezone, err)
	}
	switch strings.ToLower(c.App.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", c.App.LogFormat)
	}
	if c.Cron.Enabled && c.Cron.Interval <= 0 {
		return fmt.Errorf("cron interval must be positive when cron is enabled")
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"TABLEORDER_APP_ENV" required:"true"`
	Port         string `envconfig:"TABLEORDER_APP_PORT" required:"true"`
	Name         string `envconfig:"TABLEORDER_APP_NAME" default:"tableorder-api"`
	LogLevel     string `envconfig:"TABLEORDER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TABLEORDER_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"TABLEORDER_LOG_FORMAT" default:"json"`
	Timezone     string `envconfig:"TABLEORDER_APP_TIMEZONE" default:"Asia/Seoul"`
}

// Location resolves the business timezone used for day boundaries.
func (a AppConfig) Location() (*time.Location, error) {
	if strings.TrimSpace(a.Timezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(a.Timezone)
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"TABLEORDER_DB_DSN"`
	Driver     string `envconfig:"TABLEORDER_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"TABLEORDER_DB_SQLITE_PATH" default:"tableorder.db"`

	LegacyHost     string `envconfig:"TABLEORDER_DB_HOST"`
	LegacyPort     int    `envconfig:"TABLEORDER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TABLEORDER_DB_USER"`
	LegacyPassword string `envconfig:"TABLEORDER_DB_PASSWORD"`
	LegacyName     string `envconfig:"TABLEORDER_DB_NAME"`
	LegacySSLMode  string `envconfig:"TABLEORDER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TABLEORDER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TABLEORDER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TABLEORDER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TABLEORDER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TABLEORDER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TABLEORDER_REDIS_ADDR"`
	Password     string        `envconfig:"TABLEORDER_REDIS_PASSWORD"`
	DB           int           `envconfig:"TABLEORDER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TABLEORDER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TABLEORDER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TABLEORDER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TABLEORDER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TABLEORDER_REDIS_WRITE_TIMEOUT" default:"5s"`

	IdempotencyTTL time.Duration `envconfig:"TABLEORDER_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TABLEORDER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TABLEORDER_JWT_ISSUER" default:"tableorder"`
	ExpirationMinutes int    `envconfig:"TABLEORDER_JWT_EXPIRATION_MINUTES" default:"960"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TABLEORDER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TABLEORDER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TABLEORDER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TABLEORDER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TABLEORDER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"TABLEORDER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentityLimit int           `envconfig:"TABLEORDER_AUTH_RATE_LIMIT_LOGIN_IDENTITY_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"TABLEORDER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"30"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"TABLEORDER_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

type StreamConfig struct {
	Heartbeat        time.Duration `envconfig:"TABLEORDER_STREAM_HEARTBEAT" default:"30s"`
	SubscriberBuffer int           `envconfig:"TABLEORDER_STREAM_SUBSCRIBER_BUFFER" default:"64"`
}

type CacheConfig struct {
	MenuTTL time.Duration `envconfig:"TABLEORDER_CACHE_MENU_TTL" default:"1h"`
}

type CronConfig struct {
	Enabled           bool          `envconfig:"TABLEORDER_CRON_ENABLED" default:"true"`
	Interval          time.Duration `envconfig:"TABLEORDER_CRON_INTERVAL" default:"5m"`
	LockTTL           time.Duration `envconfig:"TABLEORDER_CRON_LOCK_TTL" default:"4m"`
	JobTimeout        time.Duration `envconfig:"TABLEORDER_CRON_JOB_TIMEOUT" default:"1m"`
	StaleSessionAfter time.Duration `envconfig:"TABLEORDER_CRON_STALE_SESSION_AFTER" default:"0"`
	HistoryRetention  time.Duration `envconfig:"TABLEORDER_CRON_HISTORY_RETENTION" default:"0"`
}

type FeatureFlagsConfig struct {
	UseSQLite          bool `envconfig:"TABLEORDER_USE_SQLITE" default:"false"`
	AllowDevMigrations bool `envconfig:"TABLEORDER_ALLOW_DEV_MIGRATIONS" default:"true"`
	EnableWebsocket    bool `envconfig:"TABLEORDER_ENABLE_WEBSOCKET" default:"false"`
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
