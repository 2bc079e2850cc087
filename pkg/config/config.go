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
	Service      ServiceConfig
	Store        StoreConfig
	DB           DBConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Cart         CartConfig
	Sessions     SessionsConfig
	ServerCalls  ServerCallsConfig
	Catalog      CatalogConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	if cfg.Store.UsesSQL() {
		if err := cfg.DB.EnsureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"TABLESIDE_APP_ENV" required:"true"`
	Port           string   `envconfig:"TABLESIDE_APP_PORT" default:"8080"`
	LogLevel       string   `envconfig:"TABLESIDE_LOG_LEVEL" default:"info"`
	LogFormat      string   `envconfig:"TABLESIDE_LOG_FORMAT" default:"json"`
	LogWarnStack   bool     `envconfig:"TABLESIDE_LOG_WARN_STACK" default:"false"`
	PublicBaseURL  string   `envconfig:"TABLESIDE_PUBLIC_BASE_URL" default:"http://localhost:5173"`
	AllowedOrigins []string `envconfig:"TABLESIDE_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TABLESIDE_SERVICE_KIND" default:"api"`
}

// StoreConfig selects the persistence backend at startup.
type StoreConfig struct {
	Backend string `envconfig:"TABLESIDE_STORE_BACKEND" default:"memory"`
}

func (s StoreConfig) UsesSQL() bool {
	return strings.EqualFold(s.Backend, StoreBackendSQL)
}

func (s StoreConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case StoreBackendMemory, StoreBackendSQL:
		return nil
	}
	return fmt.Errorf("%s must be %q or %q, got %q", EnvStoreBackend, StoreBackendMemory, StoreBackendSQL, s.Backend)
}

type DBConfig struct {
	DSN    string `envconfig:"TABLESIDE_DB_DSN"`
	Driver string `envconfig:"TABLESIDE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TABLESIDE_DB_HOST"`
	LegacyPort     int    `envconfig:"TABLESIDE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TABLESIDE_DB_USER"`
	LegacyPassword string `envconfig:"TABLESIDE_DB_PASSWORD"`
	LegacyName     string `envconfig:"TABLESIDE_DB_NAME"`
	LegacySSLMode  string `envconfig:"TABLESIDE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TABLESIDE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TABLESIDE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TABLESIDE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TABLESIDE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"TABLESIDE_REDIS_URL"`
	Address      string        `envconfig:"TABLESIDE_REDIS_ADDR"`
	Password     string        `envconfig:"TABLESIDE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TABLESIDE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TABLESIDE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TABLESIDE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TABLESIDE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TABLESIDE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TABLESIDE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type KafkaConfig struct {
	Brokers      []string      `envconfig:"TABLESIDE_KAFKA_BROKERS"`
	OrdersTopic  string        `envconfig:"TABLESIDE_KAFKA_ORDERS_TOPIC" default:"tableside.orders"`
	WriteTimeout time.Duration `envconfig:"TABLESIDE_KAFKA_WRITE_TIMEOUT" default:"5s"`
}

func (k KafkaConfig) Enabled() bool {
	for _, broker := range k.Brokers {
		if strings.TrimSpace(broker) != "" {
			return true
		}
	}
	return false
}

type CartConfig struct {
	CacheTTL time.Duration `envconfig:"TABLESIDE_CART_CACHE_TTL" default:"30s"`
	LockTTL  time.Duration `envconfig:"TABLESIDE_CART_LOCK_TTL" default:"10s"`
	LockWait time.Duration `envconfig:"TABLESIDE_CART_LOCK_WAIT" default:"5s"`
}

type SessionsConfig struct {
	MaxAge time.Duration `envconfig:"TABLESIDE_SESSION_MAX_AGE" default:"12h"`
}

// ServerCallsConfig throttles how often one table can call staff. A zero
// limit disables the throttle.
type ServerCallsConfig struct {
	Limit  int64         `envconfig:"TABLESIDE_SERVER_CALL_LIMIT" default:"3"`
	Window time.Duration `envconfig:"TABLESIDE_SERVER_CALL_WINDOW" default:"1m"`
}

// CatalogConfig points at an optional YAML catalog loaded at startup, used to
// give the memory backend a menu.
type CatalogConfig struct {
	SeedFile string `envconfig:"TABLESIDE_CATALOG_SEED_FILE"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"TABLESIDE_CRON_INTERVAL" default:"15m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TABLESIDE_AUTO_MIGRATE" default:"false"`
}

// EnsureDSN fills DSN from the legacy host/user/name variables, or the
// default sqlite file, when it was not given directly.
func (db *DBConfig) EnsureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
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
