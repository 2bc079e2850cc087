package config

const (
	EnvPrefix = "TABLESIDE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StoreBackendMemory = "memory"
	StoreBackendSQL    = "sql"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:tableside.db?_foreign_keys=on"
)

const (
	EnvAppEnv       = "TABLESIDE_APP_ENV"
	EnvPort         = "TABLESIDE_APP_PORT"
	EnvStoreBackend = "TABLESIDE_STORE_BACKEND"
	EnvDBDSN        = "TABLESIDE_DB_DSN"
	EnvDBDriver     = "TABLESIDE_DB_DRIVER"
	EnvDBHost       = "TABLESIDE_DB_HOST"
	EnvDBUser       = "TABLESIDE_DB_USER"
	EnvDBPassword   = "TABLESIDE_DB_PASSWORD"
	EnvDBName       = "TABLESIDE_DB_NAME"
	EnvRedisURL     = "TABLESIDE_REDIS_URL"
	EnvKafkaBrokers = "TABLESIDE_KAFKA_BROKERS"
	EnvCartCacheTTL = "TABLESIDE_CART_CACHE_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
