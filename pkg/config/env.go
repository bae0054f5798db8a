package config

// EnvPrefix scopes envconfig lookups. Every field also carries its full
// variable name so the tags below stay greppable.
const EnvPrefix = "TABLEORDER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv  = "TABLEORDER_APP_ENV"
	EnvPort    = "TABLEORDER_APP_PORT"
	EnvAppName = "TABLEORDER_APP_NAME"

	EnvDBDSN      = "TABLEORDER_DB_DSN"
	EnvDBHost     = "TABLEORDER_DB_HOST"
	EnvDBUser     = "TABLEORDER_DB_USER"
	EnvDBPassword = "TABLEORDER_DB_PASSWORD"
	EnvDBName     = "TABLEORDER_DB_NAME"
	EnvDBSQLite   = "TABLEORDER_DB_SQLITE_PATH"

	EnvRedisURL = "TABLEORDER_REDIS_URL"

	EnvJWTSecret     = "TABLEORDER_JWT_SECRET"
	EnvJWTIssuer     = "TABLEORDER_JWT_ISSUER"
	EnvJWTExpMinutes = "TABLEORDER_JWT_EXPIRATION_MINUTES"

	EnvCORSOrigins = "TABLEORDER_CORS_ALLOWED_ORIGINS"

	EnvStreamHeartbeat = "TABLEORDER_STREAM_HEARTBEAT"
	EnvStreamBuffer    = "TABLEORDER_STREAM_SUBSCRIBER_BUFFER"

	EnvCronEnabled           = "TABLEORDER_CRON_ENABLED"
	EnvCronStaleSessionAfter = "TABLEORDER_CRON_STALE_SESSION_AFTER"

	EnvUseSQLite = "TABLEORDER_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
