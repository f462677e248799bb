package config

const (
	EnvPrefix = "RBH"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "RBH_APP_ENV"
	EnvPort   = "RBH_APP_PORT"

	EnvDBDSN    = "RBH_DB_DSN"
	EnvDBDriver = "RBH_DB_DRIVER"
	EnvDBHost   = "RBH_DB_HOST"
	EnvDBUser   = "RBH_DB_USER"
	EnvDBName   = "RBH_DB_NAME"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvRedisURL = "RBH_REDIS_URL"

	EnvJWTSecret              = "RBH_JWT_SECRET"
	EnvJWTIssuer              = "RBH_JWT_ISSUER"
	EnvJWTExpMins             = "RBH_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "RBH_REFRESH_TOKEN_TTL_MINUTES"

	EnvCORSAllowedOrigins = "RBH_CORS_ALLOWED_ORIGINS"
	EnvGuestCartTTL       = "RBH_GUEST_CART_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
