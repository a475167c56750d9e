package config

const (
	EnvPrefix = "assetflow"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "ASSETFLOW_APP_ENV"
	EnvPort     = "ASSETFLOW_APP_PORT"
	EnvDBDSN    = "ASSETFLOW_DB_DSN"
	EnvDBHost   = "ASSETFLOW_DB_HOST"
	EnvDBUser   = "ASSETFLOW_DB_USER"
	EnvDBName   = "ASSETFLOW_DB_NAME"
	EnvRedisURL = "ASSETFLOW_REDIS_URL"

	EnvJWTSecret  = "ASSETFLOW_JWT_SECRET"
	EnvJWTIssuer  = "ASSETFLOW_JWT_ISSUER"
	EnvJWTExpMins = "ASSETFLOW_JWT_EXPIRATION_MINUTES"

	// DefaultTrackingSuffixLength is the fallback random suffix width for
	// tracking numbers when configuration supplies none.
	DefaultTrackingSuffixLength = 8
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
