package config

const EnvPrefix = "CELLARWISE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "CELLARWISE_APP_ENV"
	EnvPort     = "CELLARWISE_APP_PORT"
	EnvDBDSN    = "CELLARWISE_DB_DSN"
	EnvDBHost   = "CELLARWISE_DB_HOST"
	EnvDBUser   = "CELLARWISE_DB_USER"
	EnvDBName   = "CELLARWISE_DB_NAME"
	EnvRedisURL = "CELLARWISE_REDIS_URL"

	EnvAuthIssuer = "CELLARWISE_AUTH_ISSUER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
