package config

// EnvPrefix is the envconfig prefix shared by every setting.
const EnvPrefix = "GESTOCK"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "GESTOCK_APP_ENV"
	EnvPort   = "GESTOCK_APP_PORT"
	EnvDBDSN  = "GESTOCK_DB_DSN"
	EnvDBHost = "GESTOCK_DB_HOST"
	EnvDBUser = "GESTOCK_DB_USER"
	EnvDBName = "GESTOCK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
