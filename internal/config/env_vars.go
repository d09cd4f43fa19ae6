package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envVar      = "ENV"
	portEnvVar  = "PORT"
	appNameVar  = "APP_NAME"
	logLevelVar = "LOG_LEVEL"

	apiBaseURLVar = "API_BASE_URL"
	apiTimeoutVar = "API_TIMEOUT"

	refreshLeadVar  = "REFRESH_LEAD"
	cookieMaxAgeVar = "COOKIE_MAX_AGE"

	storageVar         = "STORAGE"
	redisAddrVar       = "REDIS_ADDR"
	redisPasswordVar   = "REDIS_PASSWORD"
	redisDBVar         = "REDIS_DB"
	storeSecretVar     = "STORE_SECRET"
	storageTTLVar      = "STORAGE_TTL"
	janitorScheduleVar = "JANITOR_SCHEDULE"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type EnvVars struct {
	v *viper.Viper
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.v.GetString(portEnvVar)
	if port != "" && port[0] != ':' {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.v.GetString(appNameVar)
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.v.GetString(envVar))
}

func (e EnvVars) GetLogLevel() string {
	return e.v.GetString(logLevelVar)
}

type Backend struct {
	v *viper.Viper
}

var _ BackendConfig = Backend{}

// GetAPIBaseURL returns the backend REST API root without a trailing slash
func (b Backend) GetAPIBaseURL() string {
	return strings.TrimRight(b.v.GetString(apiBaseURLVar), "/")
}

func (b Backend) GetAPITimeout() time.Duration {
	return b.v.GetDuration(apiTimeoutVar)
}

type Session struct {
	v *viper.Viper
}

var _ SessionConfig = Session{}

// GetRefreshLead is how long before access token expiry the refresh fires
func (s Session) GetRefreshLead() time.Duration {
	return s.v.GetDuration(refreshLeadVar)
}

func (s Session) GetCookieMaxAge() time.Duration {
	return s.v.GetDuration(cookieMaxAgeVar)
}

type Store struct {
	v *viper.Viper
}

var _ StoreConfig = Store{}

func (s Store) GetStorage() string {
	return strings.ToLower(s.v.GetString(storageVar))
}

func (s Store) GetRedisAddr() string {
	return s.v.GetString(redisAddrVar)
}

func (s Store) GetRedisPassword() string {
	return s.v.GetString(redisPasswordVar)
}

func (s Store) GetRedisDB() int {
	return s.v.GetInt(redisDBVar)
}

// GetStoreSecret enables sealing of stored tokens when non-empty
func (s Store) GetStoreSecret() string {
	return s.v.GetString(storeSecretVar)
}

func (s Store) GetStorageTTL() time.Duration {
	return s.v.GetDuration(storageTTLVar)
}

func (s Store) GetJanitorSchedule() string {
	return s.v.GetString(janitorScheduleVar)
}
