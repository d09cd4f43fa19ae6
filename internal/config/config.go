package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config interface {
	EnvConfig
	CorsConfig
	BackendConfig
	SessionConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type BackendConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
}

type SessionConfig interface {
	GetRefreshLead() time.Duration
	GetCookieMaxAge() time.Duration
}

type StoreConfig interface {
	GetStorage() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetStoreSecret() string
	GetStorageTTL() time.Duration
	GetJanitorSchedule() string
}

type mainConfig struct {
	EnvVars
	Cors
	Backend
	Session
	Store
}

// New loads the optional .env file for the current ENV and returns a Config
// reading from the process environment.
func New() Config {
	return NewFromViper(load())
}

// NewFromViper wraps an existing viper instance, used by tests.
func NewFromViper(v *viper.Viper) Config {
	setDefaults(v)
	return mainConfig{
		EnvVars: EnvVars{v: v},
		Cors:    Cors{v: v},
		Backend: Backend{v: v},
		Session: Session{v: v},
		Store:   Store{v: v},
	}
}

func load() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	env := os.Getenv(envVar)
	if env == "" {
		env = "DEV"
	}

	// .env files are optional; a missing one is not an error
	dotEnvPath := filepath.Join(".", "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatal().Err(err).Str("path", dotEnvPath).Msg("config: failed to load .env file")
		}
	} else if !os.IsNotExist(err) {
		log.Fatal().Err(err).Str("path", dotEnvPath).Msg("config: failed to stat .env file")
	}

	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(envVar, "DEV")
	v.SetDefault(portEnvVar, "8080")
	v.SetDefault(appNameVar, "Fee Portal")
	v.SetDefault(logLevelVar, "info")

	v.SetDefault(apiBaseURLVar, "http://localhost:5000/api")
	v.SetDefault(apiTimeoutVar, 15*time.Second)

	v.SetDefault(refreshLeadVar, 5*time.Minute)
	v.SetDefault(cookieMaxAgeVar, 7*24*time.Hour)

	v.SetDefault(storageVar, StorageMemory)
	v.SetDefault(redisAddrVar, "localhost:6379")
	v.SetDefault(redisDBVar, 0)
	v.SetDefault(storageTTLVar, 7*24*time.Hour)
	v.SetDefault(janitorScheduleVar, "@every 10m")

	v.SetDefault(allowedOriginsVar, "")
}
