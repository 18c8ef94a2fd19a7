package config

import (
	"github.com/kelseyhightower/envconfig"
)

type (
	// Env holds the values of environment variable based configuration
	Env struct {
		Host         string `envconfig:"HOST" default:"127.0.0.1"`
		Port         int    `envconfig:"PORT" default:"8080"`
		BasePath     string `envconfig:"MOCKIT_BASE_PATH" default:""`
		SeedFilePath string `envconfig:"MOCKIT_SEED" default:"./mockit.yaml"`
		LogLevel     string `envconfig:"LOG_LEVEL" default:"debug"`
		RedisAddr    string `envconfig:"REDIS_ADDR" default:""`
		OverrideTTL  int    `envconfig:"MOCKIT_OVERRIDE_TTL" default:"600"`
		MappingTTL   int    `envconfig:"MOCKIT_MAPPING_TTL" default:"3600"`
	}
)

// New returns a new Env config
func New() *Env {
	cfg := &Env{}

	envconfig.MustProcess("", cfg)

	return cfg
}
