package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zerbitx/mockit/config"
	"github.com/zerbitx/mockit/mockit"
	"github.com/zerbitx/mockit/redis"
	"github.com/zerbitx/mockit/seed"
	"github.com/zerbitx/mockit/store"
)

func main() {
	cfg := config.New()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	var backend store.Backend = store.NewMemory()
	if cfg.RedisAddr != "" {
		backend = redis.NewFromAddr(cfg.RedisAddr)
	}

	st := store.New(backend,
		store.WithLogger(logger),
		store.WithOverrideTTL(time.Duration(cfg.OverrideTTL)*time.Second),
		store.WithMappingTTL(time.Duration(cfg.MappingTTL)*time.Second),
	)

	// Try to load a seed file
	{
		seedYaml, err := os.OpenFile(cfg.SeedFilePath, os.O_RDONLY, 0644)

		// No seed...no problem
		if err == nil {
			s, err := seed.Load(seedYaml)
			if err != nil {
				log.Fatalf("Failed to decode seed file: %s", err)
			}

			if err := s.Apply(context.Background(), st); err != nil {
				log.Fatalf("failed to apply seed: %s", err)
			}

			seedYaml.Close()
		}
	}

	m := mockit.New(st,
		mockit.WithLogger(logger),
		mockit.WithHost(cfg.Host),
		mockit.WithPort(cfg.Port),
		mockit.WithBasePath(cfg.BasePath),
	)

	log.Fatal(m.Start())
}
