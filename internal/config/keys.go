package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "FOLIO_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.session_ttl", typ: kDuration, env: "FOLIO_SERVER_SESSION_TTL",
		apply:   func(cfg *Config, v any) { cfg.Server.SessionTTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Server.SessionTTL },
	},
	{
		key: "server.session_secret", typ: kString, env: "FOLIO_SESSION_SECRET",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.SessionSecret = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.SessionSecret },
	},
	{
		key: "storage.backend", typ: kString, env: "FOLIO_STORAGE_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Storage.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.Backend },
	},
	{
		key: "storage.data_dir", typ: kString, env: "FOLIO_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "storage.redis_addr", typ: kString, env: "FOLIO_STORAGE_REDIS_ADDR",
		apply:   func(cfg *Config, v any) { cfg.Storage.RedisAddr = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.RedisAddr },
	},
	{
		key: "storage.redis_password", typ: kString, env: "FOLIO_REDIS_PASSWORD",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Storage.RedisPassword = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.RedisPassword },
	},
	{
		key: "storage.redis_prefix", typ: kString, env: "FOLIO_STORAGE_REDIS_PREFIX",
		apply:   func(cfg *Config, v any) { cfg.Storage.RedisPrefix = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.RedisPrefix },
	},
	{
		key: "backend.endpoint", typ: kString, env: "FOLIO_BACKEND_ENDPOINT",
		apply:   func(cfg *Config, v any) { cfg.Backend.Endpoint = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.Endpoint },
	},
	{
		key: "backend.project_id", typ: kString, env: "FOLIO_BACKEND_PROJECT_ID",
		apply:   func(cfg *Config, v any) { cfg.Backend.ProjectID = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.ProjectID },
	},
	{
		key: "backend.database_id", typ: kString, env: "FOLIO_BACKEND_DATABASE_ID",
		apply:   func(cfg *Config, v any) { cfg.Backend.DatabaseID = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.DatabaseID },
	},
	{
		key: "backend.collection_portfolio", typ: kString, env: "FOLIO_BACKEND_COLLECTION_PORTFOLIO",
		apply:   func(cfg *Config, v any) { cfg.Backend.CollectionPortfolio = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.CollectionPortfolio },
	},
	{
		key: "backend.collection_projects", typ: kString, env: "FOLIO_BACKEND_COLLECTION_PROJECTS",
		apply:   func(cfg *Config, v any) { cfg.Backend.CollectionProjects = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.CollectionProjects },
	},
	{
		key: "backend.collection_internships", typ: kString, env: "FOLIO_BACKEND_COLLECTION_INTERNSHIPS",
		apply:   func(cfg *Config, v any) { cfg.Backend.CollectionInternships = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.CollectionInternships },
	},
	{
		key: "backend.admin_user_id", typ: kString, env: "FOLIO_BACKEND_ADMIN_USER_ID",
		apply:   func(cfg *Config, v any) { cfg.Backend.AdminUserID = v.(string) },
		extract: func(cfg Config) any { return cfg.Backend.AdminUserID },
	},
	{
		key: "mirror.queue_size", typ: kInt, env: "FOLIO_MIRROR_QUEUE_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Mirror.QueueSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Mirror.QueueSize },
	},
	{
		key: "log.level", typ: kString, env: "FOLIO_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kDuration:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if d, err := time.ParseDuration(v); err == nil {
					s.apply(cfg, d)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kDuration:
			if d, err := time.ParseDuration(raw); err == nil {
				s.apply(cfg, d)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
