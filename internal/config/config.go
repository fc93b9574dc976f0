package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Backend BackendConfig
	Mirror  MirrorConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port          int
	SessionTTL    time.Duration
	SessionSecret string
}

type StorageConfig struct {
	Backend       string // "sqlite" or "redis"
	DataDir       string
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
}

// BackendConfig locates the remote Appwrite project.
type BackendConfig struct {
	Endpoint              string
	ProjectID             string
	DatabaseID            string
	CollectionPortfolio   string
	CollectionProjects    string
	CollectionInternships string
	// AdminUserID empty makes every remote write fail closed.
	AdminUserID string
}

type MirrorConfig struct {
	QueueSize int
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:       4080,
			SessionTTL: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Backend:     "sqlite",
			DataDir:     defaultDataDir(),
			RedisAddr:   "localhost:6379",
			RedisPrefix: "folio:",
		},
		Backend: BackendConfig{
			Endpoint:              "https://cloud.appwrite.io/v1",
			CollectionPortfolio:   "portfolio",
			CollectionProjects:    "projects",
			CollectionInternships: "internships",
		},
		Mirror: MirrorConfig{
			QueueSize: 64,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/folio/config.json, then applies FOLIO_* environment
// overrides. Secrets come from the environment or the secrets file at
// $XDG_DATA_HOME/folio/secrets.json; a session secret is generated and
// stored there on first use.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()), newFileSecrets(secretsFilePath()))
}

func loadWith(b ConfigBackend, secrets SecretStore) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := applySecrets(&cfg, secrets); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applySecrets(cfg *Config, secrets SecretStore) error {
	if cfg.Storage.RedisPassword == "" {
		if v, err := secrets.Get("storage.redis_password"); err == nil {
			cfg.Storage.RedisPassword = v
		}
	}

	if cfg.Server.SessionSecret != "" {
		return nil
	}
	if v, err := secrets.Get("server.session_secret"); err == nil && v != "" {
		cfg.Server.SessionSecret = v
		return nil
	}
	v, err := generateSecret()
	if err != nil {
		return fmt.Errorf("generating session secret: %w", err)
	}
	if err := secrets.Set("server.session_secret", v); err != nil {
		return fmt.Errorf("storing session secret: %w", err)
	}
	cfg.Server.SessionSecret = v
	return nil
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (c Config) validate() error {
	switch c.Storage.Backend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("invalid storage.backend %q: must be sqlite or redis", c.Storage.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("invalid server.session_ttl %s", c.Server.SessionTTL)
	}
	return nil
}
