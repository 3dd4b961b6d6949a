package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort     = 2333
	defaultEnv      = "development"
	defaultDSN      = "root:password@tcp(127.0.0.1:3306)/voxstory?charset=utf8mb4&parseTime=True&loc=UTC"
	defaultRedisURL = "redis://localhost:6379/0"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	DSN            string         `yaml:"dsn"` // MySQL DSN
	RedisURL       string         `yaml:"redis_url"`
	Env            string         `yaml:"env"` // "development" | "production"
	AllowedOrigins []string       `yaml:"allowed_origins"`
	JWTSecret      string         `yaml:"jwt_secret"`
	Speech         SpeechConfig   `yaml:"speech"`
	Previews       PreviewsConfig `yaml:"previews"`
}

// SpeechConfig selects and configures the synthesis provider.
type SpeechConfig struct {
	// Provider is "elevenlabs" or "openai".
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	// Endpoint overrides the provider base URL (optional).
	Endpoint string `yaml:"endpoint"`
}

// PreviewsConfig configures where generated voice previews are stored.
type PreviewsConfig struct {
	// Backend is "s3" or "local". Empty disables preview generation.
	Backend   string `yaml:"backend"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // S3-compatible endpoint (optional)
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Dir       string `yaml:"dir"` // local backend directory
}

// Load reads the YAML config file and applies defaults. A missing file is not
// an error; env vars fill the gaps so the server can start in containers.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv("VOX_DSN")); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("VOX_REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("VOX_JWT_SECRET")); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")); v != "" && cfg.Speech.APIKey == "" {
		cfg.Speech.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" && cfg.Speech.APIKey == "" {
		cfg.Speech.APIKey = v
		if cfg.Speech.Provider == "" {
			cfg.Speech.Provider = "openai"
		}
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DSN == "" {
		cfg.DSN = defaultDSN
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = defaultRedisURL
	}
	if cfg.Speech.Provider == "" {
		cfg.Speech.Provider = "elevenlabs"
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.ToLower(strings.TrimSpace(c.Env)) != "production"
}
