package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultAPIKey is the development fallback for auth.apikey. Override it everywhere else.
const DefaultAPIKey = "dev-api-key-change-me"

type Config struct {
	HTTPServer struct {
		Port           int `koanf:"port"`
		MaxHeaderBytes int `koanf:"maxheaderbytes"`
		Timeout        struct {
			Read       time.Duration `koanf:"read"`
			Write      time.Duration `koanf:"write"`
			Idle       time.Duration `koanf:"idle"`
			ReadHeader time.Duration `koanf:"readheader"`
		} `koanf:"timeout"`
	} `koanf:"server"`

	Auth struct {
		APIKey string `koanf:"apikey"`
	} `koanf:"auth"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`

	Metrics struct {
		Enabled bool `koanf:"enabled"`
	} `koanf:"metrics"`

	PProf struct {
		Enabled bool   `koanf:"enabled"`
		Addr    string `koanf:"addr"`
	} `koanf:"pprof"`
}

func (c Config) String() string {
	return fmt.Sprintf("server.port=%d, server.maxHeaderBytes=%d, server.timeout.read=%v, server.timeout.write=%v, server.timeout.idle=%v, server.timeout.readHeader=%v, auth.apiKey=%s, log.level=%s, metrics.enabled=%t, pprof.enabled=%t, pprof.addr=%s",
		c.HTTPServer.Port,
		c.HTTPServer.MaxHeaderBytes,
		c.HTTPServer.Timeout.Read,
		c.HTTPServer.Timeout.Write,
		c.HTTPServer.Timeout.Idle,
		c.HTTPServer.Timeout.ReadHeader,
		maskSecret(c.Auth.APIKey),
		c.Log.Level,
		c.Metrics.Enabled,
		c.PProf.Enabled,
		c.PProf.Addr)
}

// UsesDefaultAPIKey reports whether the development fallback key is active.
func (c Config) UsesDefaultAPIKey() bool {
	return c.Auth.APIKey == DefaultAPIKey
}

func maskSecret(secret string) string {
	if secret == "" {
		return "<not configured>"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + "****"
}

const (
	envPrefix      = "catalog_svc_"
	defaultEnvFile = ".env"
	configFile     = "config.yaml"
)

// envAliases maps bare environment variables to config keys.
var envAliases = map[string]string{
	"port":    "server.port",
	"api_key": "auth.apikey",
}

// defaults are loaded first and overridden by every other source.
var defaults = map[string]any{
	"server.port":               3000,
	"server.maxheaderbytes":     1 << 20,
	"server.timeout.read":       "5s",
	"server.timeout.write":      "10s",
	"server.timeout.idle":       "120s",
	"server.timeout.readheader": "2s",
	"auth.apikey":               DefaultAPIKey,
	"log.level":                 "info",
	"metrics.enabled":           true,
	"pprof.enabled":             false,
	"pprof.addr":                "localhost:6060",
}

// Load reads the configuration from defaults, a file and environment variables
func Load() (*Config, error) {
	return load(configFile, defaultEnvFile)
}

func load(configPath, envPath string) (*Config, error) {
	// Create a new Koanf instance
	var k = koanf.New(".")

	// 1. Built-in defaults, the lowest priority
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	// 2. Load configuration from yaml file
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading YAML config: %v", err)
		}
	}

	// 3. Load environment variables from .env file
	if envFileMap, err := godotenv.Read(envPath); err == nil {
		envMap := make(map[string]interface{})
		for key, value := range envFileMap {
			if cfgKey := keyTransformer(key); cfgKey != "" {
				envMap[cfgKey] = value
			}
		}
		// Load the envMap into Koanf
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	// 4. Load environment variables from the system, the highest priority
	if err := k.Load(env.Provider("", ".", keyTransformer), nil); err != nil {
		log.Printf("WARN: error loading env vars: %v", err)
	}

	var cfg Config
	// 5. Unmarshal the configuration into the Config struct
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// 6. Validate the configuration
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateConfig checks if the configuration values are valid
func validateConfig(cfg Config) error {
	if cfg.HTTPServer.Port <= 0 || cfg.HTTPServer.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", cfg.HTTPServer.Port)
	}
	if cfg.HTTPServer.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", cfg.HTTPServer.Timeout.Read)
	}
	if cfg.HTTPServer.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", cfg.HTTPServer.Timeout.Write)
	}
	if cfg.HTTPServer.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", cfg.HTTPServer.Timeout.Idle)
	}
	if cfg.HTTPServer.Timeout.ReadHeader <= 0 {
		return fmt.Errorf("invalid HTTP server read header timeout: %v", cfg.HTTPServer.Timeout.ReadHeader)
	}
	if strings.TrimSpace(cfg.Auth.APIKey) == "" {
		return fmt.Errorf("API key is not configured")
	}
	if cfg.PProf.Enabled && cfg.PProf.Addr == "" {
		return fmt.Errorf("pprof is enabled but address is not configured")
	}
	return nil
}

// keyTransformer maps environment variable names to config keys.
// Variables outside the service prefix and the aliases are ignored.
func keyTransformer(key string) string {
	key = strings.ToLower(key)
	if alias, ok := envAliases[key]; ok {
		return alias
	}
	if !strings.HasPrefix(key, envPrefix) {
		return ""
	}
	key = strings.TrimPrefix(key, envPrefix)
	return strings.ReplaceAll(key, "_", ".")
}
