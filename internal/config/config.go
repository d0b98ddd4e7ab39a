package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort       = 2333
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "inkstone"
	defaultDBCharset  = "utf8mb4"
	defaultRedisURL   = "redis://localhost:6379/0"
	defaultStaticDir  = "static"
	defaultMediaDir   = "static/media"

	defaultAutosaveDebounceMS   = 2000
	defaultAutosaveBackgroundMS = 30000
	minAutosaveBackgroundMS     = 5000
	defaultRetentionLimit       = 5
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	Database       DatabaseConfig `yaml:"database"`
	RedisURL       string         `yaml:"redis_url"`
	JWTSecret      string         `yaml:"jwt_secret"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Paths          PathsConfig    `yaml:"paths"`
	Autosave       AutosaveConfig `yaml:"autosave"`
	Versions       VersionsConfig `yaml:"versions"`
	Media          MediaConfig    `yaml:"media"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
}

type PathsConfig struct {
	Static string `yaml:"static"`
	Media  string `yaml:"media"`
}

type AutosaveConfig struct {
	DebounceMS   int `yaml:"debounce_ms"`
	BackgroundMS int `yaml:"background_ms"`
}

type VersionsConfig struct {
	RetentionLimit int `yaml:"retention_limit"`
}

type MediaConfig struct {
	AllowedEmbedHosts []string `yaml:"allowed_embed_hosts"`
}

// Load reads the YAML config at path, applying defaults and
// normalization. A missing file at the default path is not an error;
// the defaults are used.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	cfg := defaults()

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	if err := normalize(&cfg); err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	return &cfg, nil
}

func defaults() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseConfig{
			Host:     defaultDBHost,
			Port:     defaultDBPort,
			User:     defaultDBUser,
			Password: defaultDBPassword,
			Name:     defaultDBName,
			Charset:  defaultDBCharset,
		},
		RedisURL: defaultRedisURL,
		Paths: PathsConfig{
			Static: defaultStaticDir,
			Media:  defaultMediaDir,
		},
		Autosave: AutosaveConfig{
			DebounceMS:   defaultAutosaveDebounceMS,
			BackgroundMS: defaultAutosaveBackgroundMS,
		},
		Versions: VersionsConfig{
			RetentionLimit: defaultRetentionLimit,
		},
	}
}

func normalize(cfg *AppConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", cfg.Port)
	}
	if cfg.Env != "development" && cfg.Env != "production" {
		return fmt.Errorf("invalid env %q, expected development or production", cfg.Env)
	}
	if cfg.Database.DSN == "" {
		if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
			return fmt.Errorf("invalid database.port %d, expected 1-65535", cfg.Database.Port)
		}
		if cfg.Database.Charset == "" {
			cfg.Database.Charset = defaultDBCharset
		}
	}
	if cfg.Paths.Static == "" {
		cfg.Paths.Static = defaultStaticDir
	}
	if cfg.Paths.Media == "" {
		cfg.Paths.Media = defaultMediaDir
	}
	if cfg.Autosave.DebounceMS <= 0 {
		cfg.Autosave.DebounceMS = defaultAutosaveDebounceMS
	}
	if cfg.Autosave.BackgroundMS <= 0 {
		cfg.Autosave.BackgroundMS = defaultAutosaveBackgroundMS
	}
	if cfg.Autosave.BackgroundMS < minAutosaveBackgroundMS {
		cfg.Autosave.BackgroundMS = minAutosaveBackgroundMS
	}
	if cfg.Versions.RetentionLimit <= 0 {
		cfg.Versions.RetentionLimit = defaultRetentionLimit
	}
	return nil
}

// DSN builds the MySQL DSN, preferring an explicit database.dsn.
func (c *AppConfig) DSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Database.User, c.Database.Password,
		c.Database.Host, c.Database.Port,
		c.Database.Name, c.Database.Charset)
}

// AutosaveDebounce returns the debounce window as a Duration.
func (c *AppConfig) AutosaveDebounce() time.Duration {
	return time.Duration(c.Autosave.DebounceMS) * time.Millisecond
}

// AutosaveBackground returns the background save interval as a Duration.
func (c *AppConfig) AutosaveBackground() time.Duration {
	return time.Duration(c.Autosave.BackgroundMS) * time.Millisecond
}
