// Package config loads settings from .env, an optional config.yaml and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/newbeeR2020/habit-tracker-setup/internal/credential"
	"github.com/newbeeR2020/habit-tracker-setup/internal/setup"
)

const envPrefix = "HABIT"

// Config holds every tunable of the setup tool. The zero-config defaults
// reproduce the fixed path and placeholder credential. An empty ProjectID
// means the credential's project_id is used.
type Config struct {
	ProjectID       string        `mapstructure:"project_id"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	CredentialsJSON string        `mapstructure:"credentials_json"`
	Collection      string        `mapstructure:"collection"`
	Document        string        `mapstructure:"document"`
	Timeout         time.Duration `mapstructure:"timeout"`
	EmulatorHost    string        `mapstructure:"emulator_host"`
	LogLevel        string        `mapstructure:"log_level"`

	Server struct {
		Addr           string   `mapstructure:"addr"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"server"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project_id", "")
	v.SetDefault("credentials_file", "")
	v.SetDefault("credentials_json", "")
	v.SetDefault("collection", setup.DefaultCollection)
	v.SetDefault("document", setup.DefaultDocument)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("emulator_host", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("server.addr", ":4000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
}

func loadFromEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("emulator_host", "HABIT_EMULATOR_HOST", "FIRESTORE_EMULATOR_HOST")
	_ = v.BindEnv("credentials_file", "HABIT_CREDENTIALS_FILE", "FIREBASE_CREDENTIALS_PATH")
	_ = v.BindEnv("credentials_json", "HABIT_CREDENTIALS_JSON", "FIREBASE_CREDENTIALS")
	_ = v.BindEnv("port", "PORT")
}

// Load reads .env (if present), then configFile or ./config.yaml, then the
// environment. An explicit configFile that cannot be read is an error; a
// missing default file is not.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()
	return load(viper.New(), configFile)
}

func load(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)
	loadFromEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); configFile != "" || !notFound {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if port := v.GetString("port"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Collection == "" || c.Document == "" {
		return fmt.Errorf("collection and document must be set")
	}
	if strings.Contains(c.Collection, "/") || strings.Contains(c.Document, "/") {
		return fmt.Errorf("collection and document must not contain '/'")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// Target returns the document the initializer writes. The message is fixed.
func (c *Config) Target() setup.Target {
	return setup.Target{
		Collection: c.Collection,
		Document:   c.Document,
		Message:    setup.DefaultMessage,
	}
}

// Credential resolves the service account: inline JSON first, then a key
// file, else the placeholder record. Parse failures are returned so they are
// reported as credential errors.
func (c *Config) Credential() (credential.ServiceAccount, error) {
	switch {
	case c.CredentialsJSON != "":
		return credential.Parse([]byte(c.CredentialsJSON))
	case c.CredentialsFile != "":
		return credential.Load(c.CredentialsFile)
	default:
		return credential.Placeholder(), nil
	}
}
