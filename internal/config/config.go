package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"

	"github.com/confscan/confscan/internal/client"
	"github.com/confscan/confscan/internal/conference"
	"github.com/confscan/confscan/internal/token"
)

type Config struct {
	Database    DatabaseConfig     `mapstructure:"database"`
	Logging     LoggingConfig      `mapstructure:"logging"`
	Client      ClientConfig       `mapstructure:"client"`
	Conferences []ConferenceConfig `mapstructure:"conferences"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type ClientConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	Timeouts    TimeoutConfig `mapstructure:"timeouts"`
}

type TimeoutConfig struct {
	Status time.Duration `mapstructure:"status"`
	Lookup time.Duration `mapstructure:"lookup"`
	Search time.Duration `mapstructure:"search"`
	Store  time.Duration `mapstructure:"store"`
	Stats  time.Duration `mapstructure:"stats"`
}

type ConferenceConfig struct {
	Slug    string `mapstructure:"slug"`
	Name    string `mapstructure:"name"`
	Scheme  string `mapstructure:"scheme"`
	Host    string `mapstructure:"host"`
	Token   string `mapstructure:"token"`
	Mode    string `mapstructure:"mode"`
	FieldID int    `mapstructure:"field_id"`
}

func Load() (*Config, error) {
	return LoadWithPath("")
}

func LoadWithPath(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Set default values
	v.SetDefault("database.path", "confscan.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file_path", "confscan.log")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 14)
	v.SetDefault("client.max_attempts", 3)
	v.SetDefault("client.backoff_base", "250ms")
	v.SetDefault("client.timeouts.status", "5s")
	v.SetDefault("client.timeouts.lookup", "10s")
	v.SetDefault("client.timeouts.search", "10s")
	v.SetDefault("client.timeouts.store", "15s")
	v.SetDefault("client.timeouts.stats", "20s")

	// Read environment variables
	v.SetEnvPrefix("CONFSCAN")
	v.AutomaticEnv()

	// Read config file; a missing file means defaults only
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return config, nil
}

// RetryPolicy converts the client section to a client.RetryPolicy.
func (c ClientConfig) RetryPolicy() client.RetryPolicy {
	p := client.DefaultRetryPolicy()
	if c.MaxAttempts > 0 {
		p.MaxAttempts = c.MaxAttempts
	}
	if c.BackoffBase > 0 {
		p.BackoffBase = c.BackoffBase
	}
	return p
}

// ClientTimeouts converts the configured timeout overrides; zero
// values keep the per-operation defaults.
func (c ClientConfig) ClientTimeouts() client.Timeouts {
	return client.Timeouts{
		Status: c.Timeouts.Status,
		Lookup: c.Timeouts.Lookup,
		Search: c.Timeouts.Search,
		Store:  c.Timeouts.Store,
		Stats:  c.Timeouts.Stats,
	}
}

// ToConference converts a configured conference entry to the domain
// model.
func (c ConferenceConfig) ToConference() (conference.Conference, error) {
	conf := conference.Conference{
		Slug:    c.Slug,
		Name:    c.Name,
		Scheme:  c.Scheme,
		Host:    c.Host,
		Token:   c.Token,
		Mode:    token.ScanMode(c.Mode),
		FieldID: c.FieldID,
	}
	if err := conf.Validate(); err != nil {
		return conference.Conference{}, fmt.Errorf("conference %q: %w", c.Slug, err)
	}
	return conf, nil
}
