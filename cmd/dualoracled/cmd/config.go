package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/paw-chain/dualoracle/x/dualoracle/types"
)

const (
	envPrefix      = "DUALORACLE"
	configFileName = "dualoracled"

	defaultDBBackend    = "goleveldb"
	defaultPollInterval = 5 * time.Second
	defaultWorkers      = 8
	defaultMetricsAddr  = ":36660"
	defaultAuthority    = "dualoracle-admin"
)

// Config is the daemon configuration, read from <home>/dualoracled.toml and
// DUALORACLE_* environment variables.
type Config struct {
	Home         string        `mapstructure:"home"`
	DBBackend    string        `mapstructure:"db-backend"`
	Genesis      string        `mapstructure:"genesis"`
	Authority    string        `mapstructure:"authority"`
	PollInterval time.Duration `mapstructure:"poll-interval"`
	Workers      int           `mapstructure:"workers"`
	MetricsAddr  string        `mapstructure:"metrics-addr"`

	Log      LogConfig      `mapstructure:"log"`
	Stream   StreamConfig   `mapstructure:"stream"`
	Attested AttestedConfig `mapstructure:"attested"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StreamConfig points at the websocket price stream. An empty URL leaves
// every stream provider unavailable.
type StreamConfig struct {
	URL       string `mapstructure:"url"`
	CacheSize int    `mapstructure:"cache-size"`
}

// AttestedConfig points at the attested price service. An empty URL leaves
// every attested provider unavailable.
type AttestedConfig struct {
	URL               string        `mapstructure:"url"`
	RequestsPerSecond float64       `mapstructure:"requests-per-second"`
	Burst             int           `mapstructure:"burst"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// DefaultHome returns ~/.dualoracled, or the working directory when the
// user home cannot be resolved.
func DefaultHome() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ".dualoracled"
	}
	return filepath.Join(userHome, ".dualoracled")
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("home", DefaultHome())
	v.SetDefault("db-backend", defaultDBBackend)
	v.SetDefault("genesis", "")
	v.SetDefault("authority", defaultAuthority)
	v.SetDefault("poll-interval", defaultPollInterval)
	v.SetDefault("workers", defaultWorkers)
	v.SetDefault("metrics-addr", defaultMetricsAddr)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("stream.url", "")
	v.SetDefault("stream.cache-size", 1024)
	v.SetDefault("attested.url", "")
	v.SetDefault("attested.requests-per-second", 10.0)
	v.SetDefault("attested.burst", 5)
	v.SetDefault("attested.timeout", 10*time.Second)
}

// newViper builds a viper instance with defaults and environment overrides.
func newViper() *viper.Viper {
	v := viper.New()
	setConfigDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads the config file under home (if present) and decodes the
// merged settings.
func LoadConfig(v *viper.Viper) (Config, error) {
	home := v.GetString("home")
	v.SetConfigName(configFileName)
	v.SetConfigType("toml")
	v.AddConfigPath(home)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Genesis == "" {
		cfg.Genesis = filepath.Join(cfg.Home, "genesis.json")
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Home == "" {
		return fmt.Errorf("home must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be positive, got %s", c.PollInterval)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if strings.TrimSpace(c.Authority) == "" {
		return fmt.Errorf("authority must not be empty")
	}
	if c.Attested.RequestsPerSecond < 0 {
		return fmt.Errorf("attested.requests-per-second must not be negative")
	}
	switch c.Log.Format {
	case "json", "plain":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// DataDir is where the state database lives.
func (c Config) DataDir() string {
	return filepath.Join(c.Home, "data")
}

// AdminAuthority returns the authority admin commands are checked against.
func (c Config) AdminAuthority() types.AdminAuthority {
	return types.StaticAuthority(c.Authority)
}
