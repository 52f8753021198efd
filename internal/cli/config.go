package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/toyz/mbean/pkg/mbean/adapters"
)

// Config holds the settings shared by every command
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Client    ClientConfig    `mapstructure:"client"`
	Directory DirectoryConfig `mapstructure:"directory"`
	LogLevel  string          `mapstructure:"log_level"`
}

// ServerConfig configures `mbean serve`
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Prefix          string        `mapstructure:"prefix"`
	Adapter         string        `mapstructure:"adapter"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ClientConfig configures the commands that talk to a running server
type ClientConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DirectoryConfig configures publishing bean names to Redis
type DirectoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Node    string `mapstructure:"node"`
	Prefix  string `mapstructure:"prefix"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.prefix", "/mbean")
	v.SetDefault("server.adapter", adapters.Echo)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("client.url", "http://localhost:8080/mbean")
	v.SetDefault("client.timeout", 10*time.Second)
	v.SetDefault("directory.enabled", false)
	v.SetDefault("directory.addr", "localhost:6379")
	v.SetDefault("directory.node", "")
	v.SetDefault("directory.prefix", "mbean:")
	v.SetDefault("log_level", "info")
}

// LoadConfig reads mbean.yaml from the working directory or $HOME/.mbean,
// or from path when it is set. MBEAN_ environment variables override the
// file, for example MBEAN_SERVER_PORT.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mbean")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".mbean"))
		}
	}

	v.SetEnvPrefix("MBEAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server.port must not be empty")
	}
	if !knownAdapter(config.Server.Adapter) {
		return fmt.Errorf("server.adapter %q is not one of %s", config.Server.Adapter, strings.Join(adapters.Names(), ", "))
	}
	if config.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be positive, got %s", config.Client.Timeout)
	}
	if config.Directory.Enabled && config.Directory.Addr == "" {
		return fmt.Errorf("directory.addr is required when the directory is enabled")
	}
	return nil
}

func knownAdapter(name string) bool {
	for _, known := range adapters.Names() {
		if strings.EqualFold(name, known) {
			return true
		}
	}
	return false
}
