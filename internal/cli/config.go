package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries the serve command's settings. Values resolve in the usual
// viper order: flags, then BOTFLOW_* environment variables, then the config
// file, then defaults.
type Config struct {
	DBPath       string        `mapstructure:"db"`
	Listen       string        `mapstructure:"listen"`
	WorkflowDir  string        `mapstructure:"workflows"`
	MaxSteps     int           `mapstructure:"max_steps"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("db", "botflow.db")
	v.SetDefault("listen", ":8080")
	v.SetDefault("workflows", "workflows")
	v.SetDefault("max_steps", 0) // 0 = engine default
	v.SetDefault("http_timeout", 10*time.Second)
	v.SetDefault("tick_interval", time.Minute)

	v.SetEnvPrefix("BOTFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// LoadConfig resolves the serve configuration.
func LoadConfig(configFile string) (*Config, error) {
	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
