package config

import (
	"time"

	"github.com/dmitrijs2005/sabo/internal/client/ai"
)

type Config struct {
	ServerEndpointAddr string
	DatabasePath       string
	RemoteTimeout      time.Duration
	AIEndpoint         string
	AIModel            string
	AIFallbackModels   []string
	AITimeout          time.Duration
	EnvFile            string
	LogLevel           string
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "sabo.db"
	c.RemoteTimeout = 10 * time.Second
	c.AIEndpoint = ai.DefaultEndpoint
	c.AIModel = ai.DefaultModel
	c.AIFallbackModels = append([]string(nil), ai.DefaultFallbackModels...)
	c.AITimeout = ai.DefaultTimeout
	c.EnvFile = ".env"
	c.LogLevel = "info"
}

// LoadConfig applies defaults, then the JSON file named in args, then the
// flags in args. args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
