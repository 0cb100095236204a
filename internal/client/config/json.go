package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sabo/internal/flagx"
	"github.com/dmitrijs2005/sabo/internal/timex"
)

// jsonConfig mirrors Config for unmarshalling. Pointer and zero-valued
// fields that are absent from the file leave the current value alone.
type jsonConfig struct {
	ServerEndpointAddr string          `json:"server_endpoint_addr"`
	DatabasePath       string          `json:"database_path"`
	RemoteTimeout      *timex.Duration `json:"remote_timeout"`
	AIEndpoint         string          `json:"ai_endpoint"`
	AIModel            string          `json:"ai_model"`
	AIFallbackModels   []string        `json:"ai_fallback_models"`
	AITimeout          *timex.Duration `json:"ai_timeout"`
	EnvFile            string          `json:"env_file"`
	LogLevel           string          `json:"log_level"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.AIEndpoint, jc.AIEndpoint)
	setString(&cfg.AIModel, jc.AIModel)
	setString(&cfg.EnvFile, jc.EnvFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.AIFallbackModels != nil {
		cfg.AIFallbackModels = jc.AIFallbackModels
	}
	if jc.RemoteTimeout != nil {
		cfg.RemoteTimeout = jc.RemoteTimeout.Duration
	}
	if jc.AITimeout != nil {
		cfg.AITimeout = jc.AITimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
