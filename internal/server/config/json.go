package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sabo/internal/flagx"
	"github.com/dmitrijs2005/sabo/internal/timex"
)

// jsonConfig is the DTO read from the JSON file. Absent fields keep the
// value already in Config.
type jsonConfig struct {
	EndpointAddrGRPC string          `json:"endpoint_addr_grpc"`
	Storage          string          `json:"storage"`
	DatabaseDSN      string          `json:"database_dsn"`
	MongoURI         string          `json:"mongo_uri"`
	MongoDatabase    string          `json:"mongo_database"`
	S3RootUser       string          `json:"s3_root_user"`
	S3RootPassword   string          `json:"s3_root_password"`
	S3Bucket         string          `json:"s3_bucket"`
	S3Region         string          `json:"s3_region"`
	S3BaseEndpoint   string          `json:"s3_base_endpoint"`
	RedisURL         *string         `json:"redis_url"`
	SecretKey        string          `json:"secret_key"`
	MetricsAddr      *string         `json:"metrics_addr"`
	CacheTTL         *timex.Duration `json:"cache_ttl"`
	PutRateLimit     *float64        `json:"put_rate_limit"`
	PutBurst         *int            `json:"put_burst"`
	LogLevel         string          `json:"log_level"`
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

	for dst, v := range map[*string]string{
		&cfg.EndpointAddrGRPC: jc.EndpointAddrGRPC,
		&cfg.Storage:          jc.Storage,
		&cfg.DatabaseDSN:      jc.DatabaseDSN,
		&cfg.MongoURI:         jc.MongoURI,
		&cfg.MongoDatabase:    jc.MongoDatabase,
		&cfg.S3RootUser:       jc.S3RootUser,
		&cfg.S3RootPassword:   jc.S3RootPassword,
		&cfg.S3Bucket:         jc.S3Bucket,
		&cfg.S3Region:         jc.S3Region,
		&cfg.S3BaseEndpoint:   jc.S3BaseEndpoint,
		&cfg.SecretKey:        jc.SecretKey,
		&cfg.LogLevel:         jc.LogLevel,
	} {
		if v != "" {
			*dst = v
		}
	}
	// Optional addresses may be switched off with "".
	if jc.RedisURL != nil {
		cfg.RedisURL = *jc.RedisURL
	}
	if jc.MetricsAddr != nil {
		cfg.MetricsAddr = *jc.MetricsAddr
	}
	if jc.CacheTTL != nil {
		cfg.CacheTTL = jc.CacheTTL.Duration
	}
	if jc.PutRateLimit != nil {
		cfg.PutRateLimit = *jc.PutRateLimit
	}
	if jc.PutBurst != nil {
		cfg.PutBurst = *jc.PutBurst
	}
	return nil
}
