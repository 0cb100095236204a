package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/sabo/internal/flagx"
)

// parseFlags overlays command-line flags.
//
//	-a string   gRPC bind address (":50051")
//	-storage    postgres, mongo, s3 or memory
//	-d string   PostgreSQL DSN
//	-mongo      MongoDB URI
//	-redis      Redis URL for cross-instance change fan-out
//	-s string   JWT HMAC secret
//	-m string   metrics listen address, "" disables
//	-b string   S3 bucket
//	-e string   S3 base endpoint
//	-l string   log level
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-storage", "-d", "-mongo", "-redis", "-s", "-m", "-b", "-e", "-l"})

	fs := flag.NewFlagSet("sabo-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.EndpointAddrGRPC, "a", cfg.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "document storage backend")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.MongoURI, "mongo", cfg.MongoURI, "MongoDB URI")
	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "Redis URL")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics address")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
