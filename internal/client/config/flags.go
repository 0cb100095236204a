package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/sabo/internal/flagx"
)

func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-t", "-m", "-e", "-l"})

	fs := flag.NewFlagSet("sabo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the mirror server")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	fs.DurationVar(&cfg.RemoteTimeout, "t", cfg.RemoteTimeout, "timeout of a single mirror call")
	fs.StringVar(&cfg.AIModel, "m", cfg.AIModel, "Gemini model")
	fs.StringVar(&cfg.EnvFile, "e", cfg.EnvFile, ".env file holding GEMINI_API_KEY")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
