package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/sabo/internal/flagx"
	"github.com/dmitrijs2005/sabo/internal/logging"
	"github.com/dmitrijs2005/sabo/internal/server"
	"github.com/dmitrijs2005/sabo/internal/server/auth"
	"github.com/dmitrijs2005/sabo/internal/server/config"
)

func main() {
	args := os.Args[1:]

	cfg, err := config.LoadConfig(args)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(2)
	}

	// -mint-token <user> prints a development access token and exits.
	var mintUser string
	var mintTTL time.Duration
	fs := flag.NewFlagSet("mint", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&mintUser, "mint-token", "", "user id to mint an access token for")
	fs.DurationVar(&mintTTL, "mint-ttl", 24*time.Hour, "validity of the minted token")
	_ = fs.Parse(flagx.FilterArgs(args, []string{"-mint-token", "-mint-ttl"}))
	if mintUser != "" {
		tok, err := auth.GenerateToken(mintUser, []byte(cfg.SecretKey), mintTTL)
		if err != nil {
			log.Printf("%v", err)
			os.Exit(1)
		}
		fmt.Println(tok)
		return
	}

	ctx := context.Background()
	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	app.Run(ctx)
}
