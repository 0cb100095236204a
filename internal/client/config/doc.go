// Package config loads runtime configuration for the sabo client.
//
// Sources, later ones override earlier ones:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags.
//
// Flags
//
//	-a string   address:port of the mirror server
//	-d string   path of the local SQLite database
//	-t dur      timeout of a single mirror call
//	-m string   Gemini model
//	-e string   .env file holding GEMINI_API_KEY
//	-l string   log level (debug, info, warn, error)
//
// JSON uses timex.Duration, so durations are strings like "10s" or integer
// nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "database_path": "sabo.db",
//	  "remote_timeout": "10s",
//	  "ai_endpoint": "https://generativelanguage.googleapis.com",
//	  "ai_model": "gemini-2.5-flash",
//	  "ai_fallback_models": ["gemini-2.0-flash", "gemini-1.5-flash"],
//	  "ai_timeout": "30s",
//	  "env_file": ".env",
//	  "log_level": "info"
//	}
package config
