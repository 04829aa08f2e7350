package config

import (
	"fmt"
	"time"

	"github.com/mailprobe/mailprobe/internal/db"
	"github.com/spf13/viper"
)

// Config bundles every runtime setting for the server.
type Config struct {
	ListenAddr  string
	LogLevel    string
	LogFormat   string
	CORSOrigins []string
	Database    db.Config
	Verifier    VerifierConfig
}

// VerifierConfig selects and tunes the email classifier implementation.
type VerifierConfig struct {
	// Mode is "simulated" or "http".
	Mode     string
	Endpoint string
	APIKey   string
	// Delay is the per-call latency of the simulated classifier.
	Delay time.Duration
	// Timeout bounds each call of the HTTP classifier.
	Timeout time.Duration
}

// Load reads config.yaml from configPath and applies environment overrides
// (prefix MAILPROBE, e.g. MAILPROBE_DATABASE_HOST).
func Load(configPath string) (Config, error) {
	cfg := Config{
		ListenAddr:  ":8080",
		LogLevel:    "info",
		LogFormat:   "text",
		CORSOrigins: []string{"http://localhost:3000"},
		Database:    db.DefaultConfig(),
		Verifier: VerifierConfig{
			Mode:    "simulated",
			Delay:   100 * time.Millisecond,
			Timeout: 10 * time.Second,
		},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("MAILPROBE")

	for _, key := range []string{
		"server.addr",
		"logging.level",
		"logging.format",
		"cors.origins",
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"verifier.mode",
		"verifier.endpoint",
		"verifier.api_key",
		"verifier.delay_ms",
		"verifier.timeout_ms",
	} {
		if err := v.BindEnv(key); err != nil {
			return cfg, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found: defaults plus env vars still apply.
		fmt.Println("No config.yaml found, using defaults and env vars")
	}

	if v.IsSet("server.addr") {
		cfg.ListenAddr = v.GetString("server.addr")
	}
	if v.IsSet("logging.level") {
		cfg.LogLevel = v.GetString("logging.level")
	}
	if v.IsSet("logging.format") {
		cfg.LogFormat = v.GetString("logging.format")
	}
	if v.IsSet("cors.origins") {
		cfg.CORSOrigins = v.GetStringSlice("cors.origins")
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	if v.IsSet("verifier.mode") {
		cfg.Verifier.Mode = v.GetString("verifier.mode")
	}
	if v.IsSet("verifier.endpoint") {
		cfg.Verifier.Endpoint = v.GetString("verifier.endpoint")
	}
	if v.IsSet("verifier.api_key") {
		cfg.Verifier.APIKey = v.GetString("verifier.api_key")
	}
	if v.IsSet("verifier.delay_ms") {
		cfg.Verifier.Delay = time.Duration(v.GetInt("verifier.delay_ms")) * time.Millisecond
	}
	if v.IsSet("verifier.timeout_ms") {
		cfg.Verifier.Timeout = time.Duration(v.GetInt("verifier.timeout_ms")) * time.Millisecond
	}

	if cfg.Verifier.Mode == "http" && cfg.Verifier.Endpoint == "" {
		return cfg, fmt.Errorf("verifier.endpoint is required when verifier.mode is http")
	}

	return cfg, nil
}
