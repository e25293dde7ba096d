// Package config resolves server and client settings from defaults, an
// optional .env file, the environment and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// ErrMissingSecret is returned when no JWT signing secret is configured.
var ErrMissingSecret = errors.New("config: JWT_SECRET (-jwt-key) is required")

// EnvFile is read from the working directory when present.
const EnvFile = ".env"

// Server holds the API server settings.
type Server struct {
	Addr        string  `env:"PORT"`
	DSN         string  `env:"DATABASE_URL"`
	JWTSecret   string  `env:"JWT_SECRET"`
	BasePath    string  `env:"JOBTRACK_BASE_PATH"`
	Env         string  `env:"JOBTRACK_ENV"`
	RateRPS     float64 `env:"JOBTRACK_RATE_RPS"`
	RateBurst   int     `env:"JOBTRACK_RATE_BURST"`
	CORSOrigins string  `env:"JOBTRACK_CORS_ORIGINS"`
	TLSCert     string  `env:"JOBTRACK_TLS_CERT"`
	TLSKey      string  `env:"JOBTRACK_TLS_KEY"`
}

// Development reports whether verbose development logging is requested.
func (c *Server) Development() bool { return strings.EqualFold(c.Env, "development") }

// Origins splits the comma-separated CORS origin list.
func (c *Server) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func defaultServer() Server {
	return Server{
		Addr:        ":5000",
		BasePath:    "/api",
		Env:         "production",
		RateRPS:     10,
		RateBurst:   20,
		CORSOrigins: "*",
	}
}

// LoadServer builds the server configuration from args (without the program name).
func LoadServer(args []string) (*Server, error) {
	cfg := defaultServer()
	if err := loadEnv(&cfg); err != nil {
		return nil, err
	}

	flags := flag.NewFlagSet("jobtrack-server", flag.ContinueOnError)
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address (PORT)")
	flags.StringVar(&cfg.DSN, "dsn", cfg.DSN, "PostgreSQL DSN; empty keeps data in memory (DATABASE_URL)")
	flags.StringVar(&cfg.JWTSecret, "jwt-key", cfg.JWTSecret, "HS256 signing key, required (JWT_SECRET)")
	flags.StringVar(&cfg.BasePath, "base-path", cfg.BasePath, "API mount point (JOBTRACK_BASE_PATH)")
	flags.StringVar(&cfg.Env, "env", cfg.Env, "production or development (JOBTRACK_ENV)")
	flags.Float64Var(&cfg.RateRPS, "rate-rps", cfg.RateRPS, "per-client requests per second, 0 disables (JOBTRACK_RATE_RPS)")
	flags.IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "per-client burst (JOBTRACK_RATE_BURST)")
	flags.StringVar(&cfg.CORSOrigins, "cors-origins", cfg.CORSOrigins, "comma-separated allowed origins (JOBTRACK_CORS_ORIGINS)")
	flags.StringVar(&cfg.TLSCert, "tls-cert", cfg.TLSCert, "TLS certificate (PEM); plain HTTP when empty")
	flags.StringVar(&cfg.TLSKey, "tls-key", cfg.TLSKey, "TLS private key (PEM)")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	cfg.Addr = normalizeAddr(cfg.Addr)
	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, errors.New("config: -tls-cert and -tls-key must be set together")
	}
	return &cfg, nil
}

// Client holds the CLI settings.
type Client struct {
	APIURL string `env:"JOBTRACK_API_URL"`
}

// DefaultAPIURL is used when neither env nor flag names a server.
const DefaultAPIURL = "http://localhost:5000/api"

// LoadClient reads the client settings and returns the remaining positional args.
func LoadClient(args []string) (*Client, []string, error) {
	cfg := Client{APIURL: DefaultAPIURL}
	if err := loadEnv(&cfg); err != nil {
		return nil, nil, err
	}
	flags := flag.NewFlagSet("jobtrack", flag.ContinueOnError)
	flags.StringVar(&cfg.APIURL, "addr", cfg.APIURL, "API base URL (JOBTRACK_API_URL)")
	if err := flags.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &cfg, flags.Args(), nil
}

// loadEnv applies the optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func loadEnv(target any) error {
	if err := godotenv.Load(EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: read %s: %w", EnvFile, err)
	}
	if err := envdecode.Decode(target); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("config: decode env: %w", err)
	}
	return nil
}

// normalizeAddr accepts a bare port number as PORT commonly carries one.
func normalizeAddr(addr string) string {
	if addr == "" || strings.Contains(addr, ":") {
		return addr
	}
	return ":" + addr
}
