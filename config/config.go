package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr         string
	DBUrl        string
	TokenSecret  string
	TokenTTL     time.Duration
	GeminiAPIKey string
	Debug        bool
}

// ParseFlags reads command-line flags and the process environment. An
// optional .env file in the working directory is loaded first, so that
// `flask run`-style local setups keep working after the rewrite.
func ParseFlags() (cfg Config, err error) {
	_ = godotenv.Load()

	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 5000, "listen port number (default 5000)")
	flag.StringVar(&cfg.DBUrl, "db-url", "promptform.sqlite", "path to SQLite3 DB file (default promptform.sqlite)")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", 1800, "access token TTL in seconds (default 1800)")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second

	if dbUrl := os.Getenv("DATABASE_URL"); dbUrl != "" {
		cfg.DBUrl = dbUrl
	}

	cfg.TokenSecret = os.Getenv("SECRET_KEY")
	if cfg.TokenSecret == "" {
		err = errors.New("missing environment variable SECRET_KEY")
		return
	}

	// Both variable names are accepted, GOOGLE_API_KEY wins.
	cfg.GeminiAPIKey = os.Getenv("GOOGLE_API_KEY")
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	return
}

// Url returns the base URL the server is reachable at, used to build
// public form links.
func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
