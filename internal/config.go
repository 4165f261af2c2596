package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Inbound API
	ListenPort int

	// Delegated download daemon
	Aria2RPCURL  string
	Aria2Secret  string
	DownloadDir  string
	PollInterval time.Duration
	// MaxWait bounds AwaitCompletion; zero means wait as long as the
	// daemon reports the job active.
	MaxWait time.Duration

	// CDN upload endpoint
	UploadEndpoint string

	// Catalog persistence
	MongoURI      string
	MongoDatabase string

	// Transfer gate
	SizeLimitMB float64
	// SizeFailClosed rejects files whose size label cannot be parsed
	// instead of treating them as 0 MB.
	SizeFailClosed bool

	// Outbound HTTP
	ResolveTimeout  time.Duration
	TransferTimeout time.Duration
	ProxyURL        string

	// Logging configuration
	LogLevel    string
	Development bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ListenPort:      8080,
		Aria2RPCURL:     "http://localhost:6800/jsonrpc",
		DownloadDir:     "/tmp/terarelay_downloads",
		PollInterval:    2 * time.Second,
		MaxWait:         0,
		UploadEndpoint:  "",
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "terarelay",
		SizeLimitMB:     50,
		SizeFailClosed:  false,
		ResolveTimeout:  30 * time.Second,
		TransferTimeout: 600 * time.Second,
		LogLevel:        "info",
	}
}

// Load builds the configuration from defaults, an optional .env file and
// process environment variables, then validates it.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if port := os.Getenv("TERARELAY_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 && p < 65536 {
			c.ListenPort = p
		}
	}

	if v := os.Getenv("TERARELAY_ARIA2_RPC_URL"); v != "" {
		c.Aria2RPCURL = v
	}
	if v := os.Getenv("TERARELAY_ARIA2_SECRET"); v != "" {
		c.Aria2Secret = v
	}
	if v := os.Getenv("TERARELAY_DOWNLOAD_DIR"); v != "" {
		c.DownloadDir = v
	}
	if v := os.Getenv("TERARELAY_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.PollInterval = d
		}
	}
	if v := os.Getenv("TERARELAY_MAX_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.MaxWait = d
		}
	}

	if v := os.Getenv("TERARELAY_UPLOAD_ENDPOINT"); v != "" {
		c.UploadEndpoint = v
	}

	if v := os.Getenv("TERARELAY_MONGO_URI"); v != "" {
		c.MongoURI = v
	}
	if v := os.Getenv("TERARELAY_MONGO_DATABASE"); v != "" {
		c.MongoDatabase = v
	}

	if v := os.Getenv("TERARELAY_SIZE_LIMIT_MB"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.SizeLimitMB = f
		}
	}
	if v := os.Getenv("TERARELAY_SIZE_FAIL_CLOSED"); v != "" {
		c.SizeFailClosed = v == "true" || v == "1"
	}

	if v := os.Getenv("TERARELAY_RESOLVE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.ResolveTimeout = d
		}
	}
	if v := os.Getenv("TERARELAY_TRANSFER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.TransferTimeout = d
		}
	}
	if v := os.Getenv("TERARELAY_PROXY"); v != "" {
		c.ProxyURL = v
	}

	if v := os.Getenv("TERARELAY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("TERARELAY_DEV"); v != "" {
		c.Development = v == "true" || v == "1"
	}
}

// GetEnvWithDefault returns environment variable value or default
func GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ValidateConfig validates the configuration values
func (c *Config) ValidateConfig() error {
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("invalid listen port: %d", c.ListenPort)
	}

	if c.Aria2RPCURL == "" {
		return fmt.Errorf("aria2 RPC URL cannot be empty")
	}

	if c.DownloadDir == "" {
		return fmt.Errorf("download directory cannot be empty")
	}

	if c.UploadEndpoint == "" {
		return fmt.Errorf("upload endpoint cannot be empty (set TERARELAY_UPLOAD_ENDPOINT)")
	}

	if c.MongoURI == "" {
		return fmt.Errorf("mongo URI cannot be empty")
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval: %v (must be > 0)", c.PollInterval)
	}

	if c.SizeLimitMB <= 0 {
		return fmt.Errorf("invalid size limit: %v MB (must be > 0)", c.SizeLimitMB)
	}

	return nil
}
