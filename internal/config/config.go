// Package config provides runtime configuration for the storefront server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageMySQL  = "mysql"
)

// Config holds configuration knobs for servers, upstream API, storage and checkout.
type Config struct {
	HTTPAddr        string        `yaml:"httpAddr"`
	GRPCAddr        string        `yaml:"grpcAddr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	LogLevel       string `yaml:"logLevel"`
	LogDevelopment bool   `yaml:"logDevelopment"`

	APIBaseURL      string        `yaml:"apiBaseURL"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	CatalogPageSize int           `yaml:"catalogPageSize"`

	Storage StorageConfig `yaml:"storage"`

	ConfirmationDelay time.Duration `yaml:"confirmationDelay"`
	SessionIdleTTL    time.Duration `yaml:"sessionIdleTTL"`
	CheckoutRate      float64       `yaml:"checkoutRate"`
	CheckoutBurst     int           `yaml:"checkoutBurst"`
}

type StorageConfig struct {
	Driver    string        `yaml:"driver"`
	RedisAddr string        `yaml:"redisAddr"`
	MySQLDSN  string        `yaml:"mysqlDSN"`
	CartTTL   time.Duration `yaml:"cartTTL"`
}

func Default() Config {
	return Config{
		HTTPAddr:          ":8080",
		GRPCAddr:          ":50051",
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		APIBaseURL:        "http://o-complex.com:1337",
		RequestTimeout:    10 * time.Second,
		CatalogPageSize:   20,
		ConfirmationDelay: 5 * time.Second,
		SessionIdleTTL:    30 * time.Minute,
		CheckoutRate:      1,
		CheckoutBurst:     3,
		Storage: StorageConfig{
			Driver:    StorageMemory,
			RedisAddr: "localhost:6379",
			MySQLDSN:  "root:root@tcp(localhost:3306)/storefront?parseTime=true",
		},
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func floatenv(key string, def float64) float64 {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func durenv(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Load reads the first readable YAML candidate over the defaults, then
// applies STOREFRONT_* environment overrides. A missing or unparsable file
// is skipped.
func Load(configPath string) Config {
	cfg := Default()

	candidates := []string{"configs/config.yaml"}
	if configPath != "" {
		candidates = []string{configPath}
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		parsed := cfg
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}
		cfg = parsed
		break
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func ApplyEnvOverrides(cfg *Config) {
	cfg.HTTPAddr = getenv("STOREFRONT_HTTP_ADDR", cfg.HTTPAddr)
	cfg.GRPCAddr = getenv("STOREFRONT_GRPC_ADDR", cfg.GRPCAddr)
	cfg.ShutdownTimeout = durenv("STOREFRONT_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.LogLevel = getenv("STOREFRONT_LOG_LEVEL", cfg.LogLevel)
	cfg.LogDevelopment = boolenv("STOREFRONT_LOG_DEVELOPMENT", cfg.LogDevelopment)
	cfg.APIBaseURL = getenv("STOREFRONT_API_BASE_URL", cfg.APIBaseURL)
	cfg.RequestTimeout = durenv("STOREFRONT_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.CatalogPageSize = atoienv("STOREFRONT_CATALOG_PAGE_SIZE", cfg.CatalogPageSize)
	cfg.ConfirmationDelay = durenv("STOREFRONT_CONFIRMATION_DELAY", cfg.ConfirmationDelay)
	cfg.SessionIdleTTL = durenv("STOREFRONT_SESSION_IDLE_TTL", cfg.SessionIdleTTL)
	cfg.CheckoutRate = floatenv("STOREFRONT_CHECKOUT_RATE", cfg.CheckoutRate)
	cfg.CheckoutBurst = atoienv("STOREFRONT_CHECKOUT_BURST", cfg.CheckoutBurst)
	cfg.Storage.Driver = strings.ToLower(getenv("STOREFRONT_STORAGE_DRIVER", cfg.Storage.Driver))
	cfg.Storage.RedisAddr = getenv("REDIS_ADDR", cfg.Storage.RedisAddr)
	cfg.Storage.MySQLDSN = getenv("MYSQL_DSN", cfg.Storage.MySQLDSN)
	cfg.Storage.CartTTL = durenv("STOREFRONT_CART_TTL", cfg.Storage.CartTTL)
}
