package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Session    SessionConfig
	Cron       CronConfig
	Encryption EncryptionConfig
	TrueLayer  TrueLayerConfig
	Zopa       ZopaConfig
	Chains     ChainConfig
	Scheduler  SchedulerConfig
	TLS        TLSConfig
	Telemetry  TelemetryConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	AllowedHosts []string
	FrontendURL  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// SessionConfig holds the shared secret used to verify session tokens minted
// by the external identity provider.
type SessionConfig struct {
	Secret string
}

// CronConfig holds the pre-shared secret that authorizes the scheduled sync
// trigger.
type CronConfig struct {
	Secret string
}

type EncryptionConfig struct {
	Key string
}

type TrueLayerConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthBaseURL  string
	APIBaseURL   string
}

type ZopaConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	BaseURL      string
}

type ChainConfig struct {
	EthereumRPCURL   string
	BSCRPCURL        string
	SolanaRPCURL     string
	BlockfrostURL    string
	BlockfrostAPIKey string
}

type SchedulerConfig struct {
	Enabled       bool
	ScheduleTimes []string
	WorkerCount   int
	JobDelay      time.Duration
	QueueSize     int
	RunOnStartup  bool
}

type TLSConfig struct {
	Enabled      bool
	CertPath     string
	KeyPath      string
	RedirectHTTP bool
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	MetricsPort  string
}

func Load() (*Config, error) {

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	// Parse scheduler configuration. Disabled by default: the scheduled sync
	// is normally driven by an external cron hitting /api/cron/sync, which
	// also keeps at-most-one pass running at a time.
	schedulerEnabled := getBoolEnv("SCHEDULER_ENABLED", false)
	schedulerTimes := strings.Split(getEnv("SCHEDULER_TIMES", "02:00,08:00,14:00,20:00"), ",")
	schedulerWorkers, err := strconv.Atoi(getEnv("SCHEDULER_WORKERS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_WORKERS: %w", err)
	}
	schedulerJobDelay, err := time.ParseDuration(getEnv("SCHEDULER_JOB_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_JOB_DELAY: %w", err)
	}
	schedulerQueueSize, err := strconv.Atoi(getEnv("SCHEDULER_QUEUE_SIZE", "50"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_QUEUE_SIZE: %w", err)
	}
	schedulerRunOnStartup := getBoolEnv("SCHEDULER_RUN_ON_STARTUP", false)

	// Parse allowed hosts (comma-separated list)
	allowedHostsStr := getEnv("ALLOWED_HOSTS", "")
	var allowedHosts []string
	if allowedHostsStr != "" {
		for _, host := range strings.Split(allowedHostsStr, ",") {
			host = strings.TrimSpace(host)
			if host != "" {
				allowedHosts = append(allowedHosts, host)
			}
		}
	}

	// OAuth redirect URIs are built from HOST_URL unless overridden
	hostURL := getEnv("HOST_URL", "")
	buildCallbackURL := func(path string, overrideEnv string) string {
		if override := getEnv(overrideEnv, ""); override != "" {
			return override
		}
		if hostURL != "" {
			return fmt.Sprintf("%s%s", hostURL, path)
		}
		return ""
	}

	trueLayerRedirect := buildCallbackURL("/api/bank/callback", "TRUELAYER_REDIRECT_URI")
	zopaRedirect := buildCallbackURL("/api/p2p/callback", "ZOPA_REDIRECT_URI")

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Host:         getEnv("HOST", "0.0.0.0"),
			AllowedHosts: allowedHosts,
			FrontendURL:  getEnv("FRONTEND_URL", "/"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "nestegg"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "nestegg"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", ""),
		},
		Cron: CronConfig{
			Secret: getEnv("CRON_SECRET", ""),
		},
		Encryption: EncryptionConfig{
			Key: getEnv("ENCRYPTION_KEY", ""),
		},
		TrueLayer: TrueLayerConfig{
			ClientID:     getEnv("TRUELAYER_CLIENT_ID", ""),
			ClientSecret: getEnv("TRUELAYER_CLIENT_SECRET", ""),
			RedirectURI:  trueLayerRedirect,
			AuthBaseURL:  getEnv("TRUELAYER_AUTH_URL", "https://auth.truelayer.com"),
			APIBaseURL:   getEnv("TRUELAYER_API_URL", "https://api.truelayer.com"),
		},
		Zopa: ZopaConfig{
			ClientID:     getEnv("ZOPA_CLIENT_ID", ""),
			ClientSecret: getEnv("ZOPA_CLIENT_SECRET", ""),
			RedirectURI:  zopaRedirect,
			BaseURL:      getEnv("ZOPA_API_URL", "https://api.zopa.com/v1"),
		},
		Chains: ChainConfig{
			EthereumRPCURL:   getEnv("ETHEREUM_RPC_URL", "https://eth.llamarpc.com"),
			BSCRPCURL:        getEnv("BSC_RPC_URL", "https://bsc-dataseed.binance.org"),
			SolanaRPCURL:     getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
			BlockfrostURL:    getEnv("BLOCKFROST_URL", "https://cardano-mainnet.blockfrost.io/api/v0"),
			BlockfrostAPIKey: getEnv("BLOCKFROST_API_KEY", ""),
		},
		Scheduler: SchedulerConfig{
			Enabled:       schedulerEnabled,
			ScheduleTimes: schedulerTimes,
			WorkerCount:   schedulerWorkers,
			JobDelay:      schedulerJobDelay,
			QueueSize:     schedulerQueueSize,
			RunOnStartup:  schedulerRunOnStartup,
		},
		TLS: TLSConfig{
			Enabled:      getBoolEnv("TLS_ENABLED", false),
			CertPath:     getEnv("TLS_CERT_PATH", ""),
			KeyPath:      getEnv("TLS_KEY_PATH", ""),
			RedirectHTTP: getBoolEnv("TLS_REDIRECT_HTTP", false),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBoolEnv("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "nestegg-api"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
			MetricsPort:  getEnv("METRICS_PORT", "9091"),
		},
	}

	// Validate required fields
	if cfg.Session.Secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if cfg.Cron.Secret == "" {
		return nil, fmt.Errorf("CRON_SECRET is required")
	}
	if cfg.Encryption.Key == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if len(cfg.Encryption.Key) < 16 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be at least 16 bytes")
	}

	// Validate TLS configuration
	if cfg.TLS.Enabled {
		if cfg.TLS.CertPath == "" {
			return nil, fmt.Errorf("TLS_CERT_PATH is required when TLS_ENABLED=true")
		}
		if cfg.TLS.KeyPath == "" {
			return nil, fmt.Errorf("TLS_KEY_PATH is required when TLS_ENABLED=true")
		}
	}

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
