// Package configs provides application configuration loaded from environment variables.
// Library users may build the typed configs directly; the CLI loads them with AppLoad.
package configs

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Default endpoints and timeouts, used when the environment does not override them.
const (
	DefaultAPIURL      = "https://api.gasprice.io/v1"
	DefaultRealtimeURL = "wss://api.gasprice.io/v1/ws"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "gas_estimates"

	// HTTP request timeout
	RequestTimeout = 10 * time.Second

	// WebSocket connection timeouts and intervals
	HandshakeTimeout = 5 * time.Second
	ReadTimeout      = 60 * time.Second
	WriteTimeout     = 10 * time.Second
	PingInterval     = 30 * time.Second
	CloseGracePeriod = 1 * time.Second

	PollInterval = 15 * time.Second
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad().
type AppConfig struct {
	// API contains settings for the REST request client.
	API APIConfig

	// Realtime contains settings for the websocket feed.
	Realtime RealtimeConfig

	// Kafka contains producer settings for the estimates sink.
	Kafka KafkaConfig

	// Poll contains settings for the periodic estimates poller.
	Poll PollConfig

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string
}

// APIConfig holds REST client settings.
type APIConfig struct {
	// BaseURL is the service root, e.g. "https://api.gasprice.io/v1".
	BaseURL string

	// RequestTimeout bounds a single round trip.
	RequestTimeout time.Duration

	// UserAgent is sent on every request when non-empty.
	UserAgent string
}

// RealtimeConfig holds websocket settings.
type RealtimeConfig struct {
	// BaseURL is the websocket root; the endpoint path is appended to it.
	BaseURL string

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration

	// CloseGracePeriod is how long Close waits for the peer's close frame
	// before the socket is torn down.
	CloseGracePeriod time.Duration

	// InsecureSkipVerify disables TLS peer verification. Off by default.
	InsecureSkipVerify bool
}

// KafkaConfig holds Kafka connection settings for streamed estimates.
type KafkaConfig struct {
	// Broker is the Kafka broker address (e.g., "localhost:9092").
	Broker string

	// Topic receives one message per estimates snapshot.
	Topic string
}

// PollConfig holds settings for the estimates poller.
type PollConfig struct {
	// Interval between two estimates requests.
	Interval time.Duration

	// Countervalue is the currency used for the ETH price.
	Countervalue string
}

// DefaultAPIConfig returns a default REST configuration
func DefaultAPIConfig(baseURL string) *APIConfig {
	return &APIConfig{
		BaseURL:        baseURL,
		RequestTimeout: RequestTimeout,
	}
}

// DefaultRealtimeConfig returns a default WebSocket configuration
func DefaultRealtimeConfig(wsURL string) *RealtimeConfig {
	return &RealtimeConfig{
		BaseURL:          wsURL,
		HandshakeTimeout: HandshakeTimeout,
		ReadTimeout:      ReadTimeout,
		WriteTimeout:     WriteTimeout,
		PingInterval:     PingInterval,
		CloseGracePeriod: CloseGracePeriod,
	}
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
func AppLoad() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	api := DefaultAPIConfig(strings.TrimSuffix(getEnv("GASPRICE_API_URL", DefaultAPIURL), "/"))
	api.RequestTimeout = getEnvSeconds("GASPRICE_REQUEST_TIMEOUT_SECONDS", RequestTimeout)
	api.UserAgent = getEnv("GASPRICE_USER_AGENT", "")

	realtime := DefaultRealtimeConfig(strings.TrimSuffix(getEnv("GASPRICE_WS_URL", DefaultRealtimeURL), "/"))
	realtime.ReadTimeout = getEnvSeconds("GASPRICE_WS_READ_TIMEOUT_SECONDS", ReadTimeout)
	realtime.InsecureSkipVerify = getEnvBool("GASPRICE_WS_INSECURE_SKIP_VERIFY", false)

	return &AppConfig{
		API:      *api,
		Realtime: *realtime,
		Kafka: KafkaConfig{
			Broker: getEnv("KAFKA_BROKER", DefaultKafkaBroker),
			Topic:  getEnv("KAFKA_ESTIMATES_TOPIC", DefaultKafkaTopic),
		},
		Poll: PollConfig{
			Interval:     getEnvSeconds("POLL_INTERVAL_SECONDS", PollInterval),
			Countervalue: getEnv("POLL_COUNTERVALUE", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// NewLogger builds the text logger used across the CLI. Unknown levels fall back to info.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvSeconds reads a positive number of seconds.
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	seconds := getEnvInt(key, 0)
	if seconds <= 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
