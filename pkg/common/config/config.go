package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Model artifacts
	ModelDir       string
	RiskPolicyPath string
	RulesPath      string

	// Database
	PostgresHost      string
	PostgresPort      string
	PostgresUser      string
	PostgresPassword  string
	PostgresDB        string
	PostgresSSLMode   string
	PredictionLogging bool

	// Redis
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	ResultCacheTTL    time.Duration
	ResultCachePrefix string
	ResultCaching     bool

	// Kafka
	KafkaBrokers    []string
	PredictionTopic string
	EventPublishing bool
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1*1024*1024)),

		ModelDir:       getEnv("MODEL_DIR", "saved_models"),
		RiskPolicyPath: getEnv("RISK_POLICY_PATH", ""),
		RulesPath:      getEnv("RULES_PATH", ""),

		PostgresHost:      getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:      getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:      getEnv("POSTGRES_USER", "nutriscan"),
		PostgresPassword:  getEnv("POSTGRES_PASSWORD", "nutriscan123"),
		PostgresDB:        getEnv("POSTGRES_DB", "nutriscan"),
		PostgresSSLMode:   getEnv("POSTGRES_SSLMODE", "disable"),
		PredictionLogging: getBoolEnv("PREDICTION_LOGGING", true),

		RedisHost:         getEnv("REDIS_HOST", "localhost"),
		RedisPort:         getEnv("REDIS_PORT", "6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getIntEnv("REDIS_DB", 0),
		ResultCacheTTL:    getDuration("RESULT_CACHE_TTL", 10*time.Minute),
		ResultCachePrefix: getEnv("RESULT_CACHE_PREFIX", "prediction"),
		ResultCaching:     getBoolEnv("RESULT_CACHING", true),

		KafkaBrokers:    getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		PredictionTopic: getEnv("PREDICTION_TOPIC", "nutriscan.predictions"),
		EventPublishing: getBoolEnv("EVENT_PUBLISHING", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
