package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port             string
	DetectionURL     string
	DetectionTimeout time.Duration
	TickInterval     time.Duration
	TickStep         time.Duration
	ProbeInterval    time.Duration
	MatchTolerance   time.Duration
	NATSUrl          string
	JWTSecret        string
	OperatorUser     string
	OperatorPassword string
	AllowedOrigins   []string
	Debug            bool
}

// Load builds configuration from environment variables. Each call returns a
// fresh instance so tests and embedded uses stay isolated.
func Load() *Config {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		DetectionURL:     getEnv("DETECTION_URL", "http://localhost:8000"),
		DetectionTimeout: getEnvDuration("DETECTION_TIMEOUT", 10*time.Second),
		TickInterval:     getEnvDuration("TICK_INTERVAL", time.Second),
		TickStep:         getEnvDuration("TICK_STEP", time.Second),
		ProbeInterval:    getEnvDuration("PROBE_INTERVAL", 5*time.Second),
		MatchTolerance:   getEnvDuration("MATCH_TOLERANCE", 1500*time.Millisecond),
		NATSUrl:          getEnv("NATS_URL", ""),
		JWTSecret:        getEnv("JWT_SECRET", "firewatch-dev-secret"),
		OperatorUser:     getEnv("OPERATOR_USER", "operator"),
		OperatorPassword: getEnv("OPERATOR_PASSWORD", "operator"),
		Debug:            getEnvBool("DEBUG", false),
	}

	if cfg.Debug {
		cfg.AllowedOrigins = []string{"*"}
	} else if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = []string{origins}
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
