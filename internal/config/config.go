package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Remote   RemoteConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Payment  PaymentConfig
	AI       AIConfig
	Features FeatureConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
	WebDir         string
	DevicePrefix   string
}

// Addr is the listen address handed to gin.
func (s ServerConfig) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}

type DatabaseConfig struct {
	Driver     string
	DSN        string
	MaxRetries int
	RetryDelay time.Duration
}

// RemoteConfig points at the POS back-office API.
type RemoteConfig struct {
	BaseURL  string
	Timeout  time.Duration
	APIToken string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether settings should live in Redis instead of the database.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type KafkaConfig struct {
	Brokers         []string
	SettlementTopic string
	WriteTimeout    time.Duration
}

type PaymentConfig struct {
	QuickAmounts []int64
}

type AIConfig struct {
	GeminiAPIKey string
	Model        string
}

type FeatureConfig struct {
	AllowRegistration bool
	SettlementEvents  bool
}

// Load reads an optional .env file and then the environment. A missing
// .env file is not an error.
func Load(files ...string) *Config {
	_ = godotenv.Load(files...)

	return &Config{
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			WebDir:         getEnvString("WEB_DIR", "./web"),
			DevicePrefix:   getEnvString("DEVICE_ID_PREFIX", "POS"),
		},
		Database: DatabaseConfig{
			Driver:     getEnvString("DB_DRIVER", "mysql"),
			DSN:        getEnvString("DB_DSN", "root:password@tcp(127.0.0.1:3306)/pos_checkout?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxRetries: getEnvInt("DB_MAX_RETRIES", 5),
			RetryDelay: getEnvDuration("DB_RETRY_DELAY", 5*time.Second),
		},
		Remote: RemoteConfig{
			BaseURL:  strings.TrimRight(getEnvString("POS_API_BASE_URL", "http://localhost:8000/api"), "/"),
			Timeout:  getEnvDuration("POS_API_TIMEOUT", 15*time.Second),
			APIToken: getEnvString("POS_API_TOKEN", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvString("JWT_SECRET", "change-me"),
			TokenTTL:  getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnvString("REDIS_ADDR", ""),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:         getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			SettlementTopic: getEnvString("KAFKA_SETTLEMENT_TOPIC", "pos.settlements"),
			WriteTimeout:    getEnvDuration("KAFKA_WRITE_TIMEOUT", 10*time.Second),
		},
		Payment: PaymentConfig{
			QuickAmounts: getEnvInt64List("PAYMENT_QUICK_AMOUNTS", []int64{10000, 20000, 50000, 100000}),
		},
		AI: AIConfig{
			GeminiAPIKey: getEnvString("GEMINI_API_KEY", ""),
			Model:        getEnvString("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Features: FeatureConfig{
			AllowRegistration: getEnvBool("ALLOW_REGISTRATION", false),
			SettlementEvents:  getEnvBool("SETTLEMENT_EVENTS_ENABLED", false),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("15s") or a plain number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvInt64List(key string, defaultValue []int64) []int64 {
	parts := getEnvList(key, nil)
	if len(parts) == 0 {
		return defaultValue
	}
	out := make([]int64, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n <= 0 {
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}
