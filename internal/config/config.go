package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Redis    RedisConfig
	DynamoDB DynamoDBConfig
	SMTP     SMTPConfig
	Code     CodeConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// StoreConfig selects the backend per store. The in-memory backends are
// the default; redis/dynamo are drop-in alternatives behind the same
// store interfaces.
type StoreConfig struct {
	CredentialBackend  string // "memory" or "redis"
	TransactionBackend string // "memory" or "dynamo"
}

type RedisConfig struct {
	Endpoint string
	Password string
	DB       int
}

type DynamoDBConfig struct {
	Endpoint  string
	Region    string
	TableName string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

type CodeConfig struct {
	Length      int
	TTL         time.Duration
	MaxAttempts int
	IDPrefix    string
}

// NotifierMode selects how codes are delivered: "smtp" or "log".
func NotifierMode() string {
	return getEnv("NOTIFIER", "log")
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Store: StoreConfig{
			CredentialBackend:  getEnv("CREDENTIAL_STORE", "memory"),
			TransactionBackend: getEnv("TRANSACTION_STORE", "memory"),
		},
		Redis: RedisConfig{
			Endpoint: getEnv("REDIS_ENDPOINT", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		DynamoDB: DynamoDBConfig{
			Endpoint:  getEnv("DYNAMODB_ENDPOINT", ""),
			Region:    getEnv("DYNAMODB_REGION", "us-east-1"),
			TableName: getEnv("DYNAMODB_TABLE_NAME", "PayPortalTable"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
			FromName: getEnv("SMTP_FROM_NAME", "Payment Portal"),
			Timeout:  getEnvAsDuration("SMTP_TIMEOUT", 10*time.Second),
		},
		Code: CodeConfig{
			Length:      getEnvAsInt("CODE_LENGTH", 4),
			TTL:         getEnvAsDuration("CODE_TTL", 10*time.Minute),
			MaxAttempts: getEnvAsInt("CODE_MAX_ATTEMPTS", 3),
			IDPrefix:    getEnv("TRANSACTION_ID_PREFIX", "TXN"),
		},
	}

	if NotifierMode() == "smtp" && cfg.SMTP.Host == "" {
		return nil, fmt.Errorf("SMTP_HOST is required when NOTIFIER=smtp")
	}

	if cfg.Code.Length < 4 || cfg.Code.Length > 8 {
		return nil, fmt.Errorf("CODE_LENGTH must be between 4 and 8")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
