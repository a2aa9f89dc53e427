package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/uma-arai/sbcntr-hotel/internal/common/database"
)

// 台帳と客室の保存先
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	DB  database.Config
	SFN struct {
		TaskToken string
	}
	Storage  string
	HTTPPort int
	Redis    struct {
		Addr string
	}
	Kafka struct {
		Brokers []string
		Topic   string
	}
	EnableTracing bool
	Local         bool
}

// LoadConfig は設定を読み込みます
// APIサーバーのようにタスクトークンを持たない場合は空文字を渡します
func LoadConfig(taskToken string) (*Config, error) {
	cfg := &Config{
		DB: database.Config{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvAsIntOrDefault("DB_PORT", 5432),
			UserName: getEnvOrDefault("DB_USERNAME", "sbcntrapp"),
			Password: getEnvOrDefault("DB_PASSWORD", "password"),
			DBName:   getEnvOrDefault("DB_NAME", "sbcntrapp"),
		},
		Storage:       strings.ToLower(getEnvOrDefault("SBCNTR_STORAGE", StorageMemory)),
		HTTPPort:      getEnvAsIntOrDefault("SBCNTR_HTTP_PORT", 8080),
		EnableTracing: false,
		Local:         os.Getenv("ENV") == "LOCAL",
	}
	cfg.SFN.TaskToken = taskToken
	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Kafka.Brokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.Kafka.Topic = getEnvOrDefault("KAFKA_TOPIC", "hotel.reservations")

	if cfg.Storage != StorageMemory && cfg.Storage != StoragePostgres {
		return nil, fmt.Errorf("unsupported SBCNTR_STORAGE: %q", cfg.Storage)
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid SBCNTR_HTTP_PORT: %d", cfg.HTTPPort)
	}

	// 環境変数[SBCNTR_ENABLE_TRACING]を見てトレースを有効にする。対応しているTracingはAWS_XRAYのみ。
	// 環境変数[AWS_XRAY_SDK_DISABLED]がtrueの場合は必ずトレースを無効にする。
	enableKey := os.Getenv("SBCNTR_ENABLE_TRACING")
	if !sdkDisabled() && (strings.ToLower(enableKey) == "true" || enableKey == "1") {
		os.Setenv("AWS_XRAY_SDK_DISABLED", "FALSE")
		cfg.EnableTracing = true
	} else {
		os.Setenv("AWS_XRAY_SDK_DISABLED", "TRUE")
		cfg.EnableTracing = false
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Printf("Environment variable %s is not set, using default value", key)
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Environment variable %s is not a number, using default value", key)
	}
	return defaultValue
}

// splitList はカンマ区切りの値を分割し、空要素を取り除きます
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Check if SDK is disabled
func sdkDisabled() bool {
	disableKey := os.Getenv("AWS_XRAY_SDK_DISABLED")
	return strings.ToLower(disableKey) == "true"
}
