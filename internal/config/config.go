package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
	Storage  StorageConfig
	Fal      FalConfig
	Ledger   LedgerConfig
	Payment  PaymentConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	ProgressTopic      string
}

type DatabaseConfig struct {
	Driver     string
	Connection string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	Bucket          string
	UseSSL          bool
	PresignExpiry   time.Duration
	TransientPrefix string
	ArchivePrefix   string
}

type FalConfig struct {
	Key              string
	QueueURL         string
	PollInterval     time.Duration
	TrainingTimeout  time.Duration
	InferenceTimeout time.Duration
	TrainingSteps    int
}

type LedgerConfig struct {
	StartingTokens      int
	ModelCreationCost   int
	ImageGenerationCost int
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	Environment string
}

type PaymentConfig struct {
	MidtransServerKey    string
	MidtransIsProduction bool
	FinishRedirectURL    string
	// Packages maps a package code to its token amount and price.
	Packages map[string]TokenPackage
}

type TokenPackage struct {
	Tokens int
	Price  int64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			ProgressTopic:      getEnv("PROGRESS_TOPIC_NAME", "flow.progress"),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "default_secret"),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Chromir"),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey:       getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:       getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:          getEnv("STORAGE_BUCKET", "chromir"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			PresignExpiry:   getEnvAsDuration("STORAGE_PRESIGN_EXPIRY", 24*time.Hour),
			TransientPrefix: getEnv("STORAGE_TRANSIENT_PREFIX", "transient"),
			ArchivePrefix:   getEnv("STORAGE_ARCHIVE_PREFIX", "archives"),
		},
		Fal: FalConfig{
			Key:              getEnv("FAL_KEY", ""),
			QueueURL:         getEnv("FAL_QUEUE_URL", "https://queue.fal.run"),
			PollInterval:     getEnvAsDuration("FAL_POLL_INTERVAL", 2*time.Second),
			TrainingTimeout:  getEnvAsDuration("FAL_TRAINING_TIMEOUT", 30*time.Minute),
			InferenceTimeout: getEnvAsDuration("FAL_INFERENCE_TIMEOUT", 5*time.Minute),
			TrainingSteps:    getEnvAsInt("FAL_TRAINING_STEPS", 10),
		},
		Ledger: LedgerConfig{
			StartingTokens:      getEnvAsInt("LEDGER_STARTING_TOKENS", 100),
			ModelCreationCost:   getEnvAsInt("LEDGER_MODEL_CREATION_COST", 20),
			ImageGenerationCost: getEnvAsInt("LEDGER_IMAGE_GENERATION_COST", 5),
		},
		Payment: PaymentConfig{
			MidtransServerKey:    getEnv("MIDTRANS_SERVER_KEY", ""),
			MidtransIsProduction: getEnvAsBool("MIDTRANS_IS_PRODUCTION", false),
			FinishRedirectURL:    getEnv("PAYMENT_FINISH_URL", "http://localhost:5173/settings?payment=success"),
			Packages:             parsePackages(getEnv("TOKEN_PACKAGES", "small:100:50000,medium:500:200000,large:1200:450000")),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			Environment: getEnv("GO_ENV", "development"),
		},
	}
}

// parsePackages reads "code:tokens:price" triples separated by commas.
func parsePackages(raw string) map[string]TokenPackage {
	packages := make(map[string]TokenPackage)
	for _, item := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(item), ":")
		if len(parts) != 3 {
			continue
		}
		tokens, err := strconv.Atoi(parts[1])
		if err != nil || tokens <= 0 {
			continue
		}
		price, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || price <= 0 {
			continue
		}
		packages[parts[0]] = TokenPackage{Tokens: tokens, Price: price}
	}
	return packages
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
