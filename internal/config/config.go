package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	MaxRetries  int
	DialTimeout int
	Timeout     int
	Prefix      string
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
}

type SMSConfig struct {
	URL      string
	APIKey   string
	SenderID string
}

type MpesaConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

type AppConfig struct {
	Port              string
	Postgres          PostgresConfig
	Redis             RedisConfig
	S3                S3Config
	SMS               SMSConfig
	Mpesa             MpesaConfig
	CountryCode       string // dialing code used when normalizing phone numbers
	Currency          string
	ExportDir         string
	ExportStorage     string // "local" or "s3"
	ExportPrefix      string
	FilesPublicPrefix string
	ExternalURL       string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q: %v", s, err)
	}
	return i
}

func mustBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		log.Fatalf("invalid bool value %q: %v", s, err)
	}
	return b
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration value %q: %v", s, err)
	}
	return d
}

func Load() AppConfig {
	return AppConfig{
		Port: getenv("APP_PORT", "8020"),
		Postgres: PostgresConfig{
			Host:     getenv("PG_HOST", "127.0.0.1"),
			Port:     mustAtoi(getenv("PG_PORT", "5432")),
			User:     getenv("PG_USER", "root"),
			Password: getenv("PG_PASSWORD", ""),
			DBName:   getenv("PG_DB", "taka_billing"),
			SSLMode:  getenv("PG_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:        getenv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:    getenv("REDIS_PASSWORD", ""),
			DB:          mustAtoi(getenv("REDIS_DB", "0")),
			MaxRetries:  mustAtoi(getenv("REDIS_MAX_RETRIES", "5")),
			DialTimeout: mustAtoi(getenv("REDIS_DIAL_TIMEOUT", "10")),
			Timeout:     mustAtoi(getenv("REDIS_TIMEOUT", "5")),
			Prefix:      getenv("REDIS_PREFIX", "taka_billing_"),
		},
		S3: S3Config{
			Endpoint:        getenv("S3_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getenv("S3_ACCESS_KEY", "minio"),
			SecretAccessKey: getenv("S3_SECRET_KEY", "minio123"),
			Bucket:          getenv("S3_BUCKET", "exports"),
			Region:          getenv("S3_REGION", "us-east-1"),
			UseSSL:          mustBool(getenv("S3_USE_SSL", "false")),
			Prefix:          getenv("S3_PREFIX", ""),
		},
		SMS: SMSConfig{
			URL:      getenv("SMS_GATEWAY_URL", ""),
			APIKey:   getenv("SMS_API_KEY", ""),
			SenderID: getenv("SMS_SENDER_ID", "TAKA"),
		},
		Mpesa: MpesaConfig{
			PollInterval: mustDuration(getenv("MPESA_POLL_INTERVAL", "30s")),
			BatchSize:    mustAtoi(getenv("MPESA_BATCH_SIZE", "100")),
		},
		CountryCode:       getenv("PHONE_COUNTRY_CODE", "254"),
		Currency:          getenv("CURRENCY", "KES"),
		ExportDir:         getenv("EXPORT_DIR", "./exports"),
		ExportStorage:     getenv("EXPORT_STORAGE", "local"),
		ExportPrefix:      getenv("EXPORT_CACHE_PREFIX", "taka_billing_cache"),
		FilesPublicPrefix: getenv("FILES_PUBLIC_PREFIX", "/files"),
		ExternalURL:       getenv("EXTERNAL_URL", ""),
	}
}
