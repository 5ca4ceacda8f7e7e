package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticsearchConfig
	Upload   UploadConfig
	Sale     SaleConfig
	Policy   PolicyConfig
}

type ServerConfig struct {
	AppEnv   string
	HTTPPort string
	GRPCPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type JWTConfig struct {
	SecretKey  string
	TTLMinutes int
}

// RedisConfig with an empty Addr disables caching and sale idempotency keys.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig with no brokers disables the order listener.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
}

type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

type SaleConfig struct {
	TimeoutSeconds int
	MaxRetries     int
}

type PolicyConfig struct {
	SaleRoles    []string
	CatalogRoles []string
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "development"),
			HTTPPort: getEnv("HTTP_PORT", ":3000"),
			GRPCPort: getEnv("GRPC_PORT", ":8082"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "json"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_retail"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", ""),
			TTLMinutes: getEnvInt("JWT_TTL_MINUTES", 720),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC_ORDERS", "orders.events"),
			GroupID: getEnv("KAFKA_GROUP_ID", "retail-sales"),
		},
		Elastic: ElasticsearchConfig{
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", nil),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
		},
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 5<<20)),
		},
		Sale: SaleConfig{
			TimeoutSeconds: getEnvInt("SALE_TIMEOUT_SECONDS", 10),
			MaxRetries:     getEnvInt("SALE_MAX_RETRIES", 3),
		},
		Policy: PolicyConfig{
			SaleRoles:    getEnvSlice("SALE_ROLES", []string{"admin", "staff"}),
			CatalogRoles: getEnvSlice("CATALOG_ROLES", []string{"admin"}),
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.AppEnv == "dev"
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWT.TTLMinutes) * time.Minute
}

func (c *Config) SaleTimeout() time.Duration {
	return time.Duration(c.Sale.TimeoutSeconds) * time.Second
}

// Validate reports settings that must not fall back to defaults outside development.
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET_KEY is required")
		}
		c.JWT.SecretKey = "development-only-secret"
	}
	if c.Sale.TimeoutSeconds <= 0 {
		return errors.New("SALE_TIMEOUT_SECONDS must be positive")
	}
	if c.Sale.MaxRetries < 0 {
		return errors.New("SALE_MAX_RETRIES must not be negative")
	}
	if len(c.Policy.SaleRoles) == 0 || len(c.Policy.CatalogRoles) == 0 {
		return errors.New("SALE_ROLES and CATALOG_ROLES must not be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
