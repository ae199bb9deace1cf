package config

import (
	"crypto/rsa"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Security   SecurityConfig
	MFA        MFAConfig
	Recurrence RecurrenceConfig
	Events     EventsConfig
}

type ServerConfig struct {
	Port             string
	Host             string
	Environment      string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	CORSAllowOrigins []string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	Seed            bool
	MigrationsPath  string
	SeedsPath       string
	// DemoEmail and DemoPassword name the account generated when Seed is set
	DemoEmail    string
	DemoPassword string
}

type JWTConfig struct {
	AccessTokenDuration time.Duration
	PrivateKey          *rsa.PrivateKey
	PublicKey           *rsa.PublicKey
	Issuer              string
}

type SecurityConfig struct {
	BCryptCost         int
	RateLimitPerSecond int
	MaxFailedAttempts  int
	LockoutDuration    time.Duration
	PasswordMinLength  int
	PasswordResetTTL   time.Duration
	// ExposeResetTokens logs reset tokens instead of publishing them. Development only.
	ExposeResetTokens bool
}

type MFAConfig struct {
	Issuer string
	// SealingKey encrypts TOTP secrets at rest.
	SealingKey *[32]byte
}

type RecurrenceConfig struct {
	WorkerEnabled bool
	Interval      time.Duration
	BatchSize     int
}

type EventsConfig struct {
	AMQPURL  string
	Exchange string
	Queue    string
}

func (e EventsConfig) Enabled() bool {
	return e.AMQPURL != ""
}

// ClientConfig configures the command line client.
type ClientConfig struct {
	APIBaseURL         string
	RequestTimeout     time.Duration
	IdleTimeout        time.Duration
	RecurrenceInterval time.Duration
	BudgetThreshold    decimal.Decimal
}

func Load() *Config {
	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "5000"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			Environment:  getEnv("APP_ENV", "development"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "finance_user"),
			Password:        getEnv("DB_PASSWORD", "finance_password"),
			Name:            getEnv("DB_NAME", "finance_db"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getIntEnv("DB_MAX_CONNECTIONS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			AutoMigrate:     getBoolEnv("AUTO_MIGRATE", false),
			Seed:            getBoolEnv("SEED_DATABASE", false),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "db/migrations"),
			SeedsPath:       getEnv("SEEDS_PATH", "db/seeds"),
			DemoEmail:       getEnv("DEMO_EMAIL", "demo@example.com"),
			DemoPassword:    getEnv("DEMO_PASSWORD", "DemoPassw0rd!"),
		},
		Security: SecurityConfig{
			BCryptCost:         getIntEnv("BCRYPT_COST", 12),
			RateLimitPerSecond: getIntEnv("RATE_LIMIT_PER_SECOND", 5),
			MaxFailedAttempts:  getIntEnv("MAX_FAILED_ATTEMPTS", 5),
			LockoutDuration:    getDurationEnv("LOCKOUT_DURATION", 15*time.Minute),
			PasswordMinLength:  getIntEnv("PASSWORD_MIN_LENGTH", 8),
			PasswordResetTTL:   getDurationEnv("PASSWORD_RESET_TTL", time.Hour),
		},
		JWT: JWTConfig{
			AccessTokenDuration: getDurationEnv("JWT_ACCESS_TOKEN_DURATION", 24*time.Hour),
			Issuer:              getEnv("JWT_ISSUER", "finance-tracker"),
		},
		MFA: MFAConfig{
			Issuer: getEnv("MFA_ISSUER", "Finance Tracker"),
		},
		Recurrence: RecurrenceConfig{
			WorkerEnabled: getBoolEnv("RECURRENCE_WORKER_ENABLED", false),
			Interval:      getDurationEnv("RECURRENCE_INTERVAL", 24*time.Hour),
			BatchSize:     getIntEnv("RECURRENCE_BATCH_SIZE", 500),
		},
		Events: EventsConfig{
			AMQPURL:  getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "finance"),
			Queue:    getEnv("AMQP_QUEUE", "finance.notifications"),
		},
	}

	config.Security.ExposeResetTokens = getBoolEnv("EXPOSE_RESET_TOKENS", config.IsDevelopment())
	config.Server.CORSAllowOrigins = config.loadCORSAllowOrigins()

	var err error
	config.JWT.PrivateKey, config.JWT.PublicKey, err = config.loadJWTKeys()
	if err != nil {
		log.Fatal("Failed to load RSA keys:", err)
	}

	config.MFA.SealingKey, err = config.loadSealingKey()
	if err != nil {
		log.Fatal("Failed to load MFA sealing key:", err)
	}

	return config
}

// LoadClient reads the command line client settings.
func LoadClient() *ClientConfig {
	threshold, err := decimal.NewFromString(getEnv("BUDGET_THRESHOLD", "500"))
	if err != nil {
		log.Printf("WARNING: invalid BUDGET_THRESHOLD, using 500: %v", err)
		threshold = decimal.NewFromInt(500)
	}

	return &ClientConfig{
		APIBaseURL:         getEnv("FINANCE_API_URL", "http://localhost:5000"),
		RequestTimeout:     getDurationEnv("FINANCE_API_TIMEOUT", 30*time.Second),
		IdleTimeout:        getDurationEnv("SESSION_IDLE_TIMEOUT", 15*time.Minute),
		RecurrenceInterval: getDurationEnv("RECURRENCE_CHECK_INTERVAL", 24*time.Hour),
		BudgetThreshold:    threshold,
	}
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL is the postgres:// form of the connection settings used by migrate.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// loadCORSAllowOrigins retrieves CORS allowed origins from environment or returns default
func (c *Config) loadCORSAllowOrigins() []string {
	corsOrigins := os.Getenv("CORS_ALLOW_ORIGINS")
	if corsOrigins == "" {
		if c.IsProduction() {
			log.Println("WARNING: CORS_ALLOW_ORIGINS not set in production environment, defaulting to '*'")
		}
		return []string{"*"}
	}

	origins := strings.Split(corsOrigins, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return origins
}
