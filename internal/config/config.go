package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Stripe    StripeConfig
	Auth      AuthConfig
	Calls     CallsConfig
	Voucher   VoucherConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Env string
}

// IsProduction reports whether development escape hatches must stay closed.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production") || strings.EqualFold(a.Env, "prod")
}

type ServerConfig struct {
	Port         string
	WebhookPort  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	DSN           string
	MaxOpenConns  int
	MaxIdleConns  int
	MaxLifetime   time.Duration
	MigrationsDir string
	AutoMigrate   bool
}

func (d DatabaseConfig) Configured() bool { return d.DSN != "" }

type RedisConfig struct {
	Addr            string
	CheckoutLockTTL time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	GroupID string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

type AuthConfig struct {
	JWTSecret     string
	OIDCIssuer    string
	ProviderURL   string
	APIKey        string
	AccessCookie  string
	RefreshCookie string
	DevUserID     string
	DevEmail      string
}

type CallsConfig struct {
	MeetingBaseURL string
}

type VoucherConfig struct {
	Secret string
}

type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// devVoucherSecret is only used outside production.
const devVoucherSecret = "change-me"

func Load() *Config {
	app := AppConfig{Env: getEnv("APP_ENV", "development")}
	voucherDefault := devVoucherSecret
	if app.IsProduction() {
		voucherDefault = ""
	}

	return &Config{
		App: app,
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8086"),
			WebhookPort:  getEnv("WEBHOOK_PORT", ":8087"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:           os.Getenv("DATABASE_DSN"),
			MaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:   time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
			AutoMigrate:   getEnvBool("AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Addr:            os.Getenv("REDIS_ADDR"),
			CheckoutLockTTL: time.Duration(getEnvInt("CHECKOUT_LOCK_TTL_SECONDS", 30)) * time.Second,
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			GroupID: getEnv("KAFKA_GROUP_ID", "tourbook-api"),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			Currency:      strings.ToLower(getEnv("STRIPE_CURRENCY", "eur")),
			SuccessURL:    getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/panel/orders/{ORDER_ID}?checkout=success"),
			CancelURL:     getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/panel/orders/{ORDER_ID}?checkout=cancel"),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("AUTH_JWT_SECRET"),
			OIDCIssuer:    os.Getenv("AUTH_OIDC_ISSUER"),
			ProviderURL:   strings.TrimRight(os.Getenv("AUTH_PROVIDER_URL"), "/"),
			APIKey:        os.Getenv("AUTH_API_KEY"),
			AccessCookie:  getEnv("AUTH_ACCESS_COOKIE", "tb-access-token"),
			RefreshCookie: getEnv("AUTH_REFRESH_COOKIE", "tb-refresh-token"),
			DevUserID:     os.Getenv("AUTH_DEV_USER_ID"),
			DevEmail:      getEnv("AUTH_DEV_EMAIL", "dev@tourbook.local"),
		},
		Calls: CallsConfig{
			MeetingBaseURL: strings.TrimRight(getEnv("MEETING_BASE_URL", "https://meet.jit.si"), "/"),
		},
		Voucher: VoucherConfig{
			Secret: getEnv("VOUCHER_SECRET", voucherDefault),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
			Burst:     getEnvInt("RATE_LIMIT_BURST", 10),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
