package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ConsentVersion is the policy version stamped on every stored consent
// record. Bumping it invalidates all previously stored decisions and
// re-prompts every visitor.
const ConsentVersion = "1.0"

// Server captures service level configuration built from the environment so
// main stays lean.
type Server struct {
	Addr          string
	JWTSigningKey string

	// Consent subsystem.
	ConsentDevOverride bool // force the banner regardless of region, for local testing
	GeoIPDBPath        string
	IPHashSalt         string

	// Email capture subsystem.
	PostgresDSN  string
	RedisURL     string
	MailchimpURL string

	// Admin revalidation trigger.
	BuildHookURL   string
	AdminTokenHash string // bcrypt hash of the trigger token

	// Receiver push endpoints; empty means the receiver is absent.
	TagManagerURL string
	AnalyticsURL  string

	// Public endpoint rate limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int

	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables. A local .env
// file is loaded first when present; missing files are not an error.
func FromEnv() Server {
	_ = godotenv.Load()

	return Server{
		Addr:               envOr("BB_ADDR", ":8080"),
		JWTSigningKey:      envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ConsentDevOverride: os.Getenv("CONSENT_DEV_OVERRIDE") == "true",
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		IPHashSalt:         envOr("IP_HASH_SALT", "dev-ip-hash-salt"),
		PostgresDSN:        os.Getenv("POSTGRES_DSN"),
		RedisURL:           os.Getenv("REDIS_URL"),
		MailchimpURL:       os.Getenv("MAILCHIMP_FORM_URL"),
		BuildHookURL:       os.Getenv("BUILD_HOOK_URL"),
		AdminTokenHash:     os.Getenv("ADMIN_TOKEN_HASH"),
		TagManagerURL:      os.Getenv("TAG_MANAGER_URL"),
		AnalyticsURL:       os.Getenv("ANALYTICS_CONSENT_URL"),
		RateLimitPerSecond: envFloatOr("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     envIntOr("RATE_LIMIT_BURST", 10),
		ShutdownTimeout:    10 * time.Second,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
