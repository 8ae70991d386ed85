package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	MongoURI       string
	DBName         string
	AllowedOrigins []string
	GinMode        string
	RequestTimeout time.Duration

	StripeSecretKey string
	Currency        string

	JWTSecret string
	TokenTTL  time.Duration
	// IdentitySecret verifies the identity provider's HS256 tokens that
	// POST /jwt exchanges for a session token.
	IdentitySecret string
	EnforceAdmin   bool

	Redis     Redis
	Push      Push
	RateLimit RateLimit
}

type Redis struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

type Push struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
}

// Enabled reports whether both VAPID keys are present.
func (p Push) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
}

// Load reads .env (when present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	return Config{
		Port:           envString("PORT", "5000"),
		MongoURI:       mongoURI(),
		DBName:         envString("DB_NAME", "talkThreads"),
		AllowedOrigins: envList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:5174"}),
		GinMode:        envString("GIN_MODE", "debug"),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 10*time.Second),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		Currency:        envString("PAYMENT_CURRENCY", "usd"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       envDuration("TOKEN_TTL", 24*time.Hour),
		IdentitySecret: os.Getenv("IDENTITY_TOKEN_SECRET"),
		EnforceAdmin:   envBool("ENFORCE_ADMIN", false),

		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
			Channel:  envString("EVENTS_CHANNEL", "talkthreads-events"),
		},
		Push: Push{
			PublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
			PrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
			Subscriber: envString("VAPID_SUBSCRIBER", "mailto:admin@talkthreads.dev"),
		},
		RateLimit: RateLimit{
			RequestsPerSecond: envFloat("RATE_LIMIT_RPS", 20),
			Burst:             envInt("RATE_LIMIT_BURST", 40),
		},
	}
}

// Validate rejects settings that cannot work together.
func (c Config) Validate() error {
	if c.EnforceAdmin && c.JWTSecret == "" {
		return fmt.Errorf("ENFORCE_ADMIN needs JWT_SECRET to verify admin tokens")
	}
	if c.EnforceAdmin && c.IdentitySecret == "" {
		return fmt.Errorf("ENFORCE_ADMIN needs IDENTITY_TOKEN_SECRET to issue admin tokens")
	}
	if c.IdentitySecret != "" && c.IdentitySecret == c.JWTSecret {
		return fmt.Errorf("IDENTITY_TOKEN_SECRET must differ from JWT_SECRET")
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.RateLimit.RequestsPerSecond)
	}
	return nil
}

// Addr is the listen address for http.Server.
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// mongoURI prefers MONGODB_URI, then an Atlas SRV URI built from DB_USER and
// DB_PASSWORD, then a local server.
func mongoURI() string {
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		return uri
	}
	user := os.Getenv("DB_USER")
	if user == "" {
		return "mongodb://127.0.0.1:27017"
	}
	host := envString("DB_HOST", "cluster0.mongodb.net")
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority",
		url.QueryEscape(user), url.QueryEscape(os.Getenv("DB_PASSWORD")), host)
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
