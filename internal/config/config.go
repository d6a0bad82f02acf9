package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // STATS_TIMEZONE must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	minJWTSecretLen = 32
)

type Config struct {
	Env         string
	Port        int
	StoreDriver string
	DBURL       string
	DBMaxConns  int

	// DBConnectAttempts bounds startup retries while Postgres comes up.
	DBConnectAttempts int

	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int
	BcryptCost    int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StatsCacheTTLSeconds int
	StatsTimezone        string

	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	AuthRateLimit         int
	AuthRateWindowSeconds int

	OTELEndpoint    string
	OTELServiceName string
	OTELSampleRatio float64
}

// Load reads settings from the environment. A .env file in the working
// directory is applied first when present; real variables win over it.
func Load() Config {
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")
	port := getEnvInt("PORT", 8080)
	dbURL := buildDBURL()

	return Config{
		Env:         env,
		Port:        port,
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DBURL:       dbURL,
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 10),

		DBConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 5),

		JWTSecret:     getEnv("JWT_SECRET", "dev-only-secret-change-me"),
		JWTIssuer:     getEnv("JWT_ISSUER", "taskhub"),
		JWTTTLMinutes: getEnvInt("JWT_TTL_MINUTES", 24*60),
		BcryptCost:    getEnvInt("BCRYPT_COST", 10),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		StatsCacheTTLSeconds: getEnvInt("STATS_CACHE_TTL_SECONDS", 30),
		StatsTimezone:        getEnv("STATS_TIMEZONE", "UTC"),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		AuthRateLimit:         getEnvInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindowSeconds: getEnvInt("AUTH_RATE_WINDOW_SECONDS", 60),

		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELServiceName: getEnv("OTEL_SERVICE_NAME", "taskhub-api"),
		OTELSampleRatio: getEnvFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
	}
}

// Validate rejects settings the server must not start with.
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver))
	}

	if c.JWTTTLMinutes <= 0 {
		errs = append(errs, errors.New("JWT_TTL_MINUTES must be positive"))
	}

	if !c.IsDevLike() && len(c.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters outside dev", minJWTSecretLen))
	}

	if _, err := time.LoadLocation(c.StatsTimezone); err != nil {
		errs = append(errs, fmt.Errorf("STATS_TIMEZONE: %w", err))
	}

	if c.OTELSampleRatio <= 0 || c.OTELSampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_TRACES_SAMPLE_RATIO must be within (0, 1]"))
	}

	if c.AuthRateLimit > 0 && c.AuthRateWindowSeconds <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_WINDOW_SECONDS must be positive when AUTH_RATE_LIMIT is set"))
	}

	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}

	return errors.Join(errs...)
}

func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "test"
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}

func (c Config) StatsCacheTTL() time.Duration {
	return time.Duration(c.StatsCacheTTLSeconds) * time.Second
}

func (c Config) AuthRateWindow() time.Duration {
	return time.Duration(c.AuthRateWindowSeconds) * time.Second
}

// StatsLocation falls back to UTC; Validate reports a bad zone name.
func (c Config) StatsLocation() *time.Location {
	loc, err := time.LoadLocation(c.StatsTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "taskhub")
	pass := getEnv("DB_PASSWORD", "taskhub")
	name := getEnv("DB_NAME", "taskhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return f
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
