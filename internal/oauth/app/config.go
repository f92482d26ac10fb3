package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	httpapi "github.com/advancedlearning/oauthd/internal/oauth/http"
	"github.com/advancedlearning/oauthd/pkg/jwtx"
)

type Config struct {
	Issuer         string // iss claim for minted tokens
	BootstrapToken string // required to perform bootstrap; empty disables it

	SigningKeyFile string // PEM RSA private key; empty generates an ephemeral key
	PublicKeyFile  string // optional extra PEM verification key
	RSABits        int    // key size for ephemeral generation

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// ClientsHaveScopes decides whether the client-scope relation is
	// consulted at all. Off means client principals carry no entitlement and
	// machine grants resolve to empty scope sets.
	ClientsHaveScopes bool

	CORS httpapi.CORSConfig

	DatabaseFile         string
	Env                  string
	LogLevel             string
	LogFormat            string
	Port                 int
	ShutdownGracePeriod  time.Duration
	HousekeepingInterval time.Duration
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:         getEnvOrDefault("OAUTH_ISSUER", "oauthd"),
		BootstrapToken: os.Getenv("BOOTSTRAP_TOKEN"),

		SigningKeyFile: os.Getenv("OAUTH_SIGNING_KEY_FILE"),
		PublicKeyFile:  os.Getenv("OAUTH_PUBLIC_KEY_FILE"),
		RSABits:        getEnvIntOrDefault("OAUTH_RSA_BITS", 2048),

		AccessTTL:  getEnvDurationOrDefault("OAUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("OAUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		ClientsHaveScopes: getEnvBoolOrDefault("OAUTH_CLIENTS_HAVE_SCOPES", true),

		CORS: httpapi.CORSConfig{
			Enabled:          getEnvBoolOrDefault("CORS_ENABLED", false),
			AllowedOrigins:   splitCommaList(os.Getenv("CORS_ALLOWED_ORIGINS")),
			AllowedHeaders:   getEnvOrDefault("CORS_ALLOWED_HEADERS", httpapi.DefaultCORSHeaders),
			AllowedMethods:   getEnvOrDefault("CORS_ALLOWED_METHODS", httpapi.DefaultCORSMethods),
			MaxAge:           getEnvIntOrDefault("CORS_MAX_AGE", httpapi.DefaultCORSMaxAge),
			AllowCredentials: getEnvBoolOrDefault("CORS_ALLOW_CREDENTIALS", false),
		},

		DatabaseFile:         getEnvOrDefault("OAUTH_DATABASE_FILE", "oauthd.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}

// splitCommaList splits a comma-separated env value into trimmed entries.
// Unlike stored redirect URIs, configuration values tolerate whitespace.
func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
