package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	ListenAddr  string

	// KeyTag is the literal first segment a portal API key must carry
	// (keys look like "<tag>-<role>-<secret>").
	KeyTag string

	// APIKeys is the static list of keys the gateway accepts. Changing it
	// requires a redeploy; there is no runtime mutation path.
	APIKeys []string

	// AllowedOrigins seeds the CORS allow-list. The list can also be
	// hot-reloaded from portal.yml, see OriginsHolder.
	AllowedOrigins []string

	OTLPEndpoint string

	Blob  BlobConfig
	Audit AuditDBConfig
	Sync  SyncConfig

	// MutationRateLimit caps write/delete requests per key per minute.
	// Zero disables the limiter.
	MutationRateLimit int
}

// BlobConfig configures the document store backend.
type BlobConfig struct {
	// Driver selects the backend: "s3" or "fs".
	Driver string

	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string

	// Dir is the root directory for the fs driver.
	Dir string
}

// AuditDBConfig configures the relational store backing the audit trail.
type AuditDBConfig struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

// SyncConfig configures the lmp-sync batch job.
type SyncConfig struct {
	// GatewayURL is the base URL of the data API the job writes through.
	GatewayURL string
	// GatewayKey is the API key the job authenticates with.
	GatewayKey string

	// PricingURL is the base URL of the upstream pricing API.
	PricingURL string
	PricingKey string

	// ISOs lists the market regions to fetch, e.g. "PJM,ISONE".
	ISOs []string
	// Zones maps an ISO to its pricing zones, flattened as "PJM:AECO;PJM:PECO".
	Zones map[string][]string

	MonthlyDocument string
	HourlyDocument  string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "sessales"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		ListenAddr:        getenv("APP_LISTEN_ADDR", ":8080"),
		KeyTag:            getenv("PORTAL_KEY_TAG", "ses"),
		APIKeys:           splitCSV(getenv("PORTAL_API_KEYS", "")),
		AllowedOrigins:    splitCSV(getenv("PORTAL_ALLOWED_ORIGINS", "")),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", ""),
		MutationRateLimit: int(getenvInt64("PORTAL_MUTATION_RATE_LIMIT", 0)),
		Blob: BlobConfig{
			Driver:    strings.ToLower(getenv("BLOB_DRIVER", "fs")),
			Endpoint:  getenv("BLOB_ENDPOINT", "localhost:9000"),
			AccessKey: getenv("BLOB_ACCESS_KEY", ""),
			SecretKey: getenv("BLOB_SECRET_KEY", ""),
			UseSSL:    getenvBool("BLOB_USE_SSL", true),
			Bucket:    getenv("BLOB_BUCKET", "sessales-data"),
			Prefix:    getenv("BLOB_PREFIX", ""),
			Dir:       getenv("BLOB_DIR", "./data"),
		},
		Audit: AuditDBConfig{
			Type:     getenv("AUDIT_DB_TYPE", "sqlite"),
			Host:     getenv("AUDIT_DB_HOST", "localhost"),
			Port:     getenv("AUDIT_DB_PORT", "5432"),
			Name:     getenv("AUDIT_DB_NAME", "sessales"),
			User:     getenv("AUDIT_DB_USER", "sessales"),
			Password: getenv("AUDIT_DB_PASSWORD", ""),
			SSLMode:  getenv("AUDIT_DB_SSLMODE", "disable"),
		},
		Sync: SyncConfig{
			GatewayURL:      getenv("SYNC_GATEWAY_URL", "http://localhost:8080"),
			GatewayKey:      getenv("SYNC_GATEWAY_KEY", ""),
			PricingURL:      getenv("SYNC_PRICING_URL", ""),
			PricingKey:      getenv("SYNC_PRICING_KEY", ""),
			ISOs:            splitCSV(getenv("SYNC_ISOS", "PJM,ISONE")),
			Zones:           parseZones(getenv("SYNC_ZONES", "")),
			MonthlyDocument: getenv("SYNC_MONTHLY_DOCUMENT", "lmp-database.json"),
			HourlyDocument:  getenv("SYNC_HOURLY_DOCUMENT", "lmp-hourly-database.json"),
		},
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// parseZones decodes "ISO:zone;ISO:zone" pairs.
func parseZones(raw string) map[string][]string {
	out := make(map[string][]string)
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		iso, zone, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		iso = strings.TrimSpace(iso)
		zone = strings.TrimSpace(zone)
		if iso == "" || zone == "" {
			continue
		}
		out[iso] = append(out[iso], zone)
	}
	return out
}
