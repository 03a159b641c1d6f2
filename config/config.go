package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv    string
	Port      string
	BaseURL   string
	DB        DatabaseConfig
	Storage   StorageConfig
	CORS      CORSConfig
	Valkey    ValkeyConfig
	Telemetry TelemetryConfig
}

type DatabaseConfig struct {
	Engine      string
	Host        string
	Port        string
	Name        string
	Username    string
	Password    string
	SSLMode     string
	AutoMigrate bool
}

// StorageConfig selects and configures the object storage backend that holds
// profile images.
type StorageConfig struct {
	Driver        string
	LocalDir      string
	SigningSecret []byte
	UploadTTL     time.Duration
	Bucket        string
	Region        string
	Endpoint      string
	PublicBaseURL string
	UsePathStyle  bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

// ValkeyConfig is optional. An empty Addr disables one-time upload tickets.
type ValkeyConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type TelemetryConfig struct {
	ServiceName          string
	ServiceVersion       string
	OTLPEndpoint         string
	OTLPTracesEndpoint   string
	OTLPMetricsEndpoint  string
	OTLPProtocol         string
	OTLPHeaders          map[string]string
	OTLPInsecure         bool
	ExportTimeout        time.Duration
	MetricExportInterval time.Duration
}

const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

func Load() (Config, error) {
	appEnv := getEnv("APP_ENV", "dev")
	port := getEnv("APP_PORT", "8080")
	baseURL := strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:"+port), "/")

	dbName := getEnv("DB_NAME", "")
	if dbName == "" {
		dbName = os.Getenv("DB_INSTANCE_IDENTIFIER")
	}

	dbSSLMode := getEnv("DB_SSLMODE", "")
	if dbSSLMode == "" {
		if appEnv == "prod" {
			dbSSLMode = "require"
		} else {
			dbSSLMode = "disable"
		}
	}

	storage, err := loadStorage()
	if err != nil {
		return Config{}, err
	}

	corsOrigins := parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"))

	valkeyDB, err := strconv.Atoi(getEnv("VALKEY_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid VALKEY_DB: %w", err)
	}

	telemetry, err := loadTelemetry()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:  appEnv,
		Port:    port,
		BaseURL: baseURL,
		DB: DatabaseConfig{
			Engine:      getEnv("DB_ENGINE", "postgres"),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			Name:        dbName,
			Username:    getEnv("DB_USERNAME", ""),
			Password:    getEnv("DB_PASSWORD", ""),
			SSLMode:     dbSSLMode,
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Storage: storage,
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Valkey: ValkeyConfig{
			Addr:     getEnv("VALKEY_ADDR", ""),
			Password: getEnv("VALKEY_PASSWORD", ""),
			DB:       valkeyDB,
			Prefix:   getEnv("VALKEY_PREFIX", "clickshare:upload"),
		},
		Telemetry: telemetry,
	}

	if cfg.DB.Name == "" || cfg.DB.Username == "" {
		return Config{}, errors.New("DB_NAME (or DB_INSTANCE_IDENTIFIER) and DB_USERNAME must be set")
	}

	return cfg, nil
}

func loadStorage() (StorageConfig, error) {
	uploadTTL, err := time.ParseDuration(getEnv("STORAGE_UPLOAD_TTL", "15m"))
	if err != nil {
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_UPLOAD_TTL: %w", err)
	}

	storage := StorageConfig{
		Driver:        strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverLocal)),
		LocalDir:      getEnv("STORAGE_LOCAL_DIR", "uploads"),
		SigningSecret: []byte(trimQuotes(os.Getenv("STORAGE_SIGNING_SECRET"))),
		UploadTTL:     uploadTTL,
		Bucket:        getEnv("STORAGE_BUCKET", ""),
		Region:        getEnv("STORAGE_REGION", getEnv("AWS_REGION", "")),
		Endpoint:      getEnv("STORAGE_ENDPOINT", ""),
		PublicBaseURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_BASE_URL", ""), "/"),
		UsePathStyle:  getEnvBool("STORAGE_USE_PATH_STYLE", false),
	}

	switch storage.Driver {
	case StorageDriverLocal:
		if len(storage.SigningSecret) == 0 {
			return StorageConfig{}, errors.New("STORAGE_SIGNING_SECRET must be set for the local storage driver")
		}
	case StorageDriverS3:
		if storage.Bucket == "" {
			return StorageConfig{}, errors.New("STORAGE_BUCKET must be set for the s3 storage driver")
		}
	default:
		return StorageConfig{}, fmt.Errorf("unsupported STORAGE_DRIVER: %s", storage.Driver)
	}
	return storage, nil
}

func loadTelemetry() (TelemetryConfig, error) {
	exportTimeout, err := time.ParseDuration(getEnv("OTEL_EXPORTER_OTLP_TIMEOUT", "10s"))
	if err != nil {
		return TelemetryConfig{}, fmt.Errorf("invalid OTEL_EXPORTER_OTLP_TIMEOUT: %w", err)
	}
	metricInterval, err := time.ParseDuration(getEnv("OTEL_METRIC_EXPORT_INTERVAL", "60s"))
	if err != nil {
		return TelemetryConfig{}, fmt.Errorf("invalid OTEL_METRIC_EXPORT_INTERVAL: %w", err)
	}

	return TelemetryConfig{
		ServiceName:          getEnv("OTEL_SERVICE_NAME", "clickshare"),
		ServiceVersion:       getEnv("OTEL_SERVICE_VERSION", "dev"),
		OTLPEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPTracesEndpoint:   getEnv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", ""),
		OTLPMetricsEndpoint:  getEnv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", ""),
		OTLPProtocol:         getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
		OTLPHeaders:          parseHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", "")),
		OTLPInsecure:         getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ExportTimeout:        exportTimeout,
		MetricExportInterval: metricInterval,
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	var results []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

// parseHeaders reads the OTLP "key=value,key2=value2" header format.
func parseHeaders(value string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range parseCSV(value) {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(val)
	}
	return headers
}

func trimQuotes(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
