package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "")
	t.Setenv("APP_BASE_URL", "")
	t.Setenv("DB_NAME", "clickshare")
	t.Setenv("DB_USERNAME", "user")
	t.Setenv("DB_SSLMODE", "")
	t.Setenv("STORAGE_DRIVER", "local")
	t.Setenv("STORAGE_SIGNING_SECRET", "signing-secret")
	t.Setenv("STORAGE_UPLOAD_TTL", "")
	t.Setenv("STORAGE_BUCKET", "")
	t.Setenv("VALKEY_ADDR", "")
	t.Setenv("VALKEY_DB", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TIMEOUT", "")
	t.Setenv("OTEL_METRIC_EXPORT_INTERVAL", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
}

func TestLoadSuccess(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("APP_BASE_URL", "https://cards.example.com/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.com, http://b.com")
	t.Setenv("VALKEY_ADDR", "localhost:6379")
	t.Setenv("VALKEY_DB", "2")
	t.Setenv("STORAGE_UPLOAD_TTL", "5m")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "prod", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://cards.example.com", cfg.BaseURL)
	assert.Equal(t, "require", cfg.DB.SSLMode)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 2, cfg.Valkey.DB)
	assert.Equal(t, "localhost:6379", cfg.Valkey.Addr)
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Equal(t, []byte("signing-secret"), cfg.Storage.SigningSecret)
	assert.Equal(t, 5*time.Minute, cfg.Storage.UploadTTL)
}

func TestLoadDefaultBaseURLFollowsPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "http://localhost:9090", cfg.BaseURL)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
}

func TestLoadUsesInstanceIdentifier(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_INSTANCE_IDENTIFIER", "instance-id")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "instance-id", cfg.DB.Name)
}

func TestLoadMissingDatabaseConfig(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_INSTANCE_IDENTIFIER", "")
	t.Setenv("DB_USERNAME", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadLocalStorageRequiresSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_SIGNING_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadS3StorageRequiresBucket(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_DRIVER", "s3")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_BUCKET", "cards")
	t.Setenv("STORAGE_PUBLIC_BASE_URL", "https://cdn.example.com/")
	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "cards", cfg.Storage.Bucket)
	assert.Equal(t, "https://cdn.example.com", cfg.Storage.PublicBaseURL)
}

func TestLoadUnsupportedStorageDriver(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_DRIVER", "ftp")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadInvalidDurations(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_UPLOAD_TTL", "not-a-duration")
	_, err := Load()
	assert.Error(t, err)

	setRequiredEnv(t)
	t.Setenv("OTEL_EXPORTER_OTLP_TIMEOUT", "nope")
	_, err = Load()
	assert.Error(t, err)

	setRequiredEnv(t)
	t.Setenv("OTEL_METRIC_EXPORT_INTERVAL", "nope")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadInvalidValkeyDB(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("VALKEY_DB", "not-an-int")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadQuotedSigningSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_SIGNING_SECRET", `"quoted"`)

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, []byte("quoted"), cfg.Storage.SigningSecret)
}

func TestGetEnvUsesFallback(t *testing.T) {
	t.Setenv("TEST_ENV", "")
	assert.Equal(t, "fallback", getEnv("TEST_ENV", "fallback"))

	t.Setenv("TEST_ENV", "value")
	assert.Equal(t, "value", getEnv("TEST_ENV", "fallback"))
}

func TestGetEnvBoolFallback(t *testing.T) {
	t.Setenv("TEST_BOOL", "")
	assert.True(t, getEnvBool("TEST_BOOL", true))

	t.Setenv("TEST_BOOL", "not-bool")
	assert.False(t, getEnvBool("TEST_BOOL", false))

	t.Setenv("TEST_BOOL", "false")
	assert.False(t, getEnvBool("TEST_BOOL", true))
}

func TestParseCSVTrimsValues(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, parseCSV("a, b,, ,c"))
}

func TestParseHeaders(t *testing.T) {
	headers := parseHeaders("api-key=abc, x-team = cards,broken,=empty")
	assert.Equal(t, map[string]string{"api-key": "abc", "x-team": "cards"}, headers)
}

func TestTrimQuotes(t *testing.T) {
	assert.Equal(t, "value", trimQuotes(`'value'`))
	assert.Equal(t, "value", trimQuotes(`"value"`))
	assert.Equal(t, `"value`, trimQuotes(`"value`))
	assert.Equal(t, "", trimQuotes(""))
}
