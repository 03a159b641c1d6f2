package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"clickshare/config"
	"clickshare/db"
	"clickshare/handlers"
	"clickshare/repository"
	"clickshare/routes"
	"clickshare/secretmanager"
	"clickshare/storage"
	"clickshare/store"
	"clickshare/telemetry"
	"clickshare/web"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

var (
	loadEnv        = godotenv.Load
	loadConfig     = config.Load
	connectDB      = db.Connect
	migrateDB      = db.Migrate
	newValkeyStore = store.NewValkeyStore
	newStorage     = storage.New
	initTelemetry  = telemetry.Init
	setupRoutes    = routes.SetupRoutes
	listenAndServe = http.ListenAndServe
	getSecret      = secretmanager.GetSecret
	setEnv         = os.Setenv
	logFatal       = log.Fatal
)

type postgresSecret struct {
	Username             string `json:"username"`
	Password             string `json:"password"`
	Engine               string `json:"engine"`
	Host                 string `json:"host"`
	Port                 int    `json:"port"`
	DBInstanceIdentifier string `json:"dbInstanceIdentifier"`
}

func loadSecretMap(secretName string) (map[string]string, error) {
	secretJSON, err := getSecret(secretName)
	if err != nil {
		return nil, err
	}
	secrets := make(map[string]string)
	if err := json.Unmarshal([]byte(secretJSON), &secrets); err != nil {
		return nil, err
	}
	return secrets, nil
}

func setEnvFromMap(values map[string]string) error {
	for key, value := range values {
		if err := setEnv(key, value); err != nil {
			return fmt.Errorf("error setting %s: %w", key, err)
		}
	}
	return nil
}

func validatePostgresSecret(secret postgresSecret) error {
	var missing []string
	for name, value := range map[string]string{
		"username":             secret.Username,
		"password":             secret.Password,
		"engine":               secret.Engine,
		"host":                 secret.Host,
		"dbInstanceIdentifier": secret.DBInstanceIdentifier,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("postgres secret missing fields: %s", strings.Join(missing, ", "))
	}
	if secret.Port <= 0 {
		return errors.New("postgres secret has an invalid port")
	}
	return nil
}

func loadPostgresSecret() (postgresSecret, error) {
	secretJSON, err := getSecret("prod/postgres")
	if err != nil {
		return postgresSecret{}, fmt.Errorf("error retrieving Postgres secret: %w", err)
	}
	var secret postgresSecret
	if err := json.Unmarshal([]byte(secretJSON), &secret); err != nil {
		return postgresSecret{}, fmt.Errorf("error parsing Postgres secret JSON: %w", err)
	}
	if err := validatePostgresSecret(secret); err != nil {
		return postgresSecret{}, err
	}
	return secret, nil
}

// loadProdSecrets exports prod/postgres into the DB_* variables and, when they
// exist, the flat prod/storage and prod/valkey maps as-is.
func loadProdSecrets() error {
	pg, err := loadPostgresSecret()
	if err != nil {
		return err
	}
	if err := setEnvFromMap(map[string]string{
		"DB_USERNAME":            pg.Username,
		"DB_PASSWORD":            pg.Password,
		"DB_ENGINE":              pg.Engine,
		"DB_HOST":                pg.Host,
		"DB_PORT":                strconv.Itoa(pg.Port),
		"DB_INSTANCE_IDENTIFIER": pg.DBInstanceIdentifier,
	}); err != nil {
		return err
	}

	for _, name := range []string{"prod/storage", "prod/valkey"} {
		values, err := loadSecretMap(name)
		if err != nil {
			log.Printf("Optional secret %s not loaded: %v", name, err)
			continue
		}
		if err := setEnvFromMap(values); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		logFatal(err)
	}
}

func run() error {
	if err := loadEnv(); err != nil {
		log.Println("No .env file found; using system environment variables")
	}
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	log.Println("Environment:", appEnv)

	if appEnv == "prod" {
		if err := loadProdSecrets(); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx := context.Background()
	shutdownTelemetry, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("telemetry error: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Printf("Telemetry shutdown error: %v", err)
		}
	}()

	if err := connectDB(cfg.DB); err != nil {
		return err
	}
	if cfg.DB.AutoMigrate {
		if err := migrateDB(ctx); err != nil {
			return err
		}
	}

	var tickets store.UploadTicketStore
	if cfg.Valkey.Addr != "" {
		valkeyStore, err := newValkeyStore(cfg.Valkey)
		if err != nil {
			return fmt.Errorf("valkey connection error: %w", err)
		}
		defer valkeyStore.Close()
		tickets = valkeyStore
	} else {
		log.Println("VALKEY_ADDR not set; local upload URLs are single use by file existence only")
	}

	objects, err := newStorage(ctx, cfg, tickets)
	if err != nil {
		return fmt.Errorf("storage error: %w", err)
	}

	metrics, err := telemetry.NewMetrics(otel.Meter("clickshare"))
	if err != nil {
		return err
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("template error: %w", err)
	}

	profiles := repository.NewProfileRepository(db.DB)
	h := routes.Handlers{
		Profiles:   handlers.NewProfileHandler(profiles, objects, metrics),
		Pages:      handlers.NewPageHandler(cfg, renderer, profiles, objects, metrics),
		EditTokens: profiles,
	}
	if local, ok := objects.(*storage.LocalStorage); ok {
		h.Storage = handlers.NewStorageHandler(local)
	}
	router := setupRoutes(h)

	corsOpts := []gorillaHandlers.CORSOption{
		gorillaHandlers.AllowedOrigins(cfg.CORS.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "X-Requested-With", "X-Edit-Token"}),
	}

	corsHandler := gorillaHandlers.CORS(corsOpts...)(router)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting server on port %s in %s environment (storage: %s, CORS: %s)", port, cfg.AppEnv, cfg.Storage.Driver, strings.Join(cfg.CORS.AllowedOrigins, ","))
	return listenAndServe(":"+port, otelhttp.NewHandler(corsHandler, "clickshare"))
}
