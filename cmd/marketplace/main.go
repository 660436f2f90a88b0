// Marketplace Core - vendor storefront backend
//
// This is the main entry point for the marketplace API. It serves shopper
// and vendor accounts, vendor-owned product management and the public
// category catalogue, with optional MQTT event fan-out and InfluxDB metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/nerrad567/marketplace-core/migrations"

	"github.com/nerrad567/marketplace-core/internal/api"
	"github.com/nerrad567/marketplace-core/internal/audit"
	"github.com/nerrad567/marketplace-core/internal/auth"
	"github.com/nerrad567/marketplace-core/internal/catalog"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/config"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/database"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/logging"
	"github.com/nerrad567/marketplace-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/marketplace-core/internal/media"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// defaultConfigPath is read when MARKET_CONFIG is unset and the file exists.
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the service together and blocks until ctx is cancelled.
// Deferred closes run in reverse order of opening.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting marketplace core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// A missing .env is normal in production.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	categories, err := catalog.LoadCategorySet(ctx, catalog.NewSQLiteCategoryRepository(db.DB))
	if err != nil {
		return fmt.Errorf("loading categories: %w", err)
	}
	log.Info("categories loaded", "count", categories.Len())

	store, err := newMediaStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating image store: %w", err)
	}
	log.Info("image store ready", "backend", cfg.Uploads.Backend, "max_size_mb", cfg.Uploads.MaxSizeMB)

	mqttClient := connectMQTT(cfg, log)
	if mqttClient != nil {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
	}

	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	authService := auth.NewService(
		auth.NewUserRepository(db.DB),
		auth.NewVendorRepository(db.DB),
		auth.NewTokenIssuer([]byte(cfg.Security.JWT.Secret), cfg.TokenTTL()),
		cfg.Security.Password.BcryptCost,
	)

	server, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Uploads:    cfg.Uploads,
		Logger:     log.With("component", "api"),
		DB:         db,
		Auth:       authService,
		Products:   catalog.NewSQLiteProductRepository(db.DB),
		Categories: categories,
		Media:      store,
		AuditRepo:  audit.NewSQLiteRepository(db.DB),
		MQTT:       mqttClient,
		InfluxDB:   influxClient,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal", "address", cfg.ListenAddr())
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

// getConfigPath returns MARKET_CONFIG if set, otherwise the default path
// when that file exists. An empty result means environment-only config.
func getConfigPath() string {
	if path := os.Getenv("MARKET_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// newMediaStore builds the configured image backend.
func newMediaStore(ctx context.Context, cfg *config.Config) (media.Store, error) {
	if cfg.Uploads.Backend == config.UploadBackendS3 {
		s3 := cfg.Uploads.S3
		return media.NewS3Store(ctx, media.S3Config{
			Bucket:    s3.Bucket,
			Region:    s3.Region,
			Endpoint:  s3.Endpoint,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			MaxBytes:  cfg.MaxUploadBytes(),
		})
	}
	return media.NewLocalStore(cfg.Uploads.Dir, cfg.Uploads.URLPrefix, cfg.MaxUploadBytes())
}

// connectMQTT dials the broker when one is configured. The service runs
// without it: product events are then only pushed to local feed clients.
func connectMQTT(cfg *config.Config, log *logging.Logger) *mqtt.Client {
	if cfg.MQTT.Broker.Host == "" {
		log.Info("MQTT disabled")
		return nil
	}

	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		log.Warn("MQTT unavailable, continuing without event fan-out", "error", err)
		return nil
	}
	client.SetLogger(log.With("component", "mqtt"))
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)
	return client
}
