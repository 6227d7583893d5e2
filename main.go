package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"

	"github.com/pibox/pibox/cmd"
	"github.com/pibox/pibox/internal/access"
	"github.com/pibox/pibox/internal/api"
	"github.com/pibox/pibox/internal/config"
	"github.com/pibox/pibox/internal/events"
	"github.com/pibox/pibox/internal/logging"
	"github.com/pibox/pibox/internal/metrics"
	"github.com/pibox/pibox/internal/relay"
	"github.com/pibox/pibox/internal/snapshot"
	sqlitestore "github.com/pibox/pibox/internal/store/sqlite"
	"github.com/pibox/pibox/internal/sync"
	"github.com/pibox/pibox/internal/uplink"
	"github.com/pibox/pibox/internal/ws"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"pibox.toml"`

	// Server settings
	Port string `help:"Address to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Storage settings
	DBPath    string `help:"SQLite database path" default:"pibox.db" toml:"storage.db_path" env:"DB_PATH"`
	ImagesDir string `help:"Directory for detection images" default:"images" toml:"storage.images_dir" env:"IMAGES_DIR"`

	// Directory server settings
	DirectoryURL      string `help:"Remote vehicle directory URL (empty disables sync)" default:"" toml:"directory.url" env:"DIRECTORY_URL"`
	DirectoryDB       string `help:"Directory database name" default:"" toml:"directory.db" env:"DIRECTORY_DB"`
	DirectoryUser     string `help:"Directory username" default:"" toml:"directory.username" env:"DIRECTORY_USERNAME"`
	DirectoryPassword string `help:"Directory password" default:"" toml:"directory.password" env:"DIRECTORY_PASSWORD"`
	SyncIntervalSec   int    `help:"Directory sync interval in seconds" default:"300" toml:"directory.sync_interval_sec" env:"SYNC_INTERVAL_SEC"`

	// Barrier settings
	PulseMs int `help:"Barrier pulse duration in milliseconds" default:"1500" toml:"barrier.pulse_ms" env:"PULSE_MS"`

	// MQTT uplink settings
	MQTTBroker   string `help:"MQTT broker URL (empty disables uplink)" default:"" toml:"mqtt.broker" env:"MQTT_BROKER"`
	MQTTUsername string `help:"MQTT username" default:"" toml:"mqtt.username" env:"MQTT_USERNAME"`
	MQTTPassword string `help:"MQTT password" default:"" toml:"mqtt.password" env:"MQTT_PASSWORD"`

	// Object storage settings
	S3Endpoint  string `help:"S3 endpoint for image offload (empty disables upload)" default:"" toml:"s3.endpoint" env:"S3_ENDPOINT"`
	S3AccessKey string `help:"S3 access key" default:"" toml:"s3.access_key" env:"S3_ACCESS_KEY"`
	S3SecretKey string `help:"S3 secret key" default:"" toml:"s3.secret_key" env:"S3_SECRET_KEY"`
	S3Bucket    string `help:"S3 bucket for images" default:"pibox-images" toml:"s3.bucket" env:"S3_BUCKET"`
	S3UseSSL    bool   `help:"Use TLS for S3" default:"true" toml:"s3.use_ssl" env:"S3_USE_SSL"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel  string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingWS     string `help:"Websocket hub logging level" default:"info" toml:"logging.ws" env:"LOGGING_WS"`
	LoggingAccess string `help:"Access pipeline logging level" default:"info" toml:"logging.access" env:"LOGGING_ACCESS"`
	LoggingSync   string `help:"Directory sync logging level" default:"info" toml:"logging.sync" env:"LOGGING_SYNC"`
	LoggingAPI    string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingRelay  string `help:"Relay driver logging level" default:"info" toml:"logging.relay" env:"LOGGING_RELAY"`
}

func main() {
	// .env is optional, used on dev machines
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"ws":     opts.LoggingWS,
				"access": opts.LoggingAccess,
				"sync":   opts.LoggingSync,
				"api":    opts.LoggingAPI,
				"relay":  opts.LoggingRelay,
			},
		})
		logger := logging.GetLogger("main")

		eventBus := events.New()

		// Stream log entries to websocket/SSE clients
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		db, stores, err := sqlitestore.Open(context.Background(), opts.DBPath)
		if err != nil {
			logger.Error("Failed to open database", "path", opts.DBPath, "error", err)
			os.Exit(1)
		}

		relays := relay.New(eventBus)

		snapshots, err := snapshot.New(opts.ImagesDir, snapshotOptions(opts)...)
		if err != nil {
			logger.Error("Failed to init image store", "dir", opts.ImagesDir, "error", err)
			os.Exit(1)
		}

		var dirClient *sync.Client
		if opts.DirectoryURL != "" {
			dirClient = sync.NewClient(opts.DirectoryURL, opts.DirectoryDB, opts.DirectoryUser, opts.DirectoryPassword)
		}
		syncer := sync.New(dirClient, stores, eventBus, time.Duration(opts.SyncIntervalSec)*time.Second)

		accessOpts := []access.Option{
			access.WithSnapshots(snapshots),
			access.WithPulseDuration(time.Duration(opts.PulseMs) * time.Millisecond),
		}
		if dirClient != nil {
			accessOpts = append(accessOpts, access.WithPusher(syncer))
		}
		accessSvc := access.New(stores, relays, eventBus, accessOpts...)

		hub := ws.NewHub(ws.Options{
			Config: ws.DefaultConfig(),
			Logger: logging.GetLogger("ws"),
			Stats: func() events.StatsEvent {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				stats, err := stores.AccessLogs.TodayStats(ctx)
				if err != nil {
					return events.StatsEvent{}
				}
				return events.StatsEvent(stats)
			},
			Status: syncer.Status,
		})
		detachHub := hub.Attach(eventBus)

		var publisher *uplink.Publisher
		if opts.MQTTBroker != "" {
			publisher, err = uplink.New(uplink.Config{
				BrokerURL: opts.MQTTBroker,
				Username:  opts.MQTTUsername,
				Password:  opts.MQTTPassword,
			}, eventBus)
			if err != nil {
				logger.Warn("MQTT uplink disabled", "error", err)
			}
		}

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Stores:            stores,
			Access:            accessSvc,
			Relays:            relays,
			Hub:               hub,
			Syncer:            syncer,
			Snapshots:         snapshots,
			Bus:               eventBus,
			PrometheusHandler: metrics.Handler(),
		})

		// Live logging level reload on config file edits
		var watcher *config.Watcher[logging.Config]
		if _, statErr := os.Stat(opts.Config); statErr == nil {
			watcher = config.NewConfigWatcher(opts.Config, func(path string) (logging.Config, error) {
				return config.LoadLoggingConfig(path), nil
			}, logger)
			watcher.OnReload(func(cfg logging.Config) {
				logger.Info("Reloading logging configuration")
				logging.Initialize(cfg)
			})
		}

		hooks.OnStart(func() {
			syncer.Start()
			if watcher != nil {
				if watchErr := watcher.Start(); watchErr != nil {
					logger.Warn("Config watcher failed to start", "error", watchErr)
				}
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if watcher != nil {
				watcher.Stop()
			}
			detachHub()
			hub.Close()
			if publisher != nil {
				publisher.Close()
			}
			syncer.Stop()
			snapshots.Close()
			if closeErr := relays.Close(); closeErr != nil {
				logger.Error("Error releasing relays", "error", closeErr)
			}
			if closeErr := db.Close(); closeErr != nil {
				logger.Error("Error closing database", "error", closeErr)
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateRelayCmd())
	cli.Root().AddCommand(cmd.CreatePlateCmd())

	cli.Run()
}

func snapshotOptions(opts *Options) []snapshot.Option {
	if opts.S3Endpoint == "" {
		return nil
	}
	return []snapshot.Option{
		snapshot.WithObjectStorage(opts.S3Endpoint, opts.S3AccessKey, opts.S3SecretKey, opts.S3Bucket, opts.S3UseSSL),
	}
}
