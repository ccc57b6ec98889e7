// OrbitAI Core - On-board Machine Learning Supervisor
//
// This is the main entry point for the OrbitAI Core application. It
// supervises the external Mochi learner process, feeds it spacecraft
// parameter samples from the MQTT bus, and stages the resulting models
// for downlink.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	_ "github.com/orbitml/orbitai-core/migrations"

	"github.com/orbitml/orbitai-core/internal/api"
	"github.com/orbitml/orbitai-core/internal/command"
	"github.com/orbitml/orbitai-core/internal/datalog"
	"github.com/orbitml/orbitai-core/internal/export"
	"github.com/orbitml/orbitai-core/internal/infrastructure/config"
	"github.com/orbitml/orbitai-core/internal/infrastructure/database"
	"github.com/orbitml/orbitai-core/internal/infrastructure/influxdb"
	"github.com/orbitml/orbitai-core/internal/infrastructure/logging"
	"github.com/orbitml/orbitai-core/internal/infrastructure/mqtt"
	"github.com/orbitml/orbitai-core/internal/ingest"
	"github.com/orbitml/orbitai-core/internal/learning"
	"github.com/orbitml/orbitai-core/internal/params"
	"github.com/orbitml/orbitai-core/internal/process"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // Wiring: each component adds a block
	// A completed experiment shuts the whole application down, mirroring
	// the signal path.
	ctx, shutdown := context.WithCancel(ctx)
	defer shutdown()

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting OrbitAI Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
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
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Parameter store
	store, err := params.NewStore(cfg.Learning.Parameters, cfg.Learning.DefaultValue)
	if err != nil {
		return fmt.Errorf("creating parameter store: %w", err)
	}
	store.SetLogger(log)
	log.Info("parameter store initialised", "parameters", store.Len())

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// WebSocket hub, shared between the API server and the event sources
	hub := api.NewHub(log)
	go hub.Run(ctx)

	// Learner process supervisor. The OnExit closure is wired to the
	// session below; the session pointer is filled in before any process
	// is started.
	var session *learning.Session
	supervisor := process.NewSupervisor(process.Config{
		Name:            "mochi",
		Binary:          cfg.Learner.Binary,
		Args:            []string{strconv.Itoa(cfg.Learner.Port)},
		WorkDir:         cfg.Learner.Dir,
		GracefulTimeout: cfg.GracefulTimeout(),
		OnExit: func(err error) {
			if session != nil {
				session.HandleProcessExit(err)
			}
		},
	})
	supervisor.SetLogger(log)

	// Command channel to the learner's socket
	channel := command.New(cfg.Learner.Host, cfg.Learner.Port, cfg.ConnectSettle())

	// CSV acquisition log
	acqLog := datalog.New(cfg.DataLog.Dir, cfg.Learning.Parameters, cfg.DataLogMinInterval())

	// Artifact exporter
	exporter := export.New(cfg.Export.DestRoot, cfg.Learner.ExportPrefix)

	// Session history
	repo := learning.NewRepository(db)

	// Learning session
	session = learning.NewSession(learning.Config{
		Mode:           cfg.Learning.Mode,
		Interval:       cfg.Interval(),
		Iterations:     cfg.Learning.Iterations,
		LabelIndex:     labelIndex(cfg),
		LabelThreshold: cfg.Learning.LabelThreshold,
		CommandSettle:  cfg.CommandSettle(),
		ModelsDir:      learnerPath(cfg, cfg.Learner.ModelsDir),
		LogsDir:        learnerPath(cfg, cfg.Learner.LogsDir),
	}, supervisor, channel, store, exporter, repo)
	session.SetLogger(log)
	session.SetOnComplete(func(sessionID string) {
		log.Info("experiment finished, shutting down", "session_id", sessionID)
		shutdown()
	})

	topics := mqtt.Topics{}
	session.SetOnStateChange(func(state learning.State) {
		if pubErr := mqttClient.PublishRetained(topics.SessionState(), []byte(state)); pubErr != nil {
			log.Warn("publishing session state", "error", pubErr)
		}
		if event, ok := sessionEvent(state); ok {
			payload, _ := json.Marshal(map[string]any{
				"event":      event,
				"session_id": session.SessionID(),
				"mode":       session.Mode(),
			})
			if pubErr := mqttClient.Publish(topics.SessionEvent(event), payload, 1, false); pubErr != nil {
				log.Warn("publishing session event", "event", event, "error", pubErr)
			}
		}
		hub.Broadcast(api.ChannelSessionState, map[string]any{
			"state": string(state),
		})
	})
	session.SetOnIteration(func(sessionID string, iteration, label int, values []float64) {
		if influxClient != nil {
			influxClient.WriteIteration(sessionID, session.Mode(), label, iteration)
		}
		hub.Broadcast(api.ChannelSessionIteration, map[string]any{
			"session_id": sessionID,
			"iteration":  iteration,
			"label":      label,
			"values":     values,
		})
	})

	// Parameter feed from the MQTT bus into the store
	var mirror ingest.Mirror
	if influxClient != nil {
		mirror = influxClient
	}
	feed := ingest.NewFeed(mqttClient, store, mirror)
	feed.SetLogger(log)
	feed.SetAcquisitionLog(acqLog, store)
	feed.SetOnSample(func(name string, value float64) {
		hub.Broadcast(api.ChannelParameterSample, map[string]any{
			"name":  name,
			"value": value,
		})
	})
	if err := feed.Start(); err != nil {
		return fmt.Errorf("starting parameter feed: %w", err)
	}
	defer func() {
		if stopErr := feed.Stop(); stopErr != nil {
			log.Warn("stopping parameter feed", "error", stopErr)
		}
	}()
	log.Info("parameter feed started")

	// API server
	server, err := api.New(api.Deps{
		Config:      cfg.API,
		Logger:      log,
		Session:     session,
		Learner:     supervisor,
		Store:       store,
		Feed:        feed,
		History:     repo,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// End any active session so the learner saves its models and the
	// artifacts are exported before the process tree goes away.
	if session.State() != learning.StateIdle {
		log.Info("stopping active session", "session_id", session.SessionID())
		if stopErr := session.Stop(); stopErr != nil {
			log.Error("stopping session during shutdown", "error", stopErr)
		}
	}

	// Confirm the learner is gone before the defers tear down the rest of
	// the stack. Returns immediately if it was never started.
	supervisor.WaitExited()

	log.Info("OrbitAI Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ORBITAI_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ORBITAI_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// sessionEvent maps a session state transition to the lifecycle event it
// announces on the bus. Transitional states carry no event.
func sessionEvent(state learning.State) (string, bool) {
	switch state {
	case learning.StateRunning:
		return "started", true
	case learning.StateIdle:
		return "stopped", true
	default:
		return "", false
	}
}

// labelIndex returns the position of the label parameter within the
// configured parameter order. Config validation guarantees membership.
func labelIndex(cfg *config.Config) int {
	for i, name := range cfg.Learning.Parameters {
		if name == cfg.Learning.LabelParameter {
			return i
		}
	}
	return 0
}

// learnerPath resolves a learner artifact directory against its working
// directory.
func learnerPath(cfg *config.Config, sub string) string {
	return filepath.Join(cfg.Learner.Dir, sub)
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
