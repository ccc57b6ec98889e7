package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for OrbitAI Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Learning Learning       `yaml:"learning"`
	Learner  Learner        `yaml:"learner"`
	DataLog  DataLog        `yaml:"datalog"`
	Export   Export         `yaml:"export"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Learning contains experiment settings for the learning loop.
type Learning struct {
	// Mode selects the command verb sent each tick: "train" or "infer".
	Mode string `yaml:"mode"`

	// IntervalSeconds is the time between two learning iterations.
	IntervalSeconds int `yaml:"interval_seconds"`

	// Iterations is the number of learning iterations before the
	// experiment completes on its own.
	Iterations int `yaml:"iterations"`

	// Parameters is the fixed, ordered set of supervisor parameters fed
	// into every learn command. Order determines command field order and
	// CSV column order.
	Parameters []string `yaml:"parameters"`

	// LabelParameter is the member of Parameters used for label derivation.
	LabelParameter string `yaml:"label_parameter"`

	// LabelThreshold is the photodiode elevation threshold (radians) above
	// which the label is 0 (camera off), otherwise 1.
	LabelThreshold float64 `yaml:"label_threshold"`

	// DefaultValue is returned for parameters that have never been received.
	DefaultValue float64 `yaml:"default_value"`
}

// Learner contains settings for the external learning process.
type Learner struct {
	// Binary is the path to the learner executable.
	Binary string `yaml:"binary"`

	// Dir is the learner's working directory. Models and logs live in
	// subdirectories of it.
	Dir string `yaml:"dir"`

	// Host is the address the learner binds its command socket to.
	Host string `yaml:"host"`

	// Port is passed to the learner as its only argument.
	Port int `yaml:"port"`

	// ConnectSettleSeconds is the fixed wait between process launch and
	// socket connect, giving the learner time to bind its listener.
	ConnectSettleSeconds int `yaml:"connect_settle_seconds"`

	// CommandSettleMillis is the fixed wait after the save and exit
	// commands during shutdown.
	CommandSettleMillis int `yaml:"command_settle_ms"`

	// GracefulTimeoutSeconds is how long to wait for the learner to obey
	// the exit command before it is killed.
	GracefulTimeoutSeconds int `yaml:"graceful_timeout_seconds"`

	// ModelsDir and LogsDir are relative to Dir.
	ModelsDir string `yaml:"models_dir"`
	LogsDir   string `yaml:"logs_dir"`

	// ExportPrefix names the per-session export directory: <prefix>-<timestamp>.
	ExportPrefix string `yaml:"export_prefix"`
}

// DataLog contains settings for the CSV acquisition log.
type DataLog struct {
	// Dir is the directory CSV files are written to.
	Dir string `yaml:"dir"`

	// MinIntervalSeconds is the minimum time between two CSV lines.
	MinIntervalSeconds float64 `yaml:"min_interval_seconds"`
}

// Export contains settings for artifact export on session stop.
type Export struct {
	// DestRoot is the staging directory exports are copied under.
	DestRoot string `yaml:"dest_root"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for the optional
// telemetry mirror.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// DatabaseConfig contains SQLite database settings for session history.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Learning modes.
const (
	ModeTrain = "train"
	ModeInfer = "infer"
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ORBITAI_SECTION_KEY
// For example: ORBITAI_DATABASE_PATH, ORBITAI_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
//
// The learning defaults match the OPS-SAT flight configuration: six CADC
// parameters (photodiode elevations plus attitude quaternion estimate), a
// 5 second iteration interval, and the HD camera elevation threshold of
// 60 degrees (1.0472 rad).
func defaultConfig() *Config {
	return &Config{
		Learning: Learning{
			Mode:            ModeTrain,
			IntervalSeconds: 5,
			Iterations:      1000,
			Parameters: []string{
				"CADC0888", "CADC0894",
				"CADC1002", "CADC1003", "CADC1004", "CADC1005",
			},
			LabelParameter: "CADC0894",
			LabelThreshold: 1.0472,
			DefaultValue:   42,
		},
		Learner: Learner{
			Binary:                 "./OrbitAI_Mochi",
			Dir:                    "./Mochi",
			Host:                   "127.0.0.1",
			Port:                   9999,
			ConnectSettleSeconds:   3,
			CommandSettleMillis:    500,
			GracefulTimeoutSeconds: 5,
			ModelsDir:              "models",
			LogsDir:                "logs",
			ExportPrefix:           "mochi",
		},
		DataLog: DataLog{
			Dir:                "./toGround/data",
			MinIntervalSeconds: 4.5,
		},
		Export: Export{
			DestRoot: "./toGround",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "orbitai-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/orbitai.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ORBITAI_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Learner
	if v := os.Getenv("ORBITAI_LEARNER_BINARY"); v != "" {
		cfg.Learner.Binary = v
	}
	if v := os.Getenv("ORBITAI_LEARNER_DIR"); v != "" {
		cfg.Learner.Dir = v
	}

	// Database
	if v := os.Getenv("ORBITAI_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("ORBITAI_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ORBITAI_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ORBITAI_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("ORBITAI_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("ORBITAI_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Learning validation
	if c.Learning.Mode != ModeTrain && c.Learning.Mode != ModeInfer {
		errs = append(errs, `learning.mode must be "train" or "infer"`)
	}
	if c.Learning.IntervalSeconds < 0 {
		errs = append(errs, "learning.interval_seconds must not be negative")
	}
	if c.Learning.Iterations <= 0 {
		errs = append(errs, "learning.iterations must be positive")
	}
	if len(c.Learning.Parameters) == 0 {
		errs = append(errs, "learning.parameters must not be empty")
	}
	seen := make(map[string]bool, len(c.Learning.Parameters))
	for _, name := range c.Learning.Parameters {
		if name == "" {
			errs = append(errs, "learning.parameters must not contain empty names")
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Sprintf("learning.parameters contains duplicate %q", name))
		}
		seen[name] = true
	}
	if !seen[c.Learning.LabelParameter] {
		errs = append(errs, "learning.label_parameter must be one of learning.parameters")
	}

	// Learner validation
	if c.Learner.Binary == "" {
		errs = append(errs, "learner.binary is required")
	}
	if c.Learner.Port < 1 || c.Learner.Port > 65535 {
		errs = append(errs, "learner.port must be between 1 and 65535")
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Interval returns the learning iteration interval as a Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Learning.IntervalSeconds) * time.Second
}

// ConnectSettle returns the post-launch socket settle delay as a Duration.
func (c *Config) ConnectSettle() time.Duration {
	return time.Duration(c.Learner.ConnectSettleSeconds) * time.Second
}

// CommandSettle returns the save/exit settle delay as a Duration.
func (c *Config) CommandSettle() time.Duration {
	return time.Duration(c.Learner.CommandSettleMillis) * time.Millisecond
}

// GracefulTimeout returns the learner shutdown grace period as a Duration.
func (c *Config) GracefulTimeout() time.Duration {
	return time.Duration(c.Learner.GracefulTimeoutSeconds) * time.Second
}

// DataLogMinInterval returns the minimum time between CSV lines as a Duration.
func (c *Config) DataLogMinInterval() time.Duration {
	return time.Duration(c.DataLog.MinIntervalSeconds * float64(time.Second))
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
