package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a config file to a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const minimalConfig = `
learner:
  binary: /opt/mochi/OrbitAI_Mochi
  dir: /opt/mochi
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Learning.Mode != ModeTrain {
		t.Errorf("Mode = %q, want %q", cfg.Learning.Mode, ModeTrain)
	}
	if cfg.Learning.IntervalSeconds != 5 {
		t.Errorf("IntervalSeconds = %d, want 5", cfg.Learning.IntervalSeconds)
	}
	if cfg.Learning.Iterations != 1000 {
		t.Errorf("Iterations = %d, want 1000", cfg.Learning.Iterations)
	}
	if len(cfg.Learning.Parameters) != 6 {
		t.Errorf("Parameters = %v, want 6 names", cfg.Learning.Parameters)
	}
	if cfg.Learning.LabelParameter != "CADC0894" {
		t.Errorf("LabelParameter = %q, want CADC0894", cfg.Learning.LabelParameter)
	}
	if cfg.Learning.LabelThreshold != 1.0472 {
		t.Errorf("LabelThreshold = %v, want 1.0472", cfg.Learning.LabelThreshold)
	}
	if cfg.Learning.DefaultValue != 42 {
		t.Errorf("DefaultValue = %v, want 42", cfg.Learning.DefaultValue)
	}
	if cfg.Learner.Port != 9999 {
		t.Errorf("Learner.Port = %d, want 9999", cfg.Learner.Port)
	}
	if cfg.Learner.ExportPrefix != "mochi" {
		t.Errorf("ExportPrefix = %q, want mochi", cfg.Learner.ExportPrefix)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
learning:
  mode: infer
  interval_seconds: 1
  iterations: 3
learner:
  binary: /opt/mochi/OrbitAI_Mochi
  dir: /opt/mochi
  port: 12345
`))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Learning.Mode != ModeInfer {
		t.Errorf("Mode = %q, want %q", cfg.Learning.Mode, ModeInfer)
	}
	if cfg.Learning.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", cfg.Learning.Iterations)
	}
	if cfg.Learner.Port != 12345 {
		t.Errorf("Port = %d, want 12345", cfg.Learner.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ORBITAI_LEARNER_BINARY", "/env/bin/learner")
	t.Setenv("ORBITAI_MQTT_HOST", "broker.local")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Learner.Binary != "/env/bin/learner" {
		t.Errorf("Binary = %q, want env override", cfg.Learner.Binary)
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT host = %q, want broker.local", cfg.MQTT.Broker.Host)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() with missing file expected error, got nil")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "bad mode",
			mutate:  func(c *Config) { c.Learning.Mode = "predict" },
			wantMsg: "learning.mode",
		},
		{
			name:    "zero iterations",
			mutate:  func(c *Config) { c.Learning.Iterations = 0 },
			wantMsg: "learning.iterations",
		},
		{
			name:    "no parameters",
			mutate:  func(c *Config) { c.Learning.Parameters = nil },
			wantMsg: "learning.parameters",
		},
		{
			name: "duplicate parameter",
			mutate: func(c *Config) {
				c.Learning.Parameters = []string{"A", "A"}
				c.Learning.LabelParameter = "A"
			},
			wantMsg: "duplicate",
		},
		{
			name:    "label not a member",
			mutate:  func(c *Config) { c.Learning.LabelParameter = "UNKNOWN" },
			wantMsg: "label_parameter",
		},
		{
			name:    "missing binary",
			mutate:  func(c *Config) { c.Learner.Binary = "" },
			wantMsg: "learner.binary",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Learner.Port = 0 },
			wantMsg: "learner.port",
		},
		{
			name:    "bad qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantMsg: "mqtt.qos",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantMsg)
			}
		})
	}
}

func TestDurationGetters(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.Interval(); got != 5*time.Second {
		t.Errorf("Interval() = %v, want 5s", got)
	}
	if got := cfg.ConnectSettle(); got != 3*time.Second {
		t.Errorf("ConnectSettle() = %v, want 3s", got)
	}
	if got := cfg.CommandSettle(); got != 500*time.Millisecond {
		t.Errorf("CommandSettle() = %v, want 500ms", got)
	}
	if got := cfg.DataLogMinInterval(); got != 4500*time.Millisecond {
		t.Errorf("DataLogMinInterval() = %v, want 4.5s", got)
	}
}
