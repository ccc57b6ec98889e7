package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/orbitml/orbitai-core/internal/infrastructure/mqtt"
	"github.com/orbitml/orbitai-core/internal/params"
)

// subscribeQoS is the QoS used for the parameter subscription. At-least-once
// is enough: samples are idempotent overwrites of the latest value.
const subscribeQoS = 1

// Broker is the subset of the MQTT client the feed needs.
type Broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// ParameterSink receives parsed parameter samples. Satisfied by params.Store.
type ParameterSink interface {
	Set(name string, value float64)
}

// Mirror receives a copy of every sample for time-series storage.
// Satisfied by the InfluxDB client.
type Mirror interface {
	WriteParameter(name string, value float64, sampledAt time.Time)
}

// AcquisitionLog records a store snapshot after each accepted sample.
// Satisfied by *datalog.Logger, which does its own rate limiting.
type AcquisitionLog interface {
	Open() error
	Log(values []float64) (bool, error)
	Close() error
}

// SnapshotSource provides the full parameter vector for the acquisition
// log. Satisfied by *params.Store.
type SnapshotSource interface {
	Snapshot() params.Snapshot
}

// Logger is the logging interface used by the feed.
type Logger interface {
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}
func (noopLogger) Info(string, ...any) {}

// Feed subscribes to the parameter topics and keeps the store current.
//
// The OBSW-facing supervisor publishes each sampled parameter on its own
// topic as a plain decimal payload. The feed parses every message, updates
// the store, appends a snapshot to the acquisition log, and mirrors the
// sample to the time-series backend when one is configured. Undeclared
// parameters are dropped by the store itself.
type Feed struct {
	broker Broker
	sink   ParameterSink
	mirror Mirror // optional
	logger Logger

	// acq and source together drive the acquisition log: after every
	// accepted sample the current store snapshot is appended. Both
	// optional.
	acq    AcquisitionLog
	source SnapshotSource

	// onSample is called after every accepted sample (optional).
	onSample func(name string, value float64)

	mu      sync.Mutex
	running bool
}

// NewFeed creates a feed over the given broker and sink.
// mirror may be nil.
func NewFeed(broker Broker, sink ParameterSink, mirror Mirror) *Feed {
	return &Feed{
		broker: broker,
		sink:   sink,
		mirror: mirror,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the feed.
func (f *Feed) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	f.logger = logger
}

// SetOnSample sets a callback invoked for every accepted sample.
// Must be set before Start.
func (f *Feed) SetOnSample(fn func(name string, value float64)) {
	f.onSample = fn
}

// SetAcquisitionLog attaches the CSV acquisition log. While the feed runs,
// every accepted sample appends a snapshot from source to acq (subject to
// the log's own rate limit). Must be set before Start.
func (f *Feed) SetAcquisitionLog(acq AcquisitionLog, source SnapshotSource) {
	f.acq = acq
	f.source = source
}

// Start subscribes to the parameter wildcard topic and opens the
// acquisition log. Idempotent.
func (f *Feed) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return nil
	}

	if f.acq != nil {
		if err := f.acq.Open(); err != nil {
			return fmt.Errorf("opening acquisition log: %w", err)
		}
	}

	topic := mqtt.Topics{}.AllParameters()
	if err := f.broker.Subscribe(topic, subscribeQoS, f.handleMessage); err != nil {
		if f.acq != nil {
			if cerr := f.acq.Close(); cerr != nil {
				f.logger.Warn("closing acquisition log", "error", cerr)
			}
		}
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	f.running = true
	f.logger.Info("parameter feed started", "topic", topic)
	return nil
}

// Stop removes the parameter subscription and closes the acquisition log.
// Idempotent.
func (f *Feed) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return nil
	}
	f.running = false

	topic := mqtt.Topics{}.AllParameters()
	err := f.broker.Unsubscribe(topic)

	if f.acq != nil {
		if cerr := f.acq.Close(); cerr != nil {
			f.logger.Warn("closing acquisition log", "error", cerr)
		}
	}

	if err != nil {
		return fmt.Errorf("unsubscribing from %s: %w", topic, err)
	}
	return nil
}

// IsRunning reports whether the feed is subscribed.
func (f *Feed) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// handleMessage parses one parameter message and pushes it downstream.
func (f *Feed) handleMessage(topic string, payload []byte) error {
	name, ok := parameterName(topic)
	if !ok {
		f.logger.Warn("ignoring message on unexpected topic", "topic", topic)
		return nil
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(string(payload)), 64)
	if err != nil {
		f.logger.Warn("ignoring unparseable parameter payload",
			"parameter", name,
			"payload", string(payload),
		)
		return fmt.Errorf("%w: %s", ErrBadPayload, name)
	}

	f.sink.Set(name, value)

	if f.mirror != nil {
		f.mirror.WriteParameter(name, value, time.Now())
	}
	if f.acq != nil && f.source != nil {
		if _, err := f.acq.Log(f.source.Snapshot().Values); err != nil {
			f.logger.Warn("writing acquisition log", "error", err)
		}
	}
	if f.onSample != nil {
		f.onSample(name, value)
	}
	return nil
}

// parameterName extracts the parameter name from its topic.
// "orbitai/parameter/CADC0894" -> ("CADC0894", true).
func parameterName(topic string) (string, bool) {
	rest, found := strings.CutPrefix(topic, mqtt.TopicPrefixParameter+"/")
	if !found || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
