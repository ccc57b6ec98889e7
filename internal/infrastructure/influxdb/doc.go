// Package influxdb provides an optional telemetry mirror for OrbitAI Core.
//
// When enabled, incoming OBSW parameter samples and learning iterations are
// mirrored to InfluxDB for ground-side charting. Writes are batched and
// non-blocking; a write failure never affects the learning loop.
//
// When disabled in config, Connect returns ErrDisabled and the rest of the
// system runs without the mirror.
package influxdb
