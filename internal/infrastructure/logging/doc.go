// Package logging provides structured logging for OrbitAI Core.
//
// It wraps log/slog with service defaults (service name, version) and
// level/format/output selection driven by configuration. Components that
// need logging accept a narrow Logger interface of their own so they can
// be tested with a no-op implementation.
package logging
