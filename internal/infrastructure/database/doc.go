// Package database provides SQLite connectivity for OrbitAI Core.
//
// It manages the database lifecycle (open, migrate, health check, close)
// and applies embedded SQL migrations at startup. The session history
// repository in internal/learning is the primary consumer.
//
// SQLite is configured with WAL mode and a busy timeout, and the pool is
// limited to a single connection to match SQLite's single-writer model.
package database
