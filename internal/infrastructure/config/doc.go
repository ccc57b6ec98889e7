// Package config loads and validates OrbitAI Core configuration.
//
// Configuration is sourced from three layers, later layers overriding
// earlier ones:
//
//  1. Hardcoded defaults (mirroring the flight configuration)
//  2. A YAML file (configs/config.yaml by default)
//  3. ORBITAI_* environment variables
//
// The loaded Config is validated before use; an invalid configuration is
// a startup error, never a silently-corrected one.
package config
