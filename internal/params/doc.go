// Package params holds the latest value of each declared OBSW parameter.
//
// The store is a fixed-width slot table: the declared name set and its
// order are set at construction and never change. The MQTT ingest feed
// pushes samples in, and the learning loop reads a consistent snapshot
// out once per iteration.
//
// Parameters that have not received a sample yet report a configured
// default value, so the loop can always build a full command line.
package params
