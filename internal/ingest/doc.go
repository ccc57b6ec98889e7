// Package ingest feeds OBSW parameter samples from the MQTT bus into the
// parameter store.
//
// Each parameter arrives on its own topic under orbitai/parameter/ with a
// plain decimal payload. The feed is the only writer of the store during
// normal operation. On every accepted sample it appends a snapshot to the
// CSV acquisition log; it can also mirror samples to InfluxDB and notify
// live subscribers (the websocket hub) through a callback.
package ingest
