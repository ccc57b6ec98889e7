package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteParameter writes a single OBSW parameter sample to InfluxDB.
//
// This mirrors the values flowing into the parameter store so ground
// operators can chart photodiode elevations and attitude estimates over
// time. The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - name: Parameter name (e.g., "CADC0894")
//   - value: The sampled value
//   - sampledAt: When the sample was received
func (c *Client) WriteParameter(name string, value float64, sampledAt time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"parameter",
		map[string]string{
			"name": name,
		},
		map[string]interface{}{
			"value": value,
		},
		sampledAt,
	)

	c.writeAPI.WritePoint(point)
}

// WriteIteration writes one learning iteration to InfluxDB.
//
// Records the command verb, derived label, and iteration counter for a
// session so training progress can be inspected after the fact.
//
// Parameters:
//   - sessionID: The session this iteration belongs to
//   - mode: Command verb sent ("train" or "infer")
//   - label: The derived class label
//   - iteration: Iteration counter within the session (1-based)
func (c *Client) WriteIteration(sessionID string, mode string, label int, iteration int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"iteration",
		map[string]string{
			"session_id": sessionID,
			"mode":       mode,
		},
		map[string]interface{}{
			"label":     label,
			"iteration": iteration,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
