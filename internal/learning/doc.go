// Package learning runs supervised learning sessions against the external
// learner process.
//
// A Session coordinates the other components through narrow interfaces:
// the process supervisor launches the learner, the command channel carries
// the one-way text protocol, the parameter store supplies input snapshots,
// and the exporter stages the resulting models and logs for downlink. The
// Repository keeps a SQLite history of every session.
//
// Each iteration takes one parameter snapshot, derives a class label from
// the configured label parameter (photodiode elevation against the camera
// threshold), and sends one train or infer line. Sessions end when the
// iteration budget is exhausted, an operator stops them, or the learner
// process dies.
package learning
