package command

import (
	"fmt"
	"strings"
	"time"
)

// Command verbs understood by the learner.
const (
	VerbReset = "reset"
	VerbLoad  = "load"
	VerbSave  = "save"
	VerbExit  = "exit"
	VerbTrain = "train"
	VerbInfer = "infer"
)

// Reset returns the command that discards the learner's in-memory models.
func Reset() string { return VerbReset }

// Load returns the command that loads previously saved models from disk.
func Load() string { return VerbLoad }

// Save returns the command that persists the learner's models to disk.
func Save() string { return VerbSave }

// Exit returns the command that asks the learner to shut down.
func Exit() string { return VerbExit }

// Train builds one training command line.
//
// Format: "train <label> <v1> ... <vN> <unix_millis>" with each value
// rendered to two decimal places. The learner parses fields positionally,
// so value order must match the declared parameter order.
//
// Parameters:
//   - label: Derived class label (0 or 1)
//   - values: Parameter snapshot values in declaration order
//   - at: Snapshot time, sent as unix milliseconds
func Train(label int, values []float64, at time.Time) string {
	return learn(VerbTrain, label, values, at)
}

// Infer builds one inference command line.
//
// Same wire format as Train; the label field carries the expected label so
// the learner can report accuracy, but no model update happens.
func Infer(label int, values []float64, at time.Time) string {
	return learn(VerbInfer, label, values, at)
}

// learn assembles a train/infer line from its parts.
func learn(verb string, label int, values []float64, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d", verb, label)
	for _, v := range values {
		fmt.Fprintf(&b, " %.2f", v)
	}
	fmt.Fprintf(&b, " %d", at.UnixMilli())
	return b.String()
}
