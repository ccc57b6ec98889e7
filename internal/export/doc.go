// Package export stages learner artifacts for downlink.
//
// At the end of every learning session the models and logs the learner
// produced are copied into a timestamped directory under the staging root
// (destRoot/learning/<prefix>-<timestamp>/). Ground tooling picks the
// staging root up wholesale, so each session's artifacts stay isolated.
package export
