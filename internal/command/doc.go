// Package command speaks the learner's one-way TCP text protocol.
//
// The learner listens on a localhost port and accepts plain-text commands:
// bare verbs (reset, load, save, exit) and learn lines of the form
// "train <label> <values...> <timestamp>". It never writes anything back,
// so the channel is write-only and delivery is fire-and-forget; the only
// observable failures are connect and socket write errors.
package command
