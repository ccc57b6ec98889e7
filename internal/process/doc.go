// Package process supervises the external learner executable.
//
// The supervisor launches the learner in its own process group, captures
// its stdout/stderr into the structured log, and observes its exit. There
// is deliberately no restart logic: an unexpected learner exit ends the
// learning session, and the OnExit callback tells the session about it.
//
// Teardown escalates: the session first asks the learner to exit over its
// command socket; Stop is the backstop that SIGTERMs the process group and
// SIGKILLs it after the graceful timeout.
package process
