package mqtt

import "fmt"

// Topic prefixes for the OrbitAI message bus.
//
// The supervisor publishes OBSW parameter samples as retained messages on
// orbitai/parameter/{name}; the core subscribes to the wildcard pattern and
// feeds the parameter store. Session lifecycle events and system status are
// published for ground tooling.
const (
	// TopicPrefixParameter is the base for supervisor parameter topics.
	TopicPrefixParameter = "orbitai/parameter"

	// TopicPrefixSession is the base for learning session event topics.
	TopicPrefixSession = "orbitai/session"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "orbitai/system"
)

// Topics provides builders for OrbitAI MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	t := topics.Parameter("CADC0894")
//	// Returns: "orbitai/parameter/CADC0894"
type Topics struct{}

// Parameter returns the topic a single supervisor parameter is published on.
//
// Example: orbitai/parameter/CADC0894
func (Topics) Parameter(name string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixParameter, name)
}

// AllParameters returns a pattern matching every parameter topic.
//
// Pattern: orbitai/parameter/+
func (Topics) AllParameters() string {
	return fmt.Sprintf("%s/+", TopicPrefixParameter)
}

// SessionEvent returns the topic for a session lifecycle event.
//
// Example: orbitai/session/started
func (Topics) SessionEvent(event string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixSession, event)
}

// SessionState returns the topic the current session state is published on.
//
// Example: orbitai/session/state
func (Topics) SessionState() string {
	return fmt.Sprintf("%s/state", TopicPrefixSession)
}

// SystemStatus returns the system status topic.
//
// Example: orbitai/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllTopics returns a pattern matching all OrbitAI topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: orbitai/#
func (Topics) AllTopics() string {
	return "orbitai/#"
}
