package mqtt

import "testing"

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "Parameter",
			builder: func() string {
				return Topics{}.Parameter("CADC0894")
			},
			expected: "orbitai/parameter/CADC0894",
		},
		{
			name: "AllParameters",
			builder: func() string {
				return Topics{}.AllParameters()
			},
			expected: "orbitai/parameter/+",
		},
		{
			name: "SessionEvent",
			builder: func() string {
				return Topics{}.SessionEvent("started")
			},
			expected: "orbitai/session/started",
		},
		{
			name: "SessionState",
			builder: func() string {
				return Topics{}.SessionState()
			},
			expected: "orbitai/session/state",
		},
		{
			name: "SystemStatus",
			builder: func() string {
				return Topics{}.SystemStatus()
			},
			expected: "orbitai/system/status",
		},
		{
			name: "AllTopics",
			builder: func() string {
				return Topics{}.AllTopics()
			},
			expected: "orbitai/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero-value client error = %v, want nil", err)
	}
}
