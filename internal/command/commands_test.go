package command

import (
	"testing"
	"time"
)

func TestBareVerbs(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Reset", Reset(), "reset"},
		{"Load", Load(), "load"},
		{"Save", Save(), "save"},
		{"Exit", Exit(), "exit"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestTrainFormat(t *testing.T) {
	at := time.Unix(1756641600, 0)
	values := []float64{0.1, 1.0472, -0.25, 42, 0, 3.14159}

	got := Train(1, values, at)
	want := "train 1 0.10 1.05 -0.25 42.00 0.00 3.14 1756641600000"
	if got != want {
		t.Errorf("Train() = %q, want %q", got, want)
	}
}

func TestInferFormat(t *testing.T) {
	at := time.Unix(1756641600, 0)

	got := Infer(0, []float64{1.5}, at)
	want := "infer 0 1.50 1756641600000"
	if got != want {
		t.Errorf("Infer() = %q, want %q", got, want)
	}
}
