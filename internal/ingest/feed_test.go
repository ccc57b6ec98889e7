package ingest

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/orbitml/orbitai-core/internal/infrastructure/mqtt"
	"github.com/orbitml/orbitai-core/internal/params"
)

type fakeBroker struct {
	mu       sync.Mutex
	handlers map[string]mqtt.MessageHandler
	subErr   error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[string]mqtt.MessageHandler)}
}

func (b *fakeBroker) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subErr != nil {
		return b.subErr
	}
	b.handlers[topic] = handler
	return nil
}

func (b *fakeBroker) Unsubscribe(topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, topic)
	return nil
}

func (b *fakeBroker) subscriptionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}

type fakeSink struct {
	mu     sync.Mutex
	values map[string]float64
}

func (s *fakeSink) Set(name string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]float64)
	}
	s.values[name] = value
}

func (s *fakeSink) get(name string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	return v, ok
}

type fakeMirror struct {
	mu      sync.Mutex
	samples []string
}

func (m *fakeMirror) WriteParameter(name string, _ float64, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, name)
}

func (m *fakeMirror) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.samples)
}

type fakeAcq struct {
	mu      sync.Mutex
	opens   int
	closes  int
	lines   [][]float64
	openErr error
}

func (a *fakeAcq) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.openErr != nil {
		return a.openErr
	}
	a.opens++
	return nil
}

func (a *fakeAcq) Log(values []float64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lines = append(a.lines, append([]float64(nil), values...))
	return true, nil
}

func (a *fakeAcq) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closes++
	return nil
}

func (a *fakeAcq) counts() (int, int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opens, a.closes, len(a.lines)
}

type fakeSnapshots struct {
	values []float64
}

func (s *fakeSnapshots) Snapshot() params.Snapshot {
	return params.Snapshot{
		Values:  append([]float64(nil), s.values...),
		TakenAt: time.Unix(1756641600, 0),
	}
}

func TestStartStop(t *testing.T) {
	broker := newFakeBroker()
	feed := NewFeed(broker, &fakeSink{}, nil)

	if err := feed.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !feed.IsRunning() {
		t.Error("IsRunning() = false after Start()")
	}
	if broker.subscriptionCount() != 1 {
		t.Errorf("subscriptions = %d, want 1", broker.subscriptionCount())
	}

	// Idempotent start.
	if err := feed.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if broker.subscriptionCount() != 1 {
		t.Errorf("subscriptions after double start = %d, want 1", broker.subscriptionCount())
	}

	if err := feed.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if feed.IsRunning() {
		t.Error("IsRunning() = true after Stop()")
	}
	if broker.subscriptionCount() != 0 {
		t.Errorf("subscriptions after stop = %d, want 0", broker.subscriptionCount())
	}
}

func TestStart_SubscribeFailure(t *testing.T) {
	broker := newFakeBroker()
	broker.subErr = errors.New("not connected")
	feed := NewFeed(broker, &fakeSink{}, nil)

	if err := feed.Start(); err == nil {
		t.Fatal("Start() expected error")
	}
	if feed.IsRunning() {
		t.Error("IsRunning() = true after failed Start()")
	}
}

func TestHandleMessage(t *testing.T) {
	sink := &fakeSink{}
	mirror := &fakeMirror{}
	feed := NewFeed(newFakeBroker(), sink, mirror)

	var mu sync.Mutex
	samples := make(map[string]float64)
	feed.SetOnSample(func(name string, value float64) {
		mu.Lock()
		samples[name] = value
		mu.Unlock()
	})

	err := feed.handleMessage("orbitai/parameter/CADC0894", []byte("1.0471"))
	if err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}

	if v, ok := sink.get("CADC0894"); !ok || v != 1.0471 {
		t.Errorf("sink value = %v (present %v), want 1.0471", v, ok)
	}
	if mirror.count() != 1 {
		t.Errorf("mirror samples = %d, want 1", mirror.count())
	}

	mu.Lock()
	if samples["CADC0894"] != 1.0471 {
		t.Errorf("callback sample = %v, want 1.0471", samples["CADC0894"])
	}
	mu.Unlock()
}

func TestAcquisitionLogFollowsFeed(t *testing.T) {
	broker := newFakeBroker()
	sink := &fakeSink{}
	acq := &fakeAcq{}
	feed := NewFeed(broker, sink, nil)
	feed.SetAcquisitionLog(acq, &fakeSnapshots{values: []float64{0.1, 1.2}})

	if err := feed.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := feed.handleMessage("orbitai/parameter/CADC0888", []byte("0.1")); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}

	if err := feed.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	opens, closes, lines := acq.counts()
	if opens != 1 || closes != 1 {
		t.Errorf("acquisition log opens/closes = %d/%d, want 1/1", opens, closes)
	}
	if lines != 1 {
		t.Errorf("acquisition lines = %d, want 1", lines)
	}
}

func TestStart_OpenLogFailure(t *testing.T) {
	broker := newFakeBroker()
	acq := &fakeAcq{openErr: errors.New("read-only filesystem")}
	feed := NewFeed(broker, &fakeSink{}, nil)
	feed.SetAcquisitionLog(acq, &fakeSnapshots{})

	if err := feed.Start(); err == nil {
		t.Fatal("Start() expected error")
	}
	if feed.IsRunning() {
		t.Error("IsRunning() = true after failed Start()")
	}
	if broker.subscriptionCount() != 0 {
		t.Errorf("subscriptions = %d, want 0", broker.subscriptionCount())
	}
}

func TestStart_SubscribeFailureClosesLog(t *testing.T) {
	broker := newFakeBroker()
	broker.subErr = errors.New("not connected")
	acq := &fakeAcq{}
	feed := NewFeed(broker, &fakeSink{}, nil)
	feed.SetAcquisitionLog(acq, &fakeSnapshots{})

	if err := feed.Start(); err == nil {
		t.Fatal("Start() expected error")
	}

	opens, closes, _ := acq.counts()
	if opens != 1 || closes != 1 {
		t.Errorf("acquisition log opens/closes = %d/%d, want 1/1", opens, closes)
	}
}

func TestHandleMessage_TrimsWhitespace(t *testing.T) {
	sink := &fakeSink{}
	feed := NewFeed(newFakeBroker(), sink, nil)

	if err := feed.handleMessage("orbitai/parameter/CADC1002", []byte(" 42.5\n")); err != nil {
		t.Fatalf("handleMessage() error = %v", err)
	}
	if v, _ := sink.get("CADC1002"); v != 42.5 {
		t.Errorf("sink value = %v, want 42.5", v)
	}
}

func TestHandleMessage_BadPayload(t *testing.T) {
	sink := &fakeSink{}
	feed := NewFeed(newFakeBroker(), sink, nil)

	err := feed.handleMessage("orbitai/parameter/CADC0888", []byte("not-a-number"))
	if !errors.Is(err, ErrBadPayload) {
		t.Errorf("handleMessage() error = %v, want ErrBadPayload", err)
	}
	if _, ok := sink.get("CADC0888"); ok {
		t.Error("bad payload reached the sink")
	}
}

func TestHandleMessage_UnexpectedTopic(t *testing.T) {
	sink := &fakeSink{}
	feed := NewFeed(newFakeBroker(), sink, nil)

	// Not an error, just ignored.
	if err := feed.handleMessage("orbitai/session/state", []byte("1.0")); err != nil {
		t.Errorf("handleMessage() error = %v, want nil", err)
	}
	if _, ok := sink.get("state"); ok {
		t.Error("non-parameter topic reached the sink")
	}
}

func TestParameterName(t *testing.T) {
	tests := []struct {
		topic  string
		want   string
		wantOK bool
	}{
		{"orbitai/parameter/CADC0894", "CADC0894", true},
		{"orbitai/parameter/", "", false},
		{"orbitai/parameter/a/b", "", false},
		{"orbitai/session/state", "", false},
		{"CADC0894", "", false},
	}

	for _, tt := range tests {
		got, ok := parameterName(tt.topic)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parameterName(%q) = (%q, %v), want (%q, %v)",
				tt.topic, got, ok, tt.want, tt.wantOK)
		}
	}
}
