package events

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// StdoutSink emits one line per event, synchronously. cmd/streamgrid
// selects it over AsyncSink when DEBUG_EVENTS is set and no Kafka
// broker is configured, so a developer sees each event the moment it
// fires instead of waiting on the async sink's batch/tick flush.
type StdoutSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewStdoutSink returns a sink writing to os.Stdout.
func NewStdoutSink() *StdoutSink {
	return &StdoutSink{out: os.Stdout}
}

func (s *StdoutSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "[%s] correlation=%s rows=%d elapsed=%s fields=%v\n",
		e.Category, e.CorrelationID, e.RowCount, e.Elapsed, e.Fields)
}

// NullSink discards every event. Useful for benchmarks that want to
// isolate the executor's cost from sink overhead.
type NullSink struct{}

func (NullSink) Emit(Event) {}

// CollectSink records every event in memory, for assertions in tests.
type CollectSink struct {
	mu     sync.Mutex
	Events []Event
}

func (s *CollectSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, e)
}

func (s *CollectSink) Snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.Events))
	copy(out, s.Events)
	return out
}
