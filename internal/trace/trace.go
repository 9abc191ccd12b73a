// Package trace records every external collaborator call made during one
// resolution, for diagnostics. A Recorder is owned by a single resolution
// and is safe for use from the stage that owns it plus logging goroutines.
package trace

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CallRecord captures one external call (search, LLM, registry).
type CallRecord struct {
	Service   string        `json:"service"`
	Operation string        `json:"operation"`
	Input     string        `json:"input"`
	Output    string        `json:"output,omitempty"`
	Latency   time.Duration `json:"latency_ms"`
	OK        bool          `json:"ok"`
	Err       string        `json:"error,omitempty"`
}

// Recorder accumulates call records for one resolution.
type Recorder struct {
	mu    sync.Mutex
	id    string
	calls []CallRecord
}

// NewRecorder creates a recorder with a fresh resolution ID.
func NewRecorder() *Recorder {
	return &Recorder{id: uuid.NewString()}
}

// ID returns the resolution ID this recorder belongs to.
func (r *Recorder) ID() string {
	return r.id
}

// Record appends a call record and logs it.
func (r *Recorder) Record(rec CallRecord) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.calls = append(r.calls, rec)
	r.mu.Unlock()

	fields := []zap.Field{
		zap.String("resolution_id", r.id),
		zap.String("service", rec.Service),
		zap.String("operation", rec.Operation),
		zap.Duration("latency", rec.Latency),
		zap.Bool("ok", rec.OK),
	}
	if rec.Err != "" {
		fields = append(fields, zap.String("error", rec.Err))
	}
	zap.L().Debug("external call", fields...)
}

// Observe runs fn, timing it and recording the outcome. The output value is
// truncated before storage so a large search payload does not bloat the trace.
func (r *Recorder) Observe(service, operation, input string, fn func() (string, error)) error {
	start := time.Now()
	out, err := fn()
	rec := CallRecord{
		Service:   service,
		Operation: operation,
		Input:     truncate(input, 200),
		Output:    truncate(out, 500),
		Latency:   time.Since(start),
		OK:        err == nil,
	}
	if err != nil {
		rec.Err = err.Error()
	}
	r.Record(rec)
	return err
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []CallRecord {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, len(r.calls))
	copy(out, r.calls)
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
