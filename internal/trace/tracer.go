package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level controls tracing depth.
type Level uint8

const (
	LevelOff  Level = iota
	LevelFile       // driver and per-file spans
	LevelPass       // plus per-pass spans
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelFile:
		return "file"
	case LevelPass:
		return "pass"
	}
	return "unknown"
}

// ParseLevel accepts off, file or pass in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return LevelOff, nil
	case "file":
		return LevelFile, nil
	case "pass":
		return LevelPass, nil
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected off|file|pass)", s)
}

// Scope is the granularity of an event; lower is coarser.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1
	ScopeFile
	ScopePass
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeFile:
		return "file"
	case ScopePass:
		return "pass"
	}
	return "unknown"
}

// Allows reports whether events of scope are kept at this level.
func (l Level) Allows(s Scope) bool {
	switch l {
	case LevelFile:
		return s <= ScopeFile
	case LevelPass:
		return s <= ScopePass
	}
	return false
}

// Kind of event.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindPoint:
		return "point"
	}
	return "unknown"
}

// Event is one trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string
	Detail   string
	Elapsed  time.Duration // только у KindEnd
	Extra    map[string]string
}

// Tracer receives events. Implementations are safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	Close() error
	Level() Level
}

// Config selects the tracer New builds.
type Config struct {
	Level Level
	// Output is used when set; otherwise OutputPath is created ("-" or empty
	// means stderr).
	Output     io.Writer
	OutputPath string
	// FormatAuto picks NDJSON for *.ndjson paths and text otherwise.
	Format   Format
	RingSize int // >0 additionally keeps the last events in memory
}

// New builds a tracer from cfg. LevelOff yields Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	w := cfg.Output
	if w == nil {
		if cfg.OutputPath == "" || cfg.OutputPath == "-" {
			w = os.Stderr
		} else {
			f, err := os.Create(cfg.OutputPath)
			if err != nil {
				return nil, fmt.Errorf("open trace output: %w", err)
			}
			w = f
		}
	}
	format := cfg.Format
	if format == FormatAuto {
		format = FormatText
		if strings.HasSuffix(cfg.OutputPath, ".ndjson") {
			format = FormatNDJSON
		}
	}
	stream := &StreamTracer{w: w, level: cfg.Level, format: format}
	if cfg.RingSize <= 0 {
		return stream, nil
	}
	return &teeTracer{stream: stream, ring: NewRing(cfg.RingSize, cfg.Level)}, nil
}

type nopTracer struct{}

func (nopTracer) Emit(*Event)  {}
func (nopTracer) Close() error { return nil }
func (nopTracer) Level() Level { return LevelOff }

// Nop drops everything.
var Nop Tracer = nopTracer{}

// StreamTracer writes each event as it arrives. Write errors are ignored:
// tracing never fails a compile.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{w: w, level: level, format: format}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.Allows(ev.Scope) {
		return
	}
	data := FormatEvent(ev, t.format)
	t.mu.Lock()
	_, _ = t.w.Write(data)
	t.mu.Unlock()
}

func (t *StreamTracer) Close() error {
	if c, ok := t.w.(io.Closer); ok && t.w != os.Stderr && t.w != os.Stdout {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level { return t.level }

// Ring keeps the last N events for dumping after a crash.
type Ring struct {
	mu     sync.Mutex
	events []Event
	head   int
	full   bool
	level  Level
}

func NewRing(capacity int, level Level) *Ring {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Ring{events: make([]Event, capacity), level: level}
}

func (r *Ring) Emit(ev *Event) {
	if !r.level.Allows(ev.Scope) {
		return
	}
	r.mu.Lock()
	r.events[r.head] = *ev
	r.head = (r.head + 1) % len(r.events)
	if r.head == 0 {
		r.full = true
	}
	r.mu.Unlock()
}

func (r *Ring) Close() error { return nil }
func (r *Ring) Level() Level { return r.level }

// Snapshot returns stored events oldest first.
func (r *Ring) Snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Event(nil), r.events[:r.head]...)
	}
	out := make([]Event, 0, len(r.events))
	out = append(out, r.events[r.head:]...)
	return append(out, r.events[:r.head]...)
}

// Dump writes the snapshot to w.
func (r *Ring) Dump(w io.Writer, format Format) error {
	for _, ev := range r.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

type teeTracer struct {
	stream *StreamTracer
	ring   *Ring
}

func (t *teeTracer) Emit(ev *Event) {
	t.stream.Emit(ev)
	t.ring.Emit(ev)
}

func (t *teeTracer) Close() error { return t.stream.Close() }
func (t *teeTracer) Level() Level { return t.stream.level }

// RingOf returns the in-memory ring behind t, if any.
func RingOf(t Tracer) *Ring {
	switch v := t.(type) {
	case *Ring:
		return v
	case *teeTracer:
		return v.ring
	}
	return nil
}
