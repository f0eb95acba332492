package reconcile

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tordrt/schemadraft/internal/schema"
)

// Event describes one applied update. Changed lists tables that are new or
// whose fingerprint moved; Removed lists tables that disappeared.
type Event struct {
	Schema    *schema.Schema
	Mode      Mode
	Changed   []string
	Removed   []string
	Streaming bool
	Version   uint64
}

// Session owns the schema of one design. All writes go through Apply or
// Reset, which serialize on the session lock.
type Session struct {
	id     string
	logger *slog.Logger

	mu        sync.Mutex
	current   *schema.Schema
	lastMode  Mode
	streaming bool
	version   uint64
	updatedAt time.Time
	subs      map[int]chan Event
	nextSub   int
}

// NewSession creates a session holding initial, or an empty schema when
// initial is nil.
func NewSession(id string, initial *schema.Schema, logger *slog.Logger) *Session {
	if initial == nil {
		initial = schema.Empty()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:        id,
		logger:    logger.With("session", id),
		current:   initial,
		lastMode:  ModeFull,
		updatedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Apply merges u into the session schema. It reports whether the schema
// changed; subscribers are only notified when it did.
func (s *Session) Apply(u Update) (*schema.Schema, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Mode == "" {
		u.Mode = ModeFull
	}
	s.lastMode = u.Mode

	prev := s.current
	next := Merge(prev, u)

	skipped := len(u.Tables) - len(u.validTables())
	if skipped > 0 {
		s.logger.Debug("skipped nameless tables", "count", skipped)
	}

	if next == prev {
		s.logger.Debug("update was a no-op",
			"mode", u.Mode,
			"incoming", len(u.Tables),
			"removed", len(u.Removed),
		)
		return prev, false
	}

	changed, removed := Diff(prev, next)
	s.current = next
	s.version++
	s.updatedAt = time.Now()

	digests := make([]string, 0, len(changed))
	for _, name := range changed {
		if t, ok := next.Get(name); ok {
			digests = append(digests, name+"@"+t.Digest())
		}
	}
	s.logger.Debug("schema updated",
		"mode", u.Mode,
		"incoming", len(u.Tables),
		"removed", removed,
		"changed", digests,
		"tables", next.Len(),
		"version", s.version,
	)

	s.publish(Event{
		Schema:    next,
		Mode:      u.Mode,
		Changed:   changed,
		Removed:   removed,
		Streaming: s.streaming,
		Version:   s.version,
	})
	return next, true
}

// Snapshot returns the current schema. The value is immutable and safe to
// hand to generators without holding the session lock.
func (s *Session) Snapshot() *schema.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Version counts applied changes since the session was created.
func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// UpdatedAt returns when the schema last changed.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Reset clears the schema and notifies subscribers.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	if prev.Len() == 0 {
		return
	}
	s.current = schema.Empty()
	s.version++
	s.updatedAt = time.Now()
	s.logger.Debug("schema reset", "dropped", prev.Len())

	s.publish(Event{
		Schema:    s.current,
		Mode:      ModeFull,
		Removed:   prev.Names(),
		Streaming: s.streaming,
		Version:   s.version,
	})
}

// SetStreaming records whether an author is mid-delivery and notifies
// subscribers when the flag flips. A non-empty mode becomes the mode the
// status line reports, so "Updating schema..." can be shown before the first
// table arrives.
func (s *Session) SetStreaming(streaming bool, mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode != "" {
		s.lastMode = mode
	}
	if s.streaming == streaming {
		return
	}
	s.streaming = streaming
	s.logger.Debug("streaming changed", "streaming", streaming, "mode", s.lastMode)

	s.publish(Event{
		Schema:    s.current,
		Mode:      s.lastMode,
		Streaming: streaming,
		Version:   s.version,
	})
}

// Streaming reports the flag set by SetStreaming.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Status returns the one-line progress message shown next to a design.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatusLine(s.streaming, s.lastMode, s.current.Len())
}

// StatusLine renders the progress message for the given state.
func StatusLine(streaming bool, mode Mode, tables int) string {
	if streaming {
		if mode == ModeUpdate {
			return "Updating schema..."
		}
		return "Generating schema..."
	}
	noun := "tables"
	if tables == 1 {
		noun = "table"
	}
	return fmt.Sprintf("Schema updated — %d %s", tables, noun)
}

// Subscribe registers a listener. Events are dropped for a subscriber whose
// buffer is full. The returned function unsubscribes and closes the channel.
func (s *Session) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

// publish must be called with s.mu held.
func (s *Session) publish(ev Event) {
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.logger.Warn("subscriber is not keeping up, dropping event", "subscriber", id, "version", ev.Version)
		}
	}
}

// close unsubscribes every listener.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// Diff compares two schemas by table name and column fingerprint.
func Diff(prev, next *schema.Schema) (changed, removed []string) {
	for _, t := range next.Tables() {
		old, ok := prev.Get(t.Name)
		if !ok || (old != t && old.Fingerprint() != t.Fingerprint()) {
			changed = append(changed, t.Name)
		}
	}
	for _, name := range prev.Names() {
		if !next.Has(name) {
			removed = append(removed, name)
		}
	}
	return changed, removed
}
