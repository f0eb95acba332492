package reconcile

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemadraft/internal/schema"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSessionApplyNotifiesSubscribers(t *testing.T) {
	sess := NewSession("s1", nil, discardLogger())
	events, cancel := sess.Subscribe(4)
	defer cancel()

	_, changed := sess.Apply(Update{Mode: ModeFull, Tables: []*schema.Table{tbl("users", "id"), tbl("posts", "id")}})
	require.True(t, changed)

	ev := <-events
	assert.Equal(t, []string{"users", "posts"}, ev.Changed)
	assert.Empty(t, ev.Removed)
	assert.Equal(t, uint64(1), ev.Version)
	assert.Equal(t, ModeFull, ev.Mode)

	_, changed = sess.Apply(Update{Mode: ModeUpdate, Tables: []*schema.Table{tbl("posts", "id", "title")}, Removed: []string{"users"}})
	require.True(t, changed)

	ev = <-events
	assert.Equal(t, []string{"posts"}, ev.Changed)
	assert.Equal(t, []string{"users"}, ev.Removed)
	assert.Equal(t, uint64(2), ev.Version)
}

func TestSessionNoOpDoesNotNotify(t *testing.T) {
	sess := NewSession("s1", schema.New(tbl("a")), discardLogger())
	events, cancel := sess.Subscribe(1)
	defer cancel()

	before := sess.Snapshot()
	got, changed := sess.Apply(Update{Mode: ModeUpdate})

	assert.False(t, changed)
	assert.Same(t, before, got)
	assert.Same(t, before, sess.Snapshot())
	assert.Equal(t, uint64(0), sess.Version())
	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestSessionSlowSubscriberDoesNotBlock(t *testing.T) {
	sess := NewSession("s1", nil, discardLogger())
	events, cancel := sess.Subscribe(1)
	defer cancel()

	sess.Apply(Update{Mode: ModeUpdate, Tables: []*schema.Table{tbl("a")}})
	sess.Apply(Update{Mode: ModeUpdate, Tables: []*schema.Table{tbl("b")}})

	ev := <-events
	assert.Equal(t, uint64(1), ev.Version)
	assert.Equal(t, uint64(2), sess.Version())
}

func TestSessionUnsubscribeClosesChannel(t *testing.T) {
	sess := NewSession("s1", nil, discardLogger())
	events, cancel := sess.Subscribe(1)
	cancel()
	cancel()

	_, open := <-events
	assert.False(t, open)
}

func TestSessionReset(t *testing.T) {
	sess := NewSession("s1", schema.New(tbl("a"), tbl("b")), discardLogger())
	events, cancel := sess.Subscribe(1)
	defer cancel()

	sess.Reset()

	ev := <-events
	assert.Equal(t, []string{"a", "b"}, ev.Removed)
	assert.Equal(t, 0, sess.Snapshot().Len())
}

func TestSessionStatus(t *testing.T) {
	sess := NewSession("s1", nil, discardLogger())
	assert.Equal(t, "Schema updated — 0 tables", sess.Status())

	sess.SetStreaming(true, "")
	assert.True(t, sess.Streaming())
	assert.Equal(t, "Generating schema...", sess.Status())

	sess.Apply(Update{Mode: ModeUpdate, Tables: []*schema.Table{tbl("a")}})
	assert.Equal(t, "Updating schema...", sess.Status())

	sess.SetStreaming(false, "")
	assert.Equal(t, "Schema updated — 1 table", sess.Status())
}

func TestSessionStreamingNotifiesSubscribers(t *testing.T) {
	sess := NewSession("s1", schema.New(tbl("a")), discardLogger())
	events, cancel := sess.Subscribe(4)
	defer cancel()

	sess.SetStreaming(true, ModeUpdate)
	ev := <-events
	assert.True(t, ev.Streaming)
	assert.Equal(t, ModeUpdate, ev.Mode)
	assert.Equal(t, uint64(0), ev.Version)
	assert.Empty(t, ev.Changed)
	assert.Same(t, sess.Snapshot(), ev.Schema)
	assert.Equal(t, "Updating schema...", StatusLine(ev.Streaming, ev.Mode, ev.Schema.Len()))

	sess.SetStreaming(true, "")
	select {
	case ev := <-events:
		t.Fatalf("unchanged flag published %+v", ev)
	default:
	}

	sess.Apply(Update{Mode: ModeUpdate, Tables: []*schema.Table{tbl("b")}})
	ev = <-events
	assert.True(t, ev.Streaming)
	assert.Equal(t, []string{"b"}, ev.Changed)

	sess.SetStreaming(false, "")
	ev = <-events
	assert.False(t, ev.Streaming)
	assert.Equal(t, uint64(1), ev.Version)
	assert.Equal(t, "Schema updated — 2 tables", StatusLine(ev.Streaming, ev.Mode, ev.Schema.Len()))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(discardLogger())

	sess := reg.Create(schema.New(tbl("a")))
	require.NotEmpty(t, sess.ID())
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, []string{sess.ID()}, reg.IDs())

	got, err := reg.Get(sess.ID())
	require.NoError(t, err)
	assert.Same(t, sess, got)

	events, cancel := sess.Subscribe(1)
	defer cancel()

	require.NoError(t, reg.Delete(sess.ID()))
	_, open := <-events
	assert.False(t, open, "deleting a session closes its subscribers")

	_, err = reg.Get(sess.ID())
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.True(t, errors.Is(reg.Delete(sess.ID()), ErrSessionNotFound))
}

func TestSessionApplyLogsTableDigests(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sess := NewSession("s1", nil, logger)

	posts := tbl("posts", "id", "title")
	_, changed := sess.Apply(Update{Mode: ModeFull, Tables: []*schema.Table{posts}})
	require.True(t, changed)

	assert.Contains(t, buf.String(), "posts@"+posts.Digest())
}
