package session

import (
	"io"
	"log/slog"
	"testing"

	"github.com/nathoo/kaiwa/engine/events"
	"github.com/nathoo/kaiwa/types"
)

func testManager() (*Manager, *[]events.Name) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewBus(logger)
	var names []events.Name
	for _, n := range []events.Name{
		events.NameSessionOpened, events.NameSessionEnded,
		events.NameRecordingStarted, events.NameRecordingStopped,
	} {
		bus.Subscribe(n, func(e events.Event) { names = append(names, e.EventName()) })
	}
	return NewManager(bus, logger), &names
}

func TestStart_FirstComeWins(t *testing.T) {
	m, names := testManager()
	if !m.Start("clerk") {
		t.Fatal("expected Start to succeed from idle")
	}
	tok := m.Token()

	if m.Start("suzuki") {
		t.Error("expected second Start to be ignored")
	}
	if m.CharacterID() != "clerk" || m.Token() != tok {
		t.Errorf("expected state unchanged, got character %q", m.CharacterID())
	}
	if len(*names) != 1 || (*names)[0] != events.NameSessionOpened {
		t.Errorf("expected one session-opened, got %v", *names)
	}
}

func TestStart_ClearsTranscriptAndFeedback(t *testing.T) {
	m, _ := testManager()
	m.Start("clerk")
	m.Append(m.Token(), types.Message{Text: "hi"})
	m.SetFeedback(m.Token(), &types.Feedback{IsNatural: true})
	m.End()

	if len(m.Transcript()) != 1 || m.Feedback() == nil {
		t.Fatal("expected last transcript to stay readable after End")
	}

	m.Start("suzuki")
	if len(m.Transcript()) != 0 {
		t.Errorf("expected empty transcript, got %d", len(m.Transcript()))
	}
	if m.Feedback() != nil {
		t.Error("expected feedback cleared")
	}
}

func TestEnd_Idempotent(t *testing.T) {
	m, names := testManager()
	m.End()
	if len(*names) != 0 {
		t.Fatalf("End while idle must not publish, got %v", *names)
	}

	m.Start("clerk")
	ctx := m.Context()
	m.End()
	m.End()

	if m.IsActive() || m.CharacterID() != "" || m.Token() != "" {
		t.Error("expected idle after End")
	}
	if ctx.Err() == nil {
		t.Error("expected session context cancelled")
	}
	want := []events.Name{events.NameSessionOpened, events.NameSessionEnded}
	if len(*names) != len(want) {
		t.Fatalf("expected %v, got %v", want, *names)
	}
}

func TestEnd_ClearsFlags(t *testing.T) {
	m, names := testManager()
	m.Start("clerk")
	tok := m.Token()
	m.SetAwaiting(tok, true)
	m.SetRecording(true)
	m.End()

	if m.AwaitingReply() || m.Recording() {
		t.Error("expected flags cleared")
	}
	want := []events.Name{
		events.NameSessionOpened, events.NameRecordingStarted,
		events.NameRecordingStopped, events.NameSessionEnded,
	}
	if len(*names) != len(want) {
		t.Fatalf("expected %v, got %v", want, *names)
	}
	for i := range want {
		if (*names)[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], (*names)[i])
		}
	}
}

func TestSetRecording(t *testing.T) {
	m, names := testManager()
	if m.SetRecording(true) {
		t.Error("recording while idle must be refused")
	}
	m.Start("clerk")
	if !m.SetRecording(true) || m.SetRecording(true) {
		t.Error("expected only the first toggle to report a change")
	}
	if !m.SetRecording(false) {
		t.Error("expected toggle off")
	}
	if len(*names) != 3 {
		t.Errorf("expected opened, started, stopped; got %v", *names)
	}
}

func TestStaleTokenRefused(t *testing.T) {
	m, _ := testManager()
	m.Start("clerk")
	old := m.Token()
	m.End()
	m.Start("clerk")

	if m.Token() == old {
		t.Fatal("expected a fresh token per session")
	}
	if m.Append(old, types.Message{Text: "late"}) {
		t.Error("expected stale Append refused")
	}
	if m.SetAwaiting(old, true) {
		t.Error("expected stale SetAwaiting refused")
	}
	if m.SetFeedback(old, &types.Feedback{}) {
		t.Error("expected stale SetFeedback refused")
	}
	if len(m.Transcript()) != 0 || m.AwaitingReply() || m.Feedback() != nil {
		t.Error("stale writes must not change the new session")
	}
}

func TestTranscriptIsCopy(t *testing.T) {
	m, _ := testManager()
	m.Start("clerk")
	m.Append(m.Token(), types.Message{Text: "a"})

	tr := m.Transcript()
	tr[0].Text = "changed"
	if m.Transcript()[0].Text != "a" {
		t.Error("Transcript must return a copy")
	}
}

func TestContext_Idle(t *testing.T) {
	m, _ := testManager()
	if m.Context().Err() == nil {
		t.Error("expected cancelled context while idle")
	}
}
