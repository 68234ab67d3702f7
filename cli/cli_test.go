package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/nathoo/kaiwa/engine"
	"github.com/nathoo/kaiwa/engine/state"
	"github.com/nathoo/kaiwa/protocol"
	"github.com/nathoo/kaiwa/types"
)

// testDefs returns minimal game definitions for CLI testing.
func testDefs() *state.Defs {
	return &state.Defs{
		Game: types.GameDef{
			Title:   "Test Game",
			Version: "1.0",
			Start:   "conbini",
			Intro:   "Welcome to the test.",
		},
		Rooms: map[string]types.RoomDef{
			"conbini": {
				ID:          "conbini",
				Name:        "コンビニ",
				Description: "A small store.",
				Characters: []types.CharacterDef{
					{ID: "clerk", RoomID: "conbini", Name: "田中さん", Role: "clerk"},
					{ID: "yuki", RoomID: "conbini", Name: "ゆきちゃん"},
				},
				Quests: []types.QuestDef{
					{ID: "ramen", Tier: types.TierEasy, TargetCharacterID: "clerk", Title: "ラーメンを買おう", Hints: []string{"「ください」"}},
					{ID: "bag", Tier: types.TierNormal, TargetCharacterID: "clerk", Title: "袋をもらおう"},
				},
			},
		},
	}
}

// fakeModel answers every line. "ラーメン" completes the ramen quest,
// "ばか" makes the character angry, and "error" fails the exchange.
func fakeModel(ctx context.Context, req protocol.Request) (*protocol.Response, error) {
	resp := &protocol.Response{
		Reply:         "いらっしゃいませ",
		ReplyReading:  "いらっしゃいませ",
		Translation:   "Welcome",
		QuestProgress: &protocol.QuestProgress{},
		Feedback:      &types.Feedback{IsNatural: true},
	}
	switch {
	case strings.Contains(req.PlayerMessage, "error"):
		return nil, protocol.ErrTransport
	case strings.Contains(req.PlayerMessage, "ラーメン"):
		id := "ramen"
		resp.Reply = "ラーメンですね"
		resp.ReplyReading = "らーめんですね"
		resp.QuestProgress = &protocol.QuestProgress{QuestID: &id, Completed: true}
	case strings.Contains(req.PlayerMessage, "ばか"):
		resp.MoodChange = &protocol.MoodChange{Mood: "angry", Reason: "rude", RefuseService: true}
		resp.Feedback = &types.Feedback{IsNatural: false, BetterExpression: "すみません"}
	}
	return resp, nil
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.New(testDefs(), protocol.ClientFunc(fakeModel), engine.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := eng.EnterRoom("conbini", types.TierEasy); err != nil {
		t.Fatalf("EnterRoom: %v", err)
	}
	return eng
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := &CLI{
		Engine:  newTestEngine(t),
		In:      strings.NewReader(input),
		Out:     &out,
		SaveDir: t.TempDir(),
	}
	return c, &out
}

func run(t *testing.T, input string) string {
	t.Helper()
	c, out := newTestCLI(t, input)
	c.Run(context.Background())
	return out.String()
}

func TestCLI_IntroAndStartingRoom(t *testing.T) {
	output := run(t, "/quit\n")

	if !strings.Contains(output, "Welcome to the test.") {
		t.Error("expected intro text in output")
	}
	if !strings.Contains(output, "A small store.") {
		t.Error("expected starting room description in output")
	}
	if !strings.Contains(output, "clerk  田中さん") {
		t.Error("expected character list in output")
	}
}

func TestCLI_NotTalking(t *testing.T) {
	output := run(t, "こんにちは\n/quit\n")

	if !strings.Contains(output, "You are not talking to anyone") {
		t.Error("expected hint to use /talk")
	}
}

func TestCLI_Conversation(t *testing.T) {
	output := run(t, "/talk clerk\nこんにちは\n/history\n/leave\n/quit\n")

	for _, want := range []string{
		"[You start talking to 田中さん.]",
		"[田中さん is thinking...]",
		"田中さん: いらっしゃいませ",
		"    Welcome",
		"あなた: こんにちは",
		"[You stop talking to 田中さん.]",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	// Reading identical to the text is not repeated.
	if strings.Contains(output, "    いらっしゃいませ") {
		t.Error("reading equal to the line should be skipped")
	}
}

func TestCLI_TalkUnknownCharacter(t *testing.T) {
	output := run(t, "/talk ghost\n/talk\n/quit\n")

	if !strings.Contains(output, `There is no "ghost" here.`) {
		t.Error("expected unknown character message")
	}
	if !strings.Contains(output, "Talk to whom?") {
		t.Error("expected prompt for a character")
	}
}

func TestCLI_TalkSwitchesCharacter(t *testing.T) {
	c, out := newTestCLI(t, "/talk clerk\n/talk clerk\n/talk yuki\n/quit\n")
	c.Run(context.Background())
	output := out.String()

	if !strings.Contains(output, "You are already talking to 田中さん.") {
		t.Error("expected already-talking message")
	}
	if !strings.Contains(output, "You start talking to ゆきちゃん.") {
		t.Error("expected switch to yuki")
	}
	// /quit ends the last conversation.
	if c.Engine.Sessions.IsActive() {
		t.Error("session should be closed after /quit")
	}
}

func TestCLI_QuestCompletionAndTierClear(t *testing.T) {
	output := run(t, "/talk clerk\nラーメンをください\n/quests\n/tier normal\n/quests\n/quit\n")

	for _, want := range []string{
		"    らーめんですね",
		"[Quest complete: ラーメンを買おう]",
		"[Tier easy cleared! normal is now unlocked.]",
		"easy (cleared)",
		"[x] ラーメンを買おう",
		"easy: 1/1",
		"normal: 0/1",
		"[ ] 袋をもらおう",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestCLI_LockedTier(t *testing.T) {
	output := run(t, "/tier hard\n/room attic\n/quit\n")

	if !strings.Contains(output, `Tier "hard" is locked`) {
		t.Error("expected locked tier message")
	}
	if !strings.Contains(output, "No such room: attic.") {
		t.Error("expected unknown room message")
	}
}

func TestCLI_MoodAndFeedback(t *testing.T) {
	output := run(t, "/talk clerk\nばか\n/mood\n/feedback\n/quit\n")

	if !strings.Contains(output, "[田中さん is now angry: rude (refusing service)]") {
		t.Errorf("expected mood change in output:\n%s", output)
	}
	if !strings.Contains(output, "  田中さん: angry (refusing service)") {
		t.Error("expected /mood listing")
	}
	if !strings.Contains(output, "  try: すみません") {
		t.Error("expected better expression")
	}
	if !strings.Contains(output, "  ゆきちゃん: neutral") {
		t.Error("expected default mood for yuki")
	}
}

func TestCLI_ExchangeFailure(t *testing.T) {
	output := run(t, "/talk clerk\nerror please\n/quit\n")

	if !strings.Contains(output, "The reply could not be retrieved") {
		t.Error("expected failure message")
	}
}

func TestCLI_Mic(t *testing.T) {
	output := run(t, "/mic\n/talk clerk\n/mic\n/mic\n/quit\n")

	if !strings.Contains(output, "Start a conversation first.") {
		t.Error("expected mic refusal without conversation")
	}
	if !strings.Contains(output, "[Microphone on.]") || !strings.Contains(output, "[Microphone off.]") {
		t.Errorf("expected mic toggles in output:\n%s", output)
	}
}

func TestCLI_HelpCommand(t *testing.T) {
	output := run(t, "/help\n/quit\n")

	for _, cmd := range []string{"/talk", "/quests", "/save", "/load", "/quit"} {
		if !strings.Contains(output, cmd) {
			t.Errorf("expected %s in help output", cmd)
		}
	}
}

func TestCLI_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	// Clear easy and save.
	var out bytes.Buffer
	c := &CLI{
		Engine:  newTestEngine(t),
		In:      strings.NewReader("/talk clerk\nラーメン\n/tier normal\n/save test\n/quit\n"),
		Out:     &out,
		SaveDir: dir,
	}
	c.Run(context.Background())
	if !strings.Contains(out.String(), "Progress saved to test.") {
		t.Fatalf("expected save confirmation:\n%s", out.String())
	}

	// Start fresh and load.
	var out2 bytes.Buffer
	c2 := &CLI{
		Engine:  newTestEngine(t),
		In:      strings.NewReader("/load test\n/quests\n/quit\n"),
		Out:     &out2,
		SaveDir: dir,
	}
	c2.Run(context.Background())

	loadOutput := out2.String()
	if !strings.Contains(loadOutput, "Progress loaded from test.") {
		t.Error("expected load confirmation")
	}
	if c2.Engine.Tier() != types.TierNormal {
		t.Errorf("tier after load = %s, want normal", c2.Engine.Tier())
	}
	if !strings.Contains(loadOutput, "easy (cleared)") {
		t.Error("expected cleared easy tier after load")
	}
}

func TestCLI_LoadNonexistent(t *testing.T) {
	output := run(t, "/load nonexistent\n/quit\n")

	if !strings.Contains(output, "Load failed") {
		t.Error("expected load failure message")
	}
}

func TestCLI_UnknownMetaCommand(t *testing.T) {
	output := run(t, "/bogus\n/quit\n")

	if !strings.Contains(output, "Unknown command") {
		t.Error("expected unknown command message")
	}
}

func TestCLI_EchoAndComments(t *testing.T) {
	c, out := newTestCLI(t, "# a comment\n/help\n/quit\n")
	c.EchoInput = true
	c.Run(context.Background())

	output := out.String()
	if strings.Contains(output, "a comment") {
		t.Error("comment lines should be skipped")
	}
	if !strings.Contains(output, "> /help\n") {
		t.Error("expected echoed input after the prompt")
	}
}

func TestCLI_PromptShowsPartner(t *testing.T) {
	output := run(t, "/talk clerk\n/quit\n")

	if !strings.Contains(output, "田中さん> ") {
		t.Error("expected prompt to name the conversation partner")
	}
}
