package speech

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestHelperProcess is not a real test. It stands in for a TTS program:
// it appends its last argument to $KAIWA_SPEECH_OUT, or sleeps when the
// line is "slow".
func TestHelperProcess(t *testing.T) {
	if os.Getenv("KAIWA_SPEECH_HELPER") != "1" {
		return
	}
	text := os.Args[len(os.Args)-1]
	if text == "slow" {
		time.Sleep(10 * time.Second)
	}
	f, err := os.OpenFile(os.Getenv("KAIWA_SPEECH_OUT"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		os.Exit(2)
	}
	fmt.Fprintln(f, text)
	f.Close()
	os.Exit(0)
}

func helperSpeaker(t *testing.T) (*CommandSpeaker, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "spoken.txt")
	t.Setenv("KAIWA_SPEECH_HELPER", "1")
	t.Setenv("KAIWA_SPEECH_OUT", out)
	s, err := NewCommandSpeaker([]string{os.Args[0], "-test.run=TestHelperProcess", "--"}, nil)
	if err != nil {
		t.Fatalf("NewCommandSpeaker: %v", err)
	}
	return s, out
}

func TestNewCommandSpeaker_Errors(t *testing.T) {
	if _, err := NewCommandSpeaker(nil, nil); err == nil {
		t.Error("expected error for empty command")
	}
	if _, err := NewCommandSpeaker([]string{"kaiwa-no-such-tts-program"}, nil); err == nil {
		t.Error("expected error for missing program")
	}
}

func TestSpeak_PassesLine(t *testing.T) {
	s, out := helperSpeaker(t)

	s.Speak("いらっしゃいませ！")
	s.Wait()

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "いらっしゃいませ！" {
		t.Errorf("spoken = %q", got)
	}
}

func TestSpeak_InterruptsPrevious(t *testing.T) {
	s, out := helperSpeaker(t)

	s.Speak("slow")
	start := time.Now()
	s.Speak("next")
	s.Wait()
	if time.Since(start) > 5*time.Second {
		t.Error("slow line was not interrupted")
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "next" {
		t.Errorf("spoken = %q, want only the second line", got)
	}
}

func TestStop_Idle(t *testing.T) {
	s, _ := helperSpeaker(t)
	s.Stop()
	s.Wait()
}
