// Package speech voices character lines through an external text-to-speech
// command such as `say -v Kyoko` or `espeak -v ja`.
package speech

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"sync"
)

// CommandSpeaker runs a command with the line appended as its last argument.
// A new line interrupts the one still playing.
type CommandSpeaker struct {
	argv   []string
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCommandSpeaker returns a speaker for argv. It fails when argv is empty
// or its program is not on PATH.
func NewCommandSpeaker(argv []string, logger *slog.Logger) (*CommandSpeaker, error) {
	if len(argv) == 0 {
		return nil, errors.New("speech: empty command")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandSpeaker{argv: append([]string(nil), argv...), logger: logger}, nil
}

// Speak starts reading text and returns immediately.
func (s *CommandSpeaker) Speak(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	args := append(append([]string(nil), s.argv[1:]...), text)
	cmd := exec.CommandContext(ctx, s.argv[0], args...)
	if err := cmd.Start(); err != nil {
		cancel()
		s.logger.Warn("speech command failed to start", "command", s.argv[0], "error", err)
		return
	}

	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go func() {
		defer close(done)
		defer cancel()
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			s.logger.Warn("speech command failed", "command", s.argv[0], "error", err)
		}
	}()
}

// Wait blocks until the current line has finished playing.
func (s *CommandSpeaker) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Stop interrupts the current line, if any.
func (s *CommandSpeaker) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *CommandSpeaker) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
}
