// Kaiwa is a Japanese conversation practice game: walk around a room, talk
// to the people in it, and clear quests by speaking naturally.
// Usage: kaiwa [--version] [--plain] [--script <file>] [<content_dir>]
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nathoo/kaiwa/cli"
	"github.com/nathoo/kaiwa/config"
	"github.com/nathoo/kaiwa/engine"
	"github.com/nathoo/kaiwa/engine/dialogue"
	"github.com/nathoo/kaiwa/engine/quest"
	"github.com/nathoo/kaiwa/loader"
	"github.com/nathoo/kaiwa/protocol"
	"github.com/nathoo/kaiwa/speech"
	"github.com/nathoo/kaiwa/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultContent = "games/conbini"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup always runs.
func run(args []string) int {
	plain := false
	var contentDir string
	var scriptFile string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("kaiwa %s (commit %s, built %s)\n", version, commit, date)
			return 0
		case "--plain":
			plain = true
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				return 1
			}
			i++
			scriptFile = args[i]
		case "-h", "--help":
			fmt.Println("Usage: kaiwa [--version] [--plain] [--script <file>] [<content_dir>]")
			return 0
		default:
			if contentDir == "" {
				contentDir = args[i]
			}
		}
	}
	if contentDir == "" {
		contentDir = defaultContent
	}
	if scriptFile != "" || !isTerminal() {
		plain = true
	}

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return 1
	}

	logger, closeLog, err := openLogger(cfg, plain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		return 1
	}
	defer closeLog()

	// Load and compile Lua room content.
	defs, err := loader.Load(contentDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading content: %v\n", err)
		return 1
	}
	logger.Info("content loaded", "dir", contentDir, "rooms", len(defs.Rooms))

	client := protocol.NewHTTPClient(cfg.ChatURL,
		protocol.WithTimeout(cfg.RequestTimeout),
		protocol.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		protocol.WithLogger(logger),
	)

	// Speech is optional; a missing command only costs the voice.
	var speaker dialogue.Speaker
	if cfg.TTSEnabled {
		cs, err := speech.NewCommandSpeaker(cfg.TTSCommand, logger)
		if err != nil {
			logger.Warn("speech disabled", "error", err)
			fmt.Fprintf(os.Stderr, "warning: speech disabled: %v\n", err)
		} else {
			defer cs.Stop()
			speaker = cs
		}
	}

	eng := engine.New(defs, client, engine.Options{
		Logger:        logger,
		Speaker:       speaker,
		HistoryWindow: cfg.HistoryWindow,
	})
	defer eng.Close()

	if err := eng.EnterRoom(defs.Game.Start, quest.Tiers[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error entering start room: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !plain {
		if err := tui.Run(eng, tui.Options{SaveDir: cfg.SaveDir, Context: ctx}); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Printf("%s v%s by %s\n\n", defs.Game.Title, defs.Game.Version, defs.Game.Author)
	c := cli.New(eng)
	c.SaveDir = cfg.SaveDir

	// Script mode: read commands from the file and echo them.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			return 1
		}
		defer f.Close()
		c.In = f
		c.EchoInput = true
	}
	c.Run(ctx)
	return 0
}

// openLogger writes to the configured log file. Without one, the plain CLI
// logs to stderr and the TUI discards logs, since stderr would corrupt the
// screen.
func openLogger(cfg config.Client, plain bool) (*slog.Logger, func(), error) {
	var w io.Writer = io.Discard
	closeFn := func() {}
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closeFn = func() { f.Close() }
	case plain:
		w = os.Stderr
	}
	logger, err := config.NewLogger(w, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return logger, closeFn, nil
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
