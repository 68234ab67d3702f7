// Package parser converts slash-command lines into Command structs.
// Intentionally dumb: no NLP, just aliases and word splitting.
package parser

import (
	"strings"

	"github.com/nathoo/kaiwa/types"
)

// Command is a parsed meta-command. Name carries no leading slash.
type Command struct {
	Name string
	Args []string
}

// Arg returns the i-th argument, or "".
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

var commandAliases = map[string]string{
	// Quit
	"q":    "quit",
	"exit": "quit",

	// Conversation
	"t":     "talk",
	"speak": "talk",
	"chat":  "talk",
	"bye":   "leave",
	"end":   "leave",

	// Progress
	"quest":   "quests",
	"fb":      "feedback",
	"hist":    "history",
	"log":     "history",
	"emotion": "mood",
	"moods":   "mood",
	"r":       "room",

	// Microphone
	"m":     "mic",
	"rec":   "mic",
	"voice": "mic",

	// Persistence
	"s": "save",
	"l": "load",

	// Help
	"h": "help",
	"?": "help",
}

var tierAliases = map[string]types.Tier{
	"1": types.TierEasy,
	"2": types.TierNormal,
	"3": types.TierHard,
	"4": types.TierHell,
	"e": types.TierEasy,
	"n": types.TierNormal,
	"x": types.TierHell,
}

// IsCommand reports whether the line is a meta-command rather than speech.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// Parse converts a raw "/name args..." line into a Command. Lines that do
// not start with "/" parse to the zero Command.
func Parse(input string) Command {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return Command{}
	}

	words := strings.Fields(input[1:])
	if len(words) == 0 {
		return Command{}
	}

	// Apply command aliases.
	name := strings.ToLower(words[0])
	if alias, ok := commandAliases[name]; ok {
		name = alias
	}
	args := words[1:]

	switch name {
	case "talk":
		// "/talk to clerk" reads naturally.
		if len(args) > 1 && (args[0] == "to" || args[0] == "with") {
			args = args[1:]
		}
	case "tier":
		args = normalizeTier(args, 0)
	case "room":
		args = normalizeTier(args, 1)
	}

	return Command{Name: name, Args: args}
}

// normalizeTier lowercases and expands the tier argument at index i.
func normalizeTier(args []string, i int) []string {
	if i >= len(args) {
		return args
	}
	out := append([]string(nil), args...)
	t := strings.ToLower(out[i])
	if alias, ok := tierAliases[t]; ok {
		t = string(alias)
	}
	out[i] = t
	return out
}
