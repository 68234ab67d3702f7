package parser

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Command
	}{
		// Not commands
		{name: "empty string", input: "", want: Command{}},
		{name: "whitespace only", input: "   ", want: Command{}},
		{name: "speech", input: "こんにちは", want: Command{}},
		{name: "bare slash", input: "/", want: Command{}},

		// Basic commands
		{name: "help", input: "/help", want: Command{Name: "help", Args: []string{}}},
		{name: "save with name", input: "/save slot1", want: Command{Name: "save", Args: []string{"slot1"}}},
		{name: "surrounding whitespace", input: "  /quests  ", want: Command{Name: "quests", Args: []string{}}},
		{name: "uppercase name", input: "/MOOD", want: Command{Name: "mood", Args: []string{}}},

		// Aliases
		{name: "q → quit", input: "/q", want: Command{Name: "quit", Args: []string{}}},
		{name: "exit → quit", input: "/exit", want: Command{Name: "quit", Args: []string{}}},
		{name: "bye → leave", input: "/bye", want: Command{Name: "leave", Args: []string{}}},
		{name: "? → help", input: "/?", want: Command{Name: "help", Args: []string{}}},
		{name: "fb → feedback", input: "/fb", want: Command{Name: "feedback", Args: []string{}}},
		{name: "s name → save name", input: "/s mine", want: Command{Name: "save", Args: []string{"mine"}}},

		// Talk phrasing
		{name: "talk id", input: "/talk clerk", want: Command{Name: "talk", Args: []string{"clerk"}}},
		{name: "talk to id", input: "/talk to clerk", want: Command{Name: "talk", Args: []string{"clerk"}}},
		{name: "talk with id", input: "/chat with yuki", want: Command{Name: "talk", Args: []string{"yuki"}}},
		{name: "talk to nobody", input: "/talk to", want: Command{Name: "talk", Args: []string{"to"}}},

		// Tiers
		{name: "tier name", input: "/tier Hard", want: Command{Name: "tier", Args: []string{"hard"}}},
		{name: "tier number", input: "/tier 2", want: Command{Name: "tier", Args: []string{"normal"}}},
		{name: "tier letter", input: "/tier x", want: Command{Name: "tier", Args: []string{"hell"}}},
		{name: "room with tier", input: "/room conbini 3", want: Command{Name: "room", Args: []string{"conbini", "hard"}}},
		{name: "room id kept", input: "/room Conbini", want: Command{Name: "room", Args: []string{"Conbini"}}},
		{name: "unknown tier kept", input: "/tier impossible", want: Command{Name: "tier", Args: []string{"impossible"}}},

		// Unknown commands pass through
		{name: "unknown", input: "/dance now", want: Command{Name: "dance", Args: []string{"now"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCommand_Arg(t *testing.T) {
	c := Command{Name: "room", Args: []string{"conbini", "easy"}}
	if got := c.Arg(0); got != "conbini" {
		t.Errorf("Arg(0) = %q", got)
	}
	if got := c.Arg(1); got != "easy" {
		t.Errorf("Arg(1) = %q", got)
	}
	if got := c.Arg(2); got != "" {
		t.Errorf("Arg(2) = %q, want empty", got)
	}
	if got := c.Arg(-1); got != "" {
		t.Errorf("Arg(-1) = %q, want empty", got)
	}
}

func TestIsCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"/help", true},
		{"  /save", true},
		{"ラーメンください", false},
		{"", false},
		{"a/b", false},
	}
	for _, tt := range tests {
		if got := IsCommand(tt.input); got != tt.want {
			t.Errorf("IsCommand(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
