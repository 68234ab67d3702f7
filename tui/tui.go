// Package tui provides a Bubble Tea terminal front end for kaiwa: a grid
// scene to walk around in and a conversation pane.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/kaiwa/engine"
	"github.com/nathoo/kaiwa/engine/dialogue"
	"github.com/nathoo/kaiwa/engine/parser"
	"github.com/nathoo/kaiwa/protocol"
	"github.com/nathoo/kaiwa/world"
)

// TickInterval is how often proximity is polled.
const TickInterval = 100 * time.Millisecond

type mode int

const (
	modeWalk mode = iota
	modeTalk
	modeCommand
)

// Options configures the TUI.
type Options struct {
	SaveDir string
	Context context.Context // bounds model calls; nil means Background
}

// Model is the Bubble Tea model for the kaiwa TUI.
type Model struct {
	engine *engine.Engine
	scene  *world.Scene
	feed   *feed
	ctx    context.Context

	viewport viewport.Model
	input    textinput.Model
	history  *History
	mode     mode

	width    int
	height   int
	ready    bool
	quitting bool
	saveDir  string
}

// tickMsg drives proximity polling.
type tickMsg time.Time

// replyMsg carries the result of an exchange back to Update.
type replyMsg struct {
	turn *dialogue.Turn
	resp *protocol.Response
	err  error
}

// New creates a TUI model wired to an engine that has entered a room.
func New(eng *engine.Engine, opts Options) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	saveDir := opts.SaveDir
	if saveDir == "" {
		saveDir = "saves"
	}

	m := Model{
		engine:  eng,
		feed:    &feed{},
		ctx:     ctx,
		input:   ti,
		history: NewHistory(100),
		saveDir: saveDir,
	}
	m.feed.subscribe(eng)
	m.syncScene()

	g := eng.Defs.Game
	m.feed.add(kindEvent, "%s v%s", g.Title, g.Version)
	if g.Intro != "" {
		for _, line := range strings.Split(g.Intro, "\n") {
			m.feed.add(kindSystem, "%s", line)
		}
	}
	m.describeRoom()
	return m
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, opts Options) error {
	p := tea.NewProgram(New(eng, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init starts proximity polling.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// syncScene rebuilds the scene when the engine's room differs from it.
func (m *Model) syncScene() {
	room, ok := m.engine.Room()
	if !ok {
		return
	}
	if m.scene != nil && m.scene.Room().ID == room.ID {
		return
	}
	if m.scene != nil {
		m.scene.Close()
	}
	m.scene = world.New(room, m.engine.Bus)
}

// Update handles messages (key presses, window resize, ticks, replies).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case tickMsg:
		if m.scene != nil {
			m.scene.Poll()
		}
		cmd = tick()

	case replyMsg:
		m.afterReply(m.engine.Dialogue.Finish(msg.turn, msg.resp, msg.err))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quit()
			return m, tea.Quit
		}
		switch m.mode {
		case modeWalk:
			m, cmd = m.updateWalk(msg)
		default:
			m, cmd = m.updateInput(msg)
		}
	}

	// A conversation can end under us: walking away, a tier switch, a load.
	if m.mode == modeTalk && !m.engine.Sessions.IsActive() {
		m.setMode(modeWalk)
	}
	m.refreshViewport()
	return m, cmd
}

func (m Model) updateWalk(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.scene == nil {
		return m, nil
	}
	switch msg.String() {
	case "up", "w", "k":
		m.scene.Move(world.Up)
	case "down", "s", "j":
		m.scene.Move(world.Down)
	case "left", "a", "h":
		m.scene.Move(world.Left)
	case "right", "d", "l":
		m.scene.Move(world.Right)
	case "z", "enter":
		m.talkToNearest()
	case "m":
		m.toggleMic()
	case "/", ":":
		m.setMode(modeCommand)
		m.input.SetValue("/")
		m.input.CursorEnd()
	case "q":
		m.quit()
		return m, tea.Quit
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	// Proximity updates immediately after a step.
	m.scene.Poll()
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.mode == modeTalk {
			m.engine.Leave()
		}
		m.setMode(modeWalk)
		return m, nil

	case "enter":
		return m.handleEnter()

	case "up":
		if prev, ok := m.history.Prev(); ok {
			m.input.SetValue(prev)
			m.input.CursorEnd()
		}
		return m, nil

	case "down":
		if next, ok := m.history.Next(); ok {
			m.input.SetValue(next)
			m.input.CursorEnd()
		} else {
			m.input.SetValue("")
			m.history.ResetCursor()
		}
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if input == "" {
		if m.mode == modeCommand {
			m.setMode(modeWalk)
		}
		return m, nil
	}
	m.history.Push(input)
	m.history.ResetCursor()

	if parser.IsCommand(input) {
		if m.mode == modeCommand {
			m.setMode(modeWalk)
		}
		if m.handleMeta(input) {
			m.quit()
			return m, tea.Quit
		}
		return m, nil
	}
	if m.mode != modeTalk {
		m.feed.add(kindSystem, "[Commands start with /. Walk up to someone and press z to talk.]")
		m.setMode(modeWalk)
		return m, nil
	}

	turn, ok := m.engine.Dialogue.Begin(input)
	if !ok {
		m.feed.add(kindSystem, "[Still waiting for a reply.]")
		return m, nil
	}
	return m, exchange(m.ctx, m.engine.Dialogue, turn)
}

// exchange runs the model call off the update loop. It touches only the
// immutable turn and the client.
func exchange(ctx context.Context, c *dialogue.Coordinator, turn *dialogue.Turn) tea.Cmd {
	return func() tea.Msg {
		resp, err := c.Exchange(ctx, turn)
		return replyMsg{turn: turn, resp: resp, err: err}
	}
}

// afterReply surfaces what the last turn left in the session.
func (m *Model) afterReply(outcome dialogue.Outcome) {
	switch outcome {
	case dialogue.Failed:
		m.feed.add(kindError, "[%s]", dialogue.FailureText)
		return
	case dialogue.Dropped:
		return
	}
	lines := m.engine.Sessions.Transcript()
	if len(lines) == 0 {
		return
	}
	last := lines[len(lines)-1]
	if last.Reading != "" && last.Reading != last.Text {
		m.feed.add(kindGloss, "    %s", last.Reading)
	}
	if last.Translation != "" {
		m.feed.add(kindGloss, "    %s", last.Translation)
	}
	if fb := m.engine.Sessions.Feedback(); fb != nil && !fb.IsNatural {
		m.addFeedback()
	}
}

func (m *Model) talkToNearest() {
	c, ok := m.scene.Nearest()
	if !ok {
		m.feed.add(kindSystem, "[Nobody is close enough to talk to.]")
		return
	}
	if cur := m.engine.Sessions.CharacterID(); cur != "" && cur != c.ID {
		m.engine.Leave()
	}
	if _, err := m.engine.Talk(c.ID); err != nil {
		m.feed.add(kindError, "[%v]", err)
		return
	}
	m.setMode(modeTalk)
}

func (m *Model) toggleMic() {
	s := m.engine.Sessions
	if !s.IsActive() {
		m.feed.add(kindSystem, "[Start a conversation first.]")
		return
	}
	s.SetRecording(!s.Recording())
}

func (m *Model) quit() {
	m.quitting = true
	m.engine.Leave()
	if m.scene != nil {
		m.scene.Close()
	}
}

func (m *Model) setMode(md mode) {
	m.mode = md
	switch md {
	case modeTalk:
		m.input.Prompt = "あなた> "
		m.input.Placeholder = "日本語で話しかけてみよう"
		m.input.Focus()
	case modeCommand:
		m.input.Prompt = ""
		m.input.Placeholder = ""
		m.input.Focus()
	default:
		m.input.Blur()
		m.input.SetValue("")
	}
	m.layout()
}

func (m *Model) describeRoom() {
	room, ok := m.engine.Room()
	if !ok {
		return
	}
	title := room.Name
	if room.Subtitle != "" {
		title += " (" + room.Subtitle + ")"
	}
	m.feed.add(kindEvent, "== %s: %s ==", title, m.engine.Tier())
	if room.Description != "" {
		m.feed.add(kindSystem, "%s", room.Description)
	}
}

// sceneHeight is the number of rows above the transcript.
func (m Model) sceneHeight() int {
	if m.scene == nil {
		return 0
	}
	return lipgloss.Height(m.renderTop())
}

// layout resizes the transcript to the space left under the scene.
func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	vpHeight := m.height - m.sceneHeight() - 2 // status bar + input line
	if vpHeight < 3 {
		vpHeight = 3
	}
	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.viewport.KeyMap = viewportKeyMap()
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.input.Width = m.width - lipgloss.Width(m.input.Prompt) - 1
}

// refreshViewport re-wraps and re-styles all feed lines at the current
// width and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := m.width
	if width < 10 {
		width = 10
	}
	wrap := lipgloss.NewStyle().Width(width)

	styled := make([]string, 0, len(m.feed.lines))
	for _, fl := range m.feed.lines {
		if fl.text == "" {
			styled = append(styled, "")
			continue
		}
		styled = append(styled, renderLineKind(wrap.Render(fl.text), fl.kind))
	}
	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// View renders the full layout: scene and panel, transcript, status bar,
// and the input or key help line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	bottom := m.input.View()
	if m.mode == modeWalk {
		bottom = styleKeys.Render(" ←↑↓→/wasd move · z talk · m mic · / command · q quit")
	}
	return m.renderTop() + "\n" + m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + bottom
}

func (m *Model) addFeedback() {
	fb := m.engine.Sessions.Feedback()
	if fb == nil {
		m.feed.add(kindSystem, "[No feedback yet.]")
		return
	}
	if fb.IsNatural {
		m.feed.add(kindFeedback, "✓ That sounded natural.")
	} else {
		m.feed.add(kindFeedback, "△ That sounded a little unnatural.")
	}
	for _, c := range fb.Corrections {
		m.feed.add(kindFeedback, "  correction: %s", c)
	}
	if fb.BetterExpression != "" {
		m.feed.add(kindFeedback, "  try: %s", fb.BetterExpression)
	}
	for _, v := range fb.NewVocab {
		m.feed.add(kindFeedback, "  vocab: %s (%s) %s", v.Word, v.Reading, v.Meaning)
	}
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for walking and input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
