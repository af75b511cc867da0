package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// keyMap defines the [key.Binding] mapping for the resume prompt.
type keyMap struct {
	yes  key.Binding
	no   key.Binding
	quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		yes:  key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "resume")),
		no:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "stay here")),
		quit: key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc", "dismiss")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.yes, k.no, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.yes, k.no, k.quit}}
}

// ConfirmModel is the single-view resume prompt.
type ConfirmModel struct {
	deviceName string
	accepted   bool
	answered   bool
	help       help.Model
	keys       keyMap
}

// NewConfirm creates a prompt asking whether to resume playback that was
// last active on the named device.
func NewConfirm(deviceName string) ConfirmModel {
	return ConfirmModel{
		deviceName: deviceName,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.yes):
		m.accepted = true
		m.answered = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.no), key.Matches(keyMsg, m.keys.quit):
		m.answered = true
		return m, tea.Quit
	}

	return m, nil
}

func (m ConfirmModel) View() string {
	if m.answered {
		return ""
	}

	title := styles.title.Render("Resume playback?")
	body := fmt.Sprintf("You were listening on %s. Pick up where you left off?",
		styles.accent.Render(m.deviceName))

	return fmt.Sprintf("%s\n%s\n\n%s\n", title, body, m.help.View(m.keys))
}

// Accepted reports whether the user chose to resume.
func (m ConfirmModel) Accepted() bool {
	return m.accepted
}

// Prompter runs the confirm prompt as a terminal program. Implements the
// resume coordinator's prompt port.
type Prompter struct{}

// Confirm shows the prompt and blocks until the user answers or ctx is
// cancelled. Dismissal and cancellation both read as "no".
func (Prompter) Confirm(ctx context.Context, deviceName string) (bool, error) {
	program := tea.NewProgram(NewConfirm(deviceName), tea.WithContext(ctx))

	final, err := program.Run()
	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		return false, fmt.Errorf("resume prompt failed: %w", err)
	}

	model, ok := final.(ConfirmModel)
	if !ok {
		return false, nil
	}
	return model.Accepted(), nil
}
