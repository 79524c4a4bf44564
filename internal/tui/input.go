package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xonecas/zoea-galaxy/internal/core"
)

// InputMode represents what the prompt is collecting.
type InputMode int

const (
	InputModeNone InputMode = iota
	InputModeMove
	InputModeConnect
)

// InputModel is the single-line prompt used for commands that need an id.
type InputModel struct {
	textInput textinput.Model
	mode      InputMode
	target    core.PlanetID
}

// NewInputModel creates an inactive prompt.
func NewInputModel() InputModel {
	ti := textinput.New()
	ti.CharLimit = 10
	ti.Width = 20
	return InputModel{textInput: ti}
}

// SetMode activates the prompt for target.
func (m *InputModel) SetMode(mode InputMode, target core.PlanetID) {
	m.mode = mode
	m.target = target
	m.textInput.Reset()

	switch mode {
	case InputModeMove:
		m.textInput.Placeholder = fmt.Sprintf("explorer id to move to planet %d", target)
		m.textInput.Prompt = inputPromptStyle.Render("⇢ ") + " "
	case InputModeConnect:
		m.textInput.Placeholder = fmt.Sprintf("planet id to connect with %d", target)
		m.textInput.Prompt = inputPromptStyle.Render("⇄ ") + " "
	default:
		m.textInput.Placeholder = ""
		m.textInput.Prompt = ""
	}

	if mode != InputModeNone {
		m.textInput.Focus()
	} else {
		m.textInput.Blur()
	}
}

// Mode returns the active mode.
func (m InputModel) Mode() InputMode {
	return m.mode
}

// Target returns the planet the prompt was opened for.
func (m InputModel) Target() core.PlanetID {
	return m.target
}

// Value returns the current text.
func (m InputModel) Value() string {
	return m.textInput.Value()
}

// ID parses the current text as an actor id.
func (m InputModel) ID() (uint32, error) {
	v := strings.TrimSpace(m.textInput.Value())
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an id: %q", v)
	}
	return uint32(n), nil
}

// IsActive reports whether the prompt is collecting input.
func (m InputModel) IsActive() bool {
	return m.mode != InputModeNone
}

// Update forwards msg to the text input.
func (m InputModel) Update(msg tea.Msg) (InputModel, tea.Cmd) {
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the prompt, or nothing when inactive.
func (m InputModel) View() string {
	if m.mode == InputModeNone {
		return ""
	}
	return inputStyle.Render(m.textInput.View())
}

// Reset clears and deactivates the prompt.
func (m *InputModel) Reset() {
	m.textInput.Reset()
	m.mode = InputModeNone
	m.target = 0
	m.textInput.Blur()
}

// SetWidth sets the prompt width.
func (m *InputModel) SetWidth(width int) {
	m.textInput.Width = max(10, width-4)
}
