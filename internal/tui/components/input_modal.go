package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/todos/internal/tui/styles"
)

// InputAction is what a key press did to the modal
type InputAction int

const (
	InputNone InputAction = iota
	InputSubmitted
	InputCancelled
)

// InputModal is the text box used to add and edit todos
type InputModal struct {
	visible bool
	title   string
	errText string
	width   int
	input   textinput.Model
}

// NewInputModal creates a new input modal
func NewInputModal() InputModal {
	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 200
	ti.Width = 40
	ti.Prompt = "> "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return InputModal{
		input: ti,
		width: 44,
	}
}

// Show displays the modal with a title and initial text
func (m *InputModal) Show(title, value string) tea.Cmd {
	m.visible = true
	m.title = title
	m.errText = ""
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

// Hide dismisses the modal
func (m *InputModal) Hide() {
	m.visible = false
	m.errText = ""
	m.input.Blur()
	m.input.SetValue("")
}

// SetError shows a validation message under the title
func (m *InputModal) SetError(text string) {
	m.errText = text
}

// SetWidth fits the modal to the terminal
func (m *InputModal) SetWidth(termWidth int) {
	w := termWidth - 10
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	m.width = w
	m.input.Width = w - 4
}

// IsVisible returns whether the modal is shown
func (m InputModal) IsVisible() bool {
	return m.visible
}

// Value returns the current input value
func (m InputModal) Value() string {
	return m.input.Value()
}

// Update handles input events
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, InputAction) {
	if !m.visible {
		return m, nil, InputNone
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			return m, nil, InputSubmitted
		case "esc":
			m.Hide()
			return m, nil, InputCancelled
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, InputNone
}

// View renders the input modal
func (m InputModal) View() string {
	if !m.visible {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.White).
		Bold(true).
		Width(m.width).
		Background(styles.SlateDark)

	lineStyle := lipgloss.NewStyle().
		Width(m.width).
		Background(styles.SlateDark)

	status := lineStyle.Render("")
	if m.errText != "" {
		status = lineStyle.Foreground(styles.Red).Render(m.errText)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.title),
		status,
		lineStyle.Render(m.input.View()),
		lineStyle.Render(""),
		lineStyle.Foreground(styles.DimGray).Render("enter save · esc cancel"),
	)

	return styles.ModalStyle.Render(content)
}
