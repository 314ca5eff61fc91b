package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/todos/internal/tui/components"
	"github.com/mmcdole/todos/internal/tui/styles"
)

// View renders the whole screen
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	switch m.State {
	case StateHelp:
		return m.renderHelp()
	case StateConfirmClear:
		return m.renderClearConfirmation()
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		m.renderDashboard(),
		m.List.View(),
		m.renderFooter(),
	)

	if m.Input.IsVisible() {
		view = lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.Input.View())
	}
	return view
}

// Dashboard text for an incomplete count
func Dashboard(count int) string {
	return fmt.Sprintf("You have %d todos left to complete.", count)
}

func (m Model) renderDashboard() string {
	if m.Loading && len(m.Snapshot.Items) == 0 {
		return styles.DimStyle.Render(" ")
	}
	return styles.TitleStyle.Render(Dashboard(m.Snapshot.IncompleteCount))
}

// RenderSpinner renders a spinner frame
func RenderSpinner(frame int) string {
	frames := components.SpinnerFrames
	return styles.SpinnerStyle.Render(frames[frame%len(frames)])
}

// renderFooter renders a single-line footer: status left, hints right
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.Loading:
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Loading...")
	case m.StatusMsg != "":
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.DimStyle.Render(m.StatusMsg)
		}
	case m.InFlight > 0:
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render(fmt.Sprintf("Syncing %d...", m.InFlight))
	}

	right := hint(Keys.Toggle.Help().Key, "done") + "  " +
		hint(Keys.Add.Help().Key, "add") + "  " +
		hint(Keys.Help.Help().Key, "help")

	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if leftWidth+rightWidth >= m.Width {
		left = styles.Truncate(m.StatusMsg, max(m.Width-rightWidth-1, 0))
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(left)
		}
		leftWidth = lipgloss.Width(left)
	}

	gap := m.Width - leftWidth - rightWidth
	if gap < 0 {
		gap = 0
	}
	return left + strings.Repeat(" ", gap) + right
}

func hint(k, desc string) string {
	return styles.AccentStyle.Render(k) + styles.DimStyle.Render(" "+desc)
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
LIST                            EDITING
  j/k        Up/down               enter  Save
  g/G        First/last            esc    Cancel
  Ctrl+u/d   Half page

ACTIONS                         OTHER
  space      Toggle done           r      Reload from server
  a          Add todo              ?      This help
  e/enter    Edit todo             q      Quit
  x          Remove todo
  C          Clear completed

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderClearConfirmation renders the clear completed confirmation modal
func (m Model) renderClearConfirmation() string {
	n := 0
	for _, it := range m.Snapshot.Items {
		if it.Completed && !it.Removing {
			n++
		}
	}

	modal := fmt.Sprintf(`
        Clear completed?

  This deletes %d completed todos
  from the server.

        [Y] Yes      [N] No
`, n)

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}
