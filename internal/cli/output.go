package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/todos/internal/tui/styles"
)

func (r *Runner) ok(msg string) {
	fmt.Fprintln(r.Out, styles.SuccessStyle.Render("✔ "+msg))
}

func (r *Runner) fail(msg string) {
	fmt.Fprintln(r.Err, styles.ErrorStyle.Bold(true).Render("✖ "+msg))
}

func (r *Runner) hint(msg string) {
	fmt.Fprintln(r.Err, styles.DimStyle.Render("Hint: "+msg))
}

func (r *Runner) panel(lines []string) {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.DimGray).
		Padding(0, 1)
	fmt.Fprintln(r.Out, border.Render(strings.Join(lines, "\n")))
}

func progressBar(done, total, width int) string {
	if total == 0 {
		total = 1
	}
	if width <= 0 {
		width = 28
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + fmt.Sprintf("] %d/%d", done, total)
}
