package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/todos/internal/mirror"
	"github.com/mmcdole/todos/internal/tui/styles"
)

// Spinner frames for items with a request in flight
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Layout constants for the list
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// "↑ more" and "↓ more" each take 1 line
	ScrollIndicatorLines = 2
)

// TodoList is the scrollable list of todos
type TodoList struct {
	items []mirror.ItemView

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width  int
	height int

	title string

	loading      bool
	spinnerFrame int
}

// NewTodoList creates an empty list with a title
func NewTodoList(title string) *TodoList {
	return &TodoList{title: title}
}

// Update moves the cursor
func (c *TodoList) Update(msg tea.Msg) tea.Cmd {
	count := len(c.items)
	if count == 0 {
		return nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch {
	case key.Matches(keyMsg, TodoListKeys.Down):
		if c.cursor < count-1 {
			c.cursor++
		}
	case key.Matches(keyMsg, TodoListKeys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(keyMsg, TodoListKeys.Home):
		c.cursor = 0
		c.offset = 0
	case key.Matches(keyMsg, TodoListKeys.End):
		c.cursor = count - 1
	case key.Matches(keyMsg, TodoListKeys.HalfDown):
		c.cursor = min(c.cursor+max(c.maxVisible/2, 1), count-1)
	case key.Matches(keyMsg, TodoListKeys.HalfUp):
		c.cursor = max(c.cursor-max(c.maxVisible/2, 1), 0)
	}
	c.ensureVisible()
	return nil
}

// SetItems replaces the rows, keeping the cursor on the same item when it
// is still present
func (c *TodoList) SetItems(items []mirror.ItemView) {
	selectedID := ""
	if sel, ok := c.Selected(); ok {
		selectedID = sel.ID
	}

	c.items = items

	if selectedID != "" {
		for i, it := range items {
			if it.ID == selectedID {
				c.cursor = i
				c.ensureVisible()
				return
			}
		}
	}
	c.SetSelectedIndex(c.cursor)
}

// Selected returns the row under the cursor
func (c *TodoList) Selected() (mirror.ItemView, bool) {
	if c.cursor < 0 || c.cursor >= len(c.items) {
		return mirror.ItemView{}, false
	}
	return c.items[c.cursor], true
}

func (c *TodoList) SelectedIndex() int {
	return c.cursor
}

func (c *TodoList) SetSelectedIndex(idx int) {
	last := len(c.items) - 1
	if last < 0 {
		c.cursor = 0
		c.offset = 0
		return
	}
	c.cursor = max(0, min(idx, last))
	c.ensureVisible()
}

func (c *TodoList) ItemCount() int {
	return len(c.items)
}

func (c *TodoList) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.recalcMaxVisible()
	c.ensureVisible()
}

func (c *TodoList) SetLoading(loading bool) {
	c.loading = loading
}

func (c *TodoList) SetSpinnerFrame(frame int) {
	c.spinnerFrame = frame
}

func (c *TodoList) recalcMaxVisible() {
	interiorHeight := c.height - BorderHeight
	c.maxVisible = interiorHeight - ScrollIndicatorLines - 1 // -1 for title
	if c.maxVisible < 1 {
		c.maxVisible = 1
	}
}

func (c *TodoList) ensureVisible() {
	if c.maxVisible <= 0 {
		return
	}
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+c.maxVisible {
		c.offset = c.cursor - c.maxVisible + 1
	}
}

// View renders the list inside a border sized to width x height
func (c *TodoList) View() string {
	style := styles.ActiveBorder
	frameW, frameH := style.GetFrameSize()

	return style.
		Width(max(c.width-frameW, 0)).
		Height(max(c.height-frameH, 0)).
		Render(c.renderContent())
}

func (c *TodoList) spinner() string {
	return SpinnerFrames[c.spinnerFrame%len(SpinnerFrames)]
}

func (c *TodoList) renderContent() string {
	itemWidth := c.width - BorderWidth
	if itemWidth < 10 {
		itemWidth = 10
	}

	titleLine := styles.AccentStyle.Render(styles.Truncate(c.title, itemWidth))

	if c.loading && len(c.items) == 0 {
		loadingLine := styles.DimStyle.Render(c.spinner() + " Loading...")
		return titleLine + "\n" + " " + "\n" + loadingLine + "\n" + " "
	}

	count := len(c.items)
	if count == 0 {
		emptyMsg := styles.DimStyle.Render("Nothing to do. Press a to add a todo.")
		return titleLine + "\n" + " " + "\n" + emptyMsg + "\n" + " "
	}

	end := min(c.offset+c.maxVisible, count)

	lines := make([]string, 0, end-c.offset)
	for i := c.offset; i < end; i++ {
		lines = append(lines, c.renderItem(c.items[i], i == c.cursor, itemWidth))
	}

	// Always reserve the indicator lines so the layout does not shift
	header := " "
	if c.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	}

	return titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
}

func (c *TodoList) renderItem(item mirror.ItemView, selected bool, width int) string {
	var indicator string
	var indicatorFg lipgloss.Color
	switch {
	case item.Removing:
		indicator = styles.RemovingChar
		indicatorFg = styles.Red
	case item.Completed:
		indicator = styles.DoneChar
		indicatorFg = styles.Green
	default:
		indicator = styles.OpenChar
		indicatorFg = styles.DimGray
	}

	suffix := ""
	if item.Syncing {
		suffix = " " + c.spinner()
	}

	body := styles.Truncate(item.Body, width-4-lipgloss.Width(suffix))

	parts := []styles.RowPart{
		{Text: indicator + " ", Foreground: &indicatorFg},
	}
	if item.Completed || item.Removing {
		done := styles.DoneStyle
		parts = append(parts, styles.RowPart{Text: body, Style: &done})
	} else {
		parts = append(parts, styles.RowPart{Text: body})
	}
	if suffix != "" {
		accent := styles.Accent
		parts = append(parts, styles.RowPart{Text: suffix, Foreground: &accent})
	}

	return styles.RenderListRow(parts, selected, width)
}
