// Package cli implements the non-interactive subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/todos/internal/config"
	"github.com/mmcdole/todos/internal/domain"
	"github.com/mmcdole/todos/internal/mirror"
	"github.com/mmcdole/todos/internal/tui"
	"github.com/mmcdole/todos/internal/tui/styles"
)

// Exit codes
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

const defaultLogEntries = 20

// todoSync is the part of the synchronizer the subcommands use
type todoSync interface {
	Snapshot() mirror.Snapshot
	Load(ctx context.Context) error
	AddItem(ctx context.Context, text string) (domain.Todo, error)
	EditItem(ctx context.Context, id, text string) (domain.Todo, error)
	ToggleComplete(ctx context.Context, id string, completed bool) (bool, error)
	RemoveItem(ctx context.Context, item domain.Todo) (domain.Todo, error)
	ClearCompleted(ctx context.Context) (int, error)
}

// activityLog reads back the journal
type activityLog interface {
	Recent(n int) ([]domain.Activity, error)
}

// Runner dispatches subcommands and returns an exit code
type Runner struct {
	Sync    todoSync
	Journal activityLog    // nil when the journal is disabled
	Config  *config.Config // used by the server subcommand
	Out     io.Writer
	Err     io.Writer
	Width   int // terminal width for truncation, 0 = 80
}

// Run dispatches args (without the program name)
func (r *Runner) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		r.PrintHelp()
		return ExitUsage
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		r.PrintHelp()
		return ExitOK

	case "ls", "list":
		return r.doList(ctx)

	case "add":
		if len(a) == 0 {
			r.fail("usage: todos add <text...>")
			return ExitUsage
		}
		return r.doAdd(ctx, strings.Join(a, " "))

	case "edit":
		if len(a) < 2 {
			r.fail("usage: todos edit <index> <text...>")
			return ExitUsage
		}
		n, err := strconv.Atoi(a[0])
		if err != nil {
			r.fail("edit: not a number: " + a[0])
			return ExitUsage
		}
		return r.doEdit(ctx, n, strings.Join(a[1:], " "))

	case "done":
		n, code := r.indexArg("done", a)
		if code != ExitOK {
			return code
		}
		return r.doToggle(ctx, n)

	case "rm":
		n, code := r.indexArg("rm", a)
		if code != ExitOK {
			return code
		}
		return r.doRemove(ctx, n)

	case "clear":
		return r.doClear(ctx)

	case "log":
		limit := defaultLogEntries
		if len(a) > 0 {
			n, err := strconv.Atoi(a[0])
			if err != nil || n < 1 {
				r.fail("log: not a positive number: " + a[0])
				return ExitUsage
			}
			limit = n
		}
		return r.doLog(limit)

	case "server":
		if len(a) > 1 {
			r.fail("usage: todos server [url]")
			return ExitUsage
		}
		return r.doServer(a)
	}

	r.fail("unknown subcommand: " + cmd)
	fmt.Fprintln(r.Err)
	r.PrintHelp()
	return ExitUsage
}

func (r *Runner) PrintHelp() {
	fmt.Fprint(r.Out, `todos - a to-do list backed by a REST collection

Usage:
  todos [flags]                     Interactive list
  todos [flags] <subcommand> [args]

Subcommands:
  ls                     List items and how many are left
  add <text...>          Add a new item (text can be multiple words)
  edit <index> <text...> Replace the text of the item at 1-based index
  done <index>           Toggle done for item at 1-based index
  rm <index>             Remove item at 1-based index
  clear                  Remove every completed item
  log [n]                Show the last n recorded operations
  server [url]           Show or save the collection URL

Flags:
  --server-url <url>     Collection URL (env TODOS_SERVER_URL)
  --config <file>        Config file
  --log-level <level>    DEBUG, INFO, WARN or ERROR
  -v, --version          Print version

Examples:
  todos add "Buy milk"
  todos ls
  todos done 2
  todos rm 3
`)
}

func (r *Runner) indexArg(cmd string, a []string) (int, int) {
	if len(a) != 1 {
		r.fail("usage: todos " + cmd + " <index>")
		return 0, ExitUsage
	}
	n, err := strconv.Atoi(a[0])
	if err != nil {
		r.fail(cmd + ": not a number: " + a[0])
		return 0, ExitUsage
	}
	return n, ExitOK
}

// exitCode maps a synchronizer error to an exit code
func exitCode(err error) int {
	if errors.Is(err, domain.ErrValidation) {
		return ExitUsage
	}
	return ExitError
}

func (r *Runner) load(ctx context.Context) (mirror.Snapshot, int) {
	if err := r.Sync.Load(ctx); err != nil {
		r.fail("load: " + err.Error())
		return mirror.Snapshot{}, ExitError
	}
	return r.Sync.Snapshot(), ExitOK
}

// itemAt loads the list and resolves a 1-based index
func (r *Runner) itemAt(ctx context.Context, userIndex int) (domain.Todo, int) {
	snap, code := r.load(ctx)
	if code != ExitOK {
		return domain.Todo{}, code
	}
	if userIndex < 1 || userIndex > len(snap.Items) {
		r.fail(fmt.Sprintf("index out of range: have %d, got %d", len(snap.Items), userIndex))
		r.hint("run `todos ls` to see valid indexes")
		return domain.Todo{}, ExitUsage
	}
	return snap.Items[userIndex-1].Todo, ExitOK
}

// -------------- subcommand impls ----------------

func (r *Runner) doList(ctx context.Context) int {
	snap, code := r.load(ctx)
	if code != ExitOK {
		return code
	}

	total := len(snap.Items)
	done := total - snap.IncompleteCount

	var lines []string
	lines = append(lines, styles.TitleStyle.Render(tui.Dashboard(snap.IncompleteCount)))
	lines = append(lines, styles.DimStyle.Render(progressBar(done, total, 28)))
	lines = append(lines, "")
	lines = append(lines, r.itemLines(snap.Todos())...)
	r.panel(lines)
	return ExitOK
}

func (r *Runner) itemLines(todos []domain.Todo) []string {
	if len(todos) == 0 {
		return []string{styles.DimStyle.Render("no items")}
	}

	width := r.Width
	if width <= 0 {
		width = 80
	}
	// Index, box and panel chrome
	textWidth := max(width-12, 10)

	out := make([]string, 0, len(todos))
	for i, t := range todos {
		idx := fmt.Sprintf("%2d.", i+1)
		box := styles.DimStyle.Render(styles.OpenChar)
		text := styles.Truncate(t.Body, textWidth)
		if t.Completed {
			box = styles.SuccessStyle.Render(styles.DoneChar)
			text = styles.DoneStyle.Render(text)
		}
		out = append(out, fmt.Sprintf("%s %s %s", styles.DimStyle.Render(idx), box, text))
	}
	return out
}

func (r *Runner) doAdd(ctx context.Context, text string) int {
	todo, err := r.Sync.AddItem(ctx, text)
	if err != nil {
		r.fail("add: " + err.Error())
		return exitCode(err)
	}
	r.ok("added: " + todo.Body)
	return ExitOK
}

func (r *Runner) doEdit(ctx context.Context, userIndex int, text string) int {
	item, code := r.itemAt(ctx, userIndex)
	if code != ExitOK {
		return code
	}
	todo, err := r.Sync.EditItem(ctx, item.ID, text)
	if err != nil {
		r.fail("edit: " + err.Error())
		return exitCode(err)
	}
	r.ok("edited: " + todo.Body)
	return ExitOK
}

func (r *Runner) doToggle(ctx context.Context, userIndex int) int {
	item, code := r.itemAt(ctx, userIndex)
	if code != ExitOK {
		return code
	}
	completed, err := r.Sync.ToggleComplete(ctx, item.ID, !item.Completed)
	if err != nil {
		r.fail("done: " + err.Error())
		return exitCode(err)
	}
	if completed {
		r.ok("done: " + item.Body)
	} else {
		r.ok("reopened: " + item.Body)
	}
	return ExitOK
}

func (r *Runner) doRemove(ctx context.Context, userIndex int) int {
	item, code := r.itemAt(ctx, userIndex)
	if code != ExitOK {
		return code
	}
	if _, err := r.Sync.RemoveItem(ctx, item); err != nil {
		r.fail("rm: " + err.Error())
		return exitCode(err)
	}
	r.ok("removed: " + item.Body)
	return ExitOK
}

func (r *Runner) doClear(ctx context.Context) int {
	if _, code := r.load(ctx); code != ExitOK {
		return code
	}
	n, err := r.Sync.ClearCompleted(ctx)
	if err != nil {
		r.fail(fmt.Sprintf("clear: removed %d, some deletes failed: %v", n, err))
		return ExitError
	}
	r.ok(fmt.Sprintf("cleared %d completed", n))
	return ExitOK
}

func (r *Runner) doLog(limit int) int {
	if r.Journal == nil {
		r.fail("log: the activity journal is disabled")
		r.hint("set journal.enabled: true in the config file")
		return ExitError
	}
	entries, err := r.Journal.Recent(limit)
	if err != nil {
		r.fail("log: " + err.Error())
		return ExitError
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.Out, styles.DimStyle.Render("no activity recorded"))
		return ExitOK
	}

	for _, e := range entries {
		outcome := styles.SuccessStyle.Render(string(e.Outcome))
		if e.Outcome != domain.OutcomeOK {
			outcome = styles.ErrorStyle.Render(string(e.Outcome))
		}
		line := fmt.Sprintf("%s  %-6s %s", styles.DimStyle.Render(e.At.Local().Format(time.DateTime)), e.Op, outcome)
		if e.Body != "" {
			line += "  " + styles.Truncate(e.Body, 40)
		}
		if e.Error != "" {
			line += "  " + styles.DimStyle.Render(e.Error)
		}
		fmt.Fprintln(r.Out, line)
	}
	return ExitOK
}

func (r *Runner) doServer(a []string) int {
	if r.Config == nil {
		r.fail("server: no configuration loaded")
		return ExitError
	}
	if len(a) == 0 {
		fmt.Fprintln(r.Out, r.Config.Server.URL)
		return ExitOK
	}

	cfg := *r.Config
	cfg.Server.URL = strings.TrimSpace(a[0])
	if err := cfg.Validate(); err != nil {
		r.fail("server: " + err.Error())
		return ExitUsage
	}
	path, err := config.SaveConfig(&cfg, r.Config.File)
	if err != nil {
		r.fail("server: " + err.Error())
		return ExitError
	}
	r.Config.Server.URL = cfg.Server.URL
	r.ok("saved server url to " + path)
	return ExitOK
}
