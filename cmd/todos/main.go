package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/mmcdole/todos/internal/cli"
	"github.com/mmcdole/todos/internal/config"
	"github.com/mmcdole/todos/internal/domain"
	"github.com/mmcdole/todos/internal/journal"
	"github.com/mmcdole/todos/internal/logging"
	"github.com/mmcdole/todos/internal/service"
	"github.com/mmcdole/todos/internal/todoapi"
	"github.com/mmcdole/todos/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	fs := pflag.NewFlagSet("todos", pflag.ContinueOnError)
	fs.SetInterspersed(false) // flags stop at the subcommand
	showVersion := fs.BoolP("version", "v", false, "print version")
	config.RegisterFlags(fs)

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(cli.ExitOK)
		}
		os.Exit(cli.ExitUsage)
	}

	if *showVersion {
		fmt.Printf("todos %s\n", Version)
		return
	}

	os.Exit(run(fs))
}

func run(fs *pflag.FlagSet) int {
	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return cli.ExitError
	}

	// Fall back to null logger if file logging fails
	logger, closer, err := logging.Setup(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		logger = logging.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting todos", "version", Version, "server", cfg.Server.URL, "config", cfg.File)

	var recorder domain.ActivityRecorder = domain.NoOpRecorder{}
	var activity *journal.Journal
	if cfg.Journal.Enabled {
		activity, err = openJournal(cfg.Journal.Path, logger)
		if err != nil {
			logger.Warn("journal disabled", "error", err)
		} else {
			defer activity.Close()
			activity.SetMaxEntries(cfg.Journal.MaxEntries)
			recorder = activity
		}
	}

	client := todoapi.NewClient(cfg.Server.URL, cfg.Server.Timeout, logger)
	sync := service.NewSynchronizer(client, recorder, logger)

	args := fs.Args()
	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	if len(args) == 0 && interactive {
		return runTUI(sync, cfg, logger)
	}
	if len(args) == 0 {
		args = []string{"ls"}
	}

	runner := &cli.Runner{
		Sync:   sync,
		Config: cfg,
		Out:    os.Stdout,
		Err:    os.Stderr,
	}
	if activity != nil {
		runner.Journal = activity
	}
	if interactive {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			runner.Width = w
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	code := runner.Run(ctx, args)
	if code != cli.ExitOK {
		fmt.Fprintln(os.Stderr)
	}
	logger.Info("finished", "args", args, "exit", code)
	return code
}

// openJournal opens the on-disk journal, falling back to memory when the file
// cannot be opened (another instance may hold the lock)
func openJournal(path string, logger *slog.Logger) (*journal.Journal, error) {
	j, err := journal.Open(path)
	if err == nil {
		return j, nil
	}
	logger.Warn("journal unavailable, using memory", "error", err, "path", path)
	return journal.Open("")
}

func runTUI(sync *service.Synchronizer, cfg *config.Config, logger *slog.Logger) int {
	model := tui.NewModel(sync, tui.Options{ConfirmClear: cfg.UI.ConfirmClear})

	var opts []tea.ProgramOption
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(model, opts...)

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		fmt.Fprintf(os.Stderr, "Error: TUI error: %v\n", err)
		return cli.ExitError
	}

	logger.Info("shutting down")
	return cli.ExitOK
}
