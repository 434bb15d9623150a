// ExamBot TUI - terminal admin console for the ExamBot ad slots.
// Logs in against the backend and edits the six placements in a form.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/iconidentify/exambot/cmd/exambot-tui/internal/config"
	"github.com/iconidentify/exambot/cmd/exambot-tui/internal/ui"
)

func main() {
	cfg := config.Load()

	// The terminal belongs to tview, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger := slog.New(slog.NewTextHandler(out, nil))

	app, err := ui.NewApp(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing TUI: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
