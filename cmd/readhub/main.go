package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"readhub/internal/config"
	"readhub/internal/logging"
	"readhub/internal/session"
	"readhub/internal/tui"
	"readhub/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("readhub " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "logout":
			return runLogout(cfg.Data.Dir)
		}
	}

	log, err := logging.New(cfg.Data.Dir, cfg.Log.Level)
	if err != nil {
		return err
	}

	store, err := session.Open(cfg.Data.Dir)
	if err != nil {
		return err
	}

	c := client.New(cfg.API.URL, log)
	app := tui.NewApp(c, store, log, version)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func runLogout(dataDir string) error {
	store, err := session.Open(dataDir)
	if err != nil {
		return err
	}
	if store.CurrentUser() == nil {
		fmt.Println("Already signed out.")
		return nil
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	fmt.Println("Signed out.")
	return nil
}

func printHelp() {
	fmt.Print(`readhub — terminal client for the ReadHub library

Usage:
  readhub            launch the TUI
  readhub logout     clear the saved session
  readhub version    print the version
  readhub help       show this help

Environment:
  READHUB_API_URL    API base URL (default http://localhost:8080)
  READHUB_DATA_DIR   session and log directory (default ~/.readhub)
  READHUB_LOG_LEVEL  log verbosity (default info)
`)
}
