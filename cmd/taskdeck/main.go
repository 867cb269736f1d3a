package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/api"
	"taskdeck/internal/config"
	"taskdeck/internal/session"
	"taskdeck/internal/store"
	"taskdeck/internal/ui"
	"taskdeck/internal/ui/styles"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "config file path")
	serverURL := flag.String("server", "", "backend base URL (overrides config)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("taskdeck %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	// log.Printf writing to stderr would corrupt the alt screen, so debug
	// output goes to a file, and nowhere at all unless asked for.
	if os.Getenv("TASKDECK_DEBUG") != "" {
		f, err := tea.LogToFile("taskdeck-debug.log", "taskdeck")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	path := *configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error locating config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.Server.BaseURL = *serverURL
	}
	if !styles.SetTheme(cfg.UI.Theme) {
		log.Printf("unknown theme %q, keeping default", cfg.UI.Theme)
	}

	st, err := store.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing local store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	sess, err := session.Resume(st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error restoring session: %v\n", err)
		os.Exit(1)
	}

	gw := api.New(cfg.Server.BaseURL, sess,
		api.WithTimeout(cfg.Server.Timeout.Duration),
		api.WithAITimeout(cfg.Server.AITimeout.Duration),
	)

	app := ui.NewApp(gw, st, sess)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}
