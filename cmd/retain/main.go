package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/conorfennell/retain/internal/analytics"
	"github.com/conorfennell/retain/internal/config"
	"github.com/conorfennell/retain/internal/scheduler"
	"github.com/conorfennell/retain/internal/srs"
	"github.com/conorfennell/retain/internal/storage"
	syncer "github.com/conorfennell/retain/internal/sync"
	"github.com/conorfennell/retain/internal/web"
)

func main() {
	flags := pflag.NewFlagSet("retain", pflag.ExitOnError)
	configPath := flags.String("config", "retain.yaml", "Path to the yaml config file")
	flags.String("db", "retain.db", "Path to the SQLite database file")
	flags.String("listen", "127.0.0.1:8080", "Address for the HTTP server")
	addSource := flags.String("add-source", "", "Register a note source (local path or git URL) and exit")
	runSync := flags.Bool("sync", false, "Reconcile all sources against the card store and exit")
	serve := flags.Bool("serve", false, "Start the HTTP server")
	// Named --study, not --session: session is a config key and the
	// flag layer would shadow it.
	study := flags.Bool("study", false, "Print the next study session as JSON and exit")
	report := flags.Bool("analytics", false, "Print the learning report as JSON and exit")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	system := srs.New(db, scheduler.DefaultParams())

	switch {
	case *addSource != "":
		if err := addNewSource(db, *addSource); err != nil {
			slog.Error("failed to add source", "error", err)
			os.Exit(1)
		}
	case *runSync:
		if err := syncer.RunSync(db, system); err != nil {
			slog.Error("sync failed", "error", err)
			os.Exit(1)
		}
	case *study:
		cards, err := system.StudySession(cfg.Session.MaxCards, cfg.Session.FocusSection)
		if err != nil {
			slog.Error("failed to build study session", "error", err)
			os.Exit(1)
		}
		printJSON(cards)
	case *report:
		rep, err := analytics.NewReporter(system).Learning(30)
		if err != nil {
			slog.Error("failed to build analytics report", "error", err)
			os.Exit(1)
		}
		printJSON(map[string]any{
			"report":          rep,
			"recommendations": analytics.Recommendations(rep),
		})
	case *serve:
		server := web.NewServer(db, system, cfg.Session.MaxCards)
		slog.Info("starting HTTP server", "addr", cfg.Listen)
		if err := http.ListenAndServe(cfg.Listen, server); err != nil {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	default:
		flags.Usage()
	}
}

func addNewSource(db *storage.DB, path string) error {
	existing, err := db.FindSourceByPath(path)
	if err != nil {
		return err
	}
	if existing != nil {
		slog.Info("source already registered", "path", path)
		return nil
	}

	sourceType := "local"
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") || strings.HasPrefix(path, "https://") {
		sourceType = "git"
	}

	id, err := db.InsertSource(path, sourceType)
	if err != nil {
		return err
	}
	slog.Info("source registered", "id", id, "type", sourceType, "path", path)
	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		slog.Error("failed to encode output", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
