package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/retain/internal/cardkey"
	"github.com/conorfennell/retain/internal/gitsource"
	"github.com/conorfennell/retain/internal/parser"
	"github.com/conorfennell/retain/internal/srs"
	"github.com/conorfennell/retain/internal/storage"
)

// ReposDir is where git sources are checked out.
const ReposDir = "repos"

// RunSync iterates over all sources and reconciles them against the
// card store: new notes become cards due immediately, notes that
// disappeared have their cards removed.
func RunSync(db *storage.DB, system *srs.System) error {
	slog.Info("starting sync process for all sources")
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("no sources configured, add one with --add-source <path/or/url.git>")
		return nil
	}

	if err := os.MkdirAll(ReposDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		sourceToReconcile := source

		if source.Type == "local" {
			reconcileLocalSource(db, system, &sourceToReconcile)
		} else if source.Type == "git" {
			localRepoPath, err := gitURLToLocalPath(ReposDir, source.Path)
			if err != nil {
				slog.Error("error determining local path for git repo", "url", source.Path, "error", err)
				continue
			}

			if err := gitsource.Sync(source.Path, localRepoPath); err != nil {
				slog.Error("error syncing git repo", "url", source.Path, "error", err)
				continue
			}

			sourceToReconcile.Path = localRepoPath
			reconcileLocalSource(db, system, &sourceToReconcile)
		}
	}
	slog.Info("sync process complete")
	return nil
}

func reconcileLocalSource(db *storage.DB, system *srs.System, source *storage.Source) {
	var parsedCards, newCards int
	var reconcileErrors []error
	foundCardIDs := make(map[string]bool)

	walkErr := filepath.WalkDir(source.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			fileCards, parseErr := parser.ParseFile(path)
			if parseErr != nil {
				reconcileErrors = append(reconcileErrors, fmt.Errorf("parsing %s: %w", path, parseErr))
			}
			for _, card := range fileCards {
				card.ID = cardkey.ID(&card)
				card.SourceID = source.ID
				parsedCards++
				foundCardIDs[card.ID] = true

				created, regErr := system.Register(&card)
				if regErr != nil {
					reconcileErrors = append(reconcileErrors, fmt.Errorf("registering %s: %w", card.ID, regErr))
					continue
				}
				if created {
					newCards++
				}
			}
		}
		return nil
	})

	if walkErr != nil {
		slog.Error("error walking directory", "path", source.Path, "error", walkErr)
		return
	}

	dbCards, err := db.GetCardsBySourceID(source.ID)
	if err != nil {
		slog.Error("error getting cards for source", "source_id", source.ID, "error", err)
		return
	}

	var orphanedCards int
	for _, dbCard := range dbCards {
		if _, found := foundCardIDs[dbCard.ID]; !found {
			slog.Info("orphaned card, deleting", "id", dbCard.ID)
			orphanedCards++
			if err := db.DeleteCard(dbCard.ID); err != nil {
				slog.Warn("failed to delete orphaned card", "id", dbCard.ID, "error", err)
			}
		}
	}

	if err := db.UpdateSourceLastScanned(source.ID); err != nil {
		slog.Warn("failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", source.Path,
		"parsed_cards", parsedCards,
		"new_cards", newCards,
		"orphaned_deleted", orphanedCards,
		"errors", len(reconcileErrors),
	)
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
