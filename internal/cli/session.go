package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	jlog "github.com/launchcg/jsync/internal/log"
	"github.com/launchcg/jsync/internal/reconcile"
	"github.com/launchcg/jsync/internal/repository"
	"github.com/launchcg/jsync/internal/settings"
)

// flagKeys maps persistent flags onto settings keys.
var flagKeys = map[string]string{
	"log-format":    "log_format",
	"host":          "host",
	"toolchain-min": "toolchain.min",
	"toolchain-max": "toolchain.max",
}

// session holds what the commands share: the project directory, the merged
// settings, the logger and the parent descriptor cache.
type session struct {
	dir      string
	settings settings.Settings
	logger   *slog.Logger
	cache    *repository.Cache
	fetcher  *repository.Fetcher
}

func newSession(cmd *cobra.Command) (*session, error) {
	projectPath, _ := cmd.Flags().GetString("path")
	if projectPath == "" {
		projectPath = "."
	}

	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	v := settings.New(absPath)
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	s, err := settings.Load(v)
	if err != nil {
		return nil, err
	}

	logger := jlog.New(jlog.Config{
		Verbosity: verbose,
		Format:    jlog.ParseFormat(s.LogFormat),
		Output:    cmd.ErrOrStderr(),
	})

	cacheDir, err := s.ResolveCacheDir()
	if err != nil {
		return nil, err
	}
	cache := repository.NewCache(cacheDir)

	return &session{
		dir:      absPath,
		settings: s,
		logger:   logger,
		cache:    cache,
		fetcher:  repository.NewFetcher(cache, logger),
	}, nil
}

// workspace creates a workspace from the session settings.
func (s *session) workspace(watch bool, report func(reconcile.Report)) (*reconcile.Workspace, error) {
	toolchain, err := s.settings.ToolchainRange()
	if err != nil {
		return nil, err
	}

	return reconcile.NewWorkspace(reconcile.WorkspaceOptions{
		Toolchain:  toolchain,
		Host:       s.settings.Host,
		Fetcher:    s.fetcher,
		Debounce:   s.settings.Debounce,
		RetryDelay: s.settings.RetryDelay,
		Watch:      watch,
		Logger:     s.logger,
		Report:     report,
	})
}

// rel returns dir relative to the session directory for display.
func (s *session) rel(dir string) string {
	r, err := filepath.Rel(s.dir, dir)
	if err != nil {
		return dir
	}
	return r
}
