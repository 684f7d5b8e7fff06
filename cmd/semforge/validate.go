package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/c360studio/semforge/issues"
	"github.com/c360studio/semforge/rules"
	"github.com/c360studio/semforge/validation"
)

func validateCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "validate <sheet-glob>...",
		Short: "Validate physical model sheets",
		Long: `Validate runs the staged pipeline over each physical sheet:
container-property consistency, reference existence, extension
compatibility, then schema compilation. Patterns support ** globs.

With --watch, semforge stays running and re-validates a sheet whenever
it changes on disk.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			paths, err := expandGlobs(args, cfg.Modeling.RulesDir)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no sheets match %v", args)
			}

			failed := false
			for _, path := range paths {
				if !validateSheet(path) {
					failed = true
				}
			}

			if watch {
				return watchSheets(cmd.Context(), paths)
			}
			if failed {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-validate on file changes")

	return cmd
}

// expandGlobs resolves ** patterns against the filesystem, passing
// plain paths through untouched. Relative patterns are looked up under
// rulesDir when one is configured.
func expandGlobs(patterns []string, rulesDir string) ([]string, error) {
	var out []string
	for _, pattern := range patterns {
		if rulesDir != "" && !filepath.IsAbs(pattern) {
			pattern = filepath.Join(rulesDir, pattern)
		}
		if !strings.ContainsAny(pattern, "*?[{") {
			out = append(out, pattern)
			continue
		}
		base, rest := doublestar.SplitPattern(pattern)
		matches, err := doublestar.Glob(os.DirFS(base), rest)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, m := range matches {
			out = append(out, filepath.Join(base, m))
		}
	}
	return out, nil
}

// validateSheet validates one sheet and prints its findings. Returns
// false when any finding is an error.
func validateSheet(path string) bool {
	dms, err := rules.LoadDMSRules(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return false
	}

	found := validation.Validate(dms)
	printIssues(path, found)
	return !found.HasErrors()
}

func printIssues(path string, found issues.List) {
	for _, iss := range found.All() {
		fmt.Printf("%s: %s\n", path, iss.String())
	}
	if found.Len() == 0 {
		fmt.Printf("%s: ok\n", path)
	}
}

// watchSheets blocks, re-validating each sheet as it changes, until
// interrupted.
func watchSheets(ctx context.Context, paths []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	watcher, err := rules.NewWatcher(rules.WatcherConfig{
		Paths:         paths,
		DebounceDelay: cfg.Modeling.WatchDebounce,
		Logger:        slog.Default(),
	})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := watcher.Start(signalCtx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Stop()

	slog.Info("Watching sheets", "count", len(paths))

	for {
		select {
		case <-signalCtx.Done():
			return nil
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			switch {
			case event.Operation == rules.OpDelete:
				slog.Warn("Sheet removed", "path", event.Path)
			case event.Error != nil:
				fmt.Fprintf(os.Stderr, "%s: %v\n", event.Path, event.Error)
			case event.DMS != nil:
				printIssues(event.Path, validation.Validate(event.DMS))
			case event.Information != nil:
				printIssues(event.Path, event.Information.Validate())
			}
		}
	}
}
