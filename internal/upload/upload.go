package upload

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meltforce/squatter/internal/analysis"
	"github.com/meltforce/squatter/internal/models"
)

// Stats tracks processing progress.
type Stats struct {
	FilesTotal    int
	FilesAnalyzed int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int
	RepsFound     int
}

// Result is the outcome for one session file.
type Result struct {
	Path      string
	Report    *analysis.Report
	SessionID string
}

// Runner finds session files, analyzes each locally and optionally sends
// it to the squatter server.
type Runner struct {
	analyzer *analysis.Analyzer
	client   *Client // nil: analyze only
	state    *StateDB
	fps      float64
	force    bool
	log      *slog.Logger
	stats    Stats
}

// New creates a new Runner. client and state may be nil; state is only
// consulted when a client is set.
func New(analyzer *analysis.Analyzer, client *Client, state *StateDB, fps float64, force bool, log *slog.Logger) *Runner {
	return &Runner{
		analyzer: analyzer,
		client:   client,
		state:    state,
		fps:      fps,
		force:    force,
		log:      log,
	}
}

// FindSessionFiles returns the session files under root in lexical order.
// A root that is itself a file is returned as-is.
func FindSessionFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if models.IsSessionFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Run processes every session file under root. Per-file failures are logged
// and counted; only a failure to list files aborts the run.
func (r *Runner) Run(ctx context.Context, root string) ([]Result, *Stats, error) {
	files, err := FindSessionFiles(root)
	if err != nil {
		return nil, &r.stats, err
	}

	var results []Result
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, &r.stats, err
		}
		r.stats.FilesTotal++

		res, skipped, err := r.processFile(ctx, f)
		if err != nil {
			r.log.Warn("session failed", "file", f, "error", err)
			r.stats.FilesErrored++
			continue
		}
		if skipped {
			r.stats.FilesSkipped++
			continue
		}
		results = append(results, *res)
	}
	return results, &r.stats, nil
}

func (r *Runner) processFile(ctx context.Context, path string) (*Result, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, fmt.Errorf("stat: %w", err)
	}

	// Only uploads are recorded; analyze-only runs always report every file.
	tracked := r.state != nil && r.client != nil

	var hash string
	if tracked {
		hash, err = HashFile(path)
		if err != nil {
			return nil, false, fmt.Errorf("hash: %w", err)
		}
		if !r.force {
			done, err := r.state.IsProcessed(path, info.Size(), hash)
			if err != nil {
				return nil, false, fmt.Errorf("state check: %w", err)
			}
			if done {
				r.log.Debug("already processed", "file", path)
				return nil, true, nil
			}
		}
	}

	s, err := models.ReadSessionFile(path)
	if err != nil {
		return nil, false, err
	}
	report, err := r.analyzer.Analyze(s, r.fps, false)
	if err != nil {
		return nil, false, fmt.Errorf("analyzing %s: %w", path, err)
	}
	r.stats.FilesAnalyzed++
	r.stats.RepsFound += len(report.Reps)

	res := &Result{Path: path, Report: report}
	if r.client != nil {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		id, err := r.client.SendSession(ctx, name, s, r.fps)
		if err != nil {
			return nil, false, fmt.Errorf("sending %s: %w", path, err)
		}
		res.SessionID = id
		r.stats.FilesUploaded++
		r.log.Info("session uploaded", "file", path, "id", id, "reps", len(report.Reps))
	}

	if tracked {
		if err := r.state.MarkProcessed(path, info.Size(), hash, len(report.Reps), res.SessionID); err != nil {
			r.log.Warn("state update failed", "file", path, "error", err)
		}
	}
	return res, false, nil
}
