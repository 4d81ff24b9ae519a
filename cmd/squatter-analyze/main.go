package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/meltforce/squatter/internal/analysis"
	"github.com/meltforce/squatter/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exit.
func run() int {
	path := flag.String("path", "", "session file or directory containing .squatter files")
	fps := flag.Float64("fps", 30, "video frame rate")
	cutoff := flag.Float64("cutoff", analysis.DefaultCutoff, "fraction of concentric travel for the cutoff timing")
	jsonOut := flag.Bool("json", false, "print reports as JSON")
	serverURL := flag.String("server", "", "squatter server URL; when set, sessions are uploaded")
	apiKey := flag.String("api-key", os.Getenv("SQUATTER_API_KEY"), "API key for -server")
	stateDir := flag.String("state-dir", "", "directory for the uploaded-files database (default ~/.squatter-analyze)")
	noState := flag.Bool("no-state", false, "do not track uploaded files")
	force := flag.Bool("force", false, "re-upload files already recorded in the state database")
	debug := flag.Bool("debug", false, "log every scanned frame")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("squatter-analyze", Version)
		return 0
	}

	if *path == "" {
		fmt.Fprintf(os.Stderr, "Usage: squatter-analyze -path <file or dir> [-fps N] [-json] [-server URL -api-key KEY]\n\n")
		flag.PrintDefaults()
		return 1
	}

	if *serverURL != "" && *apiKey == "" {
		fmt.Fprintf(os.Stderr, "Error: -api-key is required with -server\n")
		return 1
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var client *upload.Client
	if *serverURL != "" {
		client = upload.NewClient(*serverURL, *apiKey)
	}

	// Only uploads are recorded, so analyze-only runs need no state.
	var state *upload.StateDB
	if client != nil && !*noState {
		dir := *stateDir
		if dir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				log.Error("failed to get home directory", "error", err)
				return 1
			}
			dir = filepath.Join(homeDir, ".squatter-analyze")
		}
		var err error
		state, err = upload.OpenStateDB(dir)
		if err != nil {
			log.Error("failed to open state database", "error", err)
			return 1
		}
		defer state.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := upload.New(analysis.New(log, *cutoff), client, state, *fps, *force, log)
	results, stats, err := runner.Run(ctx, *path)
	if err != nil {
		log.Error("analyze failed", "error", err)
		printStats(stats)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, r := range results {
			if err := enc.Encode(r.Report); err != nil {
				log.Error("encoding report", "file", r.Path, "error", err)
			}
		}
	} else {
		for _, r := range results {
			printReport(r)
		}
		printStats(stats)
	}

	if stats.FilesErrored > 0 {
		return 1
	}
	return 0
}

func printReport(r upload.Result) {
	rep := r.Report
	fmt.Printf("%s (%s, %d frames @ %.2f fps)\n", r.Path, rep.Exercise, rep.FrameCount, rep.FPS)
	if r.SessionID != "" {
		fmt.Printf("  stored as %s\n", r.SessionID)
	}
	if len(rep.Reps) == 0 {
		fmt.Println("  no repetitions found")
		fmt.Println()
		return
	}
	fmt.Printf("  %3s  %7s %7s %7s  %7s %7s %7s %7s\n", "rep", "start", "bottom", "end", "ecc s", "con s", "cutoff s", "total s")
	for _, rr := range rep.Reps {
		fmt.Printf("  %3d  %7d %7d %7d  %7.2f %7.2f %7.2f %7.2f\n",
			rr.Index, rr.StartFrame, rr.ExtremeFrame, rr.EndFrame,
			rr.EccentricSec, rr.ConcentricSec, rr.ConcentricCutoffSec, rr.TotalSec)
	}
	s := rep.Summary
	fmt.Printf("  mean %.2fs (sd %.2fs), mean concentric %.2fs, fastest #%d, slowest #%d\n",
		s.MeanRepSec, s.StdDevRepSec, s.MeanConcentricSec, s.FastestRep, s.SlowestRep)
	fmt.Println()
}

func printStats(stats *upload.Stats) {
	fmt.Println("=== Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files analyzed:   %d\n", stats.FilesAnalyzed)
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:    %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Printf("  Reps found:       %d\n", stats.RepsFound)
	fmt.Println()
}
