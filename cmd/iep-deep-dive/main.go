package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/iep-deep-dive/internal/config"
	"github.com/a3tai/iep-deep-dive/internal/deepdive"
	"github.com/a3tai/iep-deep-dive/internal/mcp"
	"github.com/a3tai/iep-deep-dive/internal/profiles"
	"github.com/a3tai/iep-deep-dive/internal/textextract"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger builds the stderr logger. Stdout is reserved for the MCP
// protocol in stdio mode and for summaries in batch mode.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func newExtractor(cfg *config.Config) textextract.Extractor {
	if cfg.Extractor == config.ExtractorNative {
		return textextract.NewNative(cfg.MaxFileSize)
	}
	return textextract.NewPoppler(cfg.Pdftotext)
}

// foldersFromConfig maps the configured locations onto the service inputs.
// The compliance table lives next to the student profiles.
func foldersFromConfig(cfg *config.Config) deepdive.Folders {
	return deepdive.Folders{
		IEPFolder:    cfg.IEPFolder,
		OutputFolder: cfg.OutputFolder,
		MAPFile:      cfg.MAPFile,
		Profiles: profiles.Sources{
			ReferenceFolder:      cfg.ReferenceFolder,
			OutputFolder:         filepath.Dir(cfg.StudentProfileFolder),
			StudentProfileFolder: cfg.StudentProfileFolder,
			AssessmentProfile:    cfg.AssessmentProfile,
		},
	}
}

// runBatch analyzes the requested students one after another and writes a
// summary per student to out. It returns the number of failed students.
func runBatch(ctx context.Context, cfg *config.Config, svc *deepdive.Service, out io.Writer, logger *slog.Logger) (int, error) {
	ids := []string{cfg.Student}
	if cfg.All {
		var err error
		if ids, err = svc.ListStudents(); err != nil {
			return 0, err
		}
		if len(ids) == 0 {
			fmt.Fprintf(out, "No students found in IEP folder: %s\n", cfg.IEPFolder)
			return 0, nil
		}
		fmt.Fprintf(out, "Analyzing %d student(s) in %s\n\n", len(ids), cfg.IEPFolder)
	}

	failed := 0
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		if i > 0 {
			fmt.Fprintln(out)
		}

		result, err := svc.AnalyzeStudent(ctx, deepdive.AnalyzeRequest{StudentID: id, Save: true})
		switch {
		case errors.Is(err, deepdive.ErrNoDocuments):
			fmt.Fprintf(out, "No documents found for student %s\n", id)
			failed++
		case errors.Is(err, context.Canceled):
			return failed, err
		case err != nil:
			logger.Error("analysis failed", "student_id", id, "error", err)
			fmt.Fprintf(out, "Analysis failed for student %s: %v\n", id, err)
			failed++
		default:
			fmt.Fprint(out, result.Summary())
		}
	}
	return failed, nil
}

func main() {
	cfg, err := config.LoadFromFlags()
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion()
		return
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg, os.Stderr)
	if cfg.IsDebug() {
		logger.Debug("starting with configuration", "config", cfg.String())
	}

	svc, err := deepdive.NewService(foldersFromConfig(cfg), newExtractor(cfg),
		deepdive.WithExtractTimeout(cfg.ExtractTimeout),
		deepdive.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to create deep dive service", "error", err)
		os.Exit(1)
	}

	// Set up context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsStdioMode() {
		server, err := mcp.NewServer(cfg, svc, logger)
		if err != nil {
			logger.Error("failed to create MCP server", "error", err)
			os.Exit(1)
		}
		if err := server.Run(ctx); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	failed, err := runBatch(ctx, cfg, svc, os.Stdout, logger)
	if err != nil {
		logger.Error("batch run aborted", "error", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("IEP Deep Dive\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
