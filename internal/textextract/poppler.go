package textextract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// CommandRunner executes an external command and returns its stdout
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec
type ExecRunner struct{}

// Run executes name with args, killing it when ctx expires
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s timed out: %w", name, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s exited with %d: %s", name, exitErr.ExitCode(), trimStderr(exitErr.Stderr))
		}
		return nil, err
	}
	return out, nil
}

func trimStderr(b []byte) string {
	const limit = 200
	if len(b) > limit {
		b = b[:limit]
	}
	return string(b)
}

// Poppler extracts layout-preserving text with pdftotext
type Poppler struct {
	binary string
	runner CommandRunner
}

// NewPoppler creates a pdftotext extractor using the given binary
func NewPoppler(binary string) *Poppler {
	return NewPopplerWithRunner(binary, ExecRunner{})
}

// NewPopplerWithRunner creates a pdftotext extractor with a custom runner
func NewPopplerWithRunner(binary string, runner CommandRunner) *Poppler {
	if binary == "" {
		binary = "pdftotext"
	}
	return &Poppler{binary: binary, runner: runner}
}

// Name identifies the extractor in logs
func (p *Poppler) Name() string {
	return "pdftotext"
}

// Extract runs `pdftotext -layout <path> -`
func (p *Poppler) Extract(ctx context.Context, path string) (string, error) {
	out, err := p.runner.Run(ctx, p.binary, "-layout", path, "-")
	if err != nil {
		return "", &ExtractError{Tool: p.Name(), Path: path, Err: err}
	}
	return string(out), nil
}

// InstallInstructions explains how to get pdftotext
func InstallInstructions() string {
	return "pdftotext is part of poppler: brew install poppler (macOS) or apt install poppler-utils (Debian/Ubuntu), or use --extractor=native"
}
