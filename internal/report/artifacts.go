package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/a3tai/iep-deep-dive/internal/analysis"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// Paths locates the artifacts written for one student
type Paths struct {
	JSON     string
	Markdown string
}

// PathsFor returns where the artifacts of studentID live under dir
func PathsFor(dir, studentID string) Paths {
	return Paths{
		JSON:     filepath.Join(dir, fmt.Sprintf("DEEP_DIVE_%s.json", studentID)),
		Markdown: filepath.Join(dir, fmt.Sprintf("DEEP_DIVE_%s_REPORT.md", studentID)),
	}
}

// EncodeJSON renders the analysis with two-space indentation. Non-ASCII
// text and markup characters are written as-is.
func EncodeJSON(a *analysis.Analysis) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the JSON and Markdown artifacts into dir, creating it when
// missing. Existing artifacts for the same student are overwritten.
func Save(dir string, a *analysis.Analysis, generated time.Time) (Paths, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return Paths{}, fmt.Errorf("cannot create output folder %s: %w", dir, err)
	}

	paths := PathsFor(dir, a.StudentID)

	data, err := EncodeJSON(a)
	if err != nil {
		return Paths{}, err
	}
	if err := os.WriteFile(paths.JSON, data, filePerm); err != nil {
		return Paths{}, fmt.Errorf("failed to write %s: %w", paths.JSON, err)
	}

	if err := os.WriteFile(paths.Markdown, []byte(Markdown(a, generated)), filePerm); err != nil {
		return Paths{}, fmt.Errorf("failed to write %s: %w", paths.Markdown, err)
	}
	return paths, nil
}
