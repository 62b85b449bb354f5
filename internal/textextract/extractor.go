// Package textextract turns PDF documents into plain text for the analysis
// engine. Extraction is a collaborator behind the Extractor interface so the
// engine never depends on a particular PDF toolchain.
package textextract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

// ErrToolNotFound is returned when the external extraction binary is missing
var ErrToolNotFound = errors.New("text extraction tool not found")

// Extractor produces the plain text of one document
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
	Name() string
}

// ExtractError records which tool failed on which file
type ExtractError struct {
	Tool string `json:"tool"`
	Path string `json:"path"`
	Err  error  `json:"error"`
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("%s failed on %s: %v", e.Tool, e.Path, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Failure describes a document whose text could not be extracted
type Failure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// DefaultTimeout bounds a single document extraction
const DefaultTimeout = 30 * time.Second

// BuildCorpus extracts every document in order. A failed document gets an
// ErrorMarker entry in the corpus and is reported in the returned failures;
// it never aborts the run. Cancellation of ctx stops the loop and is
// returned as an error.
func BuildCorpus(ctx context.Context, ext Extractor, docs []documents.Document, timeout time.Duration, logger *slog.Logger) (documents.Corpus, []Failure, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	corpus := make(documents.Corpus, len(docs))
	var failures []Failure

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return corpus, failures, fmt.Errorf("text extraction cancelled: %w", err)
		}

		text, err := extractOne(ctx, ext, doc.Path, timeout)
		if err != nil {
			logger.Warn("text extraction failed",
				"file", doc.Filename,
				"extractor", ext.Name(),
				"error", err)
			corpus[doc.Filename] = documents.ErrorMarker + err.Error()
			failures = append(failures, Failure{Filename: doc.Filename, Error: err.Error()})
			continue
		}

		logger.Debug("extracted text", "file", doc.Filename, "chars", len(text))
		corpus[doc.Filename] = text
	}

	return corpus, failures, nil
}

func extractOne(ctx context.Context, ext Extractor, path string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return ext.Extract(ctx, path)
}
