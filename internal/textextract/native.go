package textextract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrEncrypted is returned for password protected documents
	ErrEncrypted = errors.New("document is encrypted")

	// ErrNoText is returned when no page yields any text, typically a scan
	ErrNoText = errors.New("no text content could be extracted")
)

// Native extracts text in-process. pdfcpu validates the file structure in
// relaxed mode first, then ledongthuc/pdf walks the pages.
type Native struct {
	maxFileSize int64
	maxTextSize int
}

// NewNative creates an in-process extractor rejecting files above maxFileSize
func NewNative(maxFileSize int64) *Native {
	return &Native{
		maxFileSize: maxFileSize,
		maxTextSize: 10 * 1024 * 1024,
	}
}

// Name identifies the extractor in logs
func (n *Native) Name() string {
	return "native"
}

// Extract returns the text of every page separated by blank lines
func (n *Native) Extract(ctx context.Context, path string) (string, error) {
	text, err := n.extract(ctx, path)
	if err != nil {
		return "", &ExtractError{Tool: n.Name(), Path: path, Err: err}
	}
	return text, nil
}

func (n *Native) extract(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if n.maxFileSize > 0 && info.Size() > n.maxFileSize {
		return "", fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), n.maxFileSize)
	}

	pages, err := n.inspect(path)
	if err != nil {
		return "", err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	if reader.NumPage() < pages {
		pages = reader.NumPage()
	}

	var builder strings.Builder
	total := 0
	for pageNum := 1; pageNum <= pages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if total+len(content) > n.maxTextSize {
			if remaining := n.maxTextSize - total; remaining > 0 {
				builder.WriteString(content[:remaining])
			}
			break
		}
		builder.WriteString(content)
		total += len(content)
		if pageNum < pages {
			builder.WriteString("\n\n")
		}
	}

	if strings.TrimSpace(builder.String()) == "" {
		return "", ErrNoText
	}
	return builder.String(), nil
}

// inspect validates the structure with pdfcpu and returns the page count
func (n *Native) inspect(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(file, conf)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if pdfCtx.Encrypt != nil {
		return 0, ErrEncrypted
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return pdfCtx.PageCount, nil
}
