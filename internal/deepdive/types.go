package deepdive

import (
	"fmt"
	"strings"

	"github.com/a3tai/iep-deep-dive/internal/analysis"
	"github.com/a3tai/iep-deep-dive/internal/documents"
	"github.com/a3tai/iep-deep-dive/internal/profiles"
	"github.com/a3tai/iep-deep-dive/internal/report"
	"github.com/a3tai/iep-deep-dive/internal/textextract"
)

// Folders locates the inputs and outputs of a run
type Folders struct {
	IEPFolder    string
	OutputFolder string
	Profiles     profiles.Sources
	// MAPFile overrides MAP auto-detection in the reference folder
	MAPFile string
}

// AnalyzeRequest asks for one student's deep dive
type AnalyzeRequest struct {
	StudentID string
	// Save writes the JSON and Markdown artifacts to the output folder
	Save bool
}

// AnalyzeResult is the outcome of one deep dive
type AnalyzeResult struct {
	Analysis           *analysis.Analysis
	ExtractionFailures []textextract.Failure
	// Paths is zero unless the request asked to save
	Paths report.Paths
}

// Summary renders the alert list, extraction failures and artifact
// locations as plain text
func (r *AnalyzeResult) Summary() string {
	a := r.Analysis

	var b strings.Builder
	name := "Unknown"
	if a.StudentInfo.Name != nil {
		name = *a.StudentInfo.Name
	}
	fmt.Fprintf(&b, "Deep dive for student %s (%s)\n", a.StudentID, name)
	fmt.Fprintf(&b, "Documents analyzed: %d\n", a.DocumentCount)
	fmt.Fprintf(&b, "Alerts: %d critical, %d high, %d medium, %d inquiry, %d info\n",
		a.CriticalCount, a.HighCount, a.MediumCount, a.InquiryCount, a.InfoCount)

	if len(a.Alerts) > 0 {
		b.WriteString("\n")
		for _, alert := range a.Alerts {
			fmt.Fprintf(&b, "[%s] %s: %s\n", alert.Severity, alert.Category, alert.Message)
		}
	}

	if len(r.ExtractionFailures) > 0 {
		fmt.Fprintf(&b, "\n⚠️  %d document(s) could not be read:\n", len(r.ExtractionFailures))
		for _, f := range r.ExtractionFailures {
			fmt.Fprintf(&b, "  - %s: %s\n", f.Filename, f.Error)
		}
	}

	if r.Paths.JSON != "" {
		b.WriteString("\nReports:\n")
		fmt.Fprintf(&b, "  %s\n", r.Paths.JSON)
		fmt.Fprintf(&b, "  %s\n", r.Paths.Markdown)
	}
	return b.String()
}

// ClassifyResult describes one document name
type ClassifyResult struct {
	Document documents.Document
	// Exists is false when only the name was classified
	Exists bool
}

// Info describes the service for status tools
type Info struct {
	IEPFolder    string
	OutputFolder string
	Extractor    string
	StudentIDs   []string
	// ListError is set when the documents root could not be scanned
	ListError string
}
