package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

// Copy/paste issue types
const (
	IssueWrongName            = "WRONG_NAME"
	IssueStaleAttendance      = "STALE_ATTENDANCE"
	IssueStaleParentConcerns  = "STALE_PARENT_CONCERNS"
	wrongNameSection          = "Services/Transition"
	attendanceAsOfLayout      = "01/02/2006"
	parentConcernPreviewRunes = 100
)

// CopyPasteIssue is one sign that text was carried over from another
// student or an earlier IEP. Which fields are set depends on Type.
type CopyPasteIssue struct {
	Severity     Severity `json:"severity"`
	Type         string   `json:"type"`
	Section      string   `json:"section,omitempty"`
	FoundName    string   `json:"found_name,omitempty"`
	ExpectedName string   `json:"expected_name,omitempty"`
	IEPDate      string   `json:"iep_date,omitempty"`
	DataAsOf     string   `json:"data_as_of,omitempty"`
	DaysStale    int      `json:"days_stale,omitempty"`
	CurrentIEP   string   `json:"current_iep,omitempty"`
	OriginalIEP  string   `json:"original_iep,omitempty"`
	Similarity   string   `json:"similarity,omitempty"`
	TextPreview  string   `json:"text_preview,omitempty"`
	Document     string   `json:"document"`
	Context      string   `json:"context,omitempty"`
}

var (
	serviceSentenceName = regexp.MustCompile(`\b([A-Z][a-z]{2,10})\s+(?:will\s+be\s+provided|will\s+receive|will\s+participate)`)
	attendanceAsOf      = regexp.MustCompile(`(?i)days\s+absent\s+as\s+of\s+(\d{2}/\d{2}/\d{4})`)
	parentConcernBlock  = regexp.MustCompile(`(?is)Parent.*?input.*?concerns?:?\s*(.{50,200})`)

	// capitalised words that start service sentences without being names
	nameStoplist = map[string]bool{
		"Student": true, "Parent": true, "Teacher": true, "Staff": true,
		"When": true, "This": true, "Each": true, "Progress": true,
		"Instruction": true, "Content": true, "Services": true, "Support": true,
		"Special": true, "General": true,
	}
)

// DetectCopyPaste looks for another student's first name in service
// sentences, attendance figures that predate the IEP and parent concerns
// repeated from an earlier IEP
func DetectCopyPaste(c documents.Collection, info StudentInfo, p Policy) []CopyPasteIssue {
	issues := []CopyPasteIssue{}

	if expected := info.FirstName(); expected != "" {
		issues = append(issues, wrongNames(c, expected)...)
	}

	ieps := documents.SortOldestFirst(c.Filter(documents.IsDatedIEP))
	if len(ieps) < 2 {
		return issues
	}
	issues = append(issues, staleAttendance(c, ieps, p)...)
	issues = append(issues, staleParentConcerns(c, ieps, p)...)
	return issues
}

func wrongNames(c documents.Collection, expected string) []CopyPasteIssue {
	var issues []CopyPasteIssue
	for _, doc := range c.Documents {
		text := c.Text(doc)
		seen := map[string]bool{}
		for _, m := range serviceSentenceName.FindAllStringSubmatch(text, -1) {
			found := m[1]
			if nameStoplist[found] || seen[found] || strings.EqualFold(found, expected) {
				continue
			}
			seen[found] = true

			ctx := regexp.MustCompile(regexp.QuoteMeta(found) + `\s+will\s+(?:be\s+)?(?:provided|receive|participate)`)
			loc := ctx.FindStringIndex(text)
			if loc == nil {
				continue
			}
			snippet := around(text, loc[0], loc[1], 30, 50)
			issues = append(issues, CopyPasteIssue{
				Severity:     SeverityCritical,
				Type:         IssueWrongName,
				Section:      wrongNameSection,
				FoundName:    found,
				ExpectedName: expected,
				Document:     doc.Filename,
				Context:      strings.TrimSpace(strings.ReplaceAll(snippet, "\n", " ")),
			})
		}
	}
	return issues
}

func staleAttendance(c documents.Collection, ieps []documents.Document, p Policy) []CopyPasteIssue {
	var issues []CopyPasteIssue
	for _, iep := range ieps {
		asOf, ok := submatch(attendanceAsOf, c.Text(iep))
		if !ok {
			continue
		}
		dataDate, err := time.Parse(attendanceAsOfLayout, asOf)
		if err != nil {
			continue
		}
		iepDate, ok := iep.Date.Time()
		if !ok {
			continue
		}
		stale := wholeDays(iepDate.Sub(dataDate))
		if stale > p.StaleAttendanceDays {
			issues = append(issues, CopyPasteIssue{
				Severity:  SeverityHigh,
				Type:      IssueStaleAttendance,
				IEPDate:   string(iep.Date),
				DataAsOf:  asOf,
				DaysStale: stale,
				Document:  iep.Filename,
			})
		}
	}
	return issues
}

type datedConcern struct {
	date string
	text string
}

func staleParentConcerns(c documents.Collection, ieps []documents.Document, p Policy) []CopyPasteIssue {
	var issues []CopyPasteIssue
	// one concern per IEP date, kept in first-seen date order
	var previous []datedConcern
	index := map[string]int{}

	for _, iep := range ieps {
		block, ok := submatch(parentConcernBlock, c.Text(iep))
		if !ok {
			continue
		}
		concern := truncate(strings.TrimSpace(block), 200)
		date := string(iep.Date)

		for _, prev := range previous {
			ratio := similarity(concern, prev.text)
			if ratio > p.ParentConcernSimilarity && date != prev.date {
				issues = append(issues, CopyPasteIssue{
					Severity:    SeverityHigh,
					Type:        IssueStaleParentConcerns,
					CurrentIEP:  date,
					OriginalIEP: prev.date,
					Similarity:  fmt.Sprintf("%.0f%%", ratio*100),
					TextPreview: truncate(concern, parentConcernPreviewRunes) + "...",
					Document:    iep.Filename,
				})
			}
		}

		if i, ok := index[date]; ok {
			previous[i].text = concern
		} else {
			index[date] = len(previous)
			previous = append(previous, datedConcern{date: date, text: concern})
		}
	}
	return issues
}

// similarity is the difflib ratio of two strings compared rune by rune
func similarity(a, b string) float64 {
	m := difflib.NewMatcher(runeStrings(a), runeStrings(b))
	return m.Ratio()
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
