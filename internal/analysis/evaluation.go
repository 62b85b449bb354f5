package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

// EvaluationStatus is the evaluation_status topic
type EvaluationStatus struct {
	InitialFIEDate     documents.Date `json:"initial_fie_date"`
	LastFullEvalDate   documents.Date `json:"last_full_eval_date"`
	LastREEDDate       documents.Date `json:"last_reed_date"`
	REEDHadTesting     *bool          `json:"reed_had_testing"`
	DaysSinceFullEval  *int           `json:"days_since_full_eval"`
	YearsSinceFullEval *float64       `json:"years_since_full_eval"`
	EvalOverdue        bool           `json:"eval_overdue"`
	Alert              *string        `json:"alert"`
}

var fieReferencePattern = regexp.MustCompile(`(?i)evaluation.*?report.*?dated?\s*(\d{1,2}[./]\d{1,2}[./]\d{2,4})`)

// shortDateLayouts are tried in order on dates quoted inside documents
var shortDateLayouts = []string{"1/2/2006", "1.2.2006", "1/2/06", "1.2.06"}

// AnalyzeEvaluationTimeline finds the most recent full evaluation referenced
// in any document and decides whether a re-evaluation is overdue at now
func AnalyzeEvaluationTimeline(c documents.Collection, now time.Time, p Policy) EvaluationStatus {
	var result EvaluationStatus

	for _, doc := range c.Documents {
		text := c.Text(doc)

		if doc.Type == documents.DocumentTypeREED {
			result.LastREEDDate = doc.Date
			if strings.Contains(strings.ToLower(text), "no additional data is needed") {
				result.REEDHadTesting = boolPtr(false)
			}
		}

		if quoted, ok := submatch(fieReferencePattern, text); ok {
			if t, ok := parseLooseDate(quoted, time.UTC, shortDateLayouts...); ok {
				result.InitialFIEDate = documents.Date(t.Format(documents.DateLayout))
			}
		}
	}

	if !result.InitialFIEDate.Known() {
		return result
	}

	evalDate, err := time.ParseInLocation(documents.DateLayout, string(result.InitialFIEDate), now.Location())
	if err != nil {
		return result
	}
	days := wholeDays(now.Sub(evalDate))
	years := round1(float64(days) / 365)
	result.DaysSinceFullEval = intPtr(days)
	result.YearsSinceFullEval = &years
	result.LastFullEvalDate = result.InitialFIEDate

	if days > p.OverdueDays {
		result.EvalOverdue = true
		result.Alert = strPtr(fmt.Sprintf("FIE is %.1f years old - RE-EVALUATION OVERDUE", float64(days)/365))
	}
	return result
}
