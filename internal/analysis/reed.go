package analysis

import (
	"regexp"
	"strings"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

// REEDData is the reed_data topic
type REEDData struct {
	Available                 bool           `json:"available"`
	Document                  *string        `json:"document"`
	REEDDate                  documents.Date `json:"reed_date"`
	REEDDueDate               *string        `json:"reed_due_date"`
	AdditionalDataNeeded      *bool          `json:"additional_data_needed"`
	DataTypesNeeded           []string       `json:"data_types_needed"`
	ExistingDataReviewed      []string       `json:"existing_data_reviewed"`
	ParentNotified            bool           `json:"parent_notified"`
	ParentResponse            *string        `json:"parent_response"`
	ReevaluationWaived        bool           `json:"reevaluation_waived"`
	EligibilityContinues      *bool          `json:"eligibility_continues"`
	CurrentPerformanceSummary *string        `json:"current_performance_summary"`
	CommitteeSignatures       bool           `json:"committee_signatures"`
	Decision                  *string        `json:"decision"`
	Alerts                    []string       `json:"alerts"`
}

var reedDataTypes = labelled(
	`cognitive`, "Cognitive Assessment",
	`academic achievement`, "Academic Achievement",
	`behavior`, "Behavioral Assessment",
	`adaptive`, "Adaptive Behavior",
	`speech.*language`, "Speech/Language Evaluation",
	`occupational therapy`, "Occupational Therapy Evaluation",
	`physical therapy`, "Physical Therapy Evaluation",
	`audiol`, "Audiological Evaluation",
	`vision`, "Vision Evaluation",
	`transition`, "Transition Assessment",
	`classroom observation`, "Classroom Observation",
)

var reedDataSources = labelled(
	`previous\s+(?:fie|evaluation|testing)`, "Previous FIE/Evaluation",
	`staar`, "STAAR Results",
	`report\s+card|grades`, "Grades/Report Cards",
	`teacher\s+(?:input|report|observation)`, "Teacher Input/Reports",
	`parent\s+(?:input|concern|interview)`, "Parent Input",
	`progress\s+(?:monitor|data)`, "Progress Monitoring Data",
	`curriculum.based`, "Curriculum-Based Assessment",
	`attendance`, "Attendance Records",
	`discipline`, "Discipline Records",
	`map|nwea`, "MAP Assessment",
	`health\s+(?:record|history)`, "Health Records",
)

var (
	reedWaivedExpr       = regexp.MustCompile(`no additional.*data.*needed|data.*not.*needed|waive.*eval`)
	reedNeededExpr       = regexp.MustCompile(`additional.*data.*(?:is|are)\s+needed|need.*additional.*data|require.*new.*test`)
	reedParentNotified   = regexp.MustCompile(`parent.*(?:notif|informed|sent|mailed|emailed)`)
	reedParentAgreed     = regexp.MustCompile(`parent.*agree|agreed.*no.*additional|waive.*right.*eval`)
	reedParentRequested  = regexp.MustCompile(`parent.*request.*eval|requested.*full.*eval`)
	reedParentNoResponse = regexp.MustCompile(`no.*response|did not respond|unable.*to.*reach`)
	reedEligibilityYes   = regexp.MustCompile(`continues\s+to\s+be\s+eligible|eligibility\s+continues|remain\s+eligible`)
	reedEligibilityNo    = regexp.MustCompile(`no\s+longer\s+eligible|eligibility\s+discontinued|does\s+not\s+continue`)
	reedSignatures       = regexp.MustCompile(`signature|signed|committee\s+member`)
	reedPerformance      = regexp.MustCompile(`(?is)(?:current\s+performance|present\s+level|summary\s+of\s+performance)[:\s]+(.*?)(?:\n\n|evaluation\s+decision|additional\s+data)`)
	reedDuePattern       = regexp.MustCompile(`reed\s+due[:\s]+(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`)
)

const reedPerformanceRunes = 500

// ExtractREED reads the latest review of existing evaluation data
func ExtractREED(c documents.Collection) REEDData {
	result := REEDData{
		DataTypesNeeded:      []string{},
		ExistingDataReviewed: []string{},
		Alerts:               []string{},
	}

	doc, ok := c.Latest(documents.OfType(documents.DocumentTypeREED))
	if !ok {
		return result
	}
	result.Available = true
	result.Document = strPtr(doc.Filename)
	result.REEDDate = doc.Date

	text := c.Text(doc)
	tl := strings.ToLower(text)

	switch {
	case reedWaivedExpr.MatchString(tl):
		result.AdditionalDataNeeded = boolPtr(false)
		result.ReevaluationWaived = true
		result.Decision = strPtr("No additional data needed - reevaluation waived")
	case reedNeededExpr.MatchString(tl):
		result.AdditionalDataNeeded = boolPtr(true)
		result.Decision = strPtr("Additional data needed - full FIE required")
	}

	needed := result.AdditionalDataNeeded != nil && *result.AdditionalDataNeeded
	if needed {
		result.DataTypesNeeded = matchingLabels(reedDataTypes, tl)
	}
	result.ExistingDataReviewed = matchingLabels(reedDataSources, tl)
	result.ParentNotified = reedParentNotified.MatchString(tl)

	switch {
	case reedParentAgreed.MatchString(tl):
		result.ParentResponse = strPtr("Agreed - no additional evaluation")
	case reedParentRequested.MatchString(tl):
		result.ParentResponse = strPtr("Requested full evaluation")
	case reedParentNoResponse.MatchString(tl):
		result.ParentResponse = strPtr("No response")
	}

	switch {
	case reedEligibilityYes.MatchString(tl):
		result.EligibilityContinues = boolPtr(true)
	case reedEligibilityNo.MatchString(tl):
		result.EligibilityContinues = boolPtr(false)
	}

	result.CommitteeSignatures = reedSignatures.MatchString(tl)

	if m, ok := submatch(reedPerformance, text); ok {
		result.CurrentPerformanceSummary = strPtr(truncate(strings.TrimSpace(m), reedPerformanceRunes))
	}
	if m, ok := submatch(reedDuePattern, tl); ok {
		result.REEDDueDate = strPtr(m)
	}

	if !result.ParentNotified {
		result.Alerts = append(result.Alerts, "No documentation of parent notification for REED")
	}
	if result.AdditionalDataNeeded == nil {
		result.Alerts = append(result.Alerts, "REED decision unclear - additional data needed not specified")
	}
	if needed && len(result.DataTypesNeeded) == 0 {
		result.Alerts = append(result.Alerts, "REED says additional data needed but specific areas not identified")
	}
	if !result.CommitteeSignatures {
		result.Alerts = append(result.Alerts, "Committee signatures not found in REED")
	}
	return result
}
