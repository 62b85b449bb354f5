// Package analysis holds the rule set that turns a student's document
// corpus and reference profiles into findings and a ranked alert list.
//
// Every extractor is a pure function of its declared inputs. The only
// ordering constraints are data dependencies: the student info needs the
// assessment profile, copy/paste detection needs the student info and the
// alert compiler needs the goal analysis.
package analysis

import "time"

// Severity ranks an alert
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityInquiry  Severity = "INQUIRY"
	SeverityInfo     Severity = "INFO"
)

// Severities lists every severity from most to least urgent
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityInquiry, SeverityInfo}

// Alert is one finding surfaced to the case manager
type Alert struct {
	Severity       Severity `json:"severity"`
	Category       string   `json:"category"`
	Message        string   `json:"message"`
	Recommendation *string  `json:"recommendation,omitempty"`
}

// Policy carries the thresholds and judgment calls of the rule set
type Policy struct {
	// OverdueDays is the age in days past which a full evaluation is overdue
	OverdueDays int
	// StaleAttendanceDays is how far an "as of" attendance date may trail
	// the IEP date
	StaleAttendanceDays int
	// ParentConcernSimilarity is the ratio above which two parent concern
	// blocks count as copied forward
	ParentConcernSimilarity float64
	// ADHDIndicatorThreshold is the number of indicator hits that triggers
	// the evaluation suggestion
	ADHDIndicatorThreshold int
	// ChronicAbsenceDays is the yearly absence count above which attendance
	// is chronic
	ChronicAbsenceDays int
	// ReevaluationWarningDays is the window before the re-evaluation due
	// date in which the FIE extractor warns
	ReevaluationWarningDays int
	// DowngradeMissingSLDWhenGoalsMet turns a missing SLD area from HIGH
	// into an INQUIRY when the student has met previous goals, since the
	// area may have been exited after mastery
	DowngradeMissingSLDWhenGoalsMet bool
}

// DefaultPolicy returns the thresholds used in production
func DefaultPolicy() Policy {
	return Policy{
		OverdueDays:                     1095,
		StaleAttendanceDays:             60,
		ParentConcernSimilarity:         0.90,
		ADHDIndicatorThreshold:          3,
		ChronicAbsenceDays:              18,
		ReevaluationWarningDays:         180,
		DowngradeMissingSLDWhenGoalsMet: true,
	}
}

// Clock returns the reference time for age calculations
type Clock func() time.Time
