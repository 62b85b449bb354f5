package analysis

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/a3tai/iep-deep-dive/internal/documents"
	"github.com/a3tai/iep-deep-dive/internal/profiles"
)

// Analysis is the complete result for one student. Field order is the
// order of the persisted JSON.
type Analysis struct {
	StudentID             string                          `json:"student_id"`
	DocumentCount         int                             `json:"document_count"`
	Documents             []documents.Document            `json:"documents"`
	Alerts                []Alert                         `json:"alerts"`
	EvaluationStatus      EvaluationStatus                `json:"evaluation_status"`
	CopyPasteIssues       []CopyPasteIssue                `json:"copy_paste_issues"`
	SLDConsistency        SLDConsistency                  `json:"sld_consistency"`
	AttentionRedFlags     AttentionFlags                  `json:"attention_red_flags"`
	DyslexiaStatus        DyslexiaStatus                  `json:"dyslexia_status"`
	AttendanceAnalysis    AttendanceAnalysis              `json:"attendance_analysis"`
	GoalAnalysis          GoalAnalysis                    `json:"goal_analysis"`
	StudentInfo           StudentInfo                     `json:"student_info"`
	MAPAssessment         MAPAssessment                   `json:"map_assessment"`
	Deliberations         Deliberations                   `json:"deliberations"`
	AssessmentProfile     *profiles.AssessmentProfile     `json:"assessment_profile"`
	StudentProfile        json.RawMessage                 `json:"student_profile"`
	ComplianceProfile     *profiles.ComplianceProfile     `json:"compliance_profile"`
	AccommodationsProfile *profiles.AccommodationsProfile `json:"accommodations_profile"`
	GoalsProfile          *profiles.GoalsProfile          `json:"goals_profile"`
	TELPASProfile         *profiles.TELPASProfile         `json:"telpas_profile"`
	BehaviorIntervention  *profiles.BehaviorIntervention  `json:"behavior_intervention"`
	TransportationProfile *profiles.TransportationProfile `json:"transportation_profile"`
	FIEData               FIEData                         `json:"fie_data"`
	REEDData              REEDData                        `json:"reed_data"`
	IEPServices           IEPServices                     `json:"iep_services"`
	CriticalCount         int                             `json:"critical_count"`
	HighCount             int                             `json:"high_count"`
	MediumCount           int                             `json:"medium_count"`
	InquiryCount          int                             `json:"inquiry_count"`
	InfoCount             int                             `json:"info_count"`
}

// Input is everything one analysis run reads
type Input struct {
	Collection documents.Collection
	Profiles   profiles.Profiles
	// MAP is nil when no MAP data was found
	MAP *profiles.MAPData
}

// Analyzer runs the rule set
type Analyzer struct {
	clock  Clock
	policy Policy
	logger *slog.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithClock pins the reference time used for evaluation ages
func WithClock(c Clock) Option {
	return func(a *Analyzer) { a.clock = c }
}

// WithPolicy replaces the default thresholds
func WithPolicy(p Policy) Option {
	return func(a *Analyzer) { a.policy = p }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer creates an analyzer with the default policy and the wall clock
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		clock:  time.Now,
		policy: DefaultPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Policy returns the thresholds in effect
func (a *Analyzer) Policy() Policy {
	return a.policy
}

// Analyze runs every extractor over the input and compiles the alerts
func (a *Analyzer) Analyze(in Input) *Analysis {
	c := in.Collection
	now := a.clock()

	docs := c.Documents
	if docs == nil {
		docs = []documents.Document{}
	}

	info := ExtractStudentInfo(c, in.Profiles.Assessment)
	result := &Analysis{
		StudentID:             c.StudentID,
		DocumentCount:         len(docs),
		Documents:             docs,
		EvaluationStatus:      AnalyzeEvaluationTimeline(c, now, a.policy),
		CopyPasteIssues:       DetectCopyPaste(c, info, a.policy),
		SLDConsistency:        AnalyzeSLD(c),
		AttentionRedFlags:     DetectAttention(c, a.policy),
		DyslexiaStatus:        AnalyzeDyslexia(c),
		AttendanceAnalysis:    AnalyzeAttendance(c, a.policy),
		GoalAnalysis:          AnalyzeGoals(c),
		StudentInfo:           info,
		MAPAssessment:         AnalyzeMAP(in.MAP),
		Deliberations:         ExtractDeliberations(c),
		AssessmentProfile:     in.Profiles.Assessment,
		ComplianceProfile:     in.Profiles.Compliance,
		AccommodationsProfile: in.Profiles.Accommodations,
		GoalsProfile:          in.Profiles.Goals,
		TELPASProfile:         in.Profiles.TELPAS,
		BehaviorIntervention:  in.Profiles.Behavior,
		TransportationProfile: in.Profiles.Transportation,
		FIEData:               ExtractFIE(c, now, a.policy),
		REEDData:              ExtractREED(c),
		IEPServices:           ExtractIEPServices(c),
	}
	if len(in.Profiles.Student) > 0 {
		result.StudentProfile = in.Profiles.Student
	}

	result.Alerts = CompileAlerts(Findings{
		Evaluation: result.EvaluationStatus,
		CopyPaste:  result.CopyPasteIssues,
		SLD:        result.SLDConsistency,
		Attention:  result.AttentionRedFlags,
		Dyslexia:   result.DyslexiaStatus,
		Goals:      result.GoalAnalysis,
		MAP:        result.MAPAssessment,
	}, a.policy)

	counts := CountSeverities(result.Alerts)
	result.CriticalCount = counts.Critical
	result.HighCount = counts.High
	result.MediumCount = counts.Medium
	result.InquiryCount = counts.Inquiry
	result.InfoCount = counts.Info

	a.logger.Debug("analysis complete",
		"student_id", c.StudentID,
		"documents", result.DocumentCount,
		"alerts", len(result.Alerts),
		"critical", counts.Critical,
		"high", counts.High)
	return result
}
