package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

// Score is a standard score with its percentile rank
type Score struct {
	StandardScore int `json:"standard_score"`
	Percentile    int `json:"percentile"`
}

// SpeechLanguageFindings summarises speech-language testing
type SpeechLanguageFindings struct {
	Evaluated     bool `json:"evaluated,omitempty"`
	CELFComposite *int `json:"celf_composite,omitempty"`
}

// VisualMotorFindings summarises visual-motor testing
type VisualMotorFindings struct {
	Evaluated bool `json:"evaluated,omitempty"`
	VMIScore  *int `json:"vmi_score,omitempty"`
}

// FIEData is the fie_data topic
type FIEData struct {
	Available                      bool                    `json:"available"`
	Document                       *string                 `json:"document"`
	DocType                        *documents.DocumentType `json:"doc_type"`
	EvaluationDate                 documents.Date          `json:"evaluation_date"`
	ConsentDate                    *string                 `json:"consent_date"`
	Evaluator                      *string                 `json:"evaluator"`
	EligibilityDetermined          *string                 `json:"eligibility_determined"`
	DisabilityCategoriesConsidered []string                `json:"disability_categories_considered"`
	EligibleDisability             *string                 `json:"eligible_disability"`
	SLDAreas                       []string                `json:"sld_areas"`
	Strengths                      []string                `json:"strengths"`
	AreasOfNeed                    []string                `json:"areas_of_need"`
	TestsAdministered              []string                `json:"tests_administered"`
	Scores                         map[string]Score        `json:"scores"`
	ParentInterview                bool                    `json:"parent_interview"`
	TeacherInterview               bool                    `json:"teacher_interview"`
	ClassroomObservation           bool                    `json:"classroom_observation"`
	VisionHearingScreening         *string                 `json:"vision_hearing_screening"`
	LanguageDominance              *string                 `json:"language_dominance"`
	ELLEvaluation                  bool                    `json:"ell_evaluation"`
	MedicalHealthNotes             []string                `json:"medical_health_notes"`
	EmotionalDisturbanceIndicators bool                    `json:"emotional_disturbance_indicators"`
	IntellectualDisabilityEval     bool                    `json:"intellectual_disability_eval"`
	AutismIndicators               bool                    `json:"autism_indicators"`
	AdaptiveBehaviorAssessed       bool                    `json:"adaptive_behavior_assessed"`
	SpeechLanguageFindings         SpeechLanguageFindings  `json:"speech_language_findings"`
	VisualMotorFindings            VisualMotorFindings     `json:"visual_motor_findings"`
	ReevaluationDueDate            documents.Date          `json:"reevaluation_due_date"`
	Alerts                         []string                `json:"alerts"`
}

type labelledPattern struct {
	pattern *regexp.Regexp
	label   string
}

func labelled(pairs ...string) []labelledPattern {
	out := make([]labelledPattern, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, labelledPattern{regexp.MustCompile(pairs[i]), pairs[i+1]})
	}
	return out
}

// matchingLabels returns the label of every pattern found in text
func matchingLabels(patterns []labelledPattern, text string) []string {
	out := []string{}
	for _, p := range patterns {
		if p.pattern.MatchString(text) {
			out = append(out, p.label)
		}
	}
	return out
}

var ideaCategories = []string{
	"specific learning disability", "speech or language impairment",
	"intellectual disability", "emotional disturbance",
	"autism", "other health impairment", "traumatic brain injury",
	"visual impairment", "hearing impairment", "deaf-blindness",
	"orthopedic impairment", "multiple disabilities",
	"developmental delay",
}

var fieSLDAreas = labelled(
	`basic reading`, "Basic Reading",
	`reading comprehension`, "Reading Comprehension",
	`reading fluency`, "Reading Fluency",
	`math(?:ematics)? calculation`, "Math Calculation",
	`math(?:ematics)? problem.?solving`, "Math Problem Solving",
	`written expression`, "Written Expression",
	`oral expression`, "Oral Expression",
	`listening comprehension`, "Listening Comprehension",
)

var testInstruments = labelled(
	`wisc[\s\-]?v|wisc[\s\-]?iv`, "WISC-V (Cognitive)",
	`wj[\s\-]?iv|woodcock.johnson`, "WJ-IV (Academic Achievement)",
	`wj[\s\-]?iii`, "WJ-III (Academic Achievement)",
	`ktea[\s\-]?3|kaufman.*achievement`, "KTEA-3 (Academic Achievement)",
	`wiat[\s\-]?(?:ii|iii|4)`, "WIAT (Academic Achievement)",
	`gort[\s\-]?\d`, "GORT (Reading)",
	`ctopp[\s\-]?\d?`, "CTOPP (Phonological Processing)",
	`celf[\s\-]?\d`, "CELF (Language)",
	`basc[\s\-]?\d`, "BASC (Behavior/Social-Emotional)",
	`conners[\s\-]?\d?`, "Conners (ADHD)",
	`vmi|beery`, "Beery VMI (Visual-Motor)",
	`tvps[\s\-]?\d?`, "TVPS (Visual Processing)",
	`dtvp[\s\-]?\d?`, "DTVP (Visual Processing)",
	`vineland[\s\-]?\d?`, "Vineland (Adaptive Behavior)",
	`abas[\s\-]?\d?`, "ABAS (Adaptive Behavior)",
	`besa|bilingual.*evaluation`, "BESA (Bilingual Language)",
	`bvat`, "BVAT (Bilingual Verbal Ability)",
	`ppvt[\s\-]?\d?`, "PPVT (Receptive Vocabulary)",
	`eva|expressive.*vocabulary`, "EVT (Expressive Vocabulary)",
	`cpt[\s\-]?\d?|continuous.performance`, "CPT (Attention)",
	`cas[\s\-]?\d?`, "CAS (Cognitive Assessment)",
	`kbit[\s\-]?\d?`, "KBIT (Brief Cognitive)",
	`wasi[\s\-]?\d?`, "WASI (Brief Cognitive)",
	`towl[\s\-]?\d?`, "TOWL (Written Language)",
	`told[\s\-]?\d?`, "TOLD (Language)",
)

var (
	consentPattern        = regexp.MustCompile(`(?i)(?:consent|agreement).*?(?:date|signed)[:\s]*(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`)
	evaluatorPattern      = regexp.MustCompile(`(?:diagnostician|evaluator|examiner|psychologist)[:\s]+([A-Z][a-z]+(?: [A-Z][a-z]+)+)`)
	eligiblePattern       = regexp.MustCompile(`is\s+eligible|eligible\s+for\s+special\s+education`)
	notEligiblePattern    = regexp.MustCompile(`is\s+not\s+eligible|does\s+not\s+(?:meet|qualify)`)
	primaryDisability     = regexp.MustCompile(`(?:primary\s+)?(?:eligibility|disability)[:\s]+([A-Z][A-Za-z ]+?)(?:\n|,|\.|Secondary)`)
	scorePattern          = regexp.MustCompile(`([A-Z][A-Za-z ]{2,30})[:\s]+(?:standard score[:\s]+)?(\d{2,3})[,\s]+(?:percentile[:\s]+)?(\d{1,3})(?:th|st|nd|rd)?`)
	parentInterviewExpr   = regexp.MustCompile(`parent\s+interview|interview.*parent`)
	teacherInterviewExpr  = regexp.MustCompile(`teacher\s+interview|interview.*teacher`)
	observationExpr       = regexp.MustCompile(`classroom\s+observation|observed.*in\s+class`)
	screeningPassedExpr   = regexp.MustCompile(`vision.*pass|hearing.*pass|passed.*vision|passed.*hearing`)
	screeningFailedExpr   = regexp.MustCompile(`vision.*fail|hearing.*fail|failed.*vision|failed.*hearing|referred.*audiolog`)
	languageDominanceExpr = regexp.MustCompile(`language\s+dominance[:\s]+(\w+)`)
	ellExpr               = regexp.MustCompile(`besa|bvat|bilingual.*eval|language\s+proficiency`)
	emotionalExpr         = regexp.MustCompile(`emotional\s+disturbance|internalizing|externalizing|depression|anxiety.*significant|mood\s+disorder`)
	autismExpr            = regexp.MustCompile(`autism|asd|ados|adi-r|social\s+communication\s+disorder`)
	intellectualExpr      = regexp.MustCompile(`intellectual\s+disab|adaptive\s+behav|vineland|abas|daily\s+living\s+skills`)
	strengthsExpr         = regexp.MustCompile(`(?s)(?:strength|asset|positive)[s:\s]+(.*?)(?:areas?\s+of\s+need|weakness|concern|recommend)`)
	needsExpr             = regexp.MustCompile(`(?s)areas?\s+of\s+need[:\s]+(.*?)(?:recommendation|eligib|service|conclusion)`)
	speechEvaluatedExpr   = regexp.MustCompile(`celf|speech.*language|articulation|pragmatic|phonolog`)
	celfCompositeExpr     = regexp.MustCompile(`celf.*?(?:core|composite)[:\s]+(\d{2,3})`)
	visualMotorExpr       = regexp.MustCompile(`vmi|beery|tvps|dtvp|visual.motor|visual.perceptual`)
	vmiScoreExpr          = regexp.MustCompile(`(?:vmi|beery).*?(?:standard\s+score|ss)[:\s]+(\d{2,3})`)
)

const (
	minStandardScore = 40
	maxStandardScore = 160
)

// ExtractFIE reads the latest full individual evaluation. now decides
// whether the three-year re-evaluation is overdue or close.
func ExtractFIE(c documents.Collection, now time.Time, p Policy) FIEData {
	result := FIEData{
		DisabilityCategoriesConsidered: []string{},
		SLDAreas:                       []string{},
		Strengths:                      []string{},
		AreasOfNeed:                    []string{},
		TestsAdministered:              []string{},
		Scores:                         map[string]Score{},
		MedicalHealthNotes:             []string{},
		Alerts:                         []string{},
	}

	doc, ok := c.Latest(documents.IsFullEvaluation)
	if !ok {
		return result
	}
	docType := doc.Type
	result.Available = true
	result.Document = strPtr(doc.Filename)
	result.DocType = &docType
	result.EvaluationDate = doc.Date

	text := c.Text(doc)
	tl := strings.ToLower(text)

	if m, ok := submatch(consentPattern, tl); ok {
		result.ConsentDate = strPtr(m)
	}
	if m, ok := submatch(evaluatorPattern, text); ok {
		result.Evaluator = strPtr(m)
	}
	switch {
	case eligiblePattern.MatchString(tl):
		result.EligibilityDetermined = strPtr("Eligible")
	case notEligiblePattern.MatchString(tl):
		result.EligibilityDetermined = strPtr("Not Eligible")
	}
	for _, cat := range ideaCategories {
		if strings.Contains(tl, cat) {
			result.DisabilityCategoriesConsidered = append(result.DisabilityCategoriesConsidered, titleCase(cat))
		}
	}
	if m, ok := submatch(primaryDisability, text); ok {
		result.EligibleDisability = strPtr(strings.TrimSpace(m))
	}

	result.SLDAreas = matchingLabels(fieSLDAreas, tl)
	result.TestsAdministered = matchingLabels(testInstruments, tl)

	for _, m := range scorePattern.FindAllStringSubmatch(text, -1) {
		ss, err1 := strconv.Atoi(m[2])
		pct, err2 := strconv.Atoi(m[3])
		if err1 != nil || err2 != nil {
			continue
		}
		if ss >= minStandardScore && ss <= maxStandardScore && pct >= 1 && pct <= 99 {
			result.Scores[strings.TrimSpace(m[1])] = Score{StandardScore: ss, Percentile: pct}
		}
	}

	result.ParentInterview = parentInterviewExpr.MatchString(tl)
	result.TeacherInterview = teacherInterviewExpr.MatchString(tl)
	result.ClassroomObservation = observationExpr.MatchString(tl)

	switch {
	case screeningPassedExpr.MatchString(tl):
		result.VisionHearingScreening = strPtr("Passed")
	case screeningFailedExpr.MatchString(tl):
		result.VisionHearingScreening = strPtr("Failed/Referred")
	}

	if m, ok := submatch(languageDominanceExpr, tl); ok {
		result.LanguageDominance = strPtr(titleCase(m))
	}
	result.ELLEvaluation = ellExpr.MatchString(tl)
	result.EmotionalDisturbanceIndicators = emotionalExpr.MatchString(tl)
	result.AutismIndicators = autismExpr.MatchString(tl)
	result.IntellectualDisabilityEval = intellectualExpr.MatchString(tl)
	result.AdaptiveBehaviorAssessed = result.IntellectualDisabilityEval

	if m, ok := submatch(strengthsExpr, tl); ok {
		result.Strengths = listLines(m, 6, 10, 200, bulletCutset)
	}
	if m, ok := submatch(needsExpr, tl); ok {
		result.AreasOfNeed = listLines(m, 8, 10, 200, bulletCutset)
	}

	if speechEvaluatedExpr.MatchString(tl) {
		result.SpeechLanguageFindings.Evaluated = true
		if m, ok := submatch(celfCompositeExpr, tl); ok {
			if n, err := strconv.Atoi(m); err == nil {
				result.SpeechLanguageFindings.CELFComposite = intPtr(n)
			}
		}
	}
	if visualMotorExpr.MatchString(tl) {
		result.VisualMotorFindings.Evaluated = true
		if m, ok := submatch(vmiScoreExpr, tl); ok {
			if n, err := strconv.Atoi(m); err == nil {
				result.VisualMotorFindings.VMIScore = intPtr(n)
			}
		}
	}

	var due time.Time
	if evalDate, ok := doc.Date.Time(); ok {
		if d, ok := addYears(evalDate, 3); ok {
			due = d
			result.ReevaluationDueDate = documents.Date(d.Format(documents.DateLayout))
		}
	}

	if !result.ParentInterview {
		result.Alerts = append(result.Alerts, "No parent interview documented in FIE")
	}
	if !result.TeacherInterview {
		result.Alerts = append(result.Alerts, "No teacher interview documented in FIE")
	}
	if !result.ClassroomObservation {
		result.Alerts = append(result.Alerts, "No classroom observation documented in FIE")
	}
	if len(result.TestsAdministered) == 0 {
		result.Alerts = append(result.Alerts, "No standardized tests identified in FIE - verify document completeness")
	}
	if result.VisionHearingScreening == nil {
		result.Alerts = append(result.Alerts, "Vision/hearing screening results not found in FIE")
	}
	if result.ReevaluationDueDate.Known() {
		due = time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, now.Location())
		switch {
		case due.Before(now):
			result.Alerts = append(result.Alerts, fmt.Sprintf("RE-EVALUATION OVERDUE - FIE dated %s, re-eval was due %s",
				doc.Date, result.ReevaluationDueDate))
		case wholeDays(due.Sub(now)) < p.ReevaluationWarningDays:
			result.Alerts = append(result.Alerts, fmt.Sprintf("Re-evaluation due within 6 months: %s", result.ReevaluationDueDate))
		}
	}
	return result
}

// addYears moves t by n calendar years; a date that does not exist in the
// target year, such as February 29, yields false
func addYears(t time.Time, n int) (time.Time, bool) {
	out := time.Date(t.Year()+n, t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	if out.Month() != t.Month() || out.Day() != t.Day() {
		return time.Time{}, false
	}
	return out, true
}
