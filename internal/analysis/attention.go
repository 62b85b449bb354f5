package analysis

import (
	"regexp"
	"strings"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

// AttentionIndicator counts one attention indicator in one document
type AttentionIndicator struct {
	Indicator string         `json:"indicator"`
	Document  string         `json:"document"`
	Date      documents.Date `json:"date"`
	Count     int            `json:"count"`
}

// AttentionFlags is the attention_red_flags topic
type AttentionFlags struct {
	IndicatorsFound  []AttentionIndicator `json:"indicators_found"`
	EvaluationExists bool                 `json:"evaluation_exists"`
	Recommendation   *string              `json:"recommendation"`
}

// DyslexiaStatus is the dyslexia_status topic
type DyslexiaStatus struct {
	ReceivesServices       bool    `json:"receives_services"`
	FormallyIdentified     *bool   `json:"formally_identified"`
	InDyslexiaClass        bool    `json:"in_dyslexia_class"`
	PhonologicalEvalExists bool    `json:"phonological_eval_exists"`
	Recommendation         *string `json:"recommendation"`
}

var attentionIndicators = []struct {
	pattern     *regexp.Regexp
	description string
}{
	{regexp.MustCompile(`(?i)attention.*?(?:below|poor|weak|deficit|difficulty)`), "Attention rated below average"},
	{regexp.MustCompile(`(?i)easily\s+distracted`), "Easily distracted"},
	{regexp.MustCompile(`(?i)processing\s+speed.*?(?:weakness|deficit|significant)`), "Processing speed deficit"},
	{regexp.MustCompile(`(?i)frequent\s+breaks`), "Needs frequent breaks"},
	{regexp.MustCompile(`(?i)cool\s*down\s*(?:period|time|opportunity)`), "Needs cool-down periods"},
	{regexp.MustCompile(`(?i)attention\s+processing`), "Attention processing issues"},
	{regexp.MustCompile(`(?i)difficulty\s+(?:completing|finishing)\s+tasks`), "Difficulty completing tasks"},
	{regexp.MustCompile(`(?i)organizational\s+skills.*?below`), "Organizational skills below average"},
	{regexp.MustCompile(`(?i)redirect(?:ion|ed)`), "Needs redirection"},
	{regexp.MustCompile(`(?i)(?:sleeping|drowsy)\s+in\s+class`), "Sleeping in class"},
}

var attentionEvaluations = []*regexp.Regexp{
	regexp.MustCompile(`(?i)conners`),
	regexp.MustCompile(`(?i)basc`),
	regexp.MustCompile(`(?i)adhd.*?evaluation`),
	regexp.MustCompile(`(?i)attention.*?deficit.*?evaluation`),
	regexp.MustCompile(`(?i)cpt|continuous\s+performance`),
	regexp.MustCompile(`(?i)other\s+health\s+impairment.*?attention`),
}

const (
	attentionRecommendation = "Multiple attention/Executive Function indicators appear across records. " +
		"If the family and campus team have ongoing concerns about attention, " +
		"they may consider discussing a possible ADHD/OHI evaluation or other supports."
	dyslexiaRecommendation = "Student receives dyslexia services but no formal phonological processing evaluation documented"
)

// DetectAttention counts attention indicators per document and suggests an
// evaluation when enough appear without one on file
func DetectAttention(c documents.Collection, p Policy) AttentionFlags {
	result := AttentionFlags{IndicatorsFound: []AttentionIndicator{}}

	for _, doc := range c.Documents {
		text := strings.ToLower(c.Text(doc))
		for _, ind := range attentionIndicators {
			if n := len(ind.pattern.FindAllStringIndex(text, -1)); n > 0 {
				result.IndicatorsFound = append(result.IndicatorsFound, AttentionIndicator{
					Indicator: ind.description,
					Document:  doc.Filename,
					Date:      doc.Date,
					Count:     n,
				})
			}
		}
		if !result.EvaluationExists && anyMatch(attentionEvaluations, text) {
			result.EvaluationExists = true
		}
	}

	if len(result.IndicatorsFound) >= p.ADHDIndicatorThreshold && !result.EvaluationExists {
		result.Recommendation = strPtr(attentionRecommendation)
	}
	return result
}

// AnalyzeDyslexia reports dyslexia services and whether a phonological
// evaluation backs them
func AnalyzeDyslexia(c documents.Collection) DyslexiaStatus {
	var result DyslexiaStatus
	for _, doc := range c.Documents {
		text := strings.ToLower(c.Text(doc))
		if containsAny(text, "dyslexia class", "dyslexia services") {
			result.ReceivesServices = true
		}
		if strings.Contains(text, "100") && strings.Contains(text, "dyslexia") {
			result.InDyslexiaClass = true
		}
		if containsAny(text, "ctopp", "phonological processing") {
			result.PhonologicalEvalExists = true
		}
		// E1520 is the PEIMS dyslexia identification code
		if strings.Contains(text, "e1520") {
			result.FormallyIdentified = boolPtr(true)
		}
	}
	if result.ReceivesServices && !result.PhonologicalEvalExists {
		result.Recommendation = strPtr(dyslexiaRecommendation)
	}
	return result
}
