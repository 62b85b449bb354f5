package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

// GoalRubric scores a goal against the four TEA components
type GoalRubric struct {
	HasTimeframe bool `json:"has_timeframe"`
	HasCondition bool `json:"has_condition"`
	HasBehavior  bool `json:"has_behavior"`
	HasCriterion bool `json:"has_criterion"`
}

var (
	timeframePattern = regexp.MustCompile(`(?i)by.*?(?:end|date|iep)`)
	conditionPattern = regexp.MustCompile(`(?i)given|when|after|during`)
	behaviorPattern  = regexp.MustCompile(`(?i)will\s+\w+`)
	criterionPattern = regexp.MustCompile(`(?i)\d+\s*(?:out of|%|percent|times)`)
)

// ScoreGoal applies the rubric to one goal text
func ScoreGoal(text string) GoalRubric {
	return GoalRubric{
		HasTimeframe: timeframePattern.MatchString(text),
		HasCondition: conditionPattern.MatchString(text),
		HasBehavior:  behaviorPattern.MatchString(text),
		HasCriterion: criterionPattern.MatchString(text),
	}
}

// AllFour reports whether all four components are present
func (r GoalRubric) AllFour() bool {
	return r.HasTimeframe && r.HasCondition && r.HasBehavior && r.HasCriterion
}

// Missing names the absent components in rubric order
func (r GoalRubric) Missing() []string {
	var out []string
	if !r.HasTimeframe {
		out = append(out, "has_timeframe")
	}
	if !r.HasCondition {
		out = append(out, "has_condition")
	}
	if !r.HasBehavior {
		out = append(out, "has_behavior")
	}
	if !r.HasCriterion {
		out = append(out, "has_criterion")
	}
	return out
}

// CurrentGoal is one goal of the latest IEP
type CurrentGoal struct {
	TextPreview string `json:"text_preview"`
	GoalRubric
	Complete bool    `json:"complete"`
	Baseline *string `json:"baseline"`
}

// GoalAnalysis is the goal_analysis topic
type GoalAnalysis struct {
	CurrentGoals        []CurrentGoal `json:"current_goals"`
	PreviousGoalsMet    int           `json:"previous_goals_met"`
	PreviousGoalsNotMet int           `json:"previous_goals_not_met"`
	GoalQualityIssues   []string      `json:"goal_quality_issues"`
}

const (
	maxGoals       = 10
	goalTextRunes  = 500
	goalPreviewLen = 200
)

var (
	goalMarkerPattern = regexp.MustCompile(`Measurable Annual Goal:\s*`)
	baselinePattern   = regexp.MustCompile(`(?i)beginning point.*?was\s+(\d+)`)
	goalTerminators   = []string{"Progress will be", "Implementer"}
)

// indexAfter returns the earliest index at or after from of any needle, with
// the needle length, or -1
func indexAfter(text string, from int, needles ...string) (int, int) {
	best, size := -1, 0
	for _, n := range needles {
		if i := strings.Index(text[from:], n); i >= 0 && (best < 0 || from+i < best) {
			best, size = from+i, len(n)
		}
	}
	return best, size
}

// goalBlocks splits text into goal bodies: each starts after a goal marker
// and runs to the next terminator, which is consumed, or to the end of text
func goalBlocks(text string, limit int) []string {
	var blocks []string
	pos := 0
	for len(blocks) < limit && pos < len(text) {
		loc := goalMarkerPattern.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[1]
		if start >= len(text) {
			break
		}
		// the body holds at least one rune
		_, first := utf8.DecodeRuneInString(text[start:])
		end, size := indexAfter(text, start+first, goalTerminators...)
		if end < 0 {
			blocks = append(blocks, text[start:])
			break
		}
		blocks = append(blocks, text[start:end])
		pos = end + size
	}
	return blocks
}

// AnalyzeGoals scores the goals of the latest IEP and counts how previous
// goals were reported
func AnalyzeGoals(c documents.Collection) GoalAnalysis {
	result := GoalAnalysis{CurrentGoals: []CurrentGoal{}, GoalQualityIssues: []string{}}

	latest, ok := c.Latest(documents.IsIEP)
	if !ok {
		return result
	}
	text := c.Text(latest)

	var baseline *string
	if m, ok := submatch(baselinePattern, text); ok {
		baseline = strPtr(m)
	}

	for _, block := range goalBlocks(text, maxGoals) {
		goal := truncate(strings.TrimSpace(block), goalTextRunes)
		rubric := ScoreGoal(goal)
		preview := truncate(goal, goalPreviewLen) + "..."
		result.CurrentGoals = append(result.CurrentGoals, CurrentGoal{
			TextPreview: preview,
			GoalRubric:  rubric,
			Complete:    rubric.AllFour(),
			Baseline:    baseline,
		})
		if !rubric.AllFour() {
			result.GoalQualityIssues = append(result.GoalQualityIssues,
				"Goal missing TEA components ("+strings.Join(rubric.Missing(), ", ")+"): "+truncate(goal, 80))
		}
	}

	lower := strings.ToLower(text)
	if containsAny(lower, "not met", "did not meet") {
		result.PreviousGoalsNotMet = strings.Count(lower, "not met") + strings.Count(lower, "did not meet")
	}
	if containsAny(lower, "goal met", "mastered") {
		result.PreviousGoalsMet = strings.Count(lower, "met")
	}
	return result
}
