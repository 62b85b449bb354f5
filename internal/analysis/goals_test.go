package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	completeGoal      = "By the end of the IEP year, given a grade-level passage, Carlos will answer comprehension questions correctly in 4 out of 5 trials."
	goalWithoutGiven  = "By the end of the IEP year, Carlos will answer comprehension questions correctly in 4 out of 5 trials."
	goalWithoutBy     = "Given a grade-level passage, Carlos will answer comprehension questions correctly in 4 out of 5 trials."
	goalWithoutTarget = "By the end of the IEP year, given a grade-level passage, Carlos will answer comprehension questions correctly."
)

func TestScoreGoal(t *testing.T) {
	tests := []struct {
		name    string
		goal    string
		missing []string
	}{
		{"complete", completeGoal, nil},
		{"no condition", goalWithoutGiven, []string{"has_condition"}},
		{"no timeframe", goalWithoutBy, []string{"has_timeframe"}},
		{"no criterion", goalWithoutTarget, []string{"has_criterion"}},
		{"no behavior", "By the end of the IEP year, given a passage, 4 out of 5 trials.", []string{"has_behavior"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rubric := ScoreGoal(tt.goal)
			assert.Equal(t, tt.missing == nil, rubric.AllFour())
			assert.Equal(t, tt.missing, rubric.Missing())
		})
	}
}

func TestGoalBlocks(t *testing.T) {
	text := "Measurable Annual Goal: first goal. Progress will be reported each grading period.\n" +
		"Measurable Annual Goal: second goal. Implementer: teacher\n" +
		"Measurable Annual Goal: trailing goal"

	assert.Equal(t, []string{"first goal. ", "second goal. ", "trailing goal"}, goalBlocks(text, 10))
	assert.Equal(t, []string{"first goal. "}, goalBlocks(text, 1))
	assert.Empty(t, goalBlocks("no goals here", 10))
}

func TestAnalyzeGoalsRubricFlip(t *testing.T) {
	iep := func(goal string) string {
		return "Measurable Annual Goal: " + goal + "\nProgress will be reported quarterly."
	}

	complete := AnalyzeGoals(collectionOf(fixture{name: "10147287_IEP-01152024-.pdf", text: iep(completeGoal)}))
	require.Len(t, complete.CurrentGoals, 1)
	assert.True(t, complete.CurrentGoals[0].Complete)
	assert.Empty(t, complete.GoalQualityIssues)
	assert.True(t, strings.HasSuffix(complete.CurrentGoals[0].TextPreview, "..."))

	flipped := AnalyzeGoals(collectionOf(fixture{name: "10147287_IEP-01152024-.pdf", text: iep(goalWithoutGiven)}))
	require.Len(t, flipped.CurrentGoals, 1)
	assert.False(t, flipped.CurrentGoals[0].Complete)
	require.Len(t, flipped.GoalQualityIssues, 1)
	assert.Contains(t, flipped.GoalQualityIssues[0], "missing TEA components (has_condition)")
}

func TestAnalyzeGoalsPreviousOutcomes(t *testing.T) {
	text := "Previous goal 1: Goal met.\nPrevious goal 2: Not met.\nThe beginning point for reading was 42 words.\n" +
		"Measurable Annual Goal: " + completeGoal
	goals := AnalyzeGoals(collectionOf(fixture{name: "10147287_IEP-01152024-.pdf", text: text}))

	assert.Equal(t, 1, goals.PreviousGoalsNotMet)
	assert.Equal(t, 2, goals.PreviousGoalsMet)
	require.Len(t, goals.CurrentGoals, 1)
	require.NotNil(t, goals.CurrentGoals[0].Baseline)
	assert.Equal(t, "42", *goals.CurrentGoals[0].Baseline)
}

func TestAnalyzeGoalsWithoutIEP(t *testing.T) {
	goals := AnalyzeGoals(collectionOf(fixture{name: "10147287_FIE-01012021-.pdf", text: "Measurable Annual Goal: x"}))
	assert.Empty(t, goals.CurrentGoals)
	assert.Zero(t, goals.PreviousGoalsMet)
}
