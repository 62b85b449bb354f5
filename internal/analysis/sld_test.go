package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

const sldFIE = "Full Individual Evaluation\nThe student has a specific learning disability in basic reading and math calculation."

const sldIEP = "Determination of Eligibility: Learning Disability in Math Calculation and Written Expression\n" +
	"Present Levels of Academic Achievement\nCarlos reads aloud daily.\n"

func sldCollection(extra string) documents.Collection {
	return collectionOf(
		fixture{name: "10147287_FIE-01012021-.pdf", text: sldFIE},
		fixture{name: "10147287_IEP-01152024-.pdf", text: sldIEP + extra},
	)
}

func TestAnalyzeSLDMissingArea(t *testing.T) {
	sld := AnalyzeSLD(sldCollection(""))

	assert.Equal(t, []string{"Basic Reading", "Math Calculation"}, sld.FIEAreas)
	assert.Equal(t, []string{"Math Calculation", "Written Expression"}, sld.CurrentIEPAreas)
	assert.Equal(t, []string{"Basic Reading"}, sld.MissingFromIEP)
	assert.Equal(t, []string{"Written Expression"}, sld.AddedToIEP)
	assert.Empty(t, sld.DismissedAreas)
	assert.Empty(t, sld.PotentiallyMasteredAreas)
	assert.False(t, sld.Consistent)
}

func TestMissingSLDAlertSeverity(t *testing.T) {
	sld := AnalyzeSLD(sldCollection(""))

	tests := []struct {
		name     string
		goalsMet int
		policy   func(*Policy)
		severity Severity
		category string
	}{
		{"no goals met", 0, nil, SeverityHigh, "SLD Consistency"},
		{"goals met", 2, nil, SeverityInquiry, "SLD Verification Needed"},
		{"goals met without downgrade", 2, func(p *Policy) { p.DowngradeMissingSLDWhenGoalsMet = false }, SeverityHigh, "SLD Consistency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			if tt.policy != nil {
				tt.policy(&p)
			}
			alerts := CompileAlerts(Findings{
				SLD:   sld,
				Goals: GoalAnalysis{PreviousGoalsMet: tt.goalsMet},
			}, p)

			require.Len(t, alerts, 1)
			assert.Equal(t, tt.severity, alerts[0].Severity)
			assert.Equal(t, tt.category, alerts[0].Category)
			assert.Contains(t, alerts[0].Message, "Basic Reading")
		})
	}
}

func TestAnalyzeSLDDismissedArea(t *testing.T) {
	sld := AnalyzeSLD(sldCollection("Carlos was dismissed from services in the area of basic reading.\n"))

	assert.Empty(t, sld.MissingFromIEP)
	require.Len(t, sld.DismissedAreas, 1)
	assert.Equal(t, "Basic Reading", sld.DismissedAreas[0].Area)
	assert.Equal(t, "10147287_IEP-01152024-.pdf", sld.DismissedAreas[0].Document)
	assert.True(t, sld.Consistent)

	alerts := CompileAlerts(Findings{SLD: sld}, DefaultPolicy())
	require.Len(t, alerts, 1)
	assert.Equal(t, SeverityInfo, alerts[0].Severity)
	assert.Equal(t, "Basic Reading formally dismissed/exited (documented 2024-01-15)", alerts[0].Message)
}

func TestAnalyzeSLDMasteredArea(t *testing.T) {
	sld := AnalyzeSLD(sldCollection("The basic reading goal was mastered.\n"))

	assert.Empty(t, sld.MissingFromIEP)
	require.Len(t, sld.PotentiallyMasteredAreas, 1)
	assert.Equal(t, masteryNote, sld.PotentiallyMasteredAreas[0].Note)
	assert.False(t, sld.Consistent)

	alerts := CompileAlerts(Findings{SLD: sld}, DefaultPolicy())
	require.Len(t, alerts, 1)
	assert.Equal(t, SeverityInquiry, alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "Basic Reading: Goal mastery language found")
}

func TestDismissedAlertUndated(t *testing.T) {
	sld := SLDConsistency{
		Consistent:     true,
		DismissedAreas: []SLDAreaNote{{Area: "Oral Expression", Document: "notes.pdf"}},
	}
	alerts := CompileAlerts(Findings{SLD: sld}, DefaultPolicy())
	require.Len(t, alerts, 1)
	assert.Equal(t, "Oral Expression formally dismissed/exited (documented undated)", alerts[0].Message)
}
