package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectAttention(t *testing.T) {
	c := collectionOf(
		fixture{name: "10147287_IEP-01152023-.pdf", text: "Carlos is easily distracted and needs frequent breaks."},
		fixture{name: "10147287_IEP-01152024-.pdf", text: "Teacher reports redirection is needed. Redirected twice."},
	)

	flags := DetectAttention(c, DefaultPolicy())
	require.Len(t, flags.IndicatorsFound, 3)
	assert.Equal(t, "Easily distracted", flags.IndicatorsFound[0].Indicator)
	assert.Equal(t, "Needs frequent breaks", flags.IndicatorsFound[1].Indicator)
	assert.Equal(t, "Needs redirection", flags.IndicatorsFound[2].Indicator)
	assert.Equal(t, 2, flags.IndicatorsFound[2].Count)
	assert.False(t, flags.EvaluationExists)
	require.NotNil(t, flags.Recommendation)

	alerts := CompileAlerts(Findings{Attention: flags}, DefaultPolicy())
	require.Len(t, alerts, 1)
	assert.Equal(t, SeverityInquiry, alerts[0].Severity)
	assert.Equal(t, "Attention / Possible ADHD", alerts[0].Category)
}

func TestDetectAttentionWithEvaluation(t *testing.T) {
	c := collectionOf(
		fixture{name: "10147287_IEP-01152023-.pdf", text: "Easily distracted. Frequent breaks. Redirection."},
		fixture{name: "10147287_FIE-01012021-.pdf", text: "Conners rating scales were completed."},
	)

	flags := DetectAttention(c, DefaultPolicy())
	assert.Len(t, flags.IndicatorsFound, 3)
	assert.True(t, flags.EvaluationExists)
	assert.Nil(t, flags.Recommendation)
}

func TestAnalyzeDyslexia(t *testing.T) {
	c := collectionOf(fixture{
		name: "10147287_IEP-01152024-.pdf",
		text: "Carlos attends dyslexia class daily. PEIMS code E1520.",
	})

	status := AnalyzeDyslexia(c)
	assert.True(t, status.ReceivesServices)
	require.NotNil(t, status.FormallyIdentified)
	assert.True(t, *status.FormallyIdentified)
	assert.False(t, status.PhonologicalEvalExists)
	require.NotNil(t, status.Recommendation)

	alerts := CompileAlerts(Findings{Dyslexia: status}, DefaultPolicy())
	require.Len(t, alerts, 1)
	assert.Equal(t, SeverityMedium, alerts[0].Severity)

	c.Corpus["10147287_IEP-01152024-.pdf"] += " CTOPP-2 results reviewed."
	assert.Nil(t, AnalyzeDyslexia(c).Recommendation)
}
