package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectWrongName(t *testing.T) {
	c := collectionOf(fixture{
		name: "10147287_IEP-01152024-.pdf",
		text: "Services\nMaria will be provided speech services twice weekly.\nMaria will receive a copy.",
	})

	t.Run("another student's name", func(t *testing.T) {
		issues := DetectCopyPaste(c, StudentInfo{Name: strPtr("Carlos Garcia")}, DefaultPolicy())
		require.Len(t, issues, 1)
		issue := issues[0]
		assert.Equal(t, SeverityCritical, issue.Severity)
		assert.Equal(t, IssueWrongName, issue.Type)
		assert.Equal(t, "Maria", issue.FoundName)
		assert.Equal(t, "Carlos", issue.ExpectedName)
		assert.Equal(t, "10147287_IEP-01152024-.pdf", issue.Document)
		assert.Contains(t, issue.Context, "Maria will be provided")
		assert.NotContains(t, issue.Context, "\n")

		alerts := CompileAlerts(Findings{CopyPaste: issues}, DefaultPolicy())
		require.Len(t, alerts, 1)
		assert.Equal(t, SeverityCritical, alerts[0].Severity)
		assert.Equal(t, "Copy/Paste", alerts[0].Category)
		assert.True(t, strings.HasPrefix(alerts[0].Message, "WRONG_NAME: \"Maria\""))
	})

	t.Run("the student's own name", func(t *testing.T) {
		issues := DetectCopyPaste(c, StudentInfo{Name: strPtr("Maria Lopez")}, DefaultPolicy())
		assert.Empty(t, issues)
	})

	t.Run("unknown student", func(t *testing.T) {
		assert.Empty(t, DetectCopyPaste(c, StudentInfo{}, DefaultPolicy()))
	})
}

func TestDetectWrongNameIgnoresRoleWords(t *testing.T) {
	c := collectionOf(fixture{
		name: "10147287_IEP-01152024-.pdf",
		text: "Student will receive services. Teacher will participate in the review.",
	})
	assert.Empty(t, DetectCopyPaste(c, StudentInfo{Name: strPtr("Carlos Garcia")}, DefaultPolicy()))
}

func TestDetectStaleAttendance(t *testing.T) {
	c := collectionOf(
		fixture{name: "10147287_IEP-01152023-.pdf", text: "Annual review."},
		fixture{name: "10147287_IEP-06012023-.pdf", text: "Days absent as of 01/02/2023: 4"},
	)

	issues := DetectCopyPaste(c, StudentInfo{}, DefaultPolicy())
	require.Len(t, issues, 1)
	assert.Equal(t, IssueStaleAttendance, issues[0].Type)
	assert.Equal(t, SeverityHigh, issues[0].Severity)
	assert.Equal(t, "2023-06-01", issues[0].IEPDate)
	assert.Equal(t, "01/02/2023", issues[0].DataAsOf)
	assert.Equal(t, 150, issues[0].DaysStale)
}

func TestDetectStaleParentConcerns(t *testing.T) {
	concern := "Parent input and concerns: Mom is worried about reading and wants more support at home with homework."
	c := collectionOf(
		fixture{name: "10147287_IEP-01152023-.pdf", text: concern},
		fixture{name: "10147287_IEP-01152024-.pdf", text: concern},
	)

	issues := DetectCopyPaste(c, StudentInfo{}, DefaultPolicy())
	require.Len(t, issues, 1)
	assert.Equal(t, IssueStaleParentConcerns, issues[0].Type)
	assert.Equal(t, "2024-01-15", issues[0].CurrentIEP)
	assert.Equal(t, "2023-01-15", issues[0].OriginalIEP)
	assert.Equal(t, "100%", issues[0].Similarity)
	assert.True(t, strings.HasSuffix(issues[0].TextPreview, "..."))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("reading", "reading"))
	assert.Equal(t, 0.0, similarity("abc", "xyz"))
	assert.InDelta(t, 0.75, similarity("abcd", "abce"), 1e-9)
}
