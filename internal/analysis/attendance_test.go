package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

func TestAnalyzeAttendance(t *testing.T) {
	c := collectionOf(
		fixture{name: "10147287_IEP-01152024-.pdf", text: "Days absent: 12\nThe family is staying at a shelter."},
		fixture{name: "10147287_IEP-01152023-.pdf", text: "Days absent: 25\nBuss arrives late."},
		fixture{name: "10147287_IEP.pdf", text: "Days absent: 40"},
	)

	a := AnalyzeAttendance(c, DefaultPolicy())
	require.Len(t, a.History, 2)
	assert.Equal(t, AttendanceEntry{Date: documents.Date("2023-01-15"), DaysAbsent: 25}, a.History[0])
	assert.Equal(t, AttendanceEntry{Date: documents.Date("2024-01-15"), DaysAbsent: 12}, a.History[1])
	assert.True(t, a.ChronicPattern)
	assert.True(t, a.Improving)
	assert.True(t, a.HousingBarriers)
	assert.True(t, a.TransportationBarriers)
}

func TestAnalyzeAttendanceNotChronic(t *testing.T) {
	c := collectionOf(
		fixture{name: "10147287_IEP-01152023-.pdf", text: "Days absent: 5"},
		fixture{name: "10147287_IEP-01152024-.pdf", text: "Days absent: 3"},
	)

	a := AnalyzeAttendance(c, DefaultPolicy())
	assert.False(t, a.ChronicPattern)
	assert.False(t, a.Improving)
	assert.False(t, a.HousingBarriers)
}

func TestAnalyzeAttendanceEmpty(t *testing.T) {
	a := AnalyzeAttendance(collectionOf(), DefaultPolicy())
	assert.NotNil(t, a.History)
	assert.Empty(t, a.History)
}
