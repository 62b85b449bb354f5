package analysis

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const servicesIEP = "IEP Start: 01/15/2024\n" +
	"IEP End: 01/14/2025\n" +
	"Service: Reading Resource Instruction\n" +
	"Minutes: 225\n" +
	"Frequency: 5 days per week\n" +
	"Location: Resource Room\n" +
	"Speech-language therapy: 30 minutes per session\n" +
	"Classroom Accommodations:\n" +
	"- Extra time on assignments\n" +
	"- Reduced answer choices\n" +
	"Testing Accommodations:\n" +
	"- Oral administration of test items\n" +
	"Extended School Year: ESY will receive summer instruction\n" +
	"Assistive Technology:\n" +
	"- Text to speech software\n" +
	"\n" +
	"Parent rights were provided to the parent.\n" +
	"Medicaid consent signed.\n" +
	"Measurable Annual Goal: " + completeGoal + "\n" +
	"Progress monitor: weekly curriculum probes\n" +
	"Implementer: Special education teacher\n" +
	"Assessment: STAAR with accommodations\n"

func servicesFor(text string) IEPServices {
	return ExtractIEPServices(collectionOf(fixture{name: "10147287_IEP-01152024-.pdf", text: text}))
}

func TestExtractIEPServices(t *testing.T) {
	s := servicesFor(servicesIEP)

	assert.True(t, s.Available)
	require.NotNil(t, s.IEPStartDate)
	assert.Equal(t, "01/15/2024", *s.IEPStartDate)
	require.NotNil(t, s.IEPEndDate)
	assert.Equal(t, "01/14/2025", *s.IEPEndDate)

	require.Len(t, s.SpecialEducationServices, 1)
	svc := s.SpecialEducationServices[0]
	assert.Equal(t, "Reading Resource Instruction", svc.Service)
	require.NotNil(t, svc.Minutes)
	assert.Equal(t, 225, *svc.Minutes)
	require.NotNil(t, svc.Frequency)
	assert.Equal(t, "5 days per week", *svc.Frequency)
	require.NotNil(t, svc.Location)
	assert.Equal(t, "Resource Room", *svc.Location)
	assert.Equal(t, 225, s.ServicesTotalMinutesPerWeek)

	require.Len(t, s.RelatedServices, 1)
	assert.Equal(t, "Speech-Language", s.RelatedServices[0].Service)
	require.NotNil(t, s.RelatedServices[0].Minutes)
	assert.Equal(t, 30, *s.RelatedServices[0].Minutes)

	assert.Equal(t, []string{"extra time on assignments", "reduced answer choices"}, s.ClassroomAccommodations)
	assert.Equal(t, []string{"oral administration of test items"}, s.TestingAccommodations)

	assert.Equal(t, ESYConsidered, s.ESYConsidered)
	assert.Equal(t, []string{"ESY services approved"}, s.ESYServices)
	require.NotNil(t, s.ATConsidered)
	assert.True(t, *s.ATConsidered)
	assert.Equal(t, []string{"text to speech software"}, s.ATProvided)
	require.NotNil(t, s.MedicaidConsent)
	assert.True(t, *s.MedicaidConsent)
	require.NotNil(t, s.ParentRightsProvided)
	assert.True(t, *s.ParentRightsProvided)
	assert.False(t, s.BIPPresent)
	require.NotNil(t, s.TestingDesignation)
	assert.Equal(t, "STAAR", *s.TestingDesignation)

	require.Len(t, s.GoalsDetail, 1)
	goal := s.GoalsDetail[0]
	assert.True(t, goal.AllFourComponents)
	require.NotNil(t, goal.ProgressMonitoringMethod)
	assert.Equal(t, "weekly curriculum probes", *goal.ProgressMonitoringMethod)
	assert.True(t, strings.HasPrefix(goal.Preview, "By the end of the IEP year"))

	assert.Empty(t, s.Alerts)
}

func TestExtractIEPServicesEmptyIEP(t *testing.T) {
	s := servicesFor("Annual ARD meeting notes.")

	assert.True(t, s.Available)
	assert.Equal(t, ESYNotConsidered, s.ESYConsidered)
	require.NotNil(t, s.ATConsidered)
	assert.False(t, *s.ATConsidered)
	assert.Nil(t, s.MedicaidConsent)
	assert.Equal(t, []string{
		"ESY not mentioned in IEP - must be considered annually",
		"Assistive technology consideration not documented in IEP",
		"No services extracted from IEP - document may need manual review",
		"No accommodations extracted from IEP PDF - verify against Frontline",
		"No documentation that parent rights were provided at ARD",
	}, s.Alerts)
}

func TestExtractIEPServicesWithoutIEP(t *testing.T) {
	s := ExtractIEPServices(collectionOf(fixture{name: "10147287_FIE-01012021-.pdf", text: "Service: Reading Instruction\n"}))

	assert.False(t, s.Available)
	assert.Empty(t, s.SpecialEducationServices)
	assert.Empty(t, s.Alerts)
	assert.Equal(t, ESYUnknown, s.ESYConsidered)
}

func TestESYNotNeeded(t *testing.T) {
	s := servicesFor("Extended school year was considered.\nESY: not eligible\n")
	assert.Equal(t, ESYNotNeeded, s.ESYConsidered)
	assert.Empty(t, s.ESYServices)
}

func TestServicesGoalRubricFlip(t *testing.T) {
	count := func(alerts []string) int {
		n := 0
		for _, a := range alerts {
			if strings.Contains(a, "missing TEA components") {
				n++
			}
		}
		return n
	}

	complete := servicesFor(servicesIEP)
	assert.Zero(t, count(complete.Alerts))

	flipped := servicesFor(strings.Replace(servicesIEP, completeGoal, goalWithoutGiven, 1))
	require.Len(t, flipped.GoalsDetail, 1)
	assert.False(t, flipped.GoalsDetail[0].AllFourComponents)
	assert.Equal(t, 1, count(flipped.Alerts))
	assert.Contains(t, flipped.Alerts, "Goal 1 missing TEA components: has_condition")
}

func TestMentionsSTAAR(t *testing.T) {
	tests := []struct {
		text     string
		expected bool
	}{
		{"staar reading", true},
		{"staar alt 1", false},
		{"staar  alt", true},
		{"staar", false},
		{"no state test", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, mentionsSTAAR(tt.text))
		})
	}
}

func TestTestingDesignationAlternate(t *testing.T) {
	s := servicesFor("The student will take STAAR Alt 2.")
	require.NotNil(t, s.TestingDesignation)
	assert.Equal(t, "STAAR Alt 2", *s.TestingDesignation)
}

func TestESYStatusJSON(t *testing.T) {
	tests := []struct {
		status   ESYStatus
		expected string
	}{
		{ESYUnknown, "null"},
		{ESYConsidered, "true"},
		{ESYNotConsidered, "false"},
		{ESYNotNeeded, `"Considered - not needed"`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.status)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, string(data))
	}
}

func TestPLAAFPAllDomains(t *testing.T) {
	text := "Present Levels of Academic Achievement\nMathematics\n" +
		"Carlos adds and subtracts within 100 and is learning to multiply two digit numbers.\n"
	s := servicesFor(text)

	require.Contains(t, s.PLAAFPAllDomains, "Mathematics")
	assert.True(t, strings.HasPrefix(s.PLAAFPAllDomains["Mathematics"], "carlos adds and subtracts"))
}
