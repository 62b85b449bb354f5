package analysis

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

// AttendanceEntry is the absence count reported by one IEP
type AttendanceEntry struct {
	Date       documents.Date `json:"date"`
	DaysAbsent int            `json:"days_absent"`
}

// AttendanceAnalysis is the attendance_analysis topic
type AttendanceAnalysis struct {
	History                []AttendanceEntry `json:"history"`
	ChronicPattern         bool              `json:"chronic_pattern"`
	Improving              bool              `json:"improving"`
	HousingBarriers        bool              `json:"housing_barriers"`
	TransportationBarriers bool              `json:"transportation_barriers"`
}

var daysAbsentPattern = regexp.MustCompile(`(?i)days\s+absent.*?:\s*(\d+)`)

// AnalyzeAttendance builds the absence history across IEPs and flags
// chronic absence and known barriers
func AnalyzeAttendance(c documents.Collection, p Policy) AttendanceAnalysis {
	result := AttendanceAnalysis{History: []AttendanceEntry{}}

	for _, doc := range c.Filter(documents.IsIEP) {
		text := c.Text(doc)
		if m, ok := submatch(daysAbsentPattern, text); ok && doc.Date.Known() {
			if n, err := strconv.Atoi(m); err == nil {
				result.History = append(result.History, AttendanceEntry{Date: doc.Date, DaysAbsent: n})
			}
		}

		lower := strings.ToLower(text)
		if strings.Contains(lower, "shelter") {
			result.HousingBarriers = true
		}
		if containsAny(lower, "transport", "buss") {
			result.TransportationBarriers = true
		}
	}

	if len(result.History) == 0 {
		return result
	}
	sort.SliceStable(result.History, func(i, j int) bool {
		return result.History[i].Date < result.History[j].Date
	})

	for _, entry := range result.History {
		if entry.DaysAbsent > p.ChronicAbsenceDays {
			result.ChronicPattern = true
			break
		}
	}

	// improving only when climbing out of a chronic year
	if n := len(result.History); n >= 2 {
		recent := result.History[n-1].DaysAbsent
		previous := result.History[n-2].DaysAbsent
		result.Improving = previous > p.ChronicAbsenceDays && recent < previous
	}
	return result
}
