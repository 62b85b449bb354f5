package analysis

import (
	"regexp"
	"strings"

	"github.com/a3tai/iep-deep-dive/internal/documents"
	"github.com/a3tai/iep-deep-dive/internal/profiles"
)

// StudentInfo is the student_info topic
type StudentInfo struct {
	Name       *string `json:"name"`
	DOB        *string `json:"dob"`
	Grade      *string `json:"grade"`
	School     *string `json:"school"`
	Parent     *string `json:"parent"`
	Disability *string `json:"disability"`
}

// FirstName returns the first word of the name, or ""
func (s StudentInfo) FirstName() string {
	if s.Name == nil {
		return ""
	}
	fields := strings.Fields(*s.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

var (
	studentNameField   = regexp.MustCompile(`Student\s+Name:\s*([A-Z][a-z]+(?:\s+[A-Za-z\-']+)+)`)
	studentNameStop    = regexp.MustCompile(`\s+(?:DOB|Grade|Parent|Date|Birth|School|Campus|Student\s+ID)`)
	studentLabel       = regexp.MustCompile(`(?:^|\n)\s*Student:\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`)
	dobPattern         = regexp.MustCompile(`DOB:\s*(\d{2}/\d{2}/\d{4})`)
	gradePattern       = regexp.MustCompile(`Grade:\s*(\d{2})`)
	schoolPattern      = regexp.MustCompile(`Attending School:\s*([A-Za-z\s]+?)(?:\s{2,}|Parent)`)
	parentNamePattern  = regexp.MustCompile(`Parent(?:/Guardian)?\s*(?:Name)?:\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`)
	disabilityPattern  = regexp.MustCompile(`Primary:\s*(\d{2}\s+[A-Za-z\s]+?)(?:\n|Based)`)
	capitalisedWordRun = `\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`
)

// profileName turns "Last, First" into "First Last"
func profileName(name string) string {
	last, first, found := strings.Cut(name, ",")
	if !found {
		return name
	}
	return strings.TrimSpace(first) + " " + strings.TrimSpace(last)
}

// nameFromIEP tries the IEP name fields from most to least reliable
func nameFromIEP(text, studentID string) string {
	if m, ok := submatch(studentNameField, text); ok {
		candidate := strings.TrimSpace(studentNameStop.Split(strings.TrimSpace(m), 2)[0])
		if len(strings.Fields(candidate)) >= 2 {
			return candidate
		}
	}
	if m, ok := submatch(studentLabel, text); ok {
		return strings.TrimSpace(m)
	}
	if studentID != "" {
		re := regexp.MustCompile(regexp.QuoteMeta(studentID) + capitalisedWordRun)
		if m, ok := submatch(re, text); ok {
			words := strings.Fields(m)
			if len(words) > 3 {
				words = words[:3]
			}
			return strings.Join(words, " ")
		}
	}
	return ""
}

// ExtractStudentInfo identifies the student from the assessment profile and
// the latest IEP
func ExtractStudentInfo(c documents.Collection, assessment *profiles.AssessmentProfile) StudentInfo {
	var info StudentInfo
	if assessment != nil && assessment.StudentName != nil && *assessment.StudentName != "" {
		info.Name = strPtr(profileName(*assessment.StudentName))
	}

	latest, ok := c.Latest(documents.IsIEP)
	if !ok {
		return info
	}
	text := c.Text(latest)

	if info.Name == nil {
		if name := nameFromIEP(text, c.StudentID); name != "" {
			info.Name = strPtr(name)
		}
	}
	if m, ok := submatch(dobPattern, text); ok {
		info.DOB = strPtr(m)
	}
	if m, ok := submatch(gradePattern, text); ok {
		info.Grade = strPtr(m)
	}
	if m, ok := submatch(schoolPattern, text); ok {
		info.School = strPtr(strings.TrimSpace(m))
	}
	if m, ok := submatch(parentNamePattern, text); ok {
		info.Parent = strPtr(strings.TrimSpace(m))
	}

	// a parent name picked up by the IEP patterns is not the student
	if info.Name != nil && info.Parent != nil &&
		strings.EqualFold(strings.TrimSpace(*info.Name), strings.TrimSpace(*info.Parent)) {
		info.Name = nil
	}

	if m, ok := submatch(disabilityPattern, text); ok {
		info.Disability = strPtr(strings.TrimSpace(m))
	}
	return info
}
