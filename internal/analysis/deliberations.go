package analysis

import (
	"regexp"
	"strings"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

// MeetingInfo describes the ARD meeting
type MeetingInfo struct {
	ARDDate          string `json:"ard_date,omitempty"`
	Purpose          string `json:"purpose,omitempty"`
	StudentLed       string `json:"student_led,omitempty"`
	ParentAttendance string `json:"parent_attendance,omitempty"`
}

// CommitteeMember is one attendee of the ARD meeting
type CommitteeMember struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	Present string `json:"present"`
}

// EvaluationReview is what the committee recorded about evaluations
type EvaluationReview struct {
	FIEDate     string `json:"fie_date,omitempty"`
	Eligibility string `json:"eligibility,omitempty"`
	REEDDueDate string `json:"reed_due_date,omitempty"`
	NewTesting  string `json:"new_testing,omitempty"`
}

// PLAAFPSection is a subject's present levels as discussed at the meeting
type PLAAFPSection struct {
	Subject        string `json:"subject"`
	Grades         string `json:"grades,omitempty"`
	TeacherComment string `json:"teacher_comment,omitempty"`
	GoalProgress   string `json:"goal_progress,omitempty"`
	Concerns       string `json:"concerns,omitempty"`
}

// PlacementSemester is one instructional setting code by semester
type PlacementSemester struct {
	Semester    string `json:"semester"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// EducationalPlacement lists the instructional settings
type EducationalPlacement struct {
	Semesters []PlacementSemester `json:"semesters,omitempty"`
}

// Transition holds graduation planning
type Transition struct {
	DiplomaType string `json:"diploma_type,omitempty"`
}

// Deliberations is the deliberations topic
type Deliberations struct {
	Available            bool                 `json:"available"`
	MeetingInfo          MeetingInfo          `json:"meeting_info"`
	CommitteeMembers     []CommitteeMember    `json:"committee_members"`
	ParentConcerns       []string             `json:"parent_concerns"`
	EvaluationReview     EvaluationReview     `json:"evaluation_review"`
	PLAAFPSections       []PLAAFPSection      `json:"plaafp_sections"`
	EducationalPlacement EducationalPlacement `json:"educational_placement"`
	Transition           Transition           `json:"transition"`
	Decisions            []string             `json:"decisions"`
}

const (
	englishPLAAFPHeader = "Present Levels of Academic Achievement and Functional Performance(English)"
	mathPLAAFPHeader    = "Present Levels of Academic Achievement and Functional Performance(Math)"
	placementHeader     = "EDUCATIONAL ALTERNATIVES"
	maxDecisions        = 10
	decisionsPerTrigger = 2
)

var deliberationEndMarkers = []string{"XXII.", "XXIII.", "ASSURANCES", "Report Generated"}

// committeeRoles is searched in order; the first role found names the line
var committeeRoles = []string{
	"Special Education Teacher", "Case Manager", "Administrator", "Parent",
	"English", "Math", "Counselor", "Diagnostician", "Speech", "OT", "PT",
}

// instructionalSettings decodes PEIMS instructional setting codes
var instructionalSettings = map[string]string{
	"40": "Resource Room < 21%",
	"41": "Resource Room 21-60%",
	"42": "Self-Contained 61%+",
	"44": "Mainstream 0-20%",
	"45": "Homebound",
}

var decisionTriggers = []string{
	"agreed to review",
	"determined the appropriate",
	"Committee decided",
	"will continue",
	"will receive",
	"recommends",
	"will participate",
}

var (
	ardDatePattern         = regexp.MustCompile(`ARD Meeting Date:\s*(\d{2}/\d{2}/\d{4})`)
	purposePattern         = regexp.MustCompile(`The ARD/IEP Committee agreed to review the following:\s*([^\n]+)`)
	membersPattern         = regexp.MustCompile(`(?s)Committee Members[:\s]*(.*?)(?:Statement of Confidentiality|Any Parent concerns)`)
	ardConcernsPattern     = regexp.MustCompile(`Any Parent concerns\?\s*\n?([^\n]+)`)
	ardFIEDatePattern      = regexp.MustCompile(`Date of Full Individual Initial Evaluation\s*(\d{1,2}/\d{1,2}/\d{4})`)
	ardEligibilityPattern  = regexp.MustCompile(`Specific Learning Disability in the areas of\s*([^\n]+)`)
	ardREEDDuePattern      = regexp.MustCompile(`Due Date of Review of Existing Evaluation Data \(REED\)\s*(\d{1,2}/\d{1,2}/\d{4})`)
	ardNewTestingPattern   = regexp.MustCompile(`Are there any requests for new testing\?\s*(\w+)`)
	teacherCommentPattern  = regexp.MustCompile(`Teacher Comment\s*"([^"]+)"`)
	plaafpConcernsPattern  = regexp.MustCompile(`(?s)Concerns and Needs\s*(.*?)(?:Goal|Impact of|$)`)
	placementPattern       = regexp.MustCompile(`(?s)EDUCATIONAL ALTERNATIVES.*?instructional setting codes[.\s]*(.*?)(?:Deliberations:|Page \d+|$)`)
	semesterPattern        = regexp.MustCompile(`(Spring|Fall)\s+(\d{4}-\d{4})\s+(\d+)`)
	diplomaPattern         = regexp.MustCompile(`will graduate with the following diploma type:\s*([^\n]+)`)
	englishGradesPattern   = regexp.MustCompile(`(?i)This year's English.*?Grades?:\s*([^\n]+)`)
	mathGradesPattern      = regexp.MustCompile(`(?i)This year's Math.*?Grades?:\s*([^\n]+)`)
	decisionTriggerPattern = compileDecisionTriggers()
)

func compileDecisionTriggers() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(decisionTriggers))
	for _, kw := range decisionTriggers {
		out = append(out, regexp.MustCompile(`(?i)(?:The )?(?:ARD/IEP )?Committee.*?`+regexp.QuoteMeta(kw)+`[^.]+\.`))
	}
	return out
}

// deliberationSection cuts the deliberations section out of an IEP
func deliberationSection(text string) (string, bool) {
	start := strings.Index(text, "XXI. DELIBERATIONS")
	if start < 0 {
		start = strings.Index(text, "DELIBERATIONS")
	}
	if start < 0 {
		return "", false
	}
	end := len(text)
	if from := start + 100; from < len(text) {
		for _, marker := range deliberationEndMarkers {
			if i := strings.Index(text[from:], marker); i >= 0 && from+i < end {
				end = from + i
			}
		}
	}
	return text[start:end], true
}

// ExtractDeliberations summarises the ARD deliberations of the latest IEP
func ExtractDeliberations(c documents.Collection) Deliberations {
	result := Deliberations{
		CommitteeMembers: []CommitteeMember{},
		ParentConcerns:   []string{},
		PLAAFPSections:   []PLAAFPSection{},
		Decisions:        []string{},
	}

	latest, ok := c.Latest(documents.IsIEP)
	if !ok {
		return result
	}
	section, ok := deliberationSection(c.Text(latest))
	if !ok {
		return result
	}
	result.Available = true

	result.MeetingInfo = meetingInfo(section)
	result.CommitteeMembers = committeeMembers(section)

	if m, ok := submatch(ardConcernsPattern, section); ok {
		concern := strings.TrimSpace(m)
		lower := strings.ToLower(concern)
		if lower != "none" && lower != "no" && len(concern) > 5 {
			result.ParentConcerns = []string{concern}
		}
	}

	result.EvaluationReview = evaluationReview(section)
	result.PLAAFPSections = plaafpSections(section)

	if m, ok := submatch(placementPattern, section); ok {
		for _, s := range semesterPattern.FindAllStringSubmatch(m, -1) {
			desc, known := instructionalSettings[s[3]]
			if !known {
				desc = "Code " + s[3]
			}
			result.EducationalPlacement.Semesters = append(result.EducationalPlacement.Semesters, PlacementSemester{
				Semester:    s[1] + " " + s[2],
				Code:        s[3],
				Description: desc,
			})
		}
	}

	if m, ok := submatch(diplomaPattern, section); ok {
		result.Transition.DiplomaType = strings.TrimSpace(m)
	}

	result.Decisions = decisions(section)
	return result
}

func meetingInfo(section string) MeetingInfo {
	var info MeetingInfo
	if m, ok := submatch(ardDatePattern, section); ok {
		info.ARDDate = m
	}
	if m, ok := submatch(purposePattern, section); ok {
		info.Purpose = strings.TrimSpace(m)
	}
	if strings.Contains(section, "Student led a portion") {
		i := strings.Index(section, "Student led")
		window := section[i:min(i+100, len(section))]
		info.StudentLed = "No"
		if strings.Contains(window, "Yes") {
			info.StudentLed = "Yes"
		}
	}
	switch {
	case strings.Contains(section, "Parent is in attendance"):
		info.ParentAttendance = "Present"
	case strings.Contains(section, "Parent was unable to attend"):
		info.ParentAttendance = "Unable to attend"
	}
	return info
}

func committeeMembers(section string) []CommitteeMember {
	members := []CommitteeMember{}
	m, ok := submatch(membersPattern, section)
	if !ok {
		return members
	}
	for _, line := range strings.Split(m, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 3 {
			continue
		}
		lower := strings.ToLower(line)
		for _, role := range committeeRoles {
			if !strings.Contains(lower, strings.ToLower(role)) {
				continue
			}
			name := strings.Trim(strings.TrimSpace(strings.ReplaceAll(line, role, "")), "/")
			if name != "" {
				members = append(members, CommitteeMember{Name: name, Role: role, Present: "Yes"})
			}
			break
		}
	}
	return members
}

func evaluationReview(section string) EvaluationReview {
	var review EvaluationReview
	if m, ok := submatch(ardFIEDatePattern, section); ok {
		review.FIEDate = m
	}
	if m, ok := submatch(ardEligibilityPattern, section); ok {
		review.Eligibility = "SLD: " + strings.TrimSpace(m)
	}
	if m, ok := submatch(ardREEDDuePattern, section); ok {
		review.REEDDueDate = m
	}
	if m, ok := submatch(ardNewTestingPattern, section); ok {
		review.NewTesting = m
	}
	return review
}

func plaafpSections(section string) []PLAAFPSection {
	sections := []PLAAFPSection{}
	englishStart := strings.Index(section, englishPLAAFPHeader)
	mathStart := strings.Index(section, mathPLAAFPHeader)

	if englishStart >= 0 && mathStart > englishStart {
		sections = append(sections, plaafpSection("English", section[englishStart:mathStart], englishGradesPattern))
	}
	if mathStart >= 0 {
		mathEnd := len(section)
		if i := strings.Index(section[mathStart:], placementHeader); i >= 0 {
			mathEnd = mathStart + i
		}
		sections = append(sections, plaafpSection("Math", section[mathStart:mathEnd], mathGradesPattern))
	}
	return sections
}

func plaafpSection(subject, text string, grades *regexp.Regexp) PLAAFPSection {
	entry := PLAAFPSection{Subject: subject}
	if m, ok := submatch(grades, text); ok {
		entry.Grades = strings.TrimSpace(m)
	}
	if m, ok := submatch(teacherCommentPattern, text); ok {
		entry.TeacherComment = truncate(strings.TrimSpace(m), 300)
	}

	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "has not met", "did not meet"):
		entry.GoalProgress = "Goal NOT MET"
	case containsAny(lower, "has met", "met his goal"):
		entry.GoalProgress = "Goal MET"
	case strings.Contains(lower, "making progress"):
		entry.GoalProgress = "Making progress"
	}

	if m, ok := submatch(plaafpConcernsPattern, text); ok {
		entry.Concerns = truncate(strings.TrimSpace(m), 300)
	}
	return entry
}

func decisions(section string) []string {
	out := []string{}
	for _, re := range decisionTriggerPattern {
		for _, match := range re.FindAllString(section, decisionsPerTrigger) {
			match = strings.TrimSpace(match)
			if !contains(out, match) {
				out = append(out, match)
			}
		}
	}
	if len(out) > maxDecisions {
		out = out[:maxDecisions]
	}
	return out
}
