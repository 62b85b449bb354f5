package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

// ESYStatus records whether extended school year services were considered
type ESYStatus int

const (
	ESYUnknown ESYStatus = iota
	ESYConsidered
	ESYNotConsidered
	ESYNotNeeded
)

const esyNotNeededLabel = "Considered - not needed"

// MarshalJSON renders null, true, false or the not-needed label
func (e ESYStatus) MarshalJSON() ([]byte, error) {
	switch e {
	case ESYConsidered:
		return []byte("true"), nil
	case ESYNotConsidered:
		return []byte("false"), nil
	case ESYNotNeeded:
		return []byte(strconv.Quote(esyNotNeededLabel)), nil
	}
	return []byte("null"), nil
}

func (e ESYStatus) String() string {
	switch e {
	case ESYConsidered:
		return "Yes"
	case ESYNotConsidered:
		return "No"
	case ESYNotNeeded:
		return esyNotNeededLabel
	}
	return "Unknown"
}

// SpecialEducationService is one SDI block of the IEP
type SpecialEducationService struct {
	Service   string  `json:"service"`
	Minutes   *int    `json:"minutes"`
	Frequency *string `json:"frequency"`
	Location  *string `json:"location"`
}

// RelatedService is a related service named in the IEP
type RelatedService struct {
	Service string `json:"service"`
	Minutes *int   `json:"minutes"`
}

// GoalDetail is one goal scored against the TEA rubric
type GoalDetail struct {
	Preview string `json:"preview"`
	GoalRubric
	AllFourComponents        bool    `json:"all_four_components"`
	ProgressMonitoringMethod *string `json:"progress_monitoring_method"`
	Implementer              *string `json:"implementer"`
}

// IEPServices is the iep_services topic
type IEPServices struct {
	Available                     bool                      `json:"available"`
	IEPStartDate                  *string                   `json:"iep_start_date"`
	IEPEndDate                    *string                   `json:"iep_end_date"`
	SpecialEducationServices      []SpecialEducationService `json:"special_education_services"`
	RelatedServices               []RelatedService          `json:"related_services"`
	SupplementaryAids             []string                  `json:"supplementary_aids"`
	ClassroomAccommodations       []string                  `json:"classroom_accommodations"`
	TestingAccommodations         []string                  `json:"testing_accommodations"`
	ESYConsidered                 ESYStatus                 `json:"esy_considered"`
	ESYServices                   []string                  `json:"esy_services"`
	ATConsidered                  *bool                     `json:"at_considered"`
	ATProvided                    []string                  `json:"at_provided"`
	MedicaidConsent               *bool                     `json:"medicaid_consent"`
	ParentRightsProvided          *bool                     `json:"parent_rights_provided"`
	BIPPresent                    bool                      `json:"bip_present"`
	ManifestationDetermination    bool                      `json:"manifestation_determination"`
	NonparticipationJustification *string                   `json:"nonparticipation_justification"`
	TestingDesignation            *string                   `json:"testing_designation"`
	Section504Relationship        *string                   `json:"section_504_relationship"`
	PLAAFPAllDomains              map[string]string         `json:"plaafp_all_domains"`
	GoalsDetail                   []GoalDetail              `json:"goals_detail"`
	ServicesTotalMinutesPerWeek   int                       `json:"services_total_minutes_per_week"`
	Alerts                        []string                  `json:"alerts"`
}

var relatedServiceKeywords = []string{
	"speech-language", "speech language", "occupational therapy",
	"physical therapy", "counseling", "orientation and mobility",
	"audiology", "school health", "transportation", "interpreter",
}

var plaafpDomains = []string{
	"English/Reading", "Mathematics", "Written Language", "Science",
	"Social Studies", "Speech/Language", "Communication",
	"Adaptive Behavior", "Social-Emotional/Behavioral",
	"Motor/Physical", "Transition", "Vocational",
}

const (
	maxGoalDetails       = 15
	minGoalDetailRunes   = 20
	goalDetailPreview    = 250
	accommodationCutset  = " -•*\t✓□"
	accommodationLines   = 15
	plaafpDomainMaxRunes = 600
	plaafpDomainMinRunes = 30
)

var (
	iepStartPattern      = regexp.MustCompile(`(?:iep|plan)\s+(?:start|begin)[:\s]+(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`)
	iepEndPattern        = regexp.MustCompile(`(?:iep|plan)\s+end[:\s]+(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})`)
	serviceBlockPattern  = regexp.MustCompile(`(?is)(?:Service|SDI|Specially Designed Instruction)[:\s]+([^\n]{5,80})\s*\n(?:.*?Minutes?[:\s]+(\d+).*?\n)?(?:.*?(?:per week|per day|frequency)[:\s]+([^\n]{1,40})\n)?(?:.*?(?:location|setting)[:\s]+([^\n]{1,60})\n)?`)
	supplementaryPattern = regexp.MustCompile(`(?s)supplementary\s+aids?\s+(?:and\s+)?(?:support|service)[s:\s]+(.*?)(?:\n\n|testing|accommodat)`)
	classroomAccPattern  = regexp.MustCompile(`(?s)(?:classroom|instructional)\s+accommodations?[:\s]+(.*?)(?:testing\s+accommodat|state\s+assess|goal|$)`)
	testingAccPattern    = regexp.MustCompile(`(?s)(?:testing\s+accommodations?|state\s+assess.*accommodations?)[:\s]+(.*?)(?:goal|esy|extended\s+school|assistive\s+tech|$)`)
	esyPattern           = regexp.MustCompile(`extended\s+school\s+year`)
	esyApprovedPattern   = regexp.MustCompile(`esy.*(?:yes|will\s+receive|qualif)`)
	esyDeclinedPattern   = regexp.MustCompile(`esy.*(?:no|does\s+not\s+qualif|not\s+eligible)`)
	atPattern            = regexp.MustCompile(`assistive\s+tech`)
	atSectionPattern     = regexp.MustCompile(`(?s)assistive\s+tech.*?\n(.*?)(?:\n\n|esy|service|goal)`)
	medicaidYesPattern   = regexp.MustCompile(`medicaid.*(?:yes|consent\s+given|signed)`)
	medicaidNoPattern    = regexp.MustCompile(`medicaid.*(?:no|declined|refused|not\s+sign)`)
	parentRightsPattern  = regexp.MustCompile(`parent.*rights.*(?:provided|given|received|copy)`)
	bipPattern           = regexp.MustCompile(`bip|behavior\s+intervention\s+plan`)
	manifestationPattern = regexp.MustCompile(`manifestation\s+determination|manifestation\s+review`)
	nonparticipation     = regexp.MustCompile(`(?s)(?:non.?participation|removal.*from\s+general)\s*[:.\s]+(.*?)(?:\n\n|placement|setting)`)
	staarAlt2Pattern     = regexp.MustCompile(`staar\s+alt\s*2|alternate\s+assessment`)
	staarSpacing         = regexp.MustCompile(`staar(\s+)`)
	section504Pattern    = regexp.MustCompile(`section\s+504|504\s+plan`)
	goalDetailMarker     = regexp.MustCompile(`Measurable Annual Goal[:\s]+`)
	progressMethod       = regexp.MustCompile(`(?i)progress.*?(?:monitor|measure)[:\s]+([^\n]{5,80})`)
	implementerPattern   = regexp.MustCompile(`(?i)implementer[:\s]+([^\n]{3,60})`)
	relatedMinutes       = compileRelatedMinutes()
	plaafpDomainPatterns = compilePLAAFPDomains()
)

var goalDetailTerminators = []string{"Measurable Annual Goal", "Progress will be", "Implementer"}

func compileRelatedMinutes() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(relatedServiceKeywords))
	for _, kw := range relatedServiceKeywords {
		out[kw] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(kw) + `.*?(\d+)\s*minutes`)
	}
	return out
}

func compilePLAAFPDomains() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(plaafpDomains))
	for _, domain := range plaafpDomains {
		key := strings.ToLower(domain)
		key = strings.ReplaceAll(key, "/", `[/\s]`)
		key = strings.ReplaceAll(key, "-", `[\-\s]`)
		out = append(out, regexp.MustCompile(`(?s)present\s+levels.*?`+key+`.*?\n(.*?)(?:goal|present\s+level|service|$)`))
	}
	return out
}

// mentionsSTAAR reports "staar" followed by whitespace that does not lead
// into "alt"
func mentionsSTAAR(tl string) bool {
	for _, loc := range staarSpacing.FindAllStringSubmatchIndex(tl, -1) {
		gap := tl[loc[2]:loc[3]]
		rest := tl[loc[3]:]
		if len(gap) > 1 || !strings.HasPrefix(rest, "alt") {
			return true
		}
	}
	return false
}

// goalDetailBlocks returns each goal body, running from its marker up to the
// next marker or progress/implementer line without consuming it
func goalDetailBlocks(text string, limit int) []string {
	var blocks []string
	for _, loc := range goalDetailMarker.FindAllStringIndex(text, -1) {
		if len(blocks) == limit {
			break
		}
		start := loc[1]
		end, _ := indexAfter(text, start, goalDetailTerminators...)
		if end < 0 {
			end = len(text)
		}
		blocks = append(blocks, text[start:end])
	}
	return blocks
}

func optInt(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// ExtractIEPServices reads services, accommodations, considerations, present
// levels and goal detail from the latest IEP
func ExtractIEPServices(c documents.Collection) IEPServices {
	result := IEPServices{
		SpecialEducationServices: []SpecialEducationService{},
		RelatedServices:          []RelatedService{},
		SupplementaryAids:        []string{},
		ClassroomAccommodations:  []string{},
		TestingAccommodations:    []string{},
		ESYServices:              []string{},
		ATProvided:               []string{},
		PLAAFPAllDomains:         map[string]string{},
		GoalsDetail:              []GoalDetail{},
		Alerts:                   []string{},
	}

	doc, ok := c.Latest(documents.IsIEP)
	if !ok {
		return result
	}
	result.Available = true
	text := c.Text(doc)
	tl := strings.ToLower(text)

	if m, ok := submatch(iepStartPattern, tl); ok {
		result.IEPStartDate = strPtr(m)
	}
	if m, ok := submatch(iepEndPattern, tl); ok {
		result.IEPEndDate = strPtr(m)
	}

	for _, m := range serviceBlockPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if len(name) <= 3 {
			continue
		}
		svc := SpecialEducationService{Service: name, Minutes: optInt(m[2])}
		if f := strings.TrimSpace(m[3]); f != "" {
			svc.Frequency = strPtr(f)
		}
		if l := strings.TrimSpace(m[4]); l != "" {
			svc.Location = strPtr(l)
		}
		result.SpecialEducationServices = append(result.SpecialEducationServices, svc)
		if svc.Minutes != nil {
			result.ServicesTotalMinutesPerWeek += *svc.Minutes
		}
	}

	for _, kw := range relatedServiceKeywords {
		if !strings.Contains(tl, kw) {
			continue
		}
		rs := RelatedService{Service: titleCase(kw)}
		if m, ok := submatch(relatedMinutes[kw], tl); ok {
			rs.Minutes = optInt(m)
		}
		result.RelatedServices = append(result.RelatedServices, rs)
	}

	if m, ok := submatch(supplementaryPattern, tl); ok {
		result.SupplementaryAids = listLines(m, 8, 5, 200, bulletCutset)
	}
	if m, ok := submatch(classroomAccPattern, tl); ok {
		result.ClassroomAccommodations = listLines(m, accommodationLines, 5, 200, accommodationCutset)
	}
	if m, ok := submatch(testingAccPattern, tl); ok {
		result.TestingAccommodations = listLines(m, accommodationLines, 5, 200, accommodationCutset)
	}

	switch {
	case !esyPattern.MatchString(tl):
		result.ESYConsidered = ESYNotConsidered
		result.Alerts = append(result.Alerts, "ESY not mentioned in IEP - must be considered annually")
	case esyApprovedPattern.MatchString(tl):
		result.ESYConsidered = ESYConsidered
		result.ESYServices = append(result.ESYServices, "ESY services approved")
	case esyDeclinedPattern.MatchString(tl):
		result.ESYConsidered = ESYNotNeeded
	default:
		result.ESYConsidered = ESYConsidered
	}

	if atPattern.MatchString(tl) {
		result.ATConsidered = boolPtr(true)
		if m, ok := submatch(atSectionPattern, tl); ok {
			result.ATProvided = listLines(m, 6, 3, 150, bulletCutset)
		}
	} else {
		result.ATConsidered = boolPtr(false)
		result.Alerts = append(result.Alerts, "Assistive technology consideration not documented in IEP")
	}

	switch {
	case medicaidYesPattern.MatchString(tl):
		result.MedicaidConsent = boolPtr(true)
	case medicaidNoPattern.MatchString(tl):
		result.MedicaidConsent = boolPtr(false)
	}

	result.ParentRightsProvided = boolPtr(parentRightsPattern.MatchString(tl))
	result.BIPPresent = bipPattern.MatchString(tl)
	result.ManifestationDetermination = manifestationPattern.MatchString(tl)

	if m, ok := submatch(nonparticipation, tl); ok {
		result.NonparticipationJustification = strPtr(truncate(strings.TrimSpace(m), 300))
	}

	switch {
	case staarAlt2Pattern.MatchString(tl):
		result.TestingDesignation = strPtr("STAAR Alt 2")
	case mentionsSTAAR(tl):
		result.TestingDesignation = strPtr("STAAR")
	}

	if section504Pattern.MatchString(tl) {
		result.Section504Relationship = strPtr("Referenced in IEP")
	}

	for i, re := range plaafpDomainPatterns {
		m, ok := submatch(re, tl)
		if !ok {
			continue
		}
		content := truncate(strings.TrimSpace(m), plaafpDomainMaxRunes)
		if len([]rune(content)) > plaafpDomainMinRunes {
			result.PLAAFPAllDomains[plaafpDomains[i]] = content
		}
	}

	for _, block := range goalDetailBlocks(text, maxGoalDetails) {
		goal := strings.TrimSpace(block)
		if len([]rune(goal)) < minGoalDetailRunes {
			continue
		}
		rubric := ScoreGoal(goal)
		detail := GoalDetail{
			Preview:           truncate(goal, goalDetailPreview),
			GoalRubric:        rubric,
			AllFourComponents: rubric.AllFour(),
		}
		if m, ok := submatch(progressMethod, goal); ok {
			detail.ProgressMonitoringMethod = strPtr(strings.TrimSpace(m))
		}
		if m, ok := submatch(implementerPattern, goal); ok {
			detail.Implementer = strPtr(strings.TrimSpace(m))
		}
		result.GoalsDetail = append(result.GoalsDetail, detail)
	}

	if len(result.SpecialEducationServices) == 0 && len(result.RelatedServices) == 0 {
		result.Alerts = append(result.Alerts, "No services extracted from IEP - document may need manual review")
	}
	if len(result.ClassroomAccommodations) == 0 && len(result.TestingAccommodations) == 0 {
		result.Alerts = append(result.Alerts, "No accommodations extracted from IEP PDF - verify against Frontline")
	}
	if !*result.ParentRightsProvided {
		result.Alerts = append(result.Alerts, "No documentation that parent rights were provided at ARD")
	}
	for i, goal := range result.GoalsDetail {
		if !goal.AllFourComponents {
			result.Alerts = append(result.Alerts, fmt.Sprintf("Goal %d missing TEA components: %s",
				i+1, strings.Join(goal.Missing(), ", ")))
		}
		if goal.ProgressMonitoringMethod == nil {
			result.Alerts = append(result.Alerts, fmt.Sprintf("Goal %d has no progress monitoring method documented", i+1))
		}
	}
	return result
}
