package analysis

import (
	"regexp"
	"strings"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

// SLDAreaNote records where a missing SLD area was dismissed or mastered
type SLDAreaNote struct {
	Area     string         `json:"area"`
	Document string         `json:"document"`
	Date     documents.Date `json:"date"`
	Note     string         `json:"note,omitempty"`
}

// SLDConsistency is the sld_consistency topic
type SLDConsistency struct {
	FIEAreas                 []string      `json:"fie_areas"`
	CurrentIEPAreas          []string      `json:"current_iep_areas"`
	MissingFromIEP           []string      `json:"missing_from_iep"`
	DismissedAreas           []SLDAreaNote `json:"dismissed_areas"`
	PotentiallyMasteredAreas []SLDAreaNote `json:"potentially_mastered_areas"`
	AddedToIEP               []string      `json:"added_to_iep"`
	Consistent               bool          `json:"consistent"`
}

const masteryNote = "Goal mastery language found - verify if SDI still needed"

type sldArea struct {
	name    string
	pattern *regexp.Regexp
	// dismissal and mastery match the area name next to exit language
	dismissal []*regexp.Regexp
	mastery   []*regexp.Regexp
}

var sldAreaPatterns = []struct{ name, pattern string }{
	{"Basic Reading", `basic\s*reading`},
	{"Reading Comprehension", `reading\s*comprehension`},
	{"Reading Fluency", `reading\s*fluency`},
	{"Math Calculation", `math(?:ematics)?\s*calculation`},
	{"Math Problem Solving", `math(?:ematics)?\s*problem\s*solving`},
	{"Written Expression", `written\s*expression`},
	{"Oral Expression", `oral\s*expression`},
	{"Listening Comprehension", `listening\s*comprehension`},
}

var dismissalPatterns = []string{
	`(?:dismissed|exited|discontinued|removed)\s+(?:from\s+)?(?:services?\s+)?(?:in\s+)?(?:the\s+area\s+of\s+)?`,
	`no\s+longer\s+(?:requires?|needs?|qualifies?)`,
	`(?:met|achieved)\s+(?:goal|criteria|benchmark).*?(?:dismiss|exit|discontinue)`,
	`(?:services?|instruction)\s+(?:in|for).*?(?:will\s+be\s+)?(?:dismissed|discontinued|exited)`,
	`ard\s+committee.*?(?:determined|decided).*?(?:dismiss|exit|discontinue)`,
	`progress\s+(?:sufficient|adequate).*?(?:dismiss|exit)`,
	`(?:has|have)\s+(?:been\s+)?(?:dismissed|exited)\s+from`,
	`(?:recommend|recommends|recommended)\s+(?:dismissal|exit)`,
	`goal\s+(?:mastered|met).*?(?:dismiss|exit|discontinue)`,
	`(?:closing|closure)\s+(?:of\s+)?(?:services?|goal)`,
}

var masteryPatterns = []string{
	`(?:goal|objective).*?(?:met|mastered|achieved|accomplished)`,
	`(?:met|mastered|achieved).*?(?:goal|objective|benchmark|criteria)`,
	`progress.*?(?:sufficient|adequate|satisfactory)`,
	`(?:demonstrate[ds]?|show[ns]?).*?(?:mastery|proficiency)`,
	`(?:no\s+longer\s+)?(?:requires?|needs?).*?(?:specially\s+designed\s+instruction|sdi)`,
	`performing.*?(?:at|above).*?(?:grade|level|standard)`,
}

var (
	sldAreas            = compileSLDAreas()
	eligibilitySpanExpr = regexp.MustCompile(`(?s)determination\s*of\s*eligibility.*?(?:present\s*levels|plaafp)`)
)

// nearby builds both orderings of a and b separated by at most gap runes
func nearby(a, b, gap string) []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`(?:` + a + `).{0,` + gap + `}(?:` + b + `)`),
		regexp.MustCompile(`(?:` + b + `).{0,` + gap + `}(?:` + a + `)`),
	}
}

func compileSLDAreas() []sldArea {
	areas := make([]sldArea, 0, len(sldAreaPatterns))
	for _, a := range sldAreaPatterns {
		name := strings.ReplaceAll(strings.ToLower(a.name), " ", `\s*`)
		area := sldArea{name: a.name, pattern: regexp.MustCompile(a.pattern)}
		for _, d := range dismissalPatterns {
			area.dismissal = append(area.dismissal, nearby(d, name, "100")...)
		}
		for _, m := range masteryPatterns {
			area.mastery = append(area.mastery, nearby(name, m, "200")...)
		}
		areas = append(areas, area)
	}
	return areas
}

func sldAreaByName(name string) sldArea {
	for _, a := range sldAreas {
		if a.name == name {
			return a
		}
	}
	return sldArea{name: name}
}

func anyMatch(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// AnalyzeSLD compares the SLD areas identified in evaluations with the
// eligibility areas of the latest IEP and explains every area that dropped out
func AnalyzeSLD(c documents.Collection) SLDConsistency {
	result := SLDConsistency{
		FIEAreas:                 []string{},
		CurrentIEPAreas:          []string{},
		MissingFromIEP:           []string{},
		DismissedAreas:           []SLDAreaNote{},
		PotentiallyMasteredAreas: []SLDAreaNote{},
		AddedToIEP:               []string{},
	}

	evaluations := documents.OfType(documents.DocumentTypeFIE, documents.DocumentTypeFIIE, documents.DocumentTypeREED)
	for _, doc := range c.Filter(evaluations) {
		text := strings.ToLower(c.Text(doc))
		for _, area := range sldAreas {
			if area.pattern.MatchString(text) && !contains(result.FIEAreas, area.name) {
				result.FIEAreas = append(result.FIEAreas, area.name)
			}
		}
	}

	if latest, ok := c.Latest(documents.IsIEP); ok {
		span := eligibilitySpanExpr.FindString(strings.ToLower(c.Text(latest)))
		if span != "" {
			for _, area := range sldAreas {
				if area.pattern.MatchString(span) {
					result.CurrentIEPAreas = append(result.CurrentIEPAreas, area.name)
				}
			}
		}
	}

	lowered := make([]string, len(c.Documents))
	for i, doc := range c.Documents {
		lowered[i] = strings.ToLower(c.Text(doc))
	}

	for _, name := range result.FIEAreas {
		if contains(result.CurrentIEPAreas, name) {
			continue
		}
		area := sldAreaByName(name)
		explained := false
		for i, doc := range c.Documents {
			note := SLDAreaNote{Area: area.name, Document: doc.Filename, Date: doc.Date}
			if anyMatch(area.dismissal, lowered[i]) {
				result.DismissedAreas = append(result.DismissedAreas, note)
				explained = true
				break
			}
			if anyMatch(area.mastery, lowered[i]) {
				note.Note = masteryNote
				result.PotentiallyMasteredAreas = append(result.PotentiallyMasteredAreas, note)
				explained = true
				break
			}
		}
		if !explained {
			result.MissingFromIEP = append(result.MissingFromIEP, area.name)
		}
	}

	for _, area := range result.CurrentIEPAreas {
		if !contains(result.FIEAreas, area) {
			result.AddedToIEP = append(result.AddedToIEP, area)
		}
	}

	result.Consistent = len(result.MissingFromIEP) == 0 && len(result.PotentiallyMasteredAreas) == 0
	return result
}
