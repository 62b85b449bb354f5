package documents

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ClassificationRule maps filename keywords to a document type. A rule
// matches when every All keyword is present, at least one Any keyword is
// present (if any are listed) and no None keyword is present.
type ClassificationRule struct {
	Type DocumentType
	All  []string
	Any  []string
	None []string
}

// Matches reports whether the lower-cased filename satisfies the rule
func (r ClassificationRule) Matches(name string) bool {
	for _, kw := range r.All {
		if !strings.Contains(name, kw) {
			return false
		}
	}
	if len(r.Any) > 0 {
		found := false
		for _, kw := range r.Any {
			if strings.Contains(name, kw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, kw := range r.None {
		if strings.Contains(name, kw) {
			return false
		}
	}
	return true
}

// classificationRules is evaluated in order; the first matching rule wins.
var classificationRules = []ClassificationRule{
	{Type: DocumentTypeSignedIEP, All: []string{"iep", "signed"}},
	{Type: DocumentTypeIEP, All: []string{"iep"}},
	{Type: DocumentTypeREED, All: []string{"reed"}},
	{Type: DocumentTypeFIIE, All: []string{"fiie"}},
	{Type: DocumentTypeFIE, Any: []string{"fie", "full_individual", "full individual"}},
	{Type: DocumentTypeFIE, All: []string{"evaluation"}, None: []string{"speech", "psych"}},
	{Type: DocumentTypePsychological, Any: []string{"psych", "psychological"}},
	{Type: DocumentTypeObservation, All: []string{"observation"}},
	{Type: DocumentTypeSpeechLanguage, Any: []string{"speech", "language", "slp"}},
	{Type: DocumentTypeAudiological, Any: []string{"audiology", "audiological"}},
	{Type: DocumentTypeOT, Any: []string{"ot", "occupational"}},
	{Type: DocumentTypePT, Any: []string{"pt", "physical_therapy", "physical therapy"}},
	{Type: DocumentTypeOrientation, Any: []string{"orientation", "mobility"}},
	{Type: DocumentTypeBIP, Any: []string{"bip", "behavior_intervention"}},
	{Type: DocumentTypeFBA, Any: []string{"fba", "functional_behavior"}},
	{Type: DocumentTypePriorWritten, Any: []string{"pwn", "prior_written"}},
	{Type: DocumentTypeTransition, All: []string{"transition"}, None: []string{"iep"}},
	{Type: DocumentTypeSTAAR, All: []string{"staar"}},
	{Type: DocumentTypeMAP, Any: []string{"map", "nwea"}},
	{Type: DocumentTypeSection504, All: []string{"504"}},
}

// Rules returns a copy of the ordered classification table
func Rules() []ClassificationRule {
	out := make([]ClassificationRule, len(classificationRules))
	copy(out, classificationRules)
	return out
}

// ClassifyName returns the document type for a bare filename
func ClassifyName(filename string) DocumentType {
	name := strings.ToLower(filename)
	for _, rule := range classificationRules {
		if rule.Matches(name) {
			return rule.Type
		}
	}
	return DocumentTypeUnknown
}

var filenameDatePattern = regexp.MustCompile(`-(\d{8})-`)

// DateFromPath recovers the MMDDYYYY token embedded in a path. The first
// token wins; an invalid calendar date yields the unknown date.
func DateFromPath(path string) Date {
	m := filenameDatePattern.FindStringSubmatch(path)
	if m == nil {
		return ""
	}
	t, err := time.Parse("01022006", m[1])
	if err != nil {
		return ""
	}
	return Date(t.Format(DateLayout))
}

// Classify builds a Document from a path without touching the filesystem
func Classify(path string, size int64) Document {
	name := filepath.Base(path)
	return Document{
		Filename: name,
		Path:     path,
		Type:     ClassifyName(name),
		Date:     DateFromPath(path),
		Size:     size,
	}
}

// ClassifyFile classifies a file on disk, reading its size
func ClassifyFile(path string) (Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to stat document %s: %w", path, err)
	}
	return Classify(path, info.Size()), nil
}
