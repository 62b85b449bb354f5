package documents

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// DocumentType represents the category a special-education document belongs to
type DocumentType string

const (
	DocumentTypeSignedIEP      DocumentType = "Signed IEP"
	DocumentTypeIEP            DocumentType = "IEP"
	DocumentTypeREED           DocumentType = "REED"
	DocumentTypeFIIE           DocumentType = "FIIE"
	DocumentTypeFIE            DocumentType = "FIE"
	DocumentTypePsychological  DocumentType = "Psychological Evaluation"
	DocumentTypeObservation    DocumentType = "Classroom Observation"
	DocumentTypeSpeechLanguage DocumentType = "Speech/Language Evaluation"
	DocumentTypeAudiological   DocumentType = "Audiological Evaluation"
	DocumentTypeOT             DocumentType = "OT Evaluation"
	DocumentTypePT             DocumentType = "PT Evaluation"
	DocumentTypeOrientation    DocumentType = "Orientation & Mobility"
	DocumentTypeBIP            DocumentType = "BIP"
	DocumentTypeFBA            DocumentType = "FBA"
	DocumentTypePriorWritten   DocumentType = "Prior Written Notice"
	DocumentTypeTransition     DocumentType = "Transition Assessment"
	DocumentTypeSTAAR          DocumentType = "STAAR Report"
	DocumentTypeMAP            DocumentType = "MAP Report"
	DocumentTypeSection504     DocumentType = "Section 504 Plan"
	DocumentTypeUnknown        DocumentType = "Unknown"
)

// IsIEP reports whether the type is an IEP, signed or not
func (t DocumentType) IsIEP() bool {
	return t == DocumentTypeIEP || t == DocumentTypeSignedIEP
}

// IsFullEvaluation reports whether the type is a full individual evaluation
func (t DocumentType) IsFullEvaluation() bool {
	return t == DocumentTypeFIE || t == DocumentTypeFIIE
}

// DateLayout is the layout of every document date
const DateLayout = "2006-01-02"

// Date is a calendar date in YYYY-MM-DD form. The zero value means unknown
// and marshals to JSON null.
type Date string

// MarshalJSON renders an unknown date as null
func (d Date) MarshalJSON() ([]byte, error) {
	if d == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(d))
}

// UnmarshalJSON accepts null or a string
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = Date(s)
	return nil
}

// Known reports whether the date was recovered
func (d Date) Known() bool {
	return d != ""
}

// Time parses the date. ok is false for an unknown or malformed date.
func (d Date) Time() (time.Time, bool) {
	if d == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Document is one classified file belonging to a student
type Document struct {
	Filename string       `json:"filename"`
	Path     string       `json:"path"`
	Type     DocumentType `json:"type"`
	Date     Date         `json:"date"`
	Size     int64        `json:"size"`
}

// Corpus maps a document filename to its extracted text. A failed
// extraction is stored as a string beginning with ErrorMarker.
type Corpus map[string]string

// ErrorMarker prefixes corpus entries whose extraction failed
const ErrorMarker = "ERROR: "

// Failed reports whether the entry for filename records an extraction failure
func (c Corpus) Failed(filename string) bool {
	return strings.HasPrefix(c[filename], ErrorMarker)
}

// Collection is the discovered document set of one student together with
// the extracted text of each document
type Collection struct {
	StudentID string
	Documents []Document
	Corpus    Corpus
}

// Text returns the extracted text of a document, empty when missing
func (c Collection) Text(doc Document) string {
	return c.Corpus[doc.Filename]
}

// Filter returns the documents matching pred in discovery order
func (c Collection) Filter(pred func(Document) bool) []Document {
	var out []Document
	for _, d := range c.Documents {
		if pred(d) {
			out = append(out, d)
		}
	}
	return out
}

// Latest returns the newest document matching pred. Documents are ordered by
// date descending, unknown dates last, with ties broken by filename ascending.
func (c Collection) Latest(pred func(Document) bool) (Document, bool) {
	docs := SortNewestFirst(c.Filter(pred))
	if len(docs) == 0 {
		return Document{}, false
	}
	return docs[0], true
}

// SortNewestFirst returns a copy of docs sorted by date descending and
// filename ascending
func SortNewestFirst(docs []Document) []Document {
	out := make([]Document, len(docs))
	copy(out, docs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].Filename < out[j].Filename
	})
	return out
}

// SortOldestFirst returns a copy of docs sorted by date ascending and
// filename ascending
func SortOldestFirst(docs []Document) []Document {
	out := make([]Document, len(docs))
	copy(out, docs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Filename < out[j].Filename
	})
	return out
}

// IsIEP matches IEP and Signed IEP documents
func IsIEP(d Document) bool { return d.Type.IsIEP() }

// IsDatedIEP matches IEP documents with a known date
func IsDatedIEP(d Document) bool { return d.Type.IsIEP() && d.Date.Known() }

// IsFullEvaluation matches FIE and FIIE documents
func IsFullEvaluation(d Document) bool { return d.Type.IsFullEvaluation() }

// OfType returns a predicate matching any of the given types
func OfType(types ...DocumentType) func(Document) bool {
	return func(d Document) bool {
		for _, t := range types {
			if d.Type == t {
				return true
			}
		}
		return false
	}
}
