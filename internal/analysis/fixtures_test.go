package analysis

import (
	"time"

	"github.com/a3tai/iep-deep-dive/internal/documents"
)

type fixture struct {
	name string
	text string
}

// collectionOf classifies each fixture by file name and stores its text
func collectionOf(files ...fixture) documents.Collection {
	c := documents.Collection{StudentID: "10147287", Documents: []documents.Document{}, Corpus: documents.Corpus{}}
	for _, f := range files {
		doc := documents.Classify("ieps/"+f.name, int64(len(f.text)))
		c.Documents = append(c.Documents, doc)
		c.Corpus[doc.Filename] = f.text
	}
	return c
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
