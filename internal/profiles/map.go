package profiles

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ErrUnavailable is returned by a MAPSource that has no data for the student
var ErrUnavailable = errors.New("MAP data unavailable")

// FlexString accepts a JSON string or number
type FlexString string

// UnmarshalJSON keeps numbers in their literal form
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// MAPSubject is one subject block of an NWEA StudentProfile export
type MAPSubject struct {
	RITScore         *float64   `json:"rit_score"`
	RITRange         FlexString `json:"rit_range"`
	Percentile       *float64   `json:"percentile"`
	QuantileLexile   FlexString `json:"quantile_lexile"`
	GrowthPercentile *float64   `json:"growth_percentile"`
	Quadrant         string     `json:"quadrant"`
	ProjectedSTAAR   string     `json:"projected_staar"`
}

// MAPPLAAFPStatement is a present-levels sentence suggested from MAP data
type MAPPLAAFPStatement struct {
	Statement string `json:"statement"`
}

// MAPGoalArea is a goal area suggested from MAP data
type MAPGoalArea struct {
	Subject       string     `json:"subject"`
	FocusArea     string     `json:"focus_area"`
	CurrentRIT    FlexString `json:"current_rit"`
	SuggestedGoal string     `json:"suggested_goal"`
}

// MAPRecommendations holds the IEP suggestions derived from MAP data
type MAPRecommendations struct {
	PLAAFPStatements []MAPPLAAFPStatement `json:"plaafp_statements"`
	GoalAreas        []MAPGoalArea        `json:"goal_areas"`
}

// MAPData is a parsed NWEA MAP StudentProfile
type MAPData struct {
	StudentID          FlexString            `json:"student_id"`
	Grade              FlexString            `json:"grade"`
	Subjects           map[string]MAPSubject `json:"subjects"`
	IEPRecommendations MAPRecommendations    `json:"iep_recommendations"`
	Analysis           json.RawMessage       `json:"analysis"`
}

// MAPSource supplies MAP data for a student
type MAPSource interface {
	Load(studentID string) (*MAPData, error)
}

// NoMAPSource never has MAP data
type NoMAPSource struct{}

// Load always reports ErrUnavailable
func (NoMAPSource) Load(string) (*MAPData, error) {
	return nil, ErrUnavailable
}

// FileMAPSource reads MAP data from an explicit file or, when none is
// given, from the first StudentProfile export found in the reference folder
type FileMAPSource struct {
	Path            string
	ReferenceFolder string
	Logger          *slog.Logger
}

// Resolve returns the file to read for the student or "" when none exists
func (s FileMAPSource) Resolve(studentID string) string {
	if s.Path != "" {
		if exists(s.Path) {
			return s.Path
		}
		return ""
	}
	if s.ReferenceFolder == "" {
		return ""
	}
	for _, pattern := range []string{"*" + studentID + "*StudentProfile*", "*StudentProfile*"} {
		matches, err := filepath.Glob(filepath.Join(s.ReferenceFolder, pattern))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			switch strings.ToLower(filepath.Ext(m)) {
			case ".json", ".xlsx":
				return m
			}
		}
	}
	return ""
}

// Load reads and parses the resolved MAP file
func (s FileMAPSource) Load(studentID string) (*MAPData, error) {
	path := s.Resolve(studentID)
	if path == "" {
		return nil, ErrUnavailable
	}

	var data *MAPData
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = readMAPJSON(path)
	case ".xlsx":
		data, err = readMAPWorkbook(path)
	default:
		return nil, fmt.Errorf("unsupported MAP file type: %s", path)
	}
	if err != nil {
		return nil, err
	}

	if data.StudentID != "" && normalizeID(string(data.StudentID)) != normalizeID(studentID) {
		if s.Logger != nil {
			s.Logger.Warn("MAP file belongs to another student",
				"file", path, "expected", studentID, "found", string(data.StudentID))
		}
		return nil, ErrUnavailable
	}
	return data, nil
}

func readMAPJSON(path string) (*MAPData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read MAP file %s: %w", path, err)
	}
	var data MAPData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse MAP file %s: %w", path, err)
	}
	return &data, nil
}

// readMAPWorkbook reads a subject table: one row per subject with RIT,
// percentile and projection columns located by header keywords
func readMAPWorkbook(path string) (*MAPData, error) {
	table, err := ReadXLSX(path, "")
	if err != nil {
		return nil, err
	}

	subjectCol := table.FindColumn("subject")
	if subjectCol == "" {
		return nil, fmt.Errorf("MAP workbook %s has no subject column", path)
	}
	ritCol := firstColumn(table, []string{"rit", "score"}, []string{"rit"})
	rangeCol := table.FindColumn("rit", "range")
	percentileCol := firstColumnExcluding(table, "growth", []string{"achievement", "percentile"}, []string{"percentile"})
	growthCol := table.FindColumn("growth", "percentile")
	quadrantCol := table.FindColumn("quadrant")
	lexileCol := firstColumn(table, []string{"lexile"}, []string{"quantile"})
	staarCol := firstColumn(table, []string{"projected", "staar"}, []string{"staar"})
	idCol := table.FindColumn("student", "id")
	gradeCol := table.FindColumn("grade")

	data := &MAPData{Subjects: map[string]MAPSubject{}}
	for _, row := range table.Rows {
		key := subjectKey(row.Get(subjectCol))
		if key == "" {
			continue
		}
		if idCol != "" && data.StudentID == "" {
			data.StudentID = FlexString(row.Get(idCol))
		}
		if gradeCol != "" && data.Grade == "" {
			data.Grade = FlexString(row.Get(gradeCol))
		}

		subject := MAPSubject{
			RITScore:         optFloat(cell(row, ritCol)),
			RITRange:         FlexString(cell(row, rangeCol)),
			Percentile:       optFloat(cell(row, percentileCol)),
			QuantileLexile:   FlexString(cell(row, lexileCol)),
			GrowthPercentile: optFloat(cell(row, growthCol)),
			Quadrant:         cell(row, quadrantCol),
			ProjectedSTAAR:   cell(row, staarCol),
		}
		if _, seen := data.Subjects[key]; !seen {
			data.Subjects[key] = subject
		}
	}

	if len(data.Subjects) == 0 {
		return nil, fmt.Errorf("MAP workbook %s has no subject rows", path)
	}
	return data, nil
}

func cell(row Row, column string) string {
	if column == "" {
		return ""
	}
	return row.Get(column)
}

func firstColumn(t *Table, candidates ...[]string) string {
	for _, needles := range candidates {
		if c := t.FindColumn(needles...); c != "" {
			return c
		}
	}
	return ""
}

// firstColumnExcluding is firstColumn skipping headers containing exclude
func firstColumnExcluding(t *Table, exclude string, candidates ...[]string) string {
	for _, needles := range candidates {
		for _, h := range t.Header {
			name := strings.ToLower(h)
			if strings.Contains(name, exclude) {
				continue
			}
			ok := true
			for _, n := range needles {
				if !strings.Contains(name, n) {
					ok = false
					break
				}
			}
			if ok {
				return h
			}
		}
	}
	return ""
}

func subjectKey(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "math"):
		return "mathematics"
	case strings.Contains(name, "reading"):
		return "reading"
	case strings.Contains(name, "language"):
		return "language"
	case strings.Contains(name, "science"):
		return "science"
	}
	return ""
}

func optFloat(s string) *float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
