package analysis

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/a3tai/iep-deep-dive/internal/profiles"
)

// MAPSubjectSummary is the per-subject view of a MAP result
type MAPSubjectSummary struct {
	RITScore         float64  `json:"rit_score"`
	RITRange         *string  `json:"rit_range"`
	Percentile       float64  `json:"percentile"`
	Lexile           *string  `json:"lexile"`
	Quantile         *string  `json:"quantile"`
	GrowthPercentile *float64 `json:"growth_percentile"`
	Quadrant         *string  `json:"quadrant"`
	ProjectedSTAAR   *string  `json:"projected_staar"`
	AchievementLevel string   `json:"achievement_level"`
}

// MAPSummary holds the subjects that carry a RIT score
type MAPSummary struct {
	Mathematics *MAPSubjectSummary `json:"mathematics,omitempty"`
	Reading     *MAPSubjectSummary `json:"reading,omitempty"`
	Language    *MAPSubjectSummary `json:"language,omitempty"`
}

// MAPGoalRecommendation is a suggested goal area
type MAPGoalRecommendation struct {
	Subject      string `json:"subject"`
	Area         string `json:"area"`
	CurrentLevel string `json:"current_level"`
	GoalTemplate string `json:"goal_template"`
}

// MAPGrowth is the growth status of one subject
type MAPGrowth struct {
	GrowthPercentile float64 `json:"growth_percentile"`
	Status           string  `json:"status"`
}

// MAPGrowthStatus holds growth for the subjects that report it
type MAPGrowthStatus struct {
	Mathematics *MAPGrowth `json:"mathematics,omitempty"`
	Reading     *MAPGrowth `json:"reading,omitempty"`
}

// STAARProjection is the first projected STAAR outcome found. The zero
// value marshals as an empty object.
type STAARProjection struct {
	Projection  string `json:"projection,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Probability string `json:"probability,omitempty"`
}

// MAPAlert is a MAP-derived alert before compilation
type MAPAlert struct {
	Type           Severity `json:"type"`
	Source         string   `json:"source"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
}

// MAPAssessment is the map_assessment topic
type MAPAssessment struct {
	Available           bool                    `json:"available"`
	Message             string                  `json:"message,omitempty"`
	StudentID           string                  `json:"student_id"`
	Grade               string                  `json:"grade"`
	Summary             MAPSummary              `json:"summary"`
	PLAAFPStatements    []string                `json:"plaafp_statements"`
	GoalRecommendations []MAPGoalRecommendation `json:"goal_recommendations"`
	STAARProjection     STAARProjection         `json:"staar_projection"`
	GrowthStatus        MAPGrowthStatus         `json:"growth_status"`
	Analysis            json.RawMessage         `json:"analysis"`
	Alerts              []MAPAlert              `json:"alerts"`
}

// MarshalJSON renders an unavailable assessment as the two-key marker object
func (m MAPAssessment) MarshalJSON() ([]byte, error) {
	if !m.Available {
		return json.Marshal(struct {
			Available bool   `json:"available"`
			Message   string `json:"message"`
		}{false, m.Message})
	}
	type plain MAPAssessment
	return json.Marshal(plain(m))
}

const (
	mapSource      = "MAP Assessment"
	noMAPDataFound = "No MAP data found"
)

// mapSubjects fixes the order subjects are summarised and alerted on
var mapSubjects = []string{"mathematics", "reading", "language"}

func (s *MAPSummary) set(subject string, v *MAPSubjectSummary) {
	switch subject {
	case "mathematics":
		s.Mathematics = v
	case "reading":
		s.Reading = v
	case "language":
		s.Language = v
	}
}

func (s MAPSummary) get(subject string) *MAPSubjectSummary {
	switch subject {
	case "mathematics":
		return s.Mathematics
	case "reading":
		return s.Reading
	case "language":
		return s.Language
	}
	return nil
}

func optFlex(f profiles.FlexString) *string {
	if f == "" {
		return nil
	}
	s := string(f)
	return &s
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func achievementLevel(percentile float64) string {
	switch {
	case percentile < 40:
		return "Below Mean"
	case percentile < 60:
		return "At Mean"
	}
	return "Above Mean"
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// AnalyzeMAP summarises MAP data and derives its alerts. nil data yields the
// unavailable marker.
func AnalyzeMAP(data *profiles.MAPData) MAPAssessment {
	if data == nil {
		return MAPAssessment{Available: false, Message: noMAPDataFound}
	}

	result := MAPAssessment{
		Available:           true,
		StudentID:           string(data.StudentID),
		Grade:               string(data.Grade),
		PLAAFPStatements:    []string{},
		GoalRecommendations: []MAPGoalRecommendation{},
		Analysis:            json.RawMessage(`{}`),
		Alerts:              []MAPAlert{},
	}
	if len(data.Analysis) > 0 && string(data.Analysis) != "null" {
		result.Analysis = data.Analysis
	}

	for _, key := range mapSubjects {
		subject, ok := data.Subjects[key]
		if !ok || subject.RITScore == nil || *subject.RITScore == 0 {
			continue
		}
		percentile := 50.0
		if subject.Percentile != nil {
			percentile = *subject.Percentile
		}
		summary := &MAPSubjectSummary{
			RITScore:         *subject.RITScore,
			RITRange:         optFlex(subject.RITRange),
			Percentile:       percentile,
			Lexile:           optFlex(subject.QuantileLexile),
			GrowthPercentile: subject.GrowthPercentile,
			Quadrant:         optString(subject.Quadrant),
			ProjectedSTAAR:   optString(subject.ProjectedSTAAR),
			AchievementLevel: achievementLevel(percentile),
		}
		if key == "mathematics" {
			summary.Quantile = optFlex(subject.QuantileLexile)
		}
		result.Summary.set(key, summary)
	}

	for _, rec := range data.IEPRecommendations.PLAAFPStatements {
		result.PLAAFPStatements = append(result.PLAAFPStatements, rec.Statement)
	}
	for _, goal := range data.IEPRecommendations.GoalAreas {
		current := string(goal.CurrentRIT)
		if current == "" {
			current = "N/A"
		}
		result.GoalRecommendations = append(result.GoalRecommendations, MAPGoalRecommendation{
			Subject:      goal.Subject,
			Area:         goal.FocusArea,
			CurrentLevel: "RIT " + current,
			GoalTemplate: goal.SuggestedGoal,
		})
	}

	for _, key := range []string{"mathematics", "reading"} {
		subject, ok := data.Subjects[key]
		if !ok {
			continue
		}
		if subject.GrowthPercentile != nil && *subject.GrowthPercentile != 0 {
			status := subject.Quadrant
			if status == "" {
				status = "Unknown"
			}
			growth := &MAPGrowth{GrowthPercentile: *subject.GrowthPercentile, Status: status}
			if key == "mathematics" {
				result.GrowthStatus.Mathematics = growth
			} else {
				result.GrowthStatus.Reading = growth
			}
		}
		if result.STAARProjection.Projection == "" && subject.ProjectedSTAAR != "" {
			result.STAARProjection = STAARProjection{
				Projection:  subject.ProjectedSTAAR,
				Subject:     key,
				Probability: "N/A",
			}
		}
	}

	for _, key := range mapSubjects {
		s := result.Summary.get(key)
		if s == nil {
			continue
		}
		pct := formatNumber(s.Percentile)
		switch {
		case s.Percentile < 25:
			result.Alerts = append(result.Alerts, MAPAlert{
				Type:           SeverityHigh,
				Source:         mapSource,
				Message:        fmt.Sprintf("%s at %sth percentile - significantly below grade level", titleCase(key), pct),
				Recommendation: fmt.Sprintf("Review %s goals and accommodations", key),
			})
		case s.Percentile < 40:
			result.Alerts = append(result.Alerts, MAPAlert{
				Type:           SeverityMedium,
				Source:         mapSource,
				Message:        fmt.Sprintf("%s at %sth percentile - below average", titleCase(key), pct),
				Recommendation: fmt.Sprintf("Monitor %s progress closely", key),
			})
		}
	}

	switch result.STAARProjection.Projection {
	case "Did Not Meet":
		result.Alerts = append(result.Alerts, MAPAlert{
			Type:           SeverityCritical,
			Source:         mapSource,
			Message:        fmt.Sprintf("STAAR projection: DID NOT MEET (%s)", titleCase(result.STAARProjection.Subject)),
			Recommendation: "Immediate intervention needed; review testing accommodations",
		})
	case "Approaches":
		result.Alerts = append(result.Alerts, MAPAlert{
			Type:           SeverityHigh,
			Source:         mapSource,
			Message:        "STAAR projection: APPROACHES",
			Recommendation: "Additional support needed to reach Meets level",
		})
	}

	return result
}
