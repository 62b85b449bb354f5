package profiles

import "encoding/json"

// AssessmentProfile is the student's row of the Frontline assessment
// profile workbook
type AssessmentProfile struct {
	StudentName                 *string `json:"student_name"`
	Grade                       *int    `json:"grade"`
	PrimaryDisability           *string `json:"primary_disability"`
	SecondaryDisability         *string `json:"secondary_disability"`
	TertiaryDisability          *string `json:"tertiary_disability"`
	LLEMeetingDate              *string `json:"lle_meeting_date"`
	AssessmentPathway           *string `json:"assessment_pathway"`
	STAARAlt2                   *string `json:"staar_alt_2"`
	STAARAlt2Summary            *string `json:"staar_alt_2_summary"`
	ConsideredForSTAARAlt2      *string `json:"considered_for_staar_alt_2"`
	MedicalEligibility          *string `json:"medical_eligibility"`
	NAAREligibility             *string `json:"naar_eligibility"`
	TELPASType                  *string `json:"telpas_type"`
	TELPASAlt                   *string `json:"telpas_alt"`
	TELPASBasicTranscribing     *string `json:"telpas_basic_transcribing"`
	TELPASStructuredReminder    *string `json:"telpas_structured_reminder"`
	TELPASLargePrint            *string `json:"telpas_large_print"`
	TELPASManipulatingMaterials *string `json:"telpas_manipulating_materials"`
	TestingAccommodationCount   int     `json:"testing_accommodation_count"`
	TestingAccommodations       *string `json:"testing_accommodations"`
	AllAccommodationCount       int     `json:"all_accommodation_count"`
	AllAccommodations           *string `json:"all_accommodations"`
}

// ComplianceProfile holds the fields picked from the combined compliance
// table. Fields whose column is absent or empty are omitted.
type ComplianceProfile struct {
	SourceFile              string  `json:"source_file"`
	ProgramName             *string `json:"program_name,omitempty"`
	FundingSource           *string `json:"funding_source,omitempty"`
	Transportation          *string `json:"transportation,omitempty"`
	AlternateAssessment     *string `json:"alternate_assessment,omitempty"`
	PrimaryDisabilityCode   *string `json:"primary_disability_code,omitempty"`
	SecondaryDisabilityCode *string `json:"secondary_disability_code,omitempty"`
	EvaluationDueDate       *string `json:"evaluation_due_date,omitempty"`
	REEDDueDate             *string `json:"reed_due_date,omitempty"`
	NextARDDate             *string `json:"next_ard_date,omitempty"`
}

// AccommodationsProfile groups accommodations into classroom and testing
// buckets. Labels read "name (subjects)".
type AccommodationsProfile struct {
	SourceFile              string   `json:"source_file"`
	HasAccommodations       bool     `json:"has_accommodations"`
	ClassroomAccommodations []string `json:"classroom_accommodations"`
	TestingAccommodations   []string `json:"testing_accommodations"`
	AllAccommodations       []string `json:"all_accommodations"`
}

// GoalRecord is one goal row of the goals export
type GoalRecord struct {
	Domain           string `json:"domain"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	IsAcademic       bool   `json:"is_academic"`
	IsFunctional     bool   `json:"is_functional"`
	IsRelatedService bool   `json:"is_related_service"`
	IsTransition     bool   `json:"is_transition"`
}

// GoalsProfile summarises the student's current goals
type GoalsProfile struct {
	SourceFile      string         `json:"source_file"`
	TotalGoals      int            `json:"total_goals"`
	DomainCounts    map[string]int `json:"domain_counts"`
	Goals           []GoalRecord   `json:"goals"`
	HasBehaviorGoal bool           `json:"has_behavior_goal"`
}

// TELPASProfile merges the TELPAS export with the assessment profile
type TELPASProfile struct {
	SourceFiles    []*string         `json:"source_files"`
	HasTELPAS      bool              `json:"has_telpas"`
	TELPASType     *string           `json:"telpas_type"`
	Domains        map[string]string `json:"domains"`
	Accommodations []string          `json:"accommodations"`
	EventName      *string           `json:"event_name"`
	ScheduleDate   *string           `json:"schedule_date"`
	PlanStartDate  *string           `json:"plan_start_date"`
	PlanEndDate    *string           `json:"plan_end_date"`
}

// BehaviorService is one service row of the BIP export
type BehaviorService struct {
	Service           string  `json:"service"`
	ServiceName       string  `json:"service_name"`
	Location          *string `json:"location"`
	StartDate         *string `json:"start_date"`
	EndDate           *string `json:"end_date"`
	Sessions          *string `json:"sessions"`
	MinutesPerSession *string `json:"minutes_per_session"`
	Frequency         *string `json:"frequency"`
}

// BehaviorIntervention records BIP and FBA status
type BehaviorIntervention struct {
	SourceFile           string            `json:"source_file"`
	HasBIP               bool              `json:"has_bip"`
	HasFBA               bool              `json:"has_fba"`
	FBADate              *string           `json:"fba_date"`
	PrimaryDisabilities  *string           `json:"primary_disabilities"`
	ProgramName          *string           `json:"program_name"`
	InstructionalSetting *string           `json:"instructional_setting"`
	Services             []BehaviorService `json:"services"`
}

// TransportationProfile records special transportation needs
type TransportationProfile struct {
	SourceFile                      string  `json:"source_file"`
	RequiresTransportation          bool    `json:"requires_transportation"`
	TransportationReasons           *string `json:"transportation_reasons"`
	RequiresSpecialVehicle          bool    `json:"requires_special_vehicle"`
	SpecialVehicleDetail            *string `json:"special_vehicle_detail"`
	RequiresTransportAccommodations bool    `json:"requires_transport_accommodations"`
	TransportAccommodationType      *string `json:"transport_accommodation_type"`
}

// Profiles is every external source for one student. A nil field means
// the source was unavailable.
type Profiles struct {
	Assessment     *AssessmentProfile
	Student        json.RawMessage
	Compliance     *ComplianceProfile
	Accommodations *AccommodationsProfile
	Goals          *GoalsProfile
	TELPAS         *TELPASProfile
	Behavior       *BehaviorIntervention
	Transportation *TransportationProfile
}
