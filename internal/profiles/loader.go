package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// File names of the district exports inside the reference folder
const (
	GoalsFile           = "Goals_By_Student-4.csv"
	AccommodationsFile  = "Student_Accommodations-9.csv"
	TELPASFile          = "Telpas_By_Student-2.csv"
	BIPFile             = "IEP_Students_With_A_BIP-2.csv"
	TransportationFile  = "Transportation_By_Student.csv"
	ComplianceTableFile = "COMPLIANCE_TABLE__ALL_CASE_MANAGERS.xlsx"

	AssessmentSheet = "Assessment Profiles"
	studentIDColumn = "Student ID"
)

const (
	transportReasonColumn    = "The committee agrees that the student requires special transportation for the following reasons"
	specialVehicleColumn     = "Does the student require a specially adapted vehicle?"
	transportAccomColumn     = "Does the student require accommodations?"
	transportAccomTypeColumn = "Accommodation Type"
)

// Sources locates every reference table
type Sources struct {
	ReferenceFolder      string
	OutputFolder         string
	StudentProfileFolder string
	AssessmentProfile    string
}

// Loader reads the reference tables for one student at a time
type Loader struct {
	sources Sources
	logger  *slog.Logger
}

// NewLoader creates a loader over the given sources
func NewLoader(sources Sources, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{sources: sources, logger: logger}
}

// LoadAll loads every profile. Unreadable sources are logged and left nil;
// the assessment profile is loaded first because TELPAS depends on it.
func (l *Loader) LoadAll(studentID string) Profiles {
	var p Profiles
	var err error

	if p.Assessment, err = l.LoadAssessment(studentID); err != nil {
		l.warn("assessment profile", err)
	}
	if p.Student, err = l.LoadStudentProfile(studentID); err != nil {
		l.warn("student profile", err)
	}
	if p.Compliance, err = l.LoadCompliance(studentID); err != nil {
		l.warn("compliance table", err)
	}
	if p.Accommodations, err = l.LoadAccommodations(studentID); err != nil {
		l.warn("accommodations table", err)
	}
	if p.Goals, err = l.LoadGoals(studentID); err != nil {
		l.warn("goals table", err)
	}
	if p.TELPAS, err = l.LoadTELPAS(studentID, p.Assessment); err != nil {
		l.warn("TELPAS table", err)
	}
	if p.Behavior, err = l.LoadBehavior(studentID); err != nil {
		l.warn("BIP table", err)
	}
	if p.Transportation, err = l.LoadTransportation(studentID); err != nil {
		l.warn("transportation table", err)
	}

	l.logger.Debug("profiles loaded",
		"student_id", studentID,
		"assessment", p.Assessment != nil,
		"student", p.Student != nil,
		"compliance", p.Compliance != nil,
		"accommodations", p.Accommodations != nil,
		"goals", p.Goals != nil,
		"telpas", p.TELPAS != nil,
		"behavior", p.Behavior != nil,
		"transportation", p.Transportation != nil)
	return p
}

func (l *Loader) warn(source string, err error) {
	l.logger.Warn("could not load "+source, "error", err)
}

func (l *Loader) reference(name string) string {
	return filepath.Join(l.sources.ReferenceFolder, name)
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// studentRows reads a CSV export and returns the student's rows. A missing
// file or missing id column yields no rows and no error.
func studentRows(path, studentID string) (*Table, []Row, error) {
	if !exists(path) {
		return nil, nil, nil
	}
	table, err := ReadCSV(path)
	if err != nil {
		return nil, nil, err
	}
	if !table.HasColumn(studentIDColumn) {
		return table, nil, nil
	}
	return table, table.Where(studentIDColumn, studentID), nil
}

// LoadAssessment reads the student's row of the assessment profile workbook
func (l *Loader) LoadAssessment(studentID string) (*AssessmentProfile, error) {
	path := l.sources.AssessmentProfile
	if !exists(path) {
		return nil, nil
	}
	table, err := ReadXLSX(path, AssessmentSheet)
	if err != nil {
		return nil, err
	}
	if !table.HasColumn(studentIDColumn) {
		return nil, fmt.Errorf("%s has no %q column", path, studentIDColumn)
	}
	rows := table.Where(studentIDColumn, studentID)
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	return &AssessmentProfile{
		StudentName:                 row.Opt("Student Name"),
		Grade:                       optInt(row.Get("Grade")),
		PrimaryDisability:           row.Opt("Primary Disability"),
		SecondaryDisability:         row.Opt("Secondary Disability"),
		TertiaryDisability:          row.Opt("Tertiary Disability"),
		LLEMeetingDate:              row.Opt("LLE Meeting Date"),
		AssessmentPathway:           row.Opt("Assessment Pathway"),
		STAARAlt2:                   row.Opt("STAAR Alt 2"),
		STAARAlt2Summary:            row.Opt("STAAR Alt 2 Summary"),
		ConsideredForSTAARAlt2:      row.Opt("Considered for STAAR Alt 2"),
		MedicalEligibility:          row.Opt("Medical Eligibility"),
		NAAREligibility:             row.Opt("NAAR Eligibility"),
		TELPASType:                  row.Opt("TELPAS Type"),
		TELPASAlt:                   row.Opt("TELPAS Alt"),
		TELPASBasicTranscribing:     row.Opt("TELPAS: Basic Transcribing"),
		TELPASStructuredReminder:    row.Opt("TELPAS: Structured Reminder"),
		TELPASLargePrint:            row.Opt("TELPAS: Large Print"),
		TELPASManipulatingMaterials: row.Opt("TELPAS: Manipulating Materials"),
		TestingAccommodationCount:   intOrZero(row.Get("Testing Accommodation Count")),
		TestingAccommodations:       row.Opt("Testing Accommodations"),
		AllAccommodationCount:       intOrZero(row.Get("All Accommodation Count")),
		AllAccommodations:           row.Opt("All Accommodations"),
	}, nil
}

// optInt parses integer cells, including "5.0", and returns nil otherwise
func optInt(s string) *int {
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}

func intOrZero(s string) int {
	if n := optInt(s); n != nil {
		return *n
	}
	return 0
}

// LoadStudentProfile reads <student_profile_folder>/<id>.json verbatim
func (l *Loader) LoadStudentProfile(studentID string) (json.RawMessage, error) {
	if l.sources.StudentProfileFolder == "" {
		return nil, nil
	}
	path := filepath.Join(l.sources.StudentProfileFolder, studentID+".json")
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}

// LoadCompliance reads the combined compliance table, preferring the copy
// in the output folder over the reference folder
func (l *Loader) LoadCompliance(studentID string) (*ComplianceProfile, error) {
	candidates := []string{
		filepath.Join(l.sources.OutputFolder, ComplianceTableFile),
		l.reference(ComplianceTableFile),
	}

	var table *Table
	var lastErr error
	for _, path := range candidates {
		if !exists(path) {
			continue
		}
		t, err := ReadXLSX(path, "")
		if err != nil {
			lastErr = err
			continue
		}
		table = t
		break
	}
	if table == nil {
		return nil, lastErr
	}

	idColumn := table.FindColumn("student", "id")
	if idColumn == "" {
		return nil, nil
	}
	rows := table.Where(idColumn, studentID)
	if len(rows) == 0 {
		return nil, nil
	}

	row := rows[0]
	pick := func(needles ...string) *string {
		column := table.FindColumn(needles...)
		if column == "" {
			return nil
		}
		return row.Opt(column)
	}

	return &ComplianceProfile{
		SourceFile:              table.Source,
		ProgramName:             pick("program"),
		FundingSource:           pick("funding"),
		Transportation:          pick("transport"),
		AlternateAssessment:     pick("alt", "assessment"),
		PrimaryDisabilityCode:   pick("primary", "disab"),
		SecondaryDisabilityCode: pick("secondary", "disab"),
		EvaluationDueDate:       pick("fie", "due"),
		REEDDueDate:             pick("reed", "due"),
		NextARDDate:             pick("next", "ard"),
	}, nil
}

// LoadAccommodations buckets the student's accommodations. Rows without a
// recognised type count as classroom accommodations.
func (l *Loader) LoadAccommodations(studentID string) (*AccommodationsProfile, error) {
	table, rows, err := studentRows(l.reference(AccommodationsFile), studentID)
	if err != nil || len(rows) == 0 {
		return nil, err
	}

	classroom := []string{}
	testing := []string{}
	for _, row := range rows {
		name := row.Get("Accommodation Name")
		if name == "" {
			continue
		}
		label := name
		if subjects := row.Get("Subjects"); subjects != "" {
			label = fmt.Sprintf("%s (%s)", name, subjects)
		}

		kind := strings.ToLower(row.Get("Accommodation Type"))
		switch {
		case strings.Contains(kind, "testing"):
			testing = appendUnique(testing, label)
		default:
			classroom = appendUnique(classroom, label)
		}
	}

	all := []string{}
	for _, item := range append(append([]string{}, classroom...), testing...) {
		all = appendUnique(all, item)
	}
	if len(all) == 0 {
		return nil, nil
	}

	return &AccommodationsProfile{
		SourceFile:              table.Source,
		HasAccommodations:       true,
		ClassroomAccommodations: classroom,
		TestingAccommodations:   testing,
		AllAccommodations:       all,
	}, nil
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

// LoadGoals summarises the student's goals, preferring ACTIVE plans
func (l *Loader) LoadGoals(studentID string) (*GoalsProfile, error) {
	table, rows, err := studentRows(l.reference(GoalsFile), studentID)
	if err != nil || len(rows) == 0 {
		return nil, err
	}

	var active []Row
	for _, row := range rows {
		if strings.EqualFold(row.Get("Status"), "ACTIVE") {
			active = append(active, row)
		}
	}
	if len(active) == 0 {
		active = rows
	}

	profile := &GoalsProfile{
		SourceFile:   table.Source,
		DomainCounts: map[string]int{},
		Goals:        []GoalRecord{},
	}
	for _, row := range active {
		domain := row.Get("Domain")
		name := row.Get("Custom Goal Name")
		if name == "" {
			name = row.Get("Goal Description")
		}

		if domain != "" {
			profile.DomainCounts[domain]++
		}
		lower := strings.ToLower(domain)
		if strings.Contains(lower, "behavior") || strings.Contains(lower, "sel") {
			profile.HasBehaviorGoal = true
		}

		profile.Goals = append(profile.Goals, GoalRecord{
			Domain:           domain,
			Name:             name,
			Description:      row.Get("Goal Description"),
			IsAcademic:       row.Yes("Is Academic Goal Type"),
			IsFunctional:     row.Yes("Is Functional Goal Type"),
			IsRelatedService: row.Yes("Is Related Services Goal Type"),
			IsTransition:     row.Yes("Is Transition Related"),
		})
	}
	profile.TotalGoals = len(profile.Goals)
	return profile, nil
}

var telpasAccommodations = []struct {
	column string
	label  string
	fromAP func(*AssessmentProfile) *string
}{
	{"Basic Transcribing", "Basic Transcribing", func(a *AssessmentProfile) *string { return a.TELPASBasicTranscribing }},
	{"Individualized Structured Reminder", "Individualized Structured Reminder", func(a *AssessmentProfile) *string { return a.TELPASStructuredReminder }},
	{"Large Print", "Large Print", func(a *AssessmentProfile) *string { return a.TELPASLargePrint }},
	{"Manipulating Test Materials", "Manipulating Test Materials", func(a *AssessmentProfile) *string { return a.TELPASManipulatingMaterials }},
}

// scheduleKey orders TELPAS rows chronologically when the date parses and
// lexically otherwise
func scheduleKey(s string) string {
	for _, layout := range []string{"1/2/2006", "2006-01-02", "01/02/2006", "1/2/06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// LoadTELPAS merges the latest TELPAS row with the TELPAS columns of the
// assessment profile
func (l *Loader) LoadTELPAS(studentID string, assessment *AssessmentProfile) (*TELPASProfile, error) {
	path := l.reference(TELPASFile)
	_, rows, err := studentRows(path, studentID)
	if err != nil {
		l.warn("TELPAS table", err)
	}

	var row *Row
	if len(rows) > 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			return scheduleKey(rows[i].Get("Schedule Date")) < scheduleKey(rows[j].Get("Schedule Date"))
		})
		row = &rows[len(rows)-1]
	}

	if row == nil && (assessment == nil || assessment.TELPASType == nil) {
		return nil, nil
	}

	profile := &TELPASProfile{
		SourceFiles:    []*string{existingPath(path), existingPath(l.sources.AssessmentProfile)},
		Domains:        map[string]string{},
		Accommodations: []string{},
	}

	if row != nil {
		for _, key := range []string{"Reading", "Speaking", "Writing", "Listening"} {
			if v := row.Get(key); v != "" {
				profile.Domains[strings.ToLower(key)] = v
			}
		}
	}

	if assessment != nil {
		for _, acc := range telpasAccommodations {
			if v := acc.fromAP(assessment); v != nil && *v != "" {
				profile.Accommodations = appendUnique(profile.Accommodations, acc.label)
			}
		}
	}
	if row != nil {
		for _, acc := range telpasAccommodations {
			if row.Yes(acc.column) {
				profile.Accommodations = appendUnique(profile.Accommodations, acc.label)
			}
		}
	}

	if assessment != nil && assessment.TELPASType != nil {
		profile.TELPASType = assessment.TELPASType
	} else if row != nil {
		profile.TELPASType = row.Opt("Reading")
	}
	profile.HasTELPAS = row != nil || profile.TELPASType != nil

	if row != nil {
		profile.EventName = row.Opt("Event Name")
		profile.ScheduleDate = row.Opt("Schedule Date")
		profile.PlanStartDate = row.Opt("Plan Start Date")
		profile.PlanEndDate = row.Opt("Plan End Date")
	}
	return profile, nil
}

func existingPath(path string) *string {
	if !exists(path) {
		return nil
	}
	return &path
}

// LoadBehavior infers BIP and FBA status from any of the student's rows and
// collects the behaviour services
func (l *Loader) LoadBehavior(studentID string) (*BehaviorIntervention, error) {
	table, rows, err := studentRows(l.reference(BIPFile), studentID)
	if err != nil || len(rows) == 0 {
		return nil, err
	}

	profile := &BehaviorIntervention{
		SourceFile: table.Source,
		Services:   []BehaviorService{},
	}
	for _, row := range rows {
		if row.Yes("BIP") {
			profile.HasBIP = true
		}
		if row.Yes("FBA indicator") {
			profile.HasFBA = true
			if profile.FBADate == nil {
				profile.FBADate = row.Opt("FBA Date")
			}
		}
		if profile.PrimaryDisabilities == nil {
			profile.PrimaryDisabilities = row.Opt("Disabilities")
		}
		if profile.ProgramName == nil {
			profile.ProgramName = row.Opt("Sped Program Name")
		}
		if profile.InstructionalSetting == nil {
			profile.InstructionalSetting = row.Opt("Instructional setting code")
		}

		serviceName := row.Get("Service Name")
		if serviceName == "" {
			continue
		}
		service := row.Get("Service")
		if service == "" {
			service = serviceName
		}
		profile.Services = append(profile.Services, BehaviorService{
			Service:           service,
			ServiceName:       serviceName,
			Location:          row.Opt("Service Location"),
			StartDate:         row.Opt("Start Date"),
			EndDate:           row.Opt("End Date"),
			Sessions:          row.Opt("# of Sessions"),
			MinutesPerSession: row.Opt("Min/Session"),
			Frequency:         row.Opt("How Often"),
		})
	}
	return profile, nil
}

// LoadTransportation reads the student's first transportation row
func (l *Loader) LoadTransportation(studentID string) (*TransportationProfile, error) {
	table, rows, err := studentRows(l.reference(TransportationFile), studentID)
	if err != nil || len(rows) == 0 {
		return nil, err
	}

	row := rows[0]
	profile := &TransportationProfile{SourceFile: table.Source}

	if reasons := row.Opt(transportReasonColumn); reasons != nil {
		profile.TransportationReasons = reasons
		profile.RequiresTransportation = true
	}
	if row.Has(specialVehicleColumn) {
		value := strings.ToLower(row.Get(specialVehicleColumn))
		profile.RequiresSpecialVehicle = value == "yes"
		if value != "" {
			profile.SpecialVehicleDetail = &value
		}
	}
	profile.RequiresTransportAccommodations = row.Yes(transportAccomColumn)
	profile.TransportAccommodationType = row.Opt(transportAccomTypeColumn)
	return profile, nil
}
