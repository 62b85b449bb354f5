package analysis

import "fmt"

// Findings are the topic results the alert compiler reads
type Findings struct {
	Evaluation EvaluationStatus
	CopyPaste  []CopyPasteIssue
	SLD        SLDConsistency
	Attention  AttentionFlags
	Dyslexia   DyslexiaStatus
	Goals      GoalAnalysis
	MAP        MAPAssessment
}

// Summary renders the issue as a one-line alert message
func (i CopyPasteIssue) Summary() string {
	switch i.Type {
	case IssueWrongName:
		return fmt.Sprintf("%s: %q in %s (expected %s)", i.Type, i.FoundName, i.Document, i.ExpectedName)
	case IssueStaleAttendance:
		return fmt.Sprintf("%s: attendance as of %s is %d days older than the IEP dated %s",
			i.Type, i.DataAsOf, i.DaysStale, i.IEPDate)
	case IssueStaleParentConcerns:
		return fmt.Sprintf("%s: %s", i.Type, truncate(i.TextPreview, 50))
	}
	return i.Type
}

// CompileAlerts turns the findings into the alert list. Topics are visited
// in a fixed order and their alerts concatenated; the list is never sorted.
func CompileAlerts(f Findings, p Policy) []Alert {
	alerts := []Alert{}
	add := func(sev Severity, category, message string) {
		alerts = append(alerts, Alert{Severity: sev, Category: category, Message: message})
	}

	if f.Evaluation.EvalOverdue && f.Evaluation.Alert != nil {
		add(SeverityCritical, "Evaluation", *f.Evaluation.Alert)
	}

	for _, issue := range f.CopyPaste {
		add(issue.Severity, "Copy/Paste", issue.Summary())
	}

	goalsMet := f.Goals.PreviousGoalsMet
	if !f.SLD.Consistent {
		for _, missing := range f.SLD.MissingFromIEP {
			if p.DowngradeMissingSLDWhenGoalsMet && goalsMet > 0 {
				add(SeverityInquiry, "SLD Verification Needed", fmt.Sprintf(
					"%s in FIE but not current IEP - verify: was goal mastered and SDI appropriately discontinued? (%d previous goals met)",
					missing, goalsMet))
				continue
			}
			add(SeverityHigh, "SLD Consistency",
				fmt.Sprintf("%s identified in FIE but missing from current IEP eligibility", missing))
		}
	}
	for _, mastered := range f.SLD.PotentiallyMasteredAreas {
		add(SeverityInquiry, "SLD Verification Needed", fmt.Sprintf(
			"%s: Goal mastery language found - verify if SDI is still required or if area was appropriately dismissed",
			mastered.Area))
	}
	for _, dismissed := range f.SLD.DismissedAreas {
		date := string(dismissed.Date)
		if !dismissed.Date.Known() {
			date = "undated"
		}
		add(SeverityInfo, "SLD Dismissed",
			fmt.Sprintf("%s formally dismissed/exited (documented %s)", dismissed.Area, date))
	}

	if f.Attention.Recommendation != nil {
		add(SeverityInquiry, "Attention / Possible ADHD", *f.Attention.Recommendation)
	}
	if f.Dyslexia.Recommendation != nil {
		add(SeverityMedium, "Dyslexia", *f.Dyslexia.Recommendation)
	}

	if f.MAP.Available {
		for _, a := range f.MAP.Alerts {
			alert := Alert{Severity: a.Type, Category: a.Source, Message: a.Message}
			if a.Recommendation != "" {
				alert.Recommendation = strPtr(a.Recommendation)
			}
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

// SeverityCounts tallies an alert list by severity
type SeverityCounts struct {
	Critical int
	High     int
	Medium   int
	Inquiry  int
	Info     int
}

// CountSeverities counts alerts in one pass
func CountSeverities(alerts []Alert) SeverityCounts {
	var c SeverityCounts
	for _, a := range alerts {
		switch a.Severity {
		case SeverityCritical:
			c.Critical++
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		case SeverityInquiry:
			c.Inquiry++
		case SeverityInfo:
			c.Info++
		}
	}
	return c
}
