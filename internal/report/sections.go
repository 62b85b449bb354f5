package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/a3tai/iep-deep-dive/internal/analysis"
	"github.com/a3tai/iep-deep-dive/internal/documents"
)

func writeInventory(b *strings.Builder, docs []documents.Document) {
	section(b, "📁 Document Inventory")
	if len(docs) == 0 {
		b.WriteString("*No documents found.*\n")
		return
	}
	b.WriteString("| Document | Type | Date |\n|----------|------|------|\n")
	for _, d := range docs {
		fmt.Fprintf(b, "| %s | %s | %s |\n", d.Filename, d.Type, dateOr(d.Date, "Unknown"))
	}
}

func writeFindingAlerts(b *strings.Builder, alerts []string) {
	if len(alerts) == 0 {
		return
	}
	b.WriteString("\n**Alerts:**\n")
	for _, a := range alerts {
		fmt.Fprintf(b, "- ⚠️ %s\n", a)
	}
}

func writeFIE(b *strings.Builder, f analysis.FIEData) {
	section(b, "🧪 Full Individual Evaluation")
	if !f.Available {
		b.WriteString("*No FIE found.*\n")
		return
	}
	fmt.Fprintf(b, "- **Document:** %s\n", deref(f.Document, "Unknown"))
	fmt.Fprintf(b, "- **Evaluation Date:** %s\n", dateOr(f.EvaluationDate, "Unknown"))
	fmt.Fprintf(b, "- **Eligible Disability:** %s\n", deref(f.EligibleDisability, "Not found"))
	fmt.Fprintf(b, "- **SLD Areas:** %s\n", joinOr(f.SLDAreas, "None"))
	fmt.Fprintf(b, "- **Tests Administered:** %s\n", joinOr(f.TestsAdministered, "Not found"))
	fmt.Fprintf(b, "- **Reevaluation Due:** %s\n", dateOr(f.ReevaluationDueDate, "Unknown"))

	if len(f.Scores) > 0 {
		names := make([]string, 0, len(f.Scores))
		for name := range f.Scores {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("\n| Test | Standard Score | Percentile |\n|------|----------------|------------|\n")
		for _, name := range names {
			s := f.Scores[name]
			fmt.Fprintf(b, "| %s | %d | %d |\n", name, s.StandardScore, s.Percentile)
		}
	}
	writeFindingAlerts(b, f.Alerts)
}

func writeREED(b *strings.Builder, r analysis.REEDData) {
	section(b, "🔁 Review of Existing Evaluation Data")
	if !r.Available {
		b.WriteString("*No REED found.*\n")
		return
	}
	fmt.Fprintf(b, "- **Document:** %s\n", deref(r.Document, "Unknown"))
	fmt.Fprintf(b, "- **REED Date:** %s\n", dateOr(r.REEDDate, "Unknown"))
	fmt.Fprintf(b, "- **Decision:** %s\n", deref(r.Decision, "Unclear"))
	fmt.Fprintf(b, "- **Parent Notified:** %s\n", yesNo(r.ParentNotified))
	fmt.Fprintf(b, "- **Parent Response:** %s\n", deref(r.ParentResponse, "Not documented"))
	fmt.Fprintf(b, "- **Existing Data Reviewed:** %s\n", joinOr(r.ExistingDataReviewed, "Not found"))
	if len(r.DataTypesNeeded) > 0 {
		fmt.Fprintf(b, "- **Data Needed:** %s\n", strings.Join(r.DataTypesNeeded, ", "))
	}
	writeFindingAlerts(b, r.Alerts)
}

func writeServices(b *strings.Builder, s analysis.IEPServices) {
	section(b, "🏫 IEP Services")
	if !s.Available {
		b.WriteString("*No IEP found.*\n")
		return
	}
	fmt.Fprintf(b, "- **IEP Dates:** %s to %s\n", deref(s.IEPStartDate, "?"), deref(s.IEPEndDate, "?"))
	fmt.Fprintf(b, "- **Service Minutes per Week:** %d\n", s.ServicesTotalMinutesPerWeek)
	fmt.Fprintf(b, "- **ESY Considered:** %s\n", s.ESYConsidered)
	at := "Unknown"
	if s.ATConsidered != nil {
		at = yesNo(*s.ATConsidered)
	}
	fmt.Fprintf(b, "- **Assistive Technology Considered:** %s\n", at)
	fmt.Fprintf(b, "- **Testing Designation:** %s\n", deref(s.TestingDesignation, "Not found"))

	if len(s.SpecialEducationServices) > 0 {
		b.WriteString("\n| Service | Minutes | Frequency | Location |\n|---------|---------|-----------|----------|\n")
		for _, svc := range s.SpecialEducationServices {
			minutes := "-"
			if svc.Minutes != nil {
				minutes = strconv.Itoa(*svc.Minutes)
			}
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n", svc.Service, minutes, deref(svc.Frequency, "-"), deref(svc.Location, "-"))
		}
	}
	if len(s.RelatedServices) > 0 {
		names := make([]string, 0, len(s.RelatedServices))
		for _, rs := range s.RelatedServices {
			names = append(names, rs.Service)
		}
		fmt.Fprintf(b, "\n**Related Services:** %s\n", strings.Join(names, ", "))
	}
	if len(s.ClassroomAccommodations) > 0 {
		fmt.Fprintf(b, "\n**Classroom Accommodations:** %s\n", strings.Join(s.ClassroomAccommodations, ", "))
	}
	if len(s.TestingAccommodations) > 0 {
		fmt.Fprintf(b, "\n**Testing Accommodations:** %s\n", strings.Join(s.TestingAccommodations, ", "))
	}
	writeFindingAlerts(b, s.Alerts)
}

func writeDeliberations(b *strings.Builder, d analysis.Deliberations) {
	if !d.Available {
		return
	}
	section(b, "🗣️ ARD Deliberations")
	m := d.MeetingInfo
	fmt.Fprintf(b, "- **ARD Date:** %s\n", orDefault(m.ARDDate, "Unknown"))
	fmt.Fprintf(b, "- **Purpose:** %s\n", orDefault(m.Purpose, "Unknown"))
	if m.ParentAttendance != "" {
		fmt.Fprintf(b, "- **Parent Attendance:** %s\n", m.ParentAttendance)
	}
	if len(d.CommitteeMembers) > 0 {
		b.WriteString("\n| Member | Role | Present |\n|--------|------|---------|\n")
		for _, cm := range d.CommitteeMembers {
			fmt.Fprintf(b, "| %s | %s | %s |\n", cm.Name, cm.Role, cm.Present)
		}
	}
	if len(d.ParentConcerns) > 0 {
		b.WriteString("\n**Parent Concerns:**\n")
		for _, c := range d.ParentConcerns {
			fmt.Fprintf(b, "- %s\n", c)
		}
	}
	if len(d.Decisions) > 0 {
		b.WriteString("\n**Decisions:**\n")
		for _, dec := range d.Decisions {
			fmt.Fprintf(b, "- %s\n", dec)
		}
	}
}
