// Package report renders an analysis as a Markdown report and persists the
// JSON and Markdown artifacts.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/a3tai/iep-deep-dive/internal/analysis"
	"github.com/a3tai/iep-deep-dive/internal/documents"
)

const (
	maxAttentionRows   = 10
	maxMAPStatements   = 5
	maxMAPGoals        = 5
	generatedLayout    = "2006-01-02 15:04"
	masteredDocRunes   = 35
	dismissedDocRunes  = 40
	attentionDocRunes  = 30
	generatedByTrailer = "*Generated by SpEdGalexii Deep Dive Analyzer*"
)

var severityIcons = map[analysis.Severity]string{
	analysis.SeverityCritical: "🔴",
	analysis.SeverityHigh:     "🟠",
	analysis.SeverityInquiry:  "❓",
	analysis.SeverityMedium:   "🟡",
	analysis.SeverityInfo:     "ℹ️",
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return orDefault(*s, fallback)
}

func dateOr(d documents.Date, fallback string) string {
	if !d.Known() {
		return fallback
	}
	return string(d)
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

// clip cuts s to n runes and marks the cut
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s + "..."
	}
	return string(r[:n]) + "..."
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Markdown renders the report. generated is printed in the header; pin it
// for reproducible output.
func Markdown(a *analysis.Analysis, generated time.Time) string {
	var b strings.Builder

	writeHeader(&b, a, generated)
	writeAlerts(&b, a)
	writeEvaluation(&b, a.EvaluationStatus)
	writeSLD(&b, a.SLDConsistency)
	writeAttention(&b, a.AttentionRedFlags)
	writeDyslexia(&b, a.DyslexiaStatus)
	writeAttendance(&b, a.AttendanceAnalysis)
	writeGoals(&b, a.GoalAnalysis)
	writeMAP(&b, a.MAPAssessment)
	writeInventory(&b, a.Documents)
	writeFIE(&b, a.FIEData)
	writeREED(&b, a.REEDData)
	writeServices(&b, a.IEPServices)
	writeDeliberations(&b, a.Deliberations)

	b.WriteString("\n---\n\n")
	b.WriteString(generatedByTrailer)
	b.WriteString("\n")
	return b.String()
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n---\n\n## %s\n\n", title)
}

func writeHeader(b *strings.Builder, a *analysis.Analysis, generated time.Time) {
	b.WriteString("# 🔍 SpEdGalexii Deep Dive Analysis\n")
	fmt.Fprintf(b, "## Student: %s | ID: %s\n\n", deref(a.StudentInfo.Name, "Unknown"), a.StudentID)
	fmt.Fprintf(b, "**Generated:** %s  \n", generated.Format(generatedLayout))
	fmt.Fprintf(b, "**Documents Analyzed:** %d\n", a.DocumentCount)
}

func writeAlerts(b *strings.Builder, a *analysis.Analysis) {
	section(b, "🚨 ALERT SUMMARY")
	b.WriteString("| Severity | Count |\n|----------|-------|\n")
	fmt.Fprintf(b, "| 🔴 CRITICAL | %d |\n", a.CriticalCount)
	fmt.Fprintf(b, "| 🟠 HIGH | %d |\n", a.HighCount)
	fmt.Fprintf(b, "| ❓ INQUIRY | %d |\n", a.InquiryCount)
	fmt.Fprintf(b, "| 🟡 MEDIUM | %d |\n", a.MediumCount)
	fmt.Fprintf(b, "| ℹ️ INFO | %d |\n\n", a.InfoCount)

	for _, alert := range a.Alerts {
		icon, ok := severityIcons[alert.Severity]
		if !ok {
			icon = severityIcons[analysis.SeverityInfo]
		}
		fmt.Fprintf(b, "- %s **%s:** %s\n", icon, alert.Category, alert.Message)
		if alert.Recommendation != nil {
			fmt.Fprintf(b, "  - *Recommendation:* %s\n", *alert.Recommendation)
		}
	}
}

func writeEvaluation(b *strings.Builder, e analysis.EvaluationStatus) {
	section(b, "📋 Evaluation Status")

	days := "Unknown"
	if e.DaysSinceFullEval != nil {
		days = strconv.Itoa(*e.DaysSinceFullEval)
	}
	overdue := "✅ No"
	if e.EvalOverdue {
		overdue = "🚨 YES"
	}
	reedTesting := "Unknown"
	if e.REEDHadTesting != nil {
		reedTesting = yesNo(*e.REEDHadTesting)
	}

	fmt.Fprintf(b, "- **Initial FIE:** %s\n", dateOr(e.InitialFIEDate, "Unknown"))
	fmt.Fprintf(b, "- **Days Since Full Evaluation:** %s\n", days)
	fmt.Fprintf(b, "- **Evaluation Overdue:** %s\n", overdue)
	fmt.Fprintf(b, "- **Last REED:** %s\n", dateOr(e.LastREEDDate, "None"))
	fmt.Fprintf(b, "- **REED Had New Testing:** %s\n", reedTesting)
}

func writeSLD(b *strings.Builder, s analysis.SLDConsistency) {
	section(b, "📊 SLD Consistency")
	fmt.Fprintf(b, "**FIE Areas:** %s  \n", joinOr(s.FIEAreas, "Not found"))
	fmt.Fprintf(b, "**Current IEP Areas:** %s  \n", joinOr(s.CurrentIEPAreas, "Not found"))
	fmt.Fprintf(b, "**Missing from IEP:** %s\n", joinOr(s.MissingFromIEP, "None ✅"))

	if len(s.PotentiallyMasteredAreas) > 0 {
		b.WriteString("\n**❓ Verification Needed (Goals May Have Been Mastered):**\n")
		for _, m := range s.PotentiallyMasteredAreas {
			fmt.Fprintf(b, "- %s: %s (see %s)\n", m.Area, m.Note, clip(m.Document, masteredDocRunes))
		}
		b.WriteString("\n*⚠️ Before adding goals in these areas, verify with case manager if SDI was appropriately discontinued due to goal mastery.*\n")
	}
	if len(s.DismissedAreas) > 0 {
		b.WriteString("\n**✅ Formally Dismissed/Exited Areas:**\n")
		for _, d := range s.DismissedAreas {
			fmt.Fprintf(b, "- %s (documented in %s, %s)\n", d.Area, clip(d.Document, dismissedDocRunes), dateOr(d.Date, "undated"))
		}
	}
	if len(s.AddedToIEP) > 0 {
		fmt.Fprintf(b, "\n**Added to IEP (not in FIE):** %s\n", strings.Join(s.AddedToIEP, ", "))
	}
}

func writeAttention(b *strings.Builder, f analysis.AttentionFlags) {
	section(b, "🧠 Attention/ADHD Analysis")
	fmt.Fprintf(b, "**Indicators Found:** %d  \n", len(f.IndicatorsFound))
	evaluated := "❌ No"
	if f.EvaluationExists {
		evaluated = "Yes"
	}
	fmt.Fprintf(b, "**Formal Evaluation Exists:** %s\n", evaluated)

	if len(f.IndicatorsFound) == 0 {
		return
	}
	b.WriteString("\n| Indicator | Document | Date |\n|-----------|----------|------|\n")
	rows := f.IndicatorsFound
	if len(rows) > maxAttentionRows {
		rows = rows[:maxAttentionRows]
	}
	for _, ind := range rows {
		fmt.Fprintf(b, "| %s | %s | %s |\n", ind.Indicator, clip(ind.Document, attentionDocRunes), dateOr(ind.Date, "Unknown"))
	}
}

func writeDyslexia(b *strings.Builder, d analysis.DyslexiaStatus) {
	section(b, "📖 Dyslexia Status")
	phonological := "❌ No"
	if d.PhonologicalEvalExists {
		phonological = "Yes"
	}
	fmt.Fprintf(b, "- **Receives Dyslexia Services:** %s\n", yesNo(d.ReceivesServices))
	fmt.Fprintf(b, "- **In Dyslexia Class:** %s\n", yesNo(d.InDyslexiaClass))
	fmt.Fprintf(b, "- **Phonological Evaluation:** %s\n", phonological)
}

func writeAttendance(b *strings.Builder, a analysis.AttendanceAnalysis) {
	section(b, "📅 Attendance History")
	if len(a.History) > 0 {
		b.WriteString("| Date | Days Absent |\n|------|-------------|\n")
		for _, entry := range a.History {
			fmt.Fprintf(b, "| %s | %d |\n", entry.Date, entry.DaysAbsent)
		}
		b.WriteString("\n")
	}
	trend := "📉 Not improving"
	if a.Improving {
		trend = "📈 Improving"
	}
	fmt.Fprintf(b, "- **Chronic Pattern:** %s\n", yesNo(a.ChronicPattern))
	fmt.Fprintf(b, "- **Trend:** %s\n", trend)
	fmt.Fprintf(b, "- **Housing Barriers:** %s\n", yesNo(a.HousingBarriers))
	fmt.Fprintf(b, "- **Transportation Barriers:** %s\n", yesNo(a.TransportationBarriers))
}

func writeGoals(b *strings.Builder, g analysis.GoalAnalysis) {
	section(b, "🎯 Goal Analysis")
	fmt.Fprintf(b, "**Current Goals:** %d  \n", len(g.CurrentGoals))
	fmt.Fprintf(b, "**Previous Goals Not Met:** %d\n", g.PreviousGoalsNotMet)
	if len(g.GoalQualityIssues) > 0 {
		b.WriteString("\n**Quality Issues:**\n")
		for _, issue := range g.GoalQualityIssues {
			fmt.Fprintf(b, "- ⚠️ %s\n", issue)
		}
	}
}

func writeMAP(b *strings.Builder, m analysis.MAPAssessment) {
	if !m.Available {
		return
	}
	section(b, "📊 MAP Assessment Data")

	subjects := []struct {
		name    string
		summary *analysis.MAPSubjectSummary
	}{
		{"Mathematics", m.Summary.Mathematics},
		{"Reading", m.Summary.Reading},
		{"Language", m.Summary.Language},
	}
	for _, s := range subjects {
		if s.summary == nil {
			continue
		}
		fmt.Fprintf(b, "### %s\n", s.name)
		fmt.Fprintf(b, "- **RIT Score:** %s\n", number(s.summary.RITScore))
		fmt.Fprintf(b, "- **Percentile:** %sth\n", number(s.summary.Percentile))
		fmt.Fprintf(b, "- **Achievement Level:** %s\n", s.summary.AchievementLevel)
		if s.summary.Lexile != nil {
			fmt.Fprintf(b, "- **Lexile:** %s\n", *s.summary.Lexile)
		}
		if s.summary.Quantile != nil {
			fmt.Fprintf(b, "- **Quantile:** %s\n", *s.summary.Quantile)
		}
		b.WriteString("\n")
	}

	if m.GrowthStatus.Mathematics != nil || m.GrowthStatus.Reading != nil {
		b.WriteString("### Growth Analysis\n")
		b.WriteString("| Subject | Growth Percentile | Status |\n|---------|------------------|--------|\n")
		for _, g := range []struct {
			name   string
			growth *analysis.MAPGrowth
		}{{"Mathematics", m.GrowthStatus.Mathematics}, {"Reading", m.GrowthStatus.Reading}} {
			if g.growth != nil {
				fmt.Fprintf(b, "| %s | %s | %s |\n", g.name, number(g.growth.GrowthPercentile), g.growth.Status)
			}
		}
		b.WriteString("\n")
	}

	if p := m.STAARProjection; p.Projection != "" {
		icon := "🔴"
		switch p.Projection {
		case "Meets":
			icon = "🟢"
		case "Approaches":
			icon = "🟡"
		}
		probability := p.Probability
		if probability != "N/A" {
			probability += "%"
		}
		b.WriteString("### STAAR Projection\n")
		fmt.Fprintf(b, "%s **Projected Level:** %s (Probability: %s)\n\n", icon, p.Projection, probability)
	}

	if len(m.PLAAFPStatements) > 0 {
		b.WriteString("### 📝 Recommended PLAAFP Statements (from MAP)\n")
		for _, stmt := range m.PLAAFPStatements[:min(len(m.PLAAFPStatements), maxMAPStatements)] {
			fmt.Fprintf(b, "- %s\n", stmt)
		}
		b.WriteString("\n")
	}

	if len(m.GoalRecommendations) > 0 {
		b.WriteString("### 🎯 Goal Recommendations (from MAP)\n")
		for _, rec := range m.GoalRecommendations[:min(len(m.GoalRecommendations), maxMAPGoals)] {
			fmt.Fprintf(b, "**%s - %s**\n", rec.Subject, rec.Area)
			fmt.Fprintf(b, "- Current Level: %s\n", orDefault(rec.CurrentLevel, "N/A"))
			fmt.Fprintf(b, "- Suggested Goal: %s\n\n", orDefault(rec.GoalTemplate, "N/A"))
		}
	}
}
