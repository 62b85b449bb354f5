package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	AnalyzeStudentDescription = `Run a full compliance deep dive over every document of one student.

**When to use:** Preparing for an ARD meeting, auditing a caseload, or checking a student's records after new paperwork was filed.

**Why it's useful:** Reads every IEP, FIE, REED and related document for the student and cross-checks them: overdue evaluations, SLD areas dropped without dismissal, copied-forward text with another student's name, incomplete goals, missing services or accommodations, attention and dyslexia red flags, attendance trends and MAP results.

**Examples:**
• ARD prep: "Analyze student 10147287 before Thursday's annual ARD"
• Caseload audit: "Run the deep dive for 20001111 and list the critical alerts"
• Re-check after edits: "Re-run 10147287 without saving reports"

**Common workflows:**
1. Audit: iep_list_students → iep_analyze_student for each id → review CRITICAL and HIGH alerts
2. Meeting prep: iep_analyze_student → open DEEP_DIVE_<id>_REPORT.md → verify INQUIRY items with the case manager

**Best practices:** INQUIRY alerts are questions, not findings; verify them before acting. Extraction failures are listed in the response and mean a document was not read.`

	ListStudentsDescription = `List every student id that has documents in the IEP folder.

**When to use:** Discovering which students can be analyzed, or driving a caseload-wide audit.

**Why it's useful:** Ids are taken from the leading digits of every PDF file name anywhere under the IEP folder, so nested year or campus folders are covered.

**Examples:**
• "Which students do we have documents for?"
• "List ids, then analyze each one"`

	ClassifyFilenameDescription = `Classify a document by its file name.

**When to use:** Checking how a file will be treated before running an analysis, or debugging why a document was not picked up as an IEP or evaluation.

**Why it's useful:** Shows the document type (Signed IEP, IEP, REED, FIE, FIIE, BIP, ...) and the date parsed from the MMDDYYYY group in the name. Paths inside the IEP folder are also read for their size.

**Examples:**
• "How is 10147287_IEP_Signed-01152024-.pdf classified?"
• "What type is 2023/10147287_REED-03032023-.pdf?"`

	ServerInfoDescription = `Get server information, configured folders, visible students and the available tools.

**When to use:** First call in a session, or when analyses report missing documents.

**Why it's useful:** Confirms which IEP and output folders the server is using, which text extractor is active and how many students are visible.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"iep_analyze_student":   AnalyzeStudentDescription,
	"iep_list_students":     ListStudentsDescription,
	"iep_classify_filename": ClassifyFilenameDescription,
	"iep_server_info":       ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns every tool name in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
