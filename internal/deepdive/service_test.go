package deepdive

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/iep-deep-dive/internal/analysis"
	"github.com/a3tai/iep-deep-dive/internal/documents"
	"github.com/a3tai/iep-deep-dive/internal/profiles"
	"github.com/a3tai/iep-deep-dive/internal/report"
	"github.com/a3tai/iep-deep-dive/internal/textextract"
)

// fakeRunner serves pdftotext output by file name
type fakeRunner struct {
	texts map[string]string
	fail  map[string]error
	calls int
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.calls++
	name := filepath.Base(args[1])
	if err, ok := f.fail[name]; ok {
		return nil, err
	}
	return []byte(f.texts[name]), nil
}

var reportTime = time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	}
}

type fixture struct {
	root    string
	folders Folders
	runner  *fakeRunner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "ieps")
	touch(t, root,
		"2024/10147287_IEP_Signed-01152024-.pdf",
		"2019/10147287_FIE-01012019-.pdf",
		"2024/20001111_IEP-02022024-.pdf",
		"notes.txt",
	)

	return &fixture{
		root: root,
		folders: Folders{
			IEPFolder:    root,
			OutputFolder: filepath.Join(base, "audit"),
			Profiles: profiles.Sources{
				ReferenceFolder:      filepath.Join(base, "input", "_REFERENCE"),
				OutputFolder:         filepath.Join(base, "output"),
				StudentProfileFolder: filepath.Join(base, "output", "student_profiles"),
				AssessmentProfile:    filepath.Join(base, "output", "missing.xlsx"),
			},
		},
		runner: &fakeRunner{
			texts: map[string]string{
				"10147287_IEP_Signed-01152024-.pdf": "Determination of Eligibility: Learning Disability in Math Calculation\n" +
					"Present Levels of Academic Achievement\nDays absent: 4\n",
				"10147287_FIE-01012019-.pdf":        "Specific Learning Disability in Basic Reading and Math Calculation\n",
			},
			fail: map[string]error{},
		},
	}
}

func (f *fixture) service(t *testing.T, opts ...Option) *Service {
	t.Helper()
	defaults := []Option{
		WithLogger(discardLogger()),
		WithClock(func() time.Time { return reportTime }),
		WithMAPSource(profiles.NoMAPSource{}),
		WithAnalyzer(analysis.NewAnalyzer(
			analysis.WithClock(func() time.Time { return reportTime }),
			analysis.WithLogger(discardLogger()),
		)),
	}
	svc, err := NewService(f.folders, textextract.NewPopplerWithRunner("pdftotext", f.runner), append(defaults, opts...)...)
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresExtractorAndRoot(t *testing.T) {
	_, err := NewService(Folders{IEPFolder: "ieps"}, nil)
	assert.Error(t, err)

	_, err = NewService(Folders{}, textextract.NewPoppler(""))
	assert.Error(t, err)
}

func TestAnalyzeStudentSavesArtifacts(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	result, err := svc.AnalyzeStudent(context.Background(), AnalyzeRequest{StudentID: "10147287", Save: true})
	require.NoError(t, err)

	a := result.Analysis
	assert.Equal(t, "10147287", a.StudentID)
	assert.Equal(t, 2, a.DocumentCount)
	assert.Equal(t, 2, f.runner.calls)
	assert.Empty(t, result.ExtractionFailures)
	assert.Equal(t, []string{"Basic Reading"}, a.SLDConsistency.MissingFromIEP)
	assert.Nil(t, a.AssessmentProfile)
	assert.False(t, a.MAPAssessment.Available)

	assert.Equal(t, filepath.Join(f.folders.OutputFolder, "DEEP_DIVE_10147287.json"), result.Paths.JSON)
	md, err := os.ReadFile(result.Paths.Markdown)
	require.NoError(t, err)
	assert.Contains(t, string(md), "**Generated:** 2024-06-01 14:30")

	raw, err := os.ReadFile(result.Paths.JSON)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "run_id")
}

func TestAnalyzeStudentWithoutSave(t *testing.T) {
	f := newFixture(t)
	result, err := f.service(t).AnalyzeStudent(context.Background(), AnalyzeRequest{StudentID: "10147287"})
	require.NoError(t, err)

	assert.Empty(t, result.Paths.JSON)
	_, err = os.Stat(f.folders.OutputFolder)
	assert.True(t, os.IsNotExist(err))
}

func TestAnalyzeStudentIsDeterministic(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	first, err := svc.AnalyzeStudent(context.Background(), AnalyzeRequest{StudentID: "10147287", Save: true})
	require.NoError(t, err)
	a, err := os.ReadFile(first.Paths.JSON)
	require.NoError(t, err)

	second, err := svc.AnalyzeStudent(context.Background(), AnalyzeRequest{StudentID: "10147287", Save: true})
	require.NoError(t, err)
	b, err := os.ReadFile(second.Paths.JSON)
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
}

func TestAnalyzeStudentRecordsExtractionFailures(t *testing.T) {
	f := newFixture(t)
	f.runner.fail["10147287_FIE-01012019-.pdf"] = errors.New("syntax error in xref")

	result, err := f.service(t).AnalyzeStudent(context.Background(), AnalyzeRequest{StudentID: "10147287"})
	require.NoError(t, err)

	require.Len(t, result.ExtractionFailures, 1)
	assert.Equal(t, "10147287_FIE-01012019-.pdf", result.ExtractionFailures[0].Filename)
	assert.Contains(t, result.ExtractionFailures[0].Error, "syntax error in xref")
	assert.Equal(t, 2, result.Analysis.DocumentCount)
	assert.Empty(t, result.Analysis.SLDConsistency.FIEAreas)
}

func TestAnalyzeStudentErrors(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)
	ctx := context.Background()

	_, err := svc.AnalyzeStudent(ctx, AnalyzeRequest{StudentID: "99999999"})
	assert.ErrorIs(t, err, ErrNoDocuments)

	_, err = svc.AnalyzeStudent(ctx, AnalyzeRequest{StudentID: "  "})
	assert.ErrorIs(t, err, documents.ErrInvalidStudentID)

	_, err = svc.AnalyzeStudent(ctx, AnalyzeRequest{StudentID: "../etc"})
	assert.ErrorIs(t, err, documents.ErrInvalidStudentID)

	f.folders.IEPFolder = filepath.Join(f.root, "missing")
	_, err = f.service(t).AnalyzeStudent(ctx, AnalyzeRequest{StudentID: "10147287"})
	assert.ErrorIs(t, err, documents.ErrRootNotFound)
}

func TestAnalyzeStudentHonoursCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service(t).AnalyzeStudent(ctx, AnalyzeRequest{StudentID: "10147287"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.runner.calls)
}

type stubMAPSource struct {
	data *profiles.MAPData
	err  error
}

func (s stubMAPSource) Load(string) (*profiles.MAPData, error) {
	return s.data, s.err
}

func TestAnalyzeStudentMAPSource(t *testing.T) {
	f := newFixture(t)
	rit := 195.0
	pct := 20.0
	withMAP := f.service(t, WithMAPSource(stubMAPSource{data: &profiles.MAPData{
		StudentID: "10147287",
		Subjects:  map[string]profiles.MAPSubject{"mathematics": {RITScore: &rit, Percentile: &pct}},
	}}))

	result, err := withMAP.AnalyzeStudent(context.Background(), AnalyzeRequest{StudentID: "10147287"})
	require.NoError(t, err)
	assert.True(t, result.Analysis.MAPAssessment.Available)

	broken := f.service(t, WithMAPSource(stubMAPSource{err: errors.New("corrupt workbook")}))
	result, err = broken.AnalyzeStudent(context.Background(), AnalyzeRequest{StudentID: "10147287"})
	require.NoError(t, err)
	assert.False(t, result.Analysis.MAPAssessment.Available)
}

func TestListStudents(t *testing.T) {
	f := newFixture(t)
	ids, err := f.service(t).ListStudents()
	require.NoError(t, err)
	assert.Equal(t, []string{"10147287", "20001111"}, ids)
}

func TestClassify(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t)

	byName, err := svc.Classify("10147287_REED-03032023-.pdf")
	require.NoError(t, err)
	assert.False(t, byName.Exists)
	assert.Equal(t, documents.DocumentTypeREED, byName.Document.Type)
	assert.Equal(t, documents.Date("2023-03-03"), byName.Document.Date)

	onDisk, err := svc.Classify(filepath.Join("2024", "10147287_IEP_Signed-01152024-.pdf"))
	require.NoError(t, err)
	assert.True(t, onDisk.Exists)
	assert.Equal(t, documents.DocumentTypeSignedIEP, onDisk.Document.Type)
	assert.EqualValues(t, len("%PDF-1.4"), onDisk.Document.Size)

	_, err = svc.Classify(filepath.Join("..", "secret", "10147287_IEP-01152024-.pdf"))
	assert.ErrorIs(t, err, ErrOutsideRoot)

	_, err = svc.Classify(" ")
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	f := newFixture(t)
	info := f.service(t).Info()
	assert.Equal(t, f.root, info.IEPFolder)
	assert.Equal(t, "pdftotext", info.Extractor)
	assert.Equal(t, []string{"10147287", "20001111"}, info.StudentIDs)
	assert.Empty(t, info.ListError)

	f.folders.IEPFolder = filepath.Join(f.root, "missing")
	info = f.service(t).Info()
	assert.Empty(t, info.StudentIDs)
	assert.True(t, strings.Contains(info.ListError, "documents root not found"))
}

func TestAnalyzeResultSummary(t *testing.T) {
	name := "Maria Lopez"
	result := &AnalyzeResult{
		Analysis: &analysis.Analysis{
			StudentID:     "10147287",
			DocumentCount: 3,
			StudentInfo:   analysis.StudentInfo{Name: &name},
			Alerts: []analysis.Alert{
				{Severity: analysis.SeverityCritical, Category: "Evaluation", Message: "Evaluation overdue"},
			},
			CriticalCount: 1,
		},
		ExtractionFailures: []textextract.Failure{{Filename: "10147287_FIE-01012019-.pdf", Error: "timeout"}},
		Paths:              report.PathsFor("/audit", "10147287"),
	}

	text := result.Summary()
	assert.Contains(t, text, "Deep dive for student 10147287 (Maria Lopez)")
	assert.Contains(t, text, "Documents analyzed: 3")
	assert.Contains(t, text, "Alerts: 1 critical, 0 high, 0 medium, 0 inquiry, 0 info")
	assert.Contains(t, text, "[CRITICAL] Evaluation: Evaluation overdue")
	assert.Contains(t, text, "1 document(s) could not be read:\n  - 10147287_FIE-01012019-.pdf: timeout")
	assert.Contains(t, text, "Reports:\n  "+filepath.Join("/audit", "DEEP_DIVE_10147287.json"))

	result.Paths = report.Paths{}
	result.ExtractionFailures = nil
	text = result.Summary()
	assert.NotContains(t, text, "Reports:")
	assert.NotContains(t, text, "could not be read")
}
