package mcp

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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/iep-deep-dive/internal/analysis"
	"github.com/a3tai/iep-deep-dive/internal/config"
	"github.com/a3tai/iep-deep-dive/internal/deepdive"
	"github.com/a3tai/iep-deep-dive/internal/profiles"
	"github.com/a3tai/iep-deep-dive/internal/textextract"
)

// stubExtractor returns canned text by file name
type stubExtractor struct {
	texts map[string]string
}

func (s stubExtractor) Name() string { return "stub" }

func (s stubExtractor) Extract(_ context.Context, path string) (string, error) {
	text, ok := s.texts[filepath.Base(path)]
	if !ok {
		return "", &textextract.ExtractError{Tool: "stub", Path: path, Err: errors.New("unreadable")}
	}
	return text, nil
}

var pinned = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, texts map[string]string, files ...string) (*Server, *config.Config) {
	t.Helper()
	base := t.TempDir()
	iepFolder := filepath.Join(base, "ieps")
	require.NoError(t, os.MkdirAll(iepFolder, 0o755))
	for _, f := range files {
		path := filepath.Join(iepFolder, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, make([]byte, 1024), 0o644))
	}

	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeStdio
	cfg.IEPFolder = iepFolder
	cfg.OutputFolder = filepath.Join(base, "audit")
	cfg.ServerName = "test-server"

	svc, err := deepdive.NewService(deepdive.Folders{
		IEPFolder:    cfg.IEPFolder,
		OutputFolder: cfg.OutputFolder,
		Profiles:     profiles.Sources{ReferenceFolder: filepath.Join(base, "ref")},
	}, stubExtractor{texts: texts},
		deepdive.WithLogger(quietLogger()),
		deepdive.WithClock(func() time.Time { return pinned }),
		deepdive.WithMAPSource(profiles.NoMAPSource{}),
		deepdive.WithAnalyzer(analysis.NewAnalyzer(
			analysis.WithClock(func() time.Time { return pinned }),
			analysis.WithLogger(quietLogger()),
		)),
	)
	require.NoError(t, err)

	server, err := NewServer(cfg, svc, quietLogger())
	require.NoError(t, err)
	return server, cfg
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// extractTextFromResult returns the first text content of a tool result
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}

func TestNewServer(t *testing.T) {
	server, cfg := newTestServer(t, nil)
	assert.Same(t, cfg, server.config)
	assert.NotNil(t, server.service)
	assert.NotNil(t, server.mcpServer)

	_, err := NewServer(cfg, nil, nil)
	assert.Error(t, err)

	_, err = NewServer(nil, server.service, nil)
	assert.Error(t, err)
}

func TestServer_HandleAnalyzeStudent(t *testing.T) {
	server, cfg := newTestServer(t,
		map[string]string{"10147287_IEP-01152024-.pdf": "Days absent: 3\n"},
		"10147287_IEP-01152024-.pdf", "10147287_FIE-01012019-.pdf",
	)

	result, err := server.handleAnalyzeStudent(context.Background(), callRequest(map[string]interface{}{
		"student_id": "10147287",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Deep dive for student 10147287 (Unknown)")
	assert.Contains(t, text, "Documents analyzed: 2")
	assert.Contains(t, text, "1 document(s) could not be read")
	assert.Contains(t, text, "10147287_FIE-01012019-.pdf: stub failed on")
	assert.Contains(t, text, filepath.Join(cfg.OutputFolder, "DEEP_DIVE_10147287_REPORT.md"))

	_, err = os.Stat(filepath.Join(cfg.OutputFolder, "DEEP_DIVE_10147287.json"))
	assert.NoError(t, err)
}

func TestServer_HandleAnalyzeStudentWithoutSave(t *testing.T) {
	server, cfg := newTestServer(t, map[string]string{}, "10147287_IEP-01152024-.pdf")

	result, err := server.handleAnalyzeStudent(context.Background(), callRequest(map[string]interface{}{
		"student_id": "10147287",
		"save":       false,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.NotContains(t, extractTextFromResult(result), "Reports:")

	_, err = os.Stat(cfg.OutputFolder)
	assert.True(t, os.IsNotExist(err))
}

func TestServer_HandleAnalyzeStudentErrors(t *testing.T) {
	server, _ := newTestServer(t, nil, "10147287_IEP-01152024-.pdf")

	tests := []struct {
		name     string
		args     map[string]interface{}
		wantText string
	}{
		{"missing student id", map[string]interface{}{}, "student_id"},
		{"unknown student", map[string]interface{}{"student_id": "99999999"}, "No documents found for student 99999999"},
		{"invalid student id", map[string]interface{}{"student_id": "../x"}, "invalid student id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleAnalyzeStudent(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.wantText)
		})
	}
}

func TestServer_HandleListStudents(t *testing.T) {
	server, cfg := newTestServer(t, nil,
		"2024/10147287_IEP-01152024-.pdf",
		"2023/20001111_REED-03032023-.pdf",
		"2023/10147287_FIE-01012019-.pdf",
	)

	result, err := server.handleListStudents(context.Background(), callRequest(nil))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "Found 2 student(s) in IEP folder: "+cfg.IEPFolder)
	assert.Contains(t, text, "1. 10147287\n2. 20001111\n")

	empty, _ := newTestServer(t, nil)
	result, err = empty.handleListStudents(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "No students found")
}

func TestServer_HandleClassifyFilename(t *testing.T) {
	server, _ := newTestServer(t, nil, "2024/10147287_IEP_Signed-01152024-.pdf")

	result, err := server.handleClassifyFilename(context.Background(), callRequest(map[string]interface{}{
		"filename": "10147287_FIIE-05052021-.pdf",
	}))
	require.NoError(t, err)
	text := extractTextFromResult(result)
	assert.Contains(t, text, "Type: FIIE")
	assert.Contains(t, text, "Date: 2021-05-05")
	assert.Contains(t, text, "Classified by name only")

	result, err = server.handleClassifyFilename(context.Background(), callRequest(map[string]interface{}{
		"filename": "2024/10147287_IEP_Signed-01152024-.pdf",
	}))
	require.NoError(t, err)
	text = extractTextFromResult(result)
	assert.Contains(t, text, "Type: Signed IEP")
	assert.Contains(t, text, "Size: 1024 bytes")

	result, err = server.handleClassifyFilename(context.Background(), callRequest(map[string]interface{}{
		"filename": "../outside/10147287_IEP-01152024-.pdf",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractTextFromResult(result), "outside the documents root")

	result, err = server.handleClassifyFilename(context.Background(), callRequest(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleServerInfo(t *testing.T) {
	server, cfg := newTestServer(t, nil, "10147287_IEP-01152024-.pdf")

	result, err := server.handleServerInfo(context.Background(), callRequest(nil))
	require.NoError(t, err)
	text := extractTextFromResult(result)

	assert.Contains(t, text, "📋 test-server v1.0.0 - Server Information")
	assert.Contains(t, text, "📁 IEP Folder: "+cfg.IEPFolder)
	assert.Contains(t, text, "🔤 Text Extractor: stub")
	assert.Contains(t, text, "👥 Students (1 found):")
	for _, tool := range []string{"iep_analyze_student", "iep_list_students", "iep_classify_filename", "iep_server_info"} {
		assert.Contains(t, text, "• "+tool+": ")
	}
}

func TestFormatServerInfoTruncatesStudents(t *testing.T) {
	server, _ := newTestServer(t, nil)
	info := deepdive.Info{IEPFolder: "/ieps", OutputFolder: "/audit", Extractor: "pdftotext"}
	for i := 0; i < 12; i++ {
		info.StudentIDs = append(info.StudentIDs, strings.Repeat("1", i+1))
	}

	text := server.formatServerInfo(info)
	assert.Contains(t, text, "👥 Students (12 found):")
	assert.Contains(t, text, "... and 2 more")

	text = server.formatServerInfo(deepdive.Info{ListError: "documents root not found"})
	assert.Contains(t, text, "could not be scanned: documents root not found")
}
