package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/iep-deep-dive/internal/config"
	"github.com/a3tai/iep-deep-dive/internal/deepdive"
	"github.com/a3tai/iep-deep-dive/internal/descriptions"
)

const maxListedStudents = 10

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *deepdive.Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *deepdive.Service, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("deep dive service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool list never changes at runtime
	)

	s := &Server{
		config:    cfg,
		service:   service,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	analyzeTool := mcp.NewTool(
		"iep_analyze_student",
		mcp.WithDescription(descriptions.GetToolDescription("iep_analyze_student")),
		mcp.WithString("student_id",
			mcp.Required(),
			mcp.Description("Student ID, the leading digits of the student's document file names"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Write DEEP_DIVE_<id>.json and DEEP_DIVE_<id>_REPORT.md to the output folder (default true)"),
		),
	)
	s.mcpServer.AddTool(analyzeTool, s.handleAnalyzeStudent)

	listTool := mcp.NewTool(
		"iep_list_students",
		mcp.WithDescription(descriptions.GetToolDescription("iep_list_students")),
	)
	s.mcpServer.AddTool(listTool, s.handleListStudents)

	classifyTool := mcp.NewTool(
		"iep_classify_filename",
		mcp.WithDescription(descriptions.GetToolDescription("iep_classify_filename")),
		mcp.WithString("filename",
			mcp.Required(),
			mcp.Description("Document file name, or a path inside the IEP folder"),
		),
	)
	s.mcpServer.AddTool(classifyTool, s.handleClassifyFilename)

	infoTool := mcp.NewTool(
		"iep_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("iep_server_info")),
	)
	s.mcpServer.AddTool(infoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleAnalyzeStudent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	studentID, err := request.RequireString("student_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	save := true
	if v, ok := request.GetArguments()["save"].(bool); ok {
		save = v
	}

	result, err := s.service.AnalyzeStudent(ctx, deepdive.AnalyzeRequest{StudentID: studentID, Save: save})
	if err != nil {
		if errors.Is(err, deepdive.ErrNoDocuments) {
			return mcp.NewToolResultError(fmt.Sprintf("No documents found for student %s", studentID)), nil
		}
		s.logger.Warn("analysis failed", "student_id", studentID, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result.Summary()), nil
}

func (s *Server) handleListStudents(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.service.ListStudents()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(ids) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No students found in IEP folder: %s", s.config.IEPFolder)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d student(s) in IEP folder: %s\n\n", len(ids), s.config.IEPFolder)
	for i, id := range ids {
		fmt.Fprintf(&b, "%d. %s\n", i+1, id)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleClassifyFilename(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Classify(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatClassifyResult(result)), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatServerInfo(s.service.Info())), nil
}

// Formatting methods

func formatClassifyResult(result *deepdive.ClassifyResult) string {
	doc := result.Document
	date := "Unknown"
	if doc.Date.Known() {
		date = string(doc.Date)
	}

	text := fmt.Sprintf("File: %s\n", doc.Filename)
	text += fmt.Sprintf("Type: %s\n", doc.Type)
	text += fmt.Sprintf("Date: %s\n", date)
	if result.Exists {
		text += fmt.Sprintf("Path: %s\n", doc.Path)
		text += fmt.Sprintf("Size: %d bytes\n", doc.Size)
	} else {
		text += "Classified by name only (file not found in the IEP folder)\n"
	}
	return text
}

func (s *Server) formatServerInfo(info deepdive.Info) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("📁 IEP Folder: %s\n", info.IEPFolder)
	text += fmt.Sprintf("📝 Output Folder: %s\n", info.OutputFolder)
	text += fmt.Sprintf("🔤 Text Extractor: %s\n\n", info.Extractor)

	switch {
	case info.ListError != "":
		text += fmt.Sprintf("⚠️  Students: IEP folder could not be scanned: %s\n\n", info.ListError)
	case len(info.StudentIDs) == 0:
		text += "👥 Students: No student documents found in the IEP folder\n\n"
	default:
		text += fmt.Sprintf("👥 Students (%d found):\n", len(info.StudentIDs))
		for i, id := range info.StudentIDs {
			if i >= maxListedStudents {
				text += fmt.Sprintf("   ... and %d more\n", len(info.StudentIDs)-maxListedStudents)
				break
			}
			text += fmt.Sprintf("   %d. %s\n", i+1, id)
		}
		text += "\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		desc := descriptions.GetToolDescription(name)
		if first, _, found := strings.Cut(desc, "\n"); found {
			desc = first
		}
		text += fmt.Sprintf("  • %s: %s\n", name, desc)
	}
	return text
}

// Run serves the tools over stdio until the client disconnects
func (s *Server) Run(_ context.Context) error {
	s.logger.Debug("starting MCP server in stdio mode",
		"iep_folder", s.config.IEPFolder,
		"output_folder", s.config.OutputFolder)

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
