// Package deepdive runs the whole pipeline for a student: discovery, text
// extraction, profile loading, analysis and artifact output.
package deepdive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/iep-deep-dive/internal/analysis"
	"github.com/a3tai/iep-deep-dive/internal/documents"
	"github.com/a3tai/iep-deep-dive/internal/profiles"
	"github.com/a3tai/iep-deep-dive/internal/report"
	"github.com/a3tai/iep-deep-dive/internal/textextract"
)

// ErrNoDocuments is returned when a student has no documents under the root
var ErrNoDocuments = errors.New("no documents found")

// Service orchestrates deep dives against one documents root
type Service struct {
	folders   Folders
	extractor textextract.Extractor
	analyzer  *analysis.Analyzer
	mapSource profiles.MAPSource
	timeout   time.Duration
	clock     analysis.Clock
	logger    *slog.Logger
	guard     *rootGuard
}

// Option configures a Service
type Option func(*Service)

// WithAnalyzer replaces the default analyzer
func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(s *Service) { s.analyzer = a }
}

// WithMAPSource replaces MAP auto-detection
func WithMAPSource(src profiles.MAPSource) Option {
	return func(s *Service) { s.mapSource = src }
}

// WithExtractTimeout bounds each document extraction
func WithExtractTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithClock pins the time stamped on reports
func WithClock(c analysis.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a service over the given folders
func NewService(folders Folders, extractor textextract.Extractor, opts ...Option) (*Service, error) {
	if extractor == nil {
		return nil, errors.New("extractor cannot be nil")
	}
	guard, err := newRootGuard(folders.IEPFolder)
	if err != nil {
		return nil, err
	}

	s := &Service{
		folders:   folders,
		extractor: extractor,
		timeout:   textextract.DefaultTimeout,
		clock:     time.Now,
		logger:    slog.Default(),
		guard:     guard,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.analyzer == nil {
		s.analyzer = analysis.NewAnalyzer(analysis.WithLogger(s.logger))
	}
	if s.mapSource == nil {
		s.mapSource = profiles.FileMAPSource{
			Path:            folders.MAPFile,
			ReferenceFolder: folders.Profiles.ReferenceFolder,
			Logger:          s.logger,
		}
	}
	return s, nil
}

// AnalyzeStudent runs a deep dive for one student. Extraction failures are
// reported in the result and never fail the run.
func (s *Service) AnalyzeStudent(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	studentID := strings.TrimSpace(req.StudentID)
	if err := documents.ValidateStudentID(studentID); err != nil {
		return nil, err
	}

	logger := s.logger.With("run_id", uuid.NewString(), "student_id", studentID)
	started := time.Now()

	docs, err := documents.Discover(s.folders.IEPFolder, studentID)
	if err != nil {
		return nil, fmt.Errorf("document discovery failed: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w for student %s in %s", ErrNoDocuments, studentID, s.folders.IEPFolder)
	}
	logger.Info("found documents", "count", len(docs))

	corpus, failures, err := textextract.BuildCorpus(ctx, s.extractor, docs, s.timeout, logger)
	if err != nil {
		return nil, err
	}

	loaded := profiles.NewLoader(s.folders.Profiles, logger).LoadAll(studentID)

	mapData, err := s.mapSource.Load(studentID)
	if err != nil {
		if !errors.Is(err, profiles.ErrUnavailable) {
			logger.Warn("MAP data could not be loaded", "error", err)
		}
		mapData = nil
	}

	result := &AnalyzeResult{
		Analysis: s.analyzer.Analyze(analysis.Input{
			Collection: documents.Collection{StudentID: studentID, Documents: docs, Corpus: corpus},
			Profiles:   loaded,
			MAP:        mapData,
		}),
		ExtractionFailures: failures,
	}

	if req.Save {
		paths, err := report.Save(s.folders.OutputFolder, result.Analysis, s.clock())
		if err != nil {
			return nil, err
		}
		result.Paths = paths
	}

	a := result.Analysis
	logger.Info("deep dive complete",
		"documents", a.DocumentCount,
		"extraction_failures", len(failures),
		"alerts", len(a.Alerts),
		"critical", a.CriticalCount,
		"high", a.HighCount,
		"duration", time.Since(started))
	return result, nil
}

// ListStudents returns every student id found under the documents root
func (s *Service) ListStudents() ([]string, error) {
	return documents.FindAllStudents(s.folders.IEPFolder)
}

// Classify classifies a document. A bare file name that does not exist
// under the root is classified by name alone; anything else must resolve
// to an existing file inside the root.
func (s *Service) Classify(name string) (*ClassifyResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("file name cannot be empty")
	}

	bare := filepath.Base(name) == name
	path, err := s.guard.resolve(name)
	if err != nil {
		if bare {
			return &ClassifyResult{Document: documents.Classify(name, 0)}, nil
		}
		return nil, err
	}

	if _, statErr := os.Stat(path); statErr != nil && bare {
		return &ClassifyResult{Document: documents.Classify(name, 0)}, nil
	}
	doc, err := documents.ClassifyFile(path)
	if err != nil {
		return nil, err
	}
	return &ClassifyResult{Document: doc, Exists: true}, nil
}

// Info reports the configured folders and the students currently visible
func (s *Service) Info() Info {
	info := Info{
		IEPFolder:    s.folders.IEPFolder,
		OutputFolder: s.folders.OutputFolder,
		Extractor:    s.extractor.Name(),
		StudentIDs:   []string{},
	}
	ids, err := s.ListStudents()
	if err != nil {
		info.ListError = err.Error()
		return info
	}
	info.StudentIDs = ids
	return info
}
