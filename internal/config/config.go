package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeBatch = "batch"
	ModeStdio = "stdio"

	// Extractor constants
	ExtractorPdftotext = "pdftotext"
	ExtractorNative    = "native"

	// Default values
	DefaultIEPFolder            = "ieps"
	DefaultOutputFolder         = "audit"
	DefaultReferenceFolder      = "input/_REFERENCE"
	DefaultStudentProfileFolder = "output/student_profiles"
	DefaultAssessmentProfile    = "output/ASSESSMENT_PROFILE__ALL_CASE_MANAGERS.xlsx"
	DefaultPdftotextBinary      = "pdftotext"
	DefaultExtractTimeout       = 30 * time.Second
	DefaultLogLevel             = "info"
	DefaultMaxFileSize          = 100 * 1024 * 1024 // 100MB

	// EnvPrefix prefixes every environment variable
	EnvPrefix = "GALEXII"
)

// ErrVersionRequested is returned when --version is on the command line
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the deep dive analyzer
type Config struct {
	// Run configuration
	Mode    string // "batch" or "stdio"
	Student string
	All     bool

	// Folders
	IEPFolder            string
	OutputFolder         string
	ReferenceFolder      string
	StudentProfileFolder string
	AssessmentProfile    string
	MAPFile              string

	// Text extraction
	Extractor      string
	Pdftotext      string
	ExtractTimeout time.Duration
	MaxFileSize    int64 // Maximum PDF file size in bytes for native extraction

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	ConfigFile string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:                 ModeBatch,
		IEPFolder:            DefaultIEPFolder,
		OutputFolder:         DefaultOutputFolder,
		ReferenceFolder:      DefaultReferenceFolder,
		StudentProfileFolder: DefaultStudentProfileFolder,
		AssessmentProfile:    DefaultAssessmentProfile,
		Extractor:            ExtractorPdftotext,
		Pdftotext:            DefaultPdftotextBinary,
		ExtractTimeout:       DefaultExtractTimeout,
		MaxFileSize:          DefaultMaxFileSize,
		Version:              "1.0.0",
		ServerName:           "iep-deep-dive",
		LogLevel:             DefaultLogLevel,
	}
}

// LoadFromFlags parses the process command line and environment
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[1:])
}

// Load parses args and the environment into a validated configuration.
// Flags win over environment variables, which win over the config file.
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	if err := checkVersionFlag(args); err != nil {
		return nil, err
	}

	v := viper.New()
	fs := pflag.NewFlagSet("iep-deep-dive", pflag.ContinueOnError)

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(fs, cfg)
	bindFlagsToViper(v, fs)
	setupUsageMessage(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	populateConfigFromViper(v, cfg)

	// Expand paths if needed
	for _, p := range []*string{&cfg.IEPFolder, &cfg.OutputFolder} {
		if *p == "" {
			continue
		}
		if expanded, err := filepath.Abs(*p); err == nil {
			*p = expanded
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("mode", cfg.Mode)
	v.SetDefault("student", cfg.Student)
	v.SetDefault("all", cfg.All)
	v.SetDefault("iep_folder", cfg.IEPFolder)
	v.SetDefault("output_folder", cfg.OutputFolder)
	v.SetDefault("reference_folder", cfg.ReferenceFolder)
	v.SetDefault("student_profile_folder", cfg.StudentProfileFolder)
	v.SetDefault("assessment_profile", cfg.AssessmentProfile)
	v.SetDefault("map_file", cfg.MAPFile)
	v.SetDefault("extractor", cfg.Extractor)
	v.SetDefault("pdftotext", cfg.Pdftotext)
	v.SetDefault("extract_timeout", cfg.ExtractTimeout)
	v.SetDefault("max_file_size", cfg.MaxFileSize)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("config", cfg.ConfigFile)
}

// flagKeys maps viper keys to their command line flags
var flagKeys = map[string]string{
	"mode":                   "mode",
	"student":                "student",
	"all":                    "all",
	"iep_folder":             "iep-folder",
	"output_folder":          "output-folder",
	"reference_folder":       "reference-folder",
	"student_profile_folder": "student-profile-folder",
	"assessment_profile":     "assessment-profile",
	"map_file":               "map-file",
	"extractor":              "extractor",
	"pdftotext":              "pdftotext",
	"extract_timeout":        "extract-timeout",
	"max_file_size":          "max-file-size",
	"loglevel":               "loglevel",
	"config":                 "config",
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Run mode: 'batch' analyzes students and exits, 'stdio' serves MCP tools")
	fs.StringP("student", "s", cfg.Student, "Student ID to analyze (batch mode)")
	fs.Bool("all", cfg.All, "Analyze every student found in the IEP folder (batch mode)")
	fs.String("iep-folder", cfg.IEPFolder, "Folder searched recursively for student PDFs")
	fs.String("output-folder", cfg.OutputFolder, "Folder receiving the JSON and Markdown reports")
	fs.String("reference-folder", cfg.ReferenceFolder, "Folder holding the reference CSV/XLSX tables")
	fs.String("student-profile-folder", cfg.StudentProfileFolder, "Folder holding <id>.json student profiles")
	fs.String("assessment-profile", cfg.AssessmentProfile, "Assessment profile workbook")
	fs.String("map-file", cfg.MAPFile, "MAP data file (.json or .xlsx); auto-detected in the reference folder when empty")
	fs.String("extractor", cfg.Extractor, "Text extractor: 'pdftotext' (poppler) or 'native'")
	fs.String("pdftotext", cfg.Pdftotext, "pdftotext binary")
	fs.Duration("extract-timeout", cfg.ExtractTimeout, "Timeout for extracting one document")
	fs.Int64("max-file-size", cfg.MaxFileSize, "Maximum PDF file size in bytes for native extraction")
	fs.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("config", cfg.ConfigFile, "Optional config file (yaml, toml or json)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, fs *pflag.FlagSet) {
	for key, flag := range flagKeys {
		_ = v.BindPFlag(key, fs.Lookup(flag))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(fs *pflag.FlagSet) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nIEP Deep Dive - compliance analysis of a student's special-education documents\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --student 10147287                 # analyze one student\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --all --iep-folder=/data/ieps      # analyze every student\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -s 10147287 --map-file=map.xlsx    # with explicit MAP data\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio                       # serve MCP tools over stdio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  Every option is also read from %s_<OPTION>, e.g. %s_IEP_FOLDER, %s_LOGLEVEL\n",
			EnvPrefix, EnvPrefix, EnvPrefix)
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag(args []string) error {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Mode = v.GetString("mode")
	cfg.Student = strings.TrimSpace(v.GetString("student"))
	cfg.All = v.GetBool("all")
	cfg.IEPFolder = v.GetString("iep_folder")
	cfg.OutputFolder = v.GetString("output_folder")
	cfg.ReferenceFolder = v.GetString("reference_folder")
	cfg.StudentProfileFolder = v.GetString("student_profile_folder")
	cfg.AssessmentProfile = v.GetString("assessment_profile")
	cfg.MAPFile = v.GetString("map_file")
	cfg.Extractor = v.GetString("extractor")
	cfg.Pdftotext = v.GetString("pdftotext")
	cfg.ExtractTimeout = v.GetDuration("extract_timeout")
	cfg.MaxFileSize = v.GetInt64("max_file_size")
	cfg.LogLevel = strings.ToLower(v.GetString("loglevel"))
	cfg.ConfigFile = v.GetString("config")
}

var validLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeBatch && c.Mode != ModeStdio {
		return errors.New("mode must be either 'batch' or 'stdio'")
	}

	if c.Mode == ModeBatch {
		if c.Student == "" && !c.All {
			return errors.New("batch mode requires --student or --all")
		}
		if c.Student != "" && c.All {
			return errors.New("--student and --all are mutually exclusive")
		}
	}

	if c.IEPFolder == "" {
		return errors.New("IEP folder cannot be empty")
	}
	if c.OutputFolder == "" {
		return errors.New("output folder cannot be empty")
	}

	if c.Extractor != ExtractorPdftotext && c.Extractor != ExtractorNative {
		return fmt.Errorf("invalid extractor: %s (must be one of: %s, %s)", c.Extractor, ExtractorPdftotext, ExtractorNative)
	}
	if c.Extractor == ExtractorPdftotext && c.Pdftotext == "" {
		return errors.New("pdftotext binary cannot be empty")
	}

	if c.ExtractTimeout <= 0 {
		return errors.New("extract timeout must be positive")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if _, ok := validLogLevels[c.LogLevel]; !ok {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// SlogLevel returns the slog level matching LogLevel
func (c *Config) SlogLevel() slog.Level {
	return validLogLevels[c.LogLevel]
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Student: %s, All: %t, IEPFolder: %s, OutputFolder: %s, "+
		"ReferenceFolder: %s, Extractor: %s, ExtractTimeout: %s, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Student, c.All, c.IEPFolder, c.OutputFolder,
		c.ReferenceFolder, c.Extractor, c.ExtractTimeout, c.LogLevel, c.MaxFileSize)
}

// IsBatchMode returns true when students are analyzed from the command line
func (c *Config) IsBatchMode() bool {
	return c.Mode == ModeBatch
}

// IsStdioMode returns true if the MCP server runs over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
