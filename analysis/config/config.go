package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the options of the input-dependency analysis together with the
// user-provided library function models.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp

	// LibraryModels lists dependency formulas for external functions, supplied by the
	// user in addition to the built-in table
	LibraryModels []LibraryModelEntry `yaml:"library-models"`
}

// Options groups the scalar knobs of the analysis.
type Options struct {
	// ReportsDir is the directory where reports will be stored. If the yaml config file this config struct has
	// been loaded from does not specify a ReportsDir but sets ReportStats to true, then ReportsDir will be created
	// in the folder the binary is called.
	ReportsDir string `yaml:"reports-dir"`

	// PkgFilter restricts the functions being analyzed to those whose package matches the filter.
	// Functions outside the filter are treated like external functions (library model or
	// unknown-call policy).
	PkgFilter string `yaml:"pkg-filter"`

	// MaxFixpointIters caps the number of finalize passes of the whole-program fixpoint. The
	// lattice has finite height so the fixpoint terminates without the cap; the cap is a
	// defensive measure only.
	MaxFixpointIters int `yaml:"max-fixpoint-iters"`

	// ReportStats enables the input-dependency statistics report.
	ReportStats bool `yaml:"report-stats"`

	// StatsDB is an optional path to a sqlite database the statistics will be written to.
	StatsDB string `yaml:"stats-db"`

	// SummaryCache is an optional path to a file where the finalized analysis results are
	// saved, and from which they can be reloaded in a later run.
	SummaryCache string `yaml:"summary-cache"`

	// StrictQueries makes queries about unregistered functions panic instead of
	// soft-failing to "not input-dependent".
	StrictQueries bool `yaml:"strict-queries"`

	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`
}

// DefaultMaxFixpointIters bounds the finalize passes when the config does not set a cap.
const DefaultMaxFixpointIters = 100

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:    "",
		LibraryModels: nil,
		Options: Options{
			ReportsDir:       "",
			PkgFilter:        "",
			MaxFixpointIters: DefaultMaxFixpointIters,
			ReportStats:      false,
			StatsDB:          "",
			SummaryCache:     "",
			StrictQueries:    false,
			LogLevel:         int(InfoLevel),
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	if cfg.MaxFixpointIters <= 0 {
		cfg.MaxFixpointIters = DefaultMaxFixpointIters
	}

	if cfg.PkgFilter != "" {
		r, err := regexp.Compile(cfg.PkgFilter)
		if err == nil {
			cfg.pkgFilterRegex = r
		}
	}

	if cfg.ReportStats && cfg.ReportsDir == "" {
		tmpdir, err := os.MkdirTemp(path.Dir(filename), "*-report")
		if err != nil {
			return nil, fmt.Errorf("could not create temp dir for reports")
		}
		cfg.ReportsDir = tmpdir
	}

	for i := range cfg.LibraryModels {
		if err := cfg.LibraryModels[i].validate(); err != nil {
			return nil, fmt.Errorf("invalid library model in %s: %w", filename, err)
		}
	}

	return cfg, nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// MatchPkgFilter returns true if the package name pkgname matches the package filter set in the config file. If no
// package filter has been set in the config file, the regex will match anything and return true. This function safely
// considers the case where a filter has been specified by the user, but it could not be compiled to a regex. The safe
// case is to check whether the package filter string is a prefix of the pkgname
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	} else if c.PkgFilter != "" {
		return strings.HasPrefix(pkgname, c.PkgFilter)
	} else {
		return true
	}
}

// Verbose returns true if the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}
