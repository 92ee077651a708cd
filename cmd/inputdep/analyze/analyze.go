// Package analyze implements the front-end for the whole-program
// input-dependency analysis.
package analyze

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/tools/go/ssa"

	"github.com/tum-i22/input-dependency-analyzer/analysis"
	"github.com/tum-i22/input-dependency-analyzer/analysis/config"
	"github.com/tum-i22/input-dependency-analyzer/analysis/inputdep"
	"github.com/tum-i22/input-dependency-analyzer/analysis/libmodel"
	"github.com/tum-i22/input-dependency-analyzer/cmd/inputdep/tools"
	"github.com/tum-i22/input-dependency-analyzer/internal/formatutil"
)

// Usage for the analyze sub-command.
const Usage = ` Perform input-dependency analysis on your packages.
Usage:
  inputdep analyze [options] <package path(s)>
Examples:
  % inputdep analyze -config config.yaml main.go
`

// Run runs the input-dependency analysis with flags.
func Run(flags tools.CommonFlags) error {
	stdlog := log.New(os.Stdout, "", log.Flags())

	cfg, err := tools.LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	if flags.Verbose {
		cfg.LogLevel = int(config.DebugLevel)
	}
	logger := config.NewLogGroup(cfg)

	stdlog.Printf(formatutil.Faint("Input-dependency analyzer"))
	stdlog.Printf(formatutil.Faint("Reading sources") + "\n")

	program, err := analysis.LoadProgram(nil, "", ssa.InstantiateGenerics, flags.FlagSet.Args())
	if err != nil {
		return fmt.Errorf("could not load program: %v", err)
	}

	registry, err := libmodel.NewRegistry(cfg.LibraryModels)
	if err != nil {
		return fmt.Errorf("could not build library model registry: %v", err)
	}
	logger.Debugf("%d library function models registered", registry.Size())

	cache := inputdep.NewCache(program, cfg, logger, registry)
	start := time.Now()
	if err := cache.Run(); err != nil {
		return fmt.Errorf("input-dependency analysis failed: %v", err)
	}
	duration := time.Since(start)

	stats := inputdep.ComputeStatistics(cache)
	logger.Infof("")
	logger.Infof(strings.Repeat("*", 80))
	logger.Infof("Analysis took %3.4f s", duration.Seconds())
	logger.Infof("")
	stdlog.Printf("RESULT:\n\t\t%s",
		formatutil.Yellow(fmt.Sprintf("%d of %d functions are input-dependent (%d instructions)",
			stats.InputDepFunctions, len(stats.Functions), stats.Totals.InputDep)))

	if cfg.ReportStats {
		if err := reportStats(cfg, stats, stdlog); err != nil {
			return err
		}
	}
	if cfg.StatsDB != "" {
		if err := inputdep.WriteStatsDB(cfg.RelPath(cfg.StatsDB), stats); err != nil {
			return fmt.Errorf("could not write stats database: %v", err)
		}
		stdlog.Printf("statistics database written to %s", cfg.RelPath(cfg.StatsDB))
	}
	if cfg.SummaryCache != "" {
		if err := saveResults(cache, cfg.RelPath(cfg.SummaryCache)); err != nil {
			return fmt.Errorf("could not save analysis results: %v", err)
		}
		stdlog.Printf("analysis results saved to %s", cfg.RelPath(cfg.SummaryCache))
	}
	return nil
}

func reportStats(cfg *config.Config, stats *inputdep.Statistics, stdlog *log.Logger) error {
	path := filepath.Join(cfg.ReportsDir, "input-dependency.txt")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create report file: %v", err)
	}
	defer f.Close()
	stats.Report(f)
	stdlog.Printf("statistics report written to %s", path)
	return nil
}

func saveResults(cache *inputdep.Cache, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return inputdep.SaveResults(cache, f)
}
