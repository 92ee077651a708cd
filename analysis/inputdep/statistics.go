package inputdep

import (
	"fmt"
	"io"

	"golang.org/x/exp/slices"

	"github.com/tum-i22/input-dependency-analyzer/analysis/lang"
)

// FunctionStats is the per-function statistics record.
type FunctionStats struct {
	Name string
	Counts
	InputDepFunction bool
}

// Statistics aggregates the verdict counts of a finished analysis.
type Statistics struct {
	Functions         []FunctionStats
	Totals            Counts
	InputDepFunctions int
}

// ComputeStatistics tallies the summaries of the cache. Functions are
// sorted by name so reports are stable across runs.
func ComputeStatistics(c *Cache) *Statistics {
	stats := &Statistics{}
	for fn, s := range c.Summaries() {
		fs := FunctionStats{
			Name:             lang.FnName(fn),
			Counts:           s.Count(),
			InputDepFunction: s.IsInputDepFunction(),
		}
		stats.Functions = append(stats.Functions, fs)
		stats.Totals.Instructions += fs.Instructions
		stats.Totals.InputDep += fs.InputDep
		stats.Totals.InputIndep += fs.InputIndep
		stats.Totals.Unresolved += fs.Unresolved
		stats.Totals.UnreachableInstrs += fs.UnreachableInstrs
		stats.Totals.Blocks += fs.Blocks
		stats.Totals.InputDepBlocks += fs.InputDepBlocks
		stats.Totals.UnreachableBlocks += fs.UnreachableBlocks
		if fs.InputDepFunction {
			stats.InputDepFunctions++
		}
	}
	slices.SortFunc(stats.Functions, func(a, b FunctionStats) bool { return a.Name < b.Name })
	return stats
}

// Report writes the statistics in a human-readable table.
func (s *Statistics) Report(w io.Writer) {
	fmt.Fprintf(w, "%-60s %10s %10s %10s %10s\n", "function", "instrs", "input-dep", "indep", "unreach")
	for _, fs := range s.Functions {
		fmt.Fprintf(w, "%-60s %10d %10d %10d %10d\n",
			fs.Name, fs.Instructions, fs.InputDep, fs.InputIndep+fs.Unresolved, fs.UnreachableInstrs)
	}
	fmt.Fprintf(w, "\n%d functions, %d input-dependent\n", len(s.Functions), s.InputDepFunctions)
	fmt.Fprintf(w, "instructions: %d total, %d input-dependent (%s), %d unreachable\n",
		s.Totals.Instructions, s.Totals.InputDep,
		percent(s.Totals.InputDep, s.Totals.Instructions),
		s.Totals.UnreachableInstrs)
	fmt.Fprintf(w, "blocks: %d total, %d input-dependent (%s), %d unreachable\n",
		s.Totals.Blocks, s.Totals.InputDepBlocks,
		percent(s.Totals.InputDepBlocks, s.Totals.Blocks),
		s.Totals.UnreachableBlocks)
}

func percent(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}
