// Package stats implements the front-end that prints saved analysis results.
package stats

import (
	"fmt"
	"os"

	"github.com/tum-i22/input-dependency-analyzer/analysis/inputdep"
	"github.com/tum-i22/input-dependency-analyzer/cmd/inputdep/tools"
	"github.com/tum-i22/input-dependency-analyzer/internal/formatutil"
)

// Usage for the stats sub-command.
const Usage = ` Print the verdicts saved by a previous analysis run.
Usage:
  inputdep stats [options] <saved results file>
Examples:
  % inputdep stats -config config.yaml results.bin
`

// Run prints the functions recorded in a saved results file.
func Run(flags tools.CommonFlags) error {
	args := flags.FlagSet.Args()
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one saved results file, got %d arguments", len(args))
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("could not open saved results: %v", err)
	}
	defer f.Close()

	saved, err := inputdep.LoadResults(f)
	if err != nil {
		return err
	}
	inputDep := 0
	for _, name := range saved.Functions() {
		verdict := formatutil.Green("input-independent")
		if saved.IsInputDepFunction(name) {
			verdict = formatutil.Red("input-dependent")
			inputDep++
		}
		fmt.Printf("%-60s %s\n", name, verdict)
	}
	fmt.Printf("\n%d functions, %d input-dependent\n", len(saved.Functions()), inputDep)
	return nil
}
