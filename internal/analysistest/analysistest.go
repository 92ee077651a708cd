// Package analysistest provides helpers for tests that load and analyze
// whole test programs from a testdata directory.
package analysistest

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/tum-i22/input-dependency-analyzer/analysis"
	"github.com/tum-i22/input-dependency-analyzer/analysis/config"
	"github.com/tum-i22/input-dependency-analyzer/analysis/libmodel"
)

// LoadTest loads the program in the directory dir, looking for a main.go and a config.yaml.
// If additional files are specified as extraFiles, the program will be loaded using those
// files too.
func LoadTest(t *testing.T, dir string, extraFiles []string) (*ssa.Program, *config.Config) {
	configFile := filepath.Join(dir, "config.yaml")
	config.SetGlobalConfig(configFile)
	files := []string{filepath.Join(dir, "main.go")}
	for _, extraFile := range extraFiles {
		files = append(files, filepath.Join(dir, extraFile))
	}

	program, err := analysis.LoadProgram(nil, "", ssa.InstantiateGenerics, files)
	if err != nil {
		t.Fatalf("error loading program in %s: %v", dir, err)
	}
	cfg, err := config.LoadGlobal()
	if err != nil {
		t.Fatalf("error loading global config: %v", err)
	}
	return program, cfg
}

// FindFunction returns the function with the given name among the functions of the
// loaded test program, or nil when there is none. Functions of dependency packages are
// skipped: names like "main" or "read" also exist in the runtime, and map iteration
// over AllFunctions would resolve them nondeterministically.
func FindFunction(program *ssa.Program, name string) *ssa.Function {
	for fn := range ssautil.AllFunctions(program) {
		if fn.Name() == name && !libmodel.IsStdFunction(fn) {
			return fn
		}
	}
	return nil
}

// Annotations of the form "// @InputDep" and "// @Indep" mark lines whose
// instructions the test asserts verdicts for.
var (
	inputDepRegex = regexp.MustCompile(`//\s*@InputDep\b`)
	indepRegex    = regexp.MustCompile(`//\s*@Indep\b`)
)

// ExpectedVerdicts scans the file for verdict annotations and returns the
// annotated line numbers: lines expected to hold at least one
// input-dependent instruction, and lines expected to hold none.
func ExpectedVerdicts(t *testing.T, file string) (inputDep map[int]bool, indep map[int]bool) {
	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("error reading %s: %v", file, err)
	}
	inputDep = map[int]bool{}
	indep = map[int]bool{}
	for i, line := range strings.Split(string(b), "\n") {
		if inputDepRegex.MatchString(line) {
			inputDep[i+1] = true
		} else if indepRegex.MatchString(line) {
			indep[i+1] = true
		}
	}
	return inputDep, indep
}
