package inputdep

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/tum-i22/input-dependency-analyzer/analysis/config"
	"github.com/tum-i22/input-dependency-analyzer/analysis/libmodel"
	"github.com/tum-i22/input-dependency-analyzer/internal/analysistest"
)

// Finalization may only raise verdicts: after the whole-program fixpoint,
// every instruction dependency is at least its value from the
// intra-procedural phase, and on a program with unresolved argument
// dependencies at least one verdict is actually promoted.
func TestFinalizeRaisesVerdictsMonotonically(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "src", "inputdep", "branches")
	program, cfg := analysistest.LoadTest(t, dir, nil)
	registry, err := libmodel.NewRegistry(cfg.LibraryModels)
	require.NoError(t, err)

	c := NewCache(program, cfg, config.NewLogGroup(cfg), registry)
	result, err := doPointerAnalysis(c.program, c.shouldAnalyze)
	require.NoError(t, err)
	c.aliasOracle = newAliasOracle(result)
	for fn := range ssautil.AllFunctions(program) {
		if c.shouldAnalyze(fn) {
			c.analyzeFunction(fn)
		}
	}
	require.NotEmpty(t, c.summaries)

	before := map[ssa.Instruction]Dependency{}
	for _, s := range c.summaries {
		for i, d := range s.instrDeps {
			before[i] = d.copy()
		}
	}

	c.finalize()

	promoted := false
	for i, old := range before {
		now := c.summaries[i.Parent()].InstrDep(i)
		assert.True(t, old.Leq(now), "finalize lowered the verdict of %s in %s", i, i.Parent())
		if !now.Leq(old) {
			promoted = true
		}
	}
	assert.True(t, promoted, "classify's argument-dependent verdicts must be promoted by the fixpoint")
}
