package inputdep_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/ssa"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/tum-i22/input-dependency-analyzer/analysis/config"
	"github.com/tum-i22/input-dependency-analyzer/analysis/inputdep"
	"github.com/tum-i22/input-dependency-analyzer/analysis/lang"
	"github.com/tum-i22/input-dependency-analyzer/analysis/libmodel"
	"github.com/tum-i22/input-dependency-analyzer/internal/analysistest"
)

func runTest(t *testing.T, name string) (*ssa.Program, *inputdep.Cache) {
	dir := filepath.Join("..", "..", "testdata", "src", "inputdep", name)
	program, cfg := analysistest.LoadTest(t, dir, nil)

	registry, err := libmodel.NewRegistry(cfg.LibraryModels)
	require.NoError(t, err)

	cache := inputdep.NewCache(program, cfg, config.NewLogGroup(cfg), registry)
	require.NoError(t, cache.Run())
	return program, cache
}

// callsTo returns the call instructions in fn whose static callee is named
// callee.
func callsTo(fn *ssa.Function, callee string) []*ssa.Call {
	var calls []*ssa.Call
	lang.IterateInstructions(fn, func(_ int, i ssa.Instruction) {
		if call, ok := i.(*ssa.Call); ok {
			if sc := call.Call.StaticCallee(); sc != nil && sc.Name() == callee {
				calls = append(calls, call)
			}
		}
	})
	return calls
}

func TestPureFunctionIsInputIndependent(t *testing.T) {
	program, cache := runTest(t, "pure")
	compute := analysistest.FindFunction(program, "compute")
	require.NotNil(t, compute)

	assert.False(t, cache.IsInputDepFunction(compute))
	lang.IterateInstructions(compute, func(_ int, i ssa.Instruction) {
		assert.True(t, cache.IsInputIndependent(i), "instruction %s must be input-independent", i)
	})
	for _, b := range compute.Blocks {
		assert.False(t, cache.IsBlockInputDependent(b))
	}
}

func TestBranchesImplicitFlow(t *testing.T) {
	program, cache := runTest(t, "branches")
	classify := analysistest.FindFunction(program, "classify")
	require.NotNil(t, classify)

	// The argument carries input at the only call site, so the branch on it
	// and the value it selects are input-dependent.
	assert.True(t, cache.IsInputDepFunction(classify))

	summary := cache.GetAnalysisInfo(classify)
	require.NotNil(t, summary)
	assert.True(t, summary.Return.IsInputDependent(), "returned value is chosen by an input-dependent branch")

	depBlocks := 0
	for _, b := range classify.Blocks {
		if cache.IsBlockInputDependent(b) {
			depBlocks++
		}
	}
	assert.GreaterOrEqual(t, depBlocks, 2, "both branch arms execute under input-dependent control")

	// Every line annotated @InputDep in the test program holds at least one
	// input-dependent instruction.
	srcFile := filepath.Join("..", "..", "testdata", "src", "inputdep", "branches", "main.go")
	wantDep, _ := analysistest.ExpectedVerdicts(t, srcFile)
	require.NotEmpty(t, wantDep)

	depLines := map[int]bool{}
	for _, fn := range []*ssa.Function{classify, analysistest.FindFunction(program, "main")} {
		require.NotNil(t, fn)
		lang.IterateInstructions(fn, func(_ int, i ssa.Instruction) {
			if !i.Pos().IsValid() || !cache.IsInputDependent(i) {
				return
			}
			pos := program.Fset.Position(i.Pos())
			// Key verdicts by file as well as line so instructions of other
			// source files can never satisfy an annotation.
			if filepath.Base(pos.Filename) != filepath.Base(srcFile) {
				return
			}
			depLines[pos.Line] = true
			assert.True(t, cache.IsInputDependentIn(fn, i), "owner-explicit query agrees")
		})
	}
	for line := range wantDep {
		assert.True(t, depLines[line], "expected an input-dependent instruction at line %d", line)
	}
}

func TestCallSiteComposition(t *testing.T) {
	program, cache := runTest(t, "calls")
	main := analysistest.FindFunction(program, "main")
	require.NotNil(t, main)

	calls := callsTo(main, "shout")
	require.Len(t, calls, 2)
	for _, call := range calls {
		if _, isConst := call.Call.Args[0].(*ssa.Const); isConst {
			assert.True(t, cache.IsInputIndependent(call),
				"calling shout with a constant must stay input-independent")
		} else {
			assert.True(t, cache.IsInputDependent(call),
				"calling shout with an environment value must be input-dependent")
		}
	}

	// Inside shout, the verdicts account for every caller: the parameter
	// received input at one call site.
	shout := analysistest.FindFunction(program, "shout")
	require.NotNil(t, shout)
	assert.True(t, cache.IsInputDepFunction(shout))
}

func TestFieldWriteThroughPointerParam(t *testing.T) {
	program, cache := runTest(t, "fields")
	brand := analysistest.FindFunction(program, "brand")
	require.NotNil(t, brand)

	s := cache.GetAnalysisInfo(brand)
	require.NotNil(t, s)
	require.Len(t, brand.Params, 1)

	// The store lands in a field of the pointer formal; it must surface in
	// the out-argument formula so callers see their struct tainted.
	d, ok := s.ArgOut[brand.Params[0]]
	require.True(t, ok)
	assert.True(t, d.IsInputDependent())
}

func TestGlobalFieldWriteReachesSiblings(t *testing.T) {
	program, cache := runTest(t, "fields")
	read := analysistest.FindFunction(program, "read")
	require.NotNil(t, read)

	shared, ok := read.Pkg.Members["shared"].(*ssa.Global)
	require.True(t, ok)
	assert.True(t, cache.IsGlobalInputDependent(shared),
		"the store into shared.name must count as a write to the global")

	// read returns shared.name; the fixpoint carries the write from main.
	s := cache.GetAnalysisInfo(read)
	require.NotNil(t, s)
	assert.True(t, s.Return.IsInputDependent())
	assert.True(t, cache.IsInputDepFunction(read))
}

func TestMutualRecursionTerminates(t *testing.T) {
	program, cache := runTest(t, "recursion")
	for _, name := range []string{"even", "odd"} {
		fn := analysistest.FindFunction(program, name)
		require.NotNil(t, fn)
		assert.True(t, cache.IsInputDepFunction(fn))
	}

	// Queries are idempotent once the analysis has run.
	even := analysistest.FindFunction(program, "even")
	first := cache.IsInputDepFunction(even)
	assert.Equal(t, first, cache.IsInputDepFunction(even))
}

func TestUnknownCallPolicy(t *testing.T) {
	program, cache := runTest(t, "unknown")
	main := analysistest.FindFunction(program, "main")
	require.NotNil(t, main)

	calls := callsTo(main, "Unmarshal")
	require.Len(t, calls, 1)
	assert.True(t, cache.IsInputDependent(calls[0]), "unmodeled external call result is input-dependent")

	// The pointer argument was tainted, so reading the decoded map is too.
	foundLookup := false
	lang.IterateInstructions(main, func(_ int, i ssa.Instruction) {
		if _, ok := i.(*ssa.Lookup); ok {
			foundLookup = true
			assert.True(t, cache.IsInputDependent(i), "read through a tainted pointer argument")
		}
	})
	assert.True(t, foundLookup)
}

func TestRunIsSingleShot(t *testing.T) {
	_, cache := runTest(t, "pure")
	assert.Error(t, cache.Run(), "a cache must refuse to run twice")
}

func TestInsertAnalysisInfoOnce(t *testing.T) {
	program, cache := runTest(t, "pure")
	compute := analysistest.FindFunction(program, "compute")
	require.NotNil(t, compute)

	existing := cache.GetAnalysisInfo(compute)
	require.NotNil(t, existing)
	assert.False(t, cache.InsertAnalysisInfo(compute, inputdep.NewFunctionSummary(compute)))
	assert.Same(t, existing, cache.GetAnalysisInfo(compute), "a duplicate insert must not replace the summary")
}

func TestStatistics(t *testing.T) {
	_, cache := runTest(t, "branches")
	stats := inputdep.ComputeStatistics(cache)

	assert.NotZero(t, stats.Totals.Instructions)
	assert.NotZero(t, stats.Totals.InputDep)
	assert.GreaterOrEqual(t, stats.InputDepFunctions, 1)

	var report bytes.Buffer
	stats.Report(&report)
	assert.Contains(t, report.String(), "classify")
}

func TestSaveAndLoadResults(t *testing.T) {
	program, cache := runTest(t, "branches")
	classify := analysistest.FindFunction(program, "classify")
	require.NotNil(t, classify)

	var buf bytes.Buffer
	require.NoError(t, inputdep.SaveResults(cache, &buf))

	saved, err := inputdep.LoadResults(&buf)
	require.NoError(t, err)

	name := classify.String()
	assert.Contains(t, saved.Functions(), name)
	assert.True(t, saved.IsInputDepFunction(name))
	assert.False(t, saved.IsInputDepFunction("no.such.Function"))

	// Saved verdicts agree with the live cache, instruction by instruction.
	ord := 0
	lang.IterateInstructions(classify, func(_ int, i ssa.Instruction) {
		assert.Equal(t, cache.IsInputDependent(i), saved.IsInputDependent(name, ord),
			"saved verdict differs for instruction %d", ord)
		ord++
	})
	for _, b := range classify.Blocks {
		assert.Equal(t, cache.IsBlockInputDependent(b), saved.IsBlockInputDependent(name, b.Index))
	}
}

func TestSavedResultsKeepInstantiationsDistinct(t *testing.T) {
	_, cache := runTest(t, "generics")

	var buf bytes.Buffer
	require.NoError(t, inputdep.SaveResults(cache, &buf))
	saved, err := inputdep.LoadResults(&buf)
	require.NoError(t, err)

	// tag[string] receives the environment value, tag[int] a constant. The
	// two instantiations carry different verdicts and must be saved under
	// different names.
	names := saved.Functions()
	assert.Contains(t, names, "command-line-arguments.tag[string]")
	assert.Contains(t, names, "command-line-arguments.tag[int]")
	assert.True(t, saved.IsInputDepFunction("command-line-arguments.tag[string]"))
	assert.False(t, saved.IsInputDepFunction("command-line-arguments.tag[int]"))
}

func TestWriteStatsDB(t *testing.T) {
	program, cache := runTest(t, "branches")
	classify := analysistest.FindFunction(program, "classify")
	require.NotNil(t, classify)
	stats := inputdep.ComputeStatistics(cache)

	path := filepath.Join(t.TempDir(), "stats.sqlite")
	require.NoError(t, inputdep.WriteStatsDB(path, stats))

	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	require.NoError(t, err)
	defer conn.Close()

	rows := 0
	err = sqlitex.ExecuteTransient(conn, "SELECT COUNT(*) FROM function_stats WHERE name = ?",
		&sqlitex.ExecOptions{
			Args: []any{lang.FnName(classify)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rows = stmt.ColumnInt(0)
				return nil
			},
		})
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
}
