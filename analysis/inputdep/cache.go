package inputdep

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/tum-i22/input-dependency-analyzer/analysis/config"
	"github.com/tum-i22/input-dependency-analyzer/analysis/lang"
	"github.com/tum-i22/input-dependency-analyzer/analysis/libmodel"
	"github.com/tum-i22/input-dependency-analyzer/internal/graphutil"
)

// Cache is the whole-module input-dependency analysis. Run analyzes every
// function in scope bottom-up over the callgraph, runs the finalize fixpoint
// that resolves cross-function argument and global dependencies, and then
// serves queries about instructions, blocks, functions and globals.
//
// A Cache runs once. It is not safe for concurrent use during Run; after
// Run returns, queries are read-only and may be issued concurrently.
type Cache struct {
	program  *ssa.Program
	config   *config.Config
	logger   *config.LogGroup
	registry *libmodel.Registry

	aliasOracle *aliasOracle
	summaries   map[*ssa.Function]*FunctionSummary

	// inputArgs and inputGlobals are the parameters and globals found to
	// carry input, computed by the finalize fixpoint.
	inputArgs    map[*ssa.Parameter]bool
	inputGlobals map[*ssa.Global]bool

	// globalDeps is the module-wide join of all writes to each global.
	globalDeps map[*ssa.Global]Dependency

	ran bool
}

// NewCache returns a cache ready to analyze program under cfg. The registry
// supplies the library function models.
func NewCache(program *ssa.Program, cfg *config.Config, logger *config.LogGroup, registry *libmodel.Registry) *Cache {
	return &Cache{
		program:      program,
		config:       cfg,
		logger:       logger,
		registry:     registry,
		summaries:    map[*ssa.Function]*FunctionSummary{},
		inputArgs:    map[*ssa.Parameter]bool{},
		inputGlobals: map[*ssa.Global]bool{},
		globalDeps:   map[*ssa.Global]Dependency{},
	}
}

// shouldAnalyze reports whether fn's body is analyzed, as opposed to being
// modeled or handled by the unknown-call policy: fn must have a body, sit
// outside the standard library, and match the package filter.
func (c *Cache) shouldAnalyze(fn *ssa.Function) bool {
	if lang.IsExternal(fn) || libmodel.IsStdFunction(fn) {
		return false
	}
	return c.config.MatchPkgFilter(lang.PackageNameFromFunction(fn))
}

// resolveCallees returns the possible callees of a call site: the static
// callee when there is one, and otherwise the callgraph targets recorded by
// the pointer analysis for dynamic and interface calls.
func (c *Cache) resolveCallees(instr ssa.CallInstruction) []*ssa.Function {
	if callee := instr.Common().StaticCallee(); callee != nil {
		return []*ssa.Function{callee}
	}
	if c.aliasOracle == nil {
		return nil
	}
	node := c.aliasOracle.CallGraph().Nodes[instr.Parent()]
	if node == nil {
		return nil
	}
	var callees []*ssa.Function
	for _, e := range node.Out {
		if e.Site == instr && e.Callee != nil && e.Callee.Func != nil {
			callees = append(callees, e.Callee.Func)
		}
	}
	return callees
}

// Run executes the whole-module analysis. It may be called once per cache.
func (c *Cache) Run() error {
	if c.ran {
		return fmt.Errorf("input-dependency analysis has already run")
	}

	start := time.Now()
	result, err := doPointerAnalysis(c.program, c.shouldAnalyze)
	if err != nil {
		return fmt.Errorf("pointer analysis: %w", err)
	}
	c.aliasOracle = newAliasOracle(result)
	c.logger.Infof("Pointer analysis terminated (%.2f s), building callgraph order", time.Since(start).Seconds())

	fg := graphutil.NewFnGraph(result.CallGraph, c.shouldAnalyze)
	sccs, err := fg.BottomUpSCCs()
	if err != nil {
		return err
	}
	recursion := 0
	for _, comp := range fg.SCCs() {
		if fg.IsRecursive(comp) {
			recursion++
		}
	}
	c.logger.Debugf("%d functions in %d components (%d recursion groups)", fg.Order(), len(sccs), recursion)

	// Phase 1: analyze callees before callers. Inside a recursion group,
	// calls to members not yet summarized take the top placeholder.
	for _, comp := range sccs {
		for _, fn := range comp {
			c.analyzeFunction(fn)
		}
	}
	// Functions in scope but absent from the callgraph (nothing references
	// them) still get a summary so queries about them have an answer.
	for fn := range ssautil.AllFunctions(c.program) {
		if c.shouldAnalyze(fn) {
			c.analyzeFunction(fn)
		}
	}
	c.logger.Infof("Analyzed %d functions (%.2f s)", len(c.summaries), time.Since(start).Seconds())

	// Phase 2: resolve argument and global dependencies module-wide.
	c.finalize()
	c.ran = true
	return nil
}

func (c *Cache) analyzeFunction(fn *ssa.Function) {
	if c.GetAnalysisInfo(fn) != nil {
		return
	}
	c.logger.Tracef("analyzing %s", lang.FnName(fn))
	summary := newIntraAnalysisState(c, fn).run()
	if !c.InsertAnalysisInfo(fn, summary) {
		c.logger.Warnf("duplicate analysis of %s discarded", lang.FnName(fn))
	}
}

// finalize runs the whole-program promotion fixpoint: parameters whose
// actuals are input-dependent at some call site, and globals written with
// input-dependent data, promote the argument- and value-dependent verdicts
// recorded in the summaries. Passes repeat until nothing changes; the
// iteration cap is defensive, the finite lattice guarantees termination.
func (c *Cache) finalize() {
	// Parameters of functions never called inside the module can receive
	// anything from unknown callers. Entry points have no callers by
	// construction and keep their parameters unresolved.
	called := map[*ssa.Function]bool{}
	for _, s := range c.summaries {
		for _, f := range s.CalledFunctions() {
			called[f] = true
		}
	}
	for fn := range c.summaries {
		if called[fn] || isEntryFunc(fn) {
			continue
		}
		for _, p := range fn.Params {
			c.inputArgs[p] = true
		}
	}

	iters := 0
	for ; iters < c.config.MaxFixpointIters; iters++ {
		changed := false
		for _, s := range c.summaries {
			for g, d := range s.GlobalWrites {
				if d.IsInputDependent() && !c.inputGlobals[g] {
					c.inputGlobals[g] = true
					changed = true
				}
			}
			for callee, cd := range s.called {
				for pos, d := range cd.argDeps {
					if !d.IsInputDependent() || pos >= len(callee.Params) {
						continue
					}
					if p := callee.Params[pos]; !c.inputArgs[p] {
						c.inputArgs[p] = true
						changed = true
					}
				}
			}
		}
		for _, s := range c.summaries {
			if s.finalize(c.inputArgs, c.inputGlobals) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	if iters >= c.config.MaxFixpointIters {
		c.logger.Warnf("finalize fixpoint hit the iteration cap (%d)", c.config.MaxFixpointIters)
	}
	c.logger.Infof("Finalize fixpoint stable after %d passes: %d input parameters, %d input globals",
		iters+1, len(c.inputArgs), len(c.inputGlobals))

	for _, s := range c.summaries {
		mergeDepMaps(c.globalDeps, s.GlobalWrites)
	}
}

func isEntryFunc(fn *ssa.Function) bool {
	return fn.Name() == "main" || fn.Name() == "init" || strings.HasPrefix(fn.Name(), "init#")
}

// InsertAnalysisInfo registers the summary for fn. It returns false and
// leaves the cache unchanged when fn already has a summary.
func (c *Cache) InsertAnalysisInfo(fn *ssa.Function, summary *FunctionSummary) bool {
	if _, ok := c.summaries[fn]; ok {
		return false
	}
	c.summaries[fn] = summary
	return true
}

// GetAnalysisInfo returns the summary of fn, or nil if fn has none.
func (c *Cache) GetAnalysisInfo(fn *ssa.Function) *FunctionSummary {
	return c.summaries[fn]
}

// Summaries exposes all function summaries, for reporting.
func (c *Cache) Summaries() map[*ssa.Function]*FunctionSummary {
	return c.summaries
}

// Program returns the program under analysis.
func (c *Cache) Program() *ssa.Program {
	return c.program
}

// Config returns the configuration of the analysis.
func (c *Cache) Config() *config.Config {
	return c.config
}

// summaryOf returns the summary holding verdicts for fn. Queries about a
// function the analysis never saw have no data: they soft-fail unless the
// configuration asks for strict queries.
func (c *Cache) summaryOf(fn *ssa.Function) *FunctionSummary {
	if s := c.summaries[fn]; s != nil {
		return s
	}
	if c.config.StrictQueries {
		panic(fmt.Sprintf("inputdep: no analysis information for %s", lang.FnName(fn)))
	}
	return nil
}

// IsInputDependent reports whether instruction i is input-dependent.
func (c *Cache) IsInputDependent(i ssa.Instruction) bool {
	s := c.summaryOf(i.Parent())
	return s != nil && s.IsInputDependent(i)
}

// IsInputDependentIn is the owner-explicit form of IsInputDependent, for
// callers that already hold the function and want to skip instructions that
// migrated to another function (wrappers, bound methods).
func (c *Cache) IsInputDependentIn(fn *ssa.Function, i ssa.Instruction) bool {
	s := c.summaryOf(fn)
	return s != nil && s.IsInputDependent(i)
}

// IsInputIndependent reports whether instruction i is unaffected by input.
func (c *Cache) IsInputIndependent(i ssa.Instruction) bool {
	s := c.summaryOf(i.Parent())
	return s != nil && s.IsInputIndependent(i)
}

// IsBlockInputDependent reports whether block b executes under an
// input-dependent branch.
func (c *Cache) IsBlockInputDependent(b *ssa.BasicBlock) bool {
	s := c.summaryOf(b.Parent())
	return s != nil && s.IsBlockInputDependent(b)
}

// IsInputDepFunction reports whether any instruction of fn is
// input-dependent.
func (c *Cache) IsInputDepFunction(fn *ssa.Function) bool {
	s := c.summaryOf(fn)
	return s != nil && s.IsInputDepFunction()
}

// IsGlobalInputDependent reports whether any write to g is input-dependent.
func (c *Cache) IsGlobalInputDependent(g *ssa.Global) bool {
	return c.globalDeps[g].IsInputDependent()
}
