package inputdep

import (
	"fmt"
	"io"

	"golang.org/x/tools/go/ssa"

	"github.com/tum-i22/input-dependency-analyzer/analysis/lang"
	"github.com/tum-i22/input-dependency-analyzer/internal/funcutil"
)

// callDeps records, for one callee, the join over all call sites in the
// caller of the dependency of each actual argument. The dependencies are
// expressed over the caller's own formals and globals.
type callDeps struct {
	argDeps map[int]Dependency
}

func (c *callDeps) merge(pos int, d Dependency) bool {
	if c.argDeps == nil {
		c.argDeps = map[int]Dependency{}
	}
	old, ok := c.argDeps[pos]
	if ok && d.Leq(old) {
		return false
	}
	c.argDeps[pos] = old.Merge(d)
	return true
}

// FunctionSummary holds the result of analyzing a single function: the
// dependency of every instruction and block, plus the interprocedural
// interface of the function expressed as formulas over its own formal
// parameters and globals.
type FunctionSummary struct {
	// Fn is the function summarized.
	Fn *ssa.Function

	// Return is the dependency of the returned value(s), a formula over
	// Fn's formals and globals.
	Return Dependency

	// ArgOut maps each pointer-typed formal the function writes through to
	// the dependency of the written data, again over Fn's own formals.
	ArgOut map[*ssa.Parameter]Dependency

	// GlobalWrites maps each global the function stores to onto the
	// dependency of the stored data.
	GlobalWrites map[*ssa.Global]Dependency

	instrDeps   map[ssa.Instruction]Dependency
	valueDeps   map[ssa.Value]*compositeDependency
	blockCtx    map[*ssa.BasicBlock]Dependency
	unreachable map[*ssa.BasicBlock]bool
	called      map[*ssa.Function]*callDeps
}

// NewFunctionSummary returns an empty summary for fn.
func NewFunctionSummary(fn *ssa.Function) *FunctionSummary {
	return &FunctionSummary{
		Fn:           fn,
		ArgOut:       map[*ssa.Parameter]Dependency{},
		GlobalWrites: map[*ssa.Global]Dependency{},
		instrDeps:    map[ssa.Instruction]Dependency{},
		valueDeps:    map[ssa.Value]*compositeDependency{},
		blockCtx:     map[*ssa.BasicBlock]Dependency{},
		unreachable:  map[*ssa.BasicBlock]bool{},
		called:       map[*ssa.Function]*callDeps{},
	}
}

// InstrDep returns the dependency recorded for instruction i. Instructions
// in unreachable blocks have no recorded dependency and report bottom.
func (s *FunctionSummary) InstrDep(i ssa.Instruction) Dependency {
	return s.instrDeps[i]
}

// IsInputDependent reports whether instruction i was found input-dependent.
func (s *FunctionSummary) IsInputDependent(i ssa.Instruction) bool {
	return s.instrDeps[i].IsInputDependent()
}

// IsInputIndependent reports whether instruction i is unaffected by input.
// Unresolved argument- or value-dependent verdicts count as independent
// once the summary is finalized.
func (s *FunctionSummary) IsInputIndependent(i ssa.Instruction) bool {
	return !s.instrDeps[i].IsInputDependent()
}

// IsBlockInputDependent reports whether block b executes under an
// input-dependent branch condition.
func (s *FunctionSummary) IsBlockInputDependent(b *ssa.BasicBlock) bool {
	return s.blockCtx[b].IsInputDependent()
}

// IsBlockUnreachable reports whether b cannot be reached from the entry.
func (s *FunctionSummary) IsBlockUnreachable(b *ssa.BasicBlock) bool {
	return s.unreachable[b]
}

// IsInputDepFunction reports whether any instruction of the function is
// input-dependent.
func (s *FunctionSummary) IsInputDepFunction() bool {
	for _, d := range s.instrDeps {
		if d.IsInputDependent() {
			return true
		}
	}
	return false
}

// CalledFunctions returns the callees recorded during analysis.
func (s *FunctionSummary) CalledFunctions() []*ssa.Function {
	var fns []*ssa.Function
	for f := range s.called {
		fns = append(fns, f)
	}
	return fns
}

// CallArgDep returns the joined dependency of the actual argument at
// position pos over all recorded calls from this function to callee.
func (s *FunctionSummary) CallArgDep(callee *ssa.Function, pos int) (Dependency, bool) {
	c, ok := s.called[callee]
	if !ok {
		return Dependency{}, false
	}
	d, ok := c.argDeps[pos]
	return d, ok
}

func (s *FunctionSummary) mergeInstrDep(i ssa.Instruction, d Dependency) bool {
	old, ok := s.instrDeps[i]
	if ok && d.Leq(old) {
		return false
	}
	s.instrDeps[i] = old.Merge(d)
	return true
}

func (s *FunctionSummary) mergeReturnDep(d Dependency) bool {
	if d.Leq(s.Return) {
		return false
	}
	s.Return = s.Return.Merge(d)
	return true
}

func (s *FunctionSummary) mergeArgOut(p *ssa.Parameter, d Dependency) bool {
	old := s.ArgOut[p]
	if _, ok := s.ArgOut[p]; ok && d.Leq(old) {
		return false
	}
	s.ArgOut[p] = old.Merge(d)
	return true
}

func (s *FunctionSummary) mergeGlobalWrite(g *ssa.Global, d Dependency) bool {
	old := s.GlobalWrites[g]
	if _, ok := s.GlobalWrites[g]; ok && d.Leq(old) {
		return false
	}
	s.GlobalWrites[g] = old.Merge(d)
	return true
}

func (s *FunctionSummary) mergeCallArgDep(callee *ssa.Function, pos int, d Dependency) bool {
	c, ok := s.called[callee]
	if !ok {
		c = &callDeps{}
		s.called[callee] = c
	}
	return c.merge(pos, d)
}

// finalize promotes the stored argument- and value-dependent verdicts
// against the parameters and globals known to carry input. It returns true
// when any verdict was raised. finalize may be called repeatedly; once the
// caller observes no change across all summaries the results are stable.
func (s *FunctionSummary) finalize(inputArgs map[*ssa.Parameter]bool, inputGlobals map[*ssa.Global]bool) bool {
	changed := false
	for i, d := range s.instrDeps {
		if nd, ch := d.promote(inputArgs, inputGlobals); ch {
			s.instrDeps[i] = nd
			changed = true
		}
	}
	for v, c := range s.valueDeps {
		if nd, ch := c.whole.promote(inputArgs, inputGlobals); ch {
			c.whole = nd
			changed = true
		}
		for sel, e := range c.elements {
			if nd, ch := e.promote(inputArgs, inputGlobals); ch {
				c.elements[sel] = nd
				changed = true
			}
		}
		s.valueDeps[v] = c
	}
	for b, d := range s.blockCtx {
		if nd, ch := d.promote(inputArgs, inputGlobals); ch {
			s.blockCtx[b] = nd
			changed = true
		}
	}
	if nd, ch := s.Return.promote(inputArgs, inputGlobals); ch {
		s.Return = nd
		changed = true
	}
	for p, d := range s.ArgOut {
		if nd, ch := d.promote(inputArgs, inputGlobals); ch {
			s.ArgOut[p] = nd
			changed = true
		}
	}
	for g, d := range s.GlobalWrites {
		if nd, ch := d.promote(inputArgs, inputGlobals); ch {
			s.GlobalWrites[g] = nd
			changed = true
		}
	}
	for _, c := range s.called {
		for pos, d := range c.argDeps {
			if nd, ch := d.promote(inputArgs, inputGlobals); ch {
				c.argDeps[pos] = nd
				changed = true
			}
		}
	}
	return changed
}

// Counts aggregates per-function instruction and block statistics.
type Counts struct {
	Instructions      int
	InputDep          int
	InputIndep        int
	Unresolved        int
	UnreachableInstrs int
	Blocks            int
	InputDepBlocks    int
	UnreachableBlocks int
}

// Count tallies the verdicts of the summary over the function body.
func (s *FunctionSummary) Count() Counts {
	var c Counts
	lang.IterateInstructions(s.Fn, func(_ int, i ssa.Instruction) {
		c.Instructions++
		if s.unreachable[i.Block()] {
			c.UnreachableInstrs++
			return
		}
		d := s.instrDeps[i]
		switch {
		case d.IsInputDependent():
			c.InputDep++
		case d.IsArgumentDependent() || d.IsValueDependent():
			c.Unresolved++
		default:
			c.InputIndep++
		}
	})
	c.Blocks = len(s.Fn.Blocks)
	for _, b := range s.Fn.Blocks {
		if s.unreachable[b] {
			c.UnreachableBlocks++
		} else if s.blockCtx[b].IsInputDependent() {
			c.InputDepBlocks++
		}
	}
	return c
}

// Print writes a human-readable dump of the summary, in block order.
func (s *FunctionSummary) Print(w io.Writer) {
	fmt.Fprintf(w, "function %s:\n", lang.FnName(s.Fn))
	for _, b := range s.Fn.Blocks {
		tag := ""
		if s.unreachable[b] {
			tag = " (unreachable)"
		} else if s.blockCtx[b].IsInputDependent() {
			tag = " (input-dep context)"
		}
		fmt.Fprintf(w, "  block %d%s:\n", b.Index, tag)
		for _, i := range b.Instrs {
			fmt.Fprintf(w, "    [%s] %s\n", s.instrDeps[i], i)
		}
	}
	fmt.Fprintf(w, "  return: %s\n", s.Return)
}

func mergeDepMaps[T comparable](dst map[T]Dependency, src map[T]Dependency) {
	funcutil.Merge(dst, src, func(a, b Dependency) Dependency { return a.Merge(b) })
}
