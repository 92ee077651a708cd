package inputdep

import (
	"go/types"

	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"

	"github.com/tum-i22/input-dependency-analyzer/analysis/lang"
	"github.com/tum-i22/input-dependency-analyzer/analysis/libmodel"
)

// blockVariant selects how a block folds control context into the facts
// computed for its instructions.
type blockVariant int

const (
	// plainBlock has no ambient context. Only the entry block is plain.
	plainBlock blockVariant = iota
	// reflectingBlock re-reads upstream facts lazily on every visit, so
	// refinements made after the first visit are reflected. It carries no
	// ambient context of its own.
	reflectingBlock
	// nonDetBlock additionally folds the dependency of the branch
	// condition(s) it executes under into every read and write.
	nonDetBlock
)

// blockState is the per-block view of the analysis state. Upgrading a block
// from reflecting to non-deterministic only ever raises facts, so revisits
// remain monotone.
type blockState struct {
	state   *intraAnalysisState
	block   *ssa.BasicBlock
	variant blockVariant
	ambient Dependency
}

// addContext folds the ambient branch context into d for reads and writes
// performed in this block.
func (bs *blockState) addContext(d Dependency) Dependency {
	if bs.variant != nonDetBlock || d.IsInputDependent() {
		return d
	}
	return d.Merge(bs.ambient)
}

// mergeAmbient raises the ambient context and upgrades the block variant.
func (bs *blockState) mergeAmbient(d Dependency) bool {
	changed := false
	if bs.variant != nonDetBlock {
		bs.variant = nonDetBlock
		changed = true
	}
	if !d.Leq(bs.ambient) {
		bs.ambient = bs.ambient.Merge(d)
		changed = true
	}
	if changed {
		bs.state.summary.blockCtx[bs.block] = bs.ambient
	}
	return changed
}

// intraAnalysisState drives the forward iterative analysis of one function.
// All facts live in function-level maps and are only ever raised, so the
// worklist terminates on the finite lattice.
type intraAnalysisState struct {
	cache    *Cache
	summary  *FunctionSummary
	function *ssa.Function

	blockStates map[*ssa.BasicBlock]*blockState
	blocksSeen  map[*ssa.BasicBlock]bool
	curBlock    *blockState
	changeFlag  bool

	ipdom      []int
	aliasCache map[ssa.Value][]ssa.Value
}

func newIntraAnalysisState(cache *Cache, fn *ssa.Function) *intraAnalysisState {
	state := &intraAnalysisState{
		cache:       cache,
		summary:     NewFunctionSummary(fn),
		function:    fn,
		blockStates: map[*ssa.BasicBlock]*blockState{},
		blocksSeen:  map[*ssa.BasicBlock]bool{},
		aliasCache:  map[ssa.Value][]ssa.Value{},
	}
	state.initialize()
	return state
}

func (state *intraAnalysisState) initialize() {
	fn := state.function
	reach := lang.ReachableBlocks(fn)
	for _, b := range fn.Blocks {
		variant := reflectingBlock
		if b == fn.Blocks[0] {
			variant = plainBlock
		}
		state.blockStates[b] = &blockState{state: state, block: b, variant: variant}
		if !reach[b] {
			state.summary.unreachable[b] = true
		}
	}
	state.ipdom = postDominators(fn)

	for _, p := range fn.Params {
		state.setValueDep(p, ArgDep(p))
	}
	// Free variables come from an enclosing function the analysis does not
	// track through closure creation sites.
	for _, fv := range fn.FreeVars {
		state.setValueDep(fv, Dep())
	}
}

// run executes the forward iterative analysis until no block changes.
func (state *intraAnalysisState) run() *FunctionSummary {
	lang.RunForwardIterative(state, state.function)
	state.recordMissingInstrDeps()
	return state.summary
}

// recordMissingInstrDeps gives every reachable instruction an explicit
// verdict; non-value instructions such as Jump never pass through the op
// methods' update path.
func (state *intraAnalysisState) recordMissingInstrDeps() {
	lang.IterateInstructions(state.function, func(_ int, i ssa.Instruction) {
		if state.summary.unreachable[i.Block()] {
			return
		}
		if _, ok := state.summary.instrDeps[i]; !ok {
			bs := state.blockStates[i.Block()]
			state.summary.mergeInstrDep(i, bs.addContext(Indep()))
		}
	})
}

// NewBlock implements lang.IterativeAnalysis. The change flag starts true on
// the first visit of a block so all reachable blocks get visited at least
// once.
func (state *intraAnalysisState) NewBlock(block *ssa.BasicBlock) {
	state.changeFlag = false
	state.curBlock = state.blockStates[block]
	if !state.blocksSeen[block] {
		state.blocksSeen[block] = true
		state.changeFlag = true
	}
}

// Pre implements lang.IterativeAnalysis.
func (state *intraAnalysisState) Pre(_ ssa.Instruction) {}

// Post implements lang.IterativeAnalysis.
func (state *intraAnalysisState) Post(_ ssa.Instruction) {}

// ChangedOnEndBlock implements lang.IterativeAnalysis.
func (state *intraAnalysisState) ChangedOnEndBlock() bool {
	return state.changeFlag
}

// valueDep returns the dependency of v as observed from the current block,
// with the ambient branch context folded in. Values defined by instructions
// not yet visited report bottom; the worklist revisits dependent blocks once
// they are raised.
func (state *intraAnalysisState) valueDep(v ssa.Value) Dependency {
	return state.curBlock.addContext(state.rawValueDep(v))
}

func (state *intraAnalysisState) rawValueDep(v ssa.Value) Dependency {
	if c, ok := state.summary.valueDeps[v]; ok {
		return c.Flatten()
	}
	switch v := v.(type) {
	case *ssa.Const, *ssa.Function, *ssa.Builtin:
		return Indep()
	case *ssa.Parameter:
		return ArgDep(v)
	case *ssa.Global:
		return ValueDep(v)
	case *ssa.FreeVar:
		return Dep()
	default:
		return Indep()
	}
}

// composite returns the composite dependency tracked for v, creating it on
// first access.
func (state *intraAnalysisState) composite(v ssa.Value) *compositeDependency {
	if c, ok := state.summary.valueDeps[v]; ok {
		return c
	}
	c := newComposite(state.rawValueDep(v))
	state.summary.valueDeps[v] = c
	return c
}

// setValueDep raises the whole-value dependency of v.
func (state *intraAnalysisState) setValueDep(v ssa.Value, d Dependency) {
	if state.composite(v).MergeWhole(d) {
		state.changeFlag = true
	}
}

// setElementDep raises the dependency of one element of v.
func (state *intraAnalysisState) setElementDep(v ssa.Value, selector string, d Dependency) {
	if state.composite(v).MergeElement(selector, d) {
		state.changeFlag = true
	}
}

// update records the verdict for a value-producing instruction: the
// instruction verdict and the dependency of the value it defines, both with
// the ambient context folded in.
func (state *intraAnalysisState) update(instr ssa.Instruction, d Dependency) {
	d = state.curBlock.addContext(d)
	if state.summary.mergeInstrDep(instr, d) {
		state.changeFlag = true
	}
	if v, ok := instr.(ssa.Value); ok {
		state.setValueDep(v, d)
	}
}

// operandJoin is the generic transfer function: the join of the
// dependencies of all operands.
func (state *intraAnalysisState) operandJoin(instr ssa.Instruction) Dependency {
	d := Indep()
	var rands []*ssa.Value
	for _, v := range instr.Operands(rands) {
		if *v == nil {
			continue
		}
		if f, ok := (*v).(*ssa.Function); ok && f == instr.Parent() {
			continue
		}
		d = d.Merge(state.valueDep(*v))
	}
	return d
}

// mergeAliases raises the dependency of every value that may alias addr.
// Aliased writes are weak updates.
func (state *intraAnalysisState) mergeAliases(addr ssa.Value, d Dependency) {
	for _, a := range state.aliases(addr) {
		state.setValueDep(a, d)
	}
}

// aliases returns the values of the current function that may alias v,
// according to the pointer analysis. Results are memoized for the lifetime
// of the function analysis.
func (state *intraAnalysisState) aliases(v ssa.Value) []ssa.Value {
	if as, ok := state.aliasCache[v]; ok {
		return as
	}
	var as []ssa.Value
	if state.cache.aliasOracle != nil && pointer.CanPoint(v.Type()) {
		lang.IterateValues(state.function, func(_ int, v2 ssa.Value) {
			if v2 == v || v2 == nil || !pointer.CanPoint(v2.Type()) {
				return
			}
			if state.cache.aliasOracle.MayAlias(v, v2) {
				as = append(as, v2)
			}
		})
	}
	state.aliasCache[v] = as
	return as
}

// outParam returns the formal parameter of the current function that addr
// stores through, if any: either the parameter itself or a value aliasing
// it.
func (state *intraAnalysisState) outParam(addr ssa.Value) *ssa.Parameter {
	if p, ok := addr.(*ssa.Parameter); ok {
		return p
	}
	for _, p := range state.function.Params {
		if !pointer.CanPoint(p.Type()) {
			continue
		}
		if state.cache.aliasOracle != nil && state.cache.aliasOracle.MayAlias(addr, p) {
			return p
		}
	}
	return nil
}

// recordWrite dispatches a store of data with dependency d through addr:
// per-element updates for field and index addresses, summary bookkeeping
// for globals and out-parameters, and weak updates of may-aliases. For
// element writes the bookkeeping applies to the underlying base: a store
// into a field of a global or of a pointer formal must be visible to
// callers and to the module fixpoint.
func (state *intraAnalysisState) recordWrite(addr ssa.Value, d Dependency) {
	d = state.curBlock.addContext(d)
	switch a := addr.(type) {
	case *ssa.FieldAddr:
		state.setElementDep(a.X, fieldSelector(a), d)
		state.recordBaseWrite(underlyingBase(a.X), d)
	case *ssa.IndexAddr:
		state.setElementDep(a.X, indexSelector, d)
		state.recordBaseWrite(underlyingBase(a.X), d)
	case *ssa.Global:
		state.setValueDep(a, d)
		if state.summary.mergeGlobalWrite(a, d) {
			state.changeFlag = true
		}
		state.recordArgOut(a, d)
	default:
		state.setValueDep(addr, d)
		state.mergeAliases(addr, d)
		state.recordArgOut(addr, d)
	}
}

// recordBaseWrite performs the cross-function bookkeeping for a write that
// lands somewhere inside base: global-write recording, out-parameter
// recording, and weak updates of the base's may-aliases. The per-element
// precision stays with the element map of the address's immediate base.
func (state *intraAnalysisState) recordBaseWrite(base ssa.Value, d Dependency) {
	if g, ok := base.(*ssa.Global); ok {
		if state.summary.mergeGlobalWrite(g, d) {
			state.changeFlag = true
		}
	}
	state.mergeAliases(base, d)
	state.recordArgOut(base, d)
}

func (state *intraAnalysisState) recordArgOut(addr ssa.Value, d Dependency) {
	if p := state.outParam(addr); p != nil {
		if state.summary.mergeArgOut(p, d) {
			state.changeFlag = true
		}
	}
}

// underlyingBase strips field and index addressing to the value the write
// ultimately lands in.
func underlyingBase(v ssa.Value) ssa.Value {
	for {
		switch a := v.(type) {
		case *ssa.FieldAddr:
			v = a.X
		case *ssa.IndexAddr:
			v = a.X
		default:
			return v
		}
	}
}

// loadDep computes the dependency of the data read through addr.
func (state *intraAnalysisState) loadDep(addr ssa.Value) Dependency {
	switch a := addr.(type) {
	case *ssa.FieldAddr:
		return state.curBlock.addContext(state.composite(a.X).Element(fieldSelector(a)))
	case *ssa.IndexAddr:
		return state.curBlock.addContext(state.composite(a.X).Element(indexSelector))
	default:
		return state.valueDep(addr)
	}
}

func fieldSelector(fa *ssa.FieldAddr) string {
	s := fa.X.Type().Underlying().(*types.Pointer).Elem().Underlying().(*types.Struct)
	return "." + s.Field(fa.Field).Name()
}

// markControlled folds the dependency of a branch condition into every
// block whose execution the branch decides.
func (state *intraAnalysisState) markControlled(branch *ssa.BasicBlock, cond Dependency) {
	if cond.IsInputIndependent() {
		return
	}
	for _, b := range controlledBlocks(state.function, branch, state.ipdom) {
		if state.blockStates[b].mergeAmbient(cond) {
			state.changeFlag = true
		}
	}
}

// processCall analyzes one call site: composition with an analyzed callee
// summary, a library model, or the conservative unknown-call policy.
func (state *intraAnalysisState) processCall(instr ssa.CallInstruction) {
	args := lang.GetArgs(instr)

	// Builtins (append, len, copy, ...) propagate their operands.
	if _, ok := instr.Common().Value.(*ssa.Builtin); ok {
		state.update(instr, state.operandJoin(instr))
		return
	}

	callees := state.cache.resolveCallees(instr)
	if len(callees) == 0 {
		state.unknownCall(instr, args)
		return
	}
	d := Indep()
	for _, callee := range callees {
		d = d.Merge(state.callDep(callee, args))
	}
	state.update(instr, d)
}

// callDep computes the dependency contribution of one resolved callee. A
// callee in the analysis scope composes its summary; a callee outside the
// scope composes its library model if one is registered, and otherwise falls
// back to the unknown-call policy.
func (state *intraAnalysisState) callDep(callee *ssa.Function, args []ssa.Value) Dependency {
	name := lang.FnName(callee)
	reg := state.cache.registry

	if state.cache.shouldAnalyze(callee) {
		if summary := state.cache.GetAnalysisInfo(callee); summary != nil {
			return state.composeSummary(callee, summary, args)
		}
		// Recursion: the callee sits in the same strongly connected
		// component and has not been summarized yet. Top is the safe
		// placeholder; the finalize passes never lower it.
		state.recordCallArgs(callee, args)
		return Dep()
	}
	if reg.HasModel(name) {
		reg.Resolve(callee, name)
		return state.composeModel(reg.ModelOf(name), args)
	}
	return state.unknownCallDep(args)
}

// composeSummary substitutes the dependencies of the actual arguments into
// the callee's summary formulas.
func (state *intraAnalysisState) composeSummary(callee *ssa.Function, summary *FunctionSummary, args []ssa.Value) Dependency {
	state.recordCallArgs(callee, args)

	// Writes the callee performs through its pointer formals land on our
	// actuals.
	for p, formula := range summary.ArgOut {
		pos := paramIndex(callee, p)
		if pos < 0 || pos >= len(args) {
			continue
		}
		state.recordWrite(args[pos], state.substitute(formula, callee, args))
	}
	for g, formula := range summary.GlobalWrites {
		d := state.curBlock.addContext(state.substitute(formula, callee, args))
		state.setValueDep(g, d)
		if state.summary.mergeGlobalWrite(g, d) {
			state.changeFlag = true
		}
	}
	return state.substitute(summary.Return, callee, args)
}

// substitute rewrites a formula over the callee's formals into a dependency
// over the caller's state, joining the dependency of each named actual.
func (state *intraAnalysisState) substitute(formula Dependency, callee *ssa.Function, args []ssa.Value) Dependency {
	if formula.IsInputDependent() {
		return Dep()
	}
	res := Indep()
	if len(formula.Globals()) > 0 {
		var globals []*ssa.Global
		for g := range formula.Globals() {
			globals = append(globals, g)
		}
		res = res.Merge(ValueDep(globals...))
	}
	for p := range formula.Args() {
		pos := paramIndex(callee, p)
		if pos < 0 || pos >= len(args) {
			// A formal of some other function leaked into the formula;
			// keep it unresolved, finalization handles it.
			res = res.Merge(ArgDep(p))
			continue
		}
		res = res.Merge(state.valueDep(args[pos]))
	}
	return res
}

// composeModel applies a library model's formulas to the call site.
func (state *intraAnalysisState) composeModel(m *libmodel.Model, args []ssa.Value) Dependency {
	for pos, f := range m.OutArgs {
		if pos < len(args) {
			state.recordWrite(args[pos], state.formulaDep(f, args))
		}
	}
	return state.formulaDep(m.Return, args)
}

func (state *intraAnalysisState) formulaDep(f libmodel.Formula, args []ssa.Value) Dependency {
	switch f.Kind {
	case libmodel.Deterministic:
		return Indep()
	case libmodel.InputDependent:
		return Dep()
	default:
		d := Indep()
		for _, pos := range f.Args {
			if pos < len(args) {
				d = d.Merge(state.valueDep(args[pos]))
			}
		}
		return d
	}
}

// unknownCall applies the conservative policy for calls the analysis can
// neither analyze nor model, and records the verdict on the instruction.
func (state *intraAnalysisState) unknownCall(instr ssa.CallInstruction, args []ssa.Value) {
	state.update(instr, state.unknownCallDep(args))
}

// unknownCallDep taints everything an unknown callee could touch: its
// result, and the pointees of every pointer-like actual.
func (state *intraAnalysisState) unknownCallDep(args []ssa.Value) Dependency {
	for _, a := range args {
		if pointer.CanPoint(a.Type()) {
			state.recordWrite(a, Dep())
		}
	}
	return Dep()
}

// recordCallArgs joins the dependency of each actual into the per-callee
// call record used by the whole-program fixpoint.
func (state *intraAnalysisState) recordCallArgs(callee *ssa.Function, args []ssa.Value) {
	n := len(callee.Params)
	for pos, a := range args {
		if pos >= n {
			break
		}
		if state.summary.mergeCallArgDep(callee, pos, state.valueDep(a)) {
			state.changeFlag = true
		}
	}
}

func paramIndex(fn *ssa.Function, p *ssa.Parameter) int {
	for i, q := range fn.Params {
		if q == p {
			return i
		}
	}
	return -1
}
