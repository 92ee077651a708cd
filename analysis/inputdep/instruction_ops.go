package inputdep

import (
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"
)

// This file implements lang.InstrOp for the intra-procedural analysis. Most
// instructions use the generic transfer function: the join of the operand
// dependencies. Loads, stores, aggregates and calls have dedicated rules.

func (state *intraAnalysisState) DoDebugRef(*ssa.DebugRef) {}

func (state *intraAnalysisState) DoUnOp(instr *ssa.UnOp) {
	switch instr.Op {
	case token.MUL:
		state.update(instr, state.loadDep(instr.X))
	case token.ARROW:
		// The value received over a channel depends on goroutine
		// scheduling and on senders the analysis does not pair with this
		// receive.
		state.update(instr, Dep())
	default:
		state.update(instr, state.operandJoin(instr))
	}
}

func (state *intraAnalysisState) DoBinOp(instr *ssa.BinOp) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoCall(instr *ssa.Call) {
	state.processCall(instr)
}

func (state *intraAnalysisState) DoDefer(instr *ssa.Defer) {
	state.processCall(instr)
}

func (state *intraAnalysisState) DoGo(instr *ssa.Go) {
	state.processCall(instr)
}

func (state *intraAnalysisState) DoChangeInterface(instr *ssa.ChangeInterface) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoChangeType(instr *ssa.ChangeType) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoConvert(instr *ssa.Convert) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoSliceArrayToPointer(instr *ssa.SliceToArrayPointer) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoMakeInterface(instr *ssa.MakeInterface) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoExtract(instr *ssa.Extract) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoSlice(instr *ssa.Slice) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoReturn(instr *ssa.Return) {
	d := Indep()
	for _, r := range instr.Results {
		d = d.Merge(state.valueDep(r))
	}
	d = state.curBlock.addContext(d)
	state.update(instr, d)
	if state.summary.mergeReturnDep(d) {
		state.changeFlag = true
	}
}

func (state *intraAnalysisState) DoRunDefers(instr *ssa.RunDefers) {
	// Deferred calls are processed at their Defer site.
	state.update(instr, Indep())
}

func (state *intraAnalysisState) DoPanic(instr *ssa.Panic) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoSend(instr *ssa.Send) {
	d := state.valueDep(instr.X)
	state.setValueDep(instr.Chan, state.curBlock.addContext(d))
	state.mergeAliases(instr.Chan, state.curBlock.addContext(d))
	state.update(instr, d)
}

func (state *intraAnalysisState) DoStore(instr *ssa.Store) {
	d := state.valueDep(instr.Val)
	state.recordWrite(instr.Addr, d)
	state.update(instr, d)
}

func (state *intraAnalysisState) DoIf(instr *ssa.If) {
	cond := state.valueDep(instr.Cond)
	state.update(instr, cond)
	state.markControlled(instr.Block(), cond)
}

func (state *intraAnalysisState) DoJump(instr *ssa.Jump) {
	state.update(instr, Indep())
}

func (state *intraAnalysisState) DoMakeChan(instr *ssa.MakeChan) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoAlloc(instr *ssa.Alloc) {
	state.update(instr, Indep())
}

func (state *intraAnalysisState) DoMakeSlice(instr *ssa.MakeSlice) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoMakeMap(instr *ssa.MakeMap) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoRange(instr *ssa.Range) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoNext(instr *ssa.Next) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoFieldAddr(instr *ssa.FieldAddr) {
	state.update(instr, state.composite(instr.X).Element(fieldSelector(instr)))
}

func (state *intraAnalysisState) DoField(instr *ssa.Field) {
	s := instr.X.Type().Underlying().(*types.Struct)
	state.update(instr, state.composite(instr.X).Element("."+s.Field(instr.Field).Name()))
}

func (state *intraAnalysisState) DoIndexAddr(instr *ssa.IndexAddr) {
	d := state.composite(instr.X).Element(indexSelector).Merge(state.valueDep(instr.Index))
	state.update(instr, d)
}

func (state *intraAnalysisState) DoIndex(instr *ssa.Index) {
	d := state.composite(instr.X).Element(indexSelector).Merge(state.valueDep(instr.Index))
	state.update(instr, d)
}

func (state *intraAnalysisState) DoLookup(instr *ssa.Lookup) {
	d := state.composite(instr.X).Element(indexSelector).Merge(state.valueDep(instr.Index))
	state.update(instr, d)
}

func (state *intraAnalysisState) DoMapUpdate(instr *ssa.MapUpdate) {
	d := state.valueDep(instr.Key).Merge(state.valueDep(instr.Value))
	state.setElementDep(instr.Map, indexSelector, state.curBlock.addContext(d))
	state.mergeAliases(instr.Map, state.curBlock.addContext(d))
	state.update(instr, d)
}

func (state *intraAnalysisState) DoTypeAssert(instr *ssa.TypeAssert) {
	state.update(instr, state.operandJoin(instr))
}

func (state *intraAnalysisState) DoMakeClosure(instr *ssa.MakeClosure) {
	state.update(instr, state.operandJoin(instr))
}

// DoPhi joins the incoming values together with the ambient context of the
// predecessor blocks: which edge the phi selects is decided by the branches
// those blocks execute under, so their context flows into the merged value
// even though the phi's own block sits at the merge point.
func (state *intraAnalysisState) DoPhi(instr *ssa.Phi) {
	d := Indep()
	for i, e := range instr.Edges {
		d = d.Merge(state.valueDep(e))
		if i < len(instr.Block().Preds) {
			d = d.Merge(state.blockStates[instr.Block().Preds[i]].ambient)
		}
	}
	state.update(instr, d)
}

func (state *intraAnalysisState) DoSelect(instr *ssa.Select) {
	// Ready-case choice is a scheduling decision and received values are
	// unpaired, same as a direct channel receive.
	state.update(instr, Dep())
}
