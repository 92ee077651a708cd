package inputdep

import (
	"go/types"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/pointer"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/tum-i22/input-dependency-analyzer/analysis/lang"
)

// doPointerAnalysis runs the x/tools pointer analysis over the program,
// querying every pointer-like value of the functions selected by filter. The
// result provides both the alias oracle and the callgraph used to order the
// whole-program analysis and to resolve dynamic calls.
func doPointerAnalysis(p *ssa.Program, filter func(*ssa.Function) bool) (*pointer.Result, error) {
	pCfg := &pointer.Config{
		Mains:           ssautil.MainPackages(p.AllPackages()),
		Reflection:      false,
		BuildCallGraph:  true,
		Queries:         make(map[ssa.Value]struct{}),
		IndirectQueries: make(map[ssa.Value]struct{}),
	}

	for function := range ssautil.AllFunctions(p) {
		if filter(function) {
			lang.IterateInstructions(function,
				func(_ int, instruction ssa.Instruction) { addQuery(pCfg, instruction) })
			for _, param := range function.Params {
				if pointer.CanPoint(param.Type()) {
					pCfg.AddQuery(param)
				}
			}
		}
	}

	return pointer.Analyze(pCfg)
}

func addQuery(cfg *pointer.Config, instruction ssa.Instruction) {
	if instruction == nil {
		return
	}
	for _, operand := range instruction.Operands([]*ssa.Value{}) {
		if *operand != nil && (*operand).Type() != nil {
			typ := (*operand).Type()
			if pointer.CanPoint(typ) {
				cfg.AddQuery(*operand)
			}
			indirectQuery(typ, operand, cfg)
		}
	}
}

// indirectQuery wraps an update to the IndirectQuery of the pointer config.
// typ.Underlying() may panic on synthetic opaque types despite typ being
// non-nil.
func indirectQuery(typ types.Type, operand *ssa.Value, cfg *pointer.Config) {
	defer func() {
		recover()
	}()

	if typ.Underlying() != nil {
		if ptrType, ok := typ.Underlying().(*types.Pointer); ok {
			if pointer.CanPoint(ptrType.Elem()) {
				cfg.AddIndirectQuery(*operand)
			}
		}
	}
}

// aliasOracle answers may-alias queries from the pointer analysis result.
// Values the analysis holds no points-to set for are reported as aliasing
// nothing; such values were filtered out before querying.
type aliasOracle struct {
	result *pointer.Result
}

func newAliasOracle(result *pointer.Result) *aliasOracle {
	return &aliasOracle{result: result}
}

// MayAlias reports whether v1 and v2 may reach a common object: either the
// values themselves may point to one, or the locations they point to hold
// pointers that may point to one (the indirect queries). A write through v1
// is then visible through v2.
func (o *aliasOracle) MayAlias(v1, v2 ssa.Value) bool {
	p1, ok1 := o.result.Queries[v1]
	p2, ok2 := o.result.Queries[v2]
	if ok1 && ok2 && p1.MayAlias(p2) {
		return true
	}
	i1, ok1 := o.result.IndirectQueries[v1]
	i2, ok2 := o.result.IndirectQueries[v2]
	return ok1 && ok2 && i1.MayAlias(i2)
}

// CallGraph returns the callgraph built by the pointer analysis.
func (o *aliasOracle) CallGraph() *callgraph.Graph {
	return o.result.CallGraph
}
