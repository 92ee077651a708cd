package inputdep

import (
	"sort"
	"strings"

	"golang.org/x/tools/go/ssa"

	"github.com/tum-i22/input-dependency-analyzer/internal/funcutil"
)

// Dependency is an abstract-domain element describing how a value or an
// instruction relates to program input. It is one of:
//   - input-independent: not influenced by input under any execution,
//   - argument-dependent: depends on a set of (not yet resolved) formal
//     parameters of the enclosing function,
//   - value-dependent: depends on a set of (not yet resolved) global
//     variables,
//   - input-dependent: influenced by input on some execution.
//
// Argument- and value-dependent elements are intermediate verdicts. They are
// promoted to input-dependent during finalization if any of the parameters or
// globals they name turn out to carry input, and otherwise count as
// input-independent for queries.
//
// A Dependency is a value type. Merge never mutates its receiver or argument.
type Dependency struct {
	inputDep bool
	args     map[*ssa.Parameter]bool
	globals  map[*ssa.Global]bool
}

// Indep returns the bottom element of the dependency lattice.
func Indep() Dependency {
	return Dependency{}
}

// Dep returns the top element of the dependency lattice. Merging anything
// into it returns the top element again.
func Dep() Dependency {
	return Dependency{inputDep: true}
}

// ArgDep returns a dependency on the given formal parameters.
func ArgDep(params ...*ssa.Parameter) Dependency {
	d := Dependency{args: map[*ssa.Parameter]bool{}}
	for _, p := range params {
		d.args[p] = true
	}
	return d
}

// ValueDep returns a dependency on the given global variables.
func ValueDep(globals ...*ssa.Global) Dependency {
	d := Dependency{globals: map[*ssa.Global]bool{}}
	for _, g := range globals {
		d.globals[g] = true
	}
	return d
}

// IsInputIndependent reports whether d is the bottom element.
func (d Dependency) IsInputIndependent() bool {
	return !d.inputDep && len(d.args) == 0 && len(d.globals) == 0
}

// IsInputDependent reports whether d is the top element.
func (d Dependency) IsInputDependent() bool {
	return d.inputDep
}

// IsArgumentDependent reports whether d carries unresolved parameter
// dependencies. A top element reports false: promotion discards the sets.
func (d Dependency) IsArgumentDependent() bool {
	return !d.inputDep && len(d.args) > 0
}

// IsValueDependent reports whether d carries unresolved global dependencies.
func (d Dependency) IsValueDependent() bool {
	return !d.inputDep && len(d.globals) > 0
}

// Args returns the set of parameters d depends on.
func (d Dependency) Args() map[*ssa.Parameter]bool {
	return d.args
}

// Globals returns the set of globals d depends on.
func (d Dependency) Globals() map[*ssa.Global]bool {
	return d.globals
}

// DependsOnArg reports whether d names the parameter p.
func (d Dependency) DependsOnArg(p *ssa.Parameter) bool {
	return d.args[p]
}

// Merge returns the join of d and other. Input-dependent absorbs everything,
// input-independent is the identity, and intermediate elements union their
// parameter and global sets. The result shares no maps with either operand.
func (d Dependency) Merge(other Dependency) Dependency {
	if d.inputDep || other.inputDep {
		return Dep()
	}
	if d.IsInputIndependent() {
		return other.copy()
	}
	if other.IsInputIndependent() {
		return d.copy()
	}
	res := d.copy()
	if len(other.args) > 0 {
		if res.args == nil {
			res.args = map[*ssa.Parameter]bool{}
		}
		funcutil.Union(res.args, other.args)
	}
	if len(other.globals) > 0 {
		if res.globals == nil {
			res.globals = map[*ssa.Global]bool{}
		}
		funcutil.Union(res.globals, other.globals)
	}
	return res
}

// Leq reports whether d is below or equal to other in the lattice order.
func (d Dependency) Leq(other Dependency) bool {
	if other.inputDep {
		return true
	}
	if d.inputDep {
		return false
	}
	for p := range d.args {
		if !other.args[p] {
			return false
		}
	}
	for g := range d.globals {
		if !other.globals[g] {
			return false
		}
	}
	return true
}

// promote resolves d against the sets of parameters and globals known to
// carry input. It returns the top element if d names any of them, and d
// unchanged otherwise.
func (d Dependency) promote(inputArgs map[*ssa.Parameter]bool, inputGlobals map[*ssa.Global]bool) (Dependency, bool) {
	if d.inputDep {
		return d, false
	}
	for p := range d.args {
		if inputArgs[p] {
			return Dep(), true
		}
	}
	for g := range d.globals {
		if inputGlobals[g] {
			return Dep(), true
		}
	}
	return d, false
}

func (d Dependency) copy() Dependency {
	res := Dependency{inputDep: d.inputDep}
	if len(d.args) > 0 {
		res.args = funcutil.Union(map[*ssa.Parameter]bool{}, d.args)
	}
	if len(d.globals) > 0 {
		res.globals = funcutil.Union(map[*ssa.Global]bool{}, d.globals)
	}
	return res
}

func (d Dependency) String() string {
	switch {
	case d.inputDep:
		return "input-dep"
	case d.IsInputIndependent():
		return "input-indep"
	default:
		var names []string
		for p := range d.args {
			names = append(names, "arg:"+p.Name())
		}
		for g := range d.globals {
			names = append(names, "global:"+g.Name())
		}
		sort.Strings(names)
		return "dep(" + strings.Join(names, ",") + ")"
	}
}
