package inputdep

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/tools/go/ssa"
)

func eqDep(a, b Dependency) bool {
	return a.Leq(b) && b.Leq(a)
}

func sampleDeps() ([]Dependency, []*ssa.Parameter, []*ssa.Global) {
	p1, p2 := new(ssa.Parameter), new(ssa.Parameter)
	g1, g2 := new(ssa.Global), new(ssa.Global)
	deps := []Dependency{
		Indep(),
		Dep(),
		ArgDep(p1),
		ArgDep(p1, p2),
		ValueDep(g1),
		ValueDep(g1, g2),
		ArgDep(p2).Merge(ValueDep(g1)),
	}
	return deps, []*ssa.Parameter{p1, p2}, []*ssa.Global{g1, g2}
}

func TestMergeIsCommutative(t *testing.T) {
	deps, _, _ := sampleDeps()
	for i, a := range deps {
		for j, b := range deps {
			assert.True(t, eqDep(a.Merge(b), b.Merge(a)), "merge of %d and %d not commutative", i, j)
		}
	}
}

func TestMergeIsAssociative(t *testing.T) {
	deps, _, _ := sampleDeps()
	for _, a := range deps {
		for _, b := range deps {
			for _, c := range deps {
				assert.True(t, eqDep(a.Merge(b).Merge(c), a.Merge(b.Merge(c))),
					"merge of %s, %s, %s not associative", a, b, c)
			}
		}
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	deps, _, _ := sampleDeps()
	for _, a := range deps {
		assert.True(t, eqDep(a.Merge(a), a))
	}
}

func TestMergeTopAbsorbsBottomIdentity(t *testing.T) {
	deps, _, _ := sampleDeps()
	for _, a := range deps {
		assert.True(t, a.Merge(Dep()).IsInputDependent(), "top must absorb %s", a)
		assert.True(t, eqDep(a.Merge(Indep()), a), "bottom must be identity for %s", a)
		assert.True(t, a.Leq(a.Merge(Dep())))
		assert.True(t, Indep().Leq(a))
	}
}

func TestMergeMixedKindsUnionSets(t *testing.T) {
	_, ps, gs := sampleDeps()
	m := ArgDep(ps[0]).Merge(ValueDep(gs[0]))
	assert.True(t, m.IsArgumentDependent())
	assert.True(t, m.IsValueDependent())
	assert.False(t, m.IsInputDependent())
	assert.True(t, m.DependsOnArg(ps[0]))
	assert.True(t, m.Globals()[gs[0]])
}

func TestMergeDoesNotMutateOperands(t *testing.T) {
	_, ps, _ := sampleDeps()
	a := ArgDep(ps[0])
	b := ArgDep(ps[1])
	_ = a.Merge(b)
	assert.False(t, a.DependsOnArg(ps[1]))
	assert.False(t, b.DependsOnArg(ps[0]))
}

func TestPromote(t *testing.T) {
	_, ps, gs := sampleDeps()

	d, changed := ArgDep(ps[0]).promote(map[*ssa.Parameter]bool{ps[0]: true}, nil)
	assert.True(t, changed)
	assert.True(t, d.IsInputDependent())

	d, changed = ArgDep(ps[0]).promote(map[*ssa.Parameter]bool{ps[1]: true}, nil)
	assert.False(t, changed)
	assert.True(t, d.IsArgumentDependent())

	d, changed = ValueDep(gs[0]).promote(nil, map[*ssa.Global]bool{gs[0]: true})
	assert.True(t, changed)
	assert.True(t, d.IsInputDependent())

	_, changed = Dep().promote(nil, nil)
	assert.False(t, changed)

	_, changed = Indep().promote(map[*ssa.Parameter]bool{ps[0]: true}, nil)
	assert.False(t, changed)
}

func TestDependencyString(t *testing.T) {
	assert.Equal(t, "input-indep", Indep().String())
	assert.Equal(t, "input-dep", Dep().String())
	assert.Contains(t, fmt.Sprint(ArgDep(new(ssa.Parameter))), "arg:")
}
