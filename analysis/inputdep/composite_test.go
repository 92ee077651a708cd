package inputdep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/tools/go/ssa"
)

func TestCompositeElementFallsBackToWhole(t *testing.T) {
	c := newComposite(Indep())
	assert.True(t, c.Element(".field").IsInputIndependent())

	c.MergeWhole(Dep())
	assert.True(t, c.Element(".field").IsInputDependent(), "element read must see the whole-value dependency")
	assert.True(t, c.Element(indexSelector).IsInputDependent())
}

func TestCompositeElementUpdates(t *testing.T) {
	p := new(ssa.Parameter)
	c := newComposite(Indep())

	assert.True(t, c.MergeElement(".a", ArgDep(p)))
	assert.True(t, c.Element(".a").IsArgumentDependent())
	assert.True(t, c.Element(".b").IsInputIndependent(), "updating one element must not affect others")
	assert.True(t, c.Whole().IsInputIndependent())

	// Element writes are merges: a lower write cannot erase a higher one.
	assert.False(t, c.MergeElement(".a", Indep()))
	assert.True(t, c.Element(".a").IsArgumentDependent())

	assert.True(t, c.MergeElement(".a", Dep()))
	assert.False(t, c.MergeElement(".a", ArgDep(p)))
	assert.True(t, c.Element(".a").IsInputDependent())
}

func TestCompositeFlatten(t *testing.T) {
	p := new(ssa.Parameter)
	g := new(ssa.Global)
	c := newComposite(ValueDep(g))
	c.MergeElement(".a", ArgDep(p))

	flat := c.Flatten()
	assert.True(t, flat.DependsOnArg(p))
	assert.True(t, flat.Globals()[g])
}

func TestCompositeCopyIsIndependent(t *testing.T) {
	c := newComposite(Indep())
	c.MergeElement(".a", Dep())
	cp := c.copy()

	c.MergeWhole(Dep())
	assert.True(t, cp.Whole().IsInputIndependent())
	assert.True(t, cp.Element(".a").IsInputDependent())
}
