package graphutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/ssa"
)

// testGraph returns a graph with a mutual-recursion pair {0, 1}, a
// self-recursive node 3, and a leaf 2 called by 0.
func testGraph() *FnGraph {
	fns := []*ssa.Function{new(ssa.Function), new(ssa.Function), new(ssa.Function), new(ssa.Function)}
	g := &FnGraph{
		Funcs: fns,
		Ids:   map[*ssa.Function]int{},
		Edges: map[int]map[int]bool{
			0: {1: true, 2: true},
			1: {0: true},
			3: {3: true, 2: true},
		},
	}
	for i, fn := range fns {
		g.Ids[fn] = i
	}
	return g
}

func TestSCCs(t *testing.T) {
	g := testGraph()
	comps := g.SCCs()
	require.Len(t, comps, 3)

	sizes := map[int]int{}
	for _, comp := range comps {
		sizes[len(comp)]++
	}
	assert.Equal(t, map[int]int{1: 2, 2: 1}, sizes)
}

func TestIsRecursive(t *testing.T) {
	g := testGraph()
	for _, comp := range g.SCCs() {
		switch {
		case len(comp) == 2:
			assert.True(t, g.IsRecursive(comp))
		case comp[0] == 3:
			assert.True(t, g.IsRecursive(comp), "self-loop is recursion")
		default:
			assert.False(t, g.IsRecursive(comp))
		}
	}
}

func TestBottomUpSCCs(t *testing.T) {
	g := testGraph()
	order, err := g.BottomUpSCCs()
	require.NoError(t, err)
	require.Len(t, order, 3)

	pos := map[*ssa.Function]int{}
	for i, comp := range order {
		for _, fn := range comp {
			pos[fn] = i
		}
	}
	// Callees come before callers.
	assert.Less(t, pos[g.Funcs[2]], pos[g.Funcs[0]])
	assert.Less(t, pos[g.Funcs[2]], pos[g.Funcs[3]])
	// Members of a recursion group share a position.
	assert.Equal(t, pos[g.Funcs[0]], pos[g.Funcs[1]])
}
