// Package graphutil provides graph computations over the program callgraph that the analysis
// needs to order its passes: strongly connected components (mutual recursion groups) and a
// bottom-up traversal order of the component condensation.
package graphutil

import (
	"fmt"

	"github.com/yourbasic/graph"
	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/ssa"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/tum-i22/input-dependency-analyzer/internal/funcutil"
)

// FnGraph is an abstraction over a callgraph restricted to a set of functions, to work with
// existing graph libraries. It satisfies yourbasic's graph.Iterator.
type FnGraph struct {
	// Funcs maps node ids (slice indexes) to functions
	Funcs []*ssa.Function

	// Ids is the inverse of Funcs
	Ids map[*ssa.Function]int

	// Edges is an adjacency matrix: Edges[x][y] means x calls y
	Edges map[int]map[int]bool
}

// NewFnGraph builds the function graph of the callgraph cg, keeping only the functions for
// which include returns true. Call edges through excluded functions are dropped.
func NewFnGraph(cg *callgraph.Graph, include func(*ssa.Function) bool) *FnGraph {
	g := &FnGraph{
		Ids:   map[*ssa.Function]int{},
		Edges: map[int]map[int]bool{},
	}
	for fn := range cg.Nodes {
		if fn == nil || !include(fn) {
			continue
		}
		if _, ok := g.Ids[fn]; !ok {
			g.Ids[fn] = len(g.Funcs)
			g.Funcs = append(g.Funcs, fn)
		}
	}
	for fn, node := range cg.Nodes {
		src, ok := g.Ids[fn]
		if !ok {
			continue
		}
		if g.Edges[src] == nil {
			g.Edges[src] = map[int]bool{}
		}
		for _, e := range node.Out {
			if e.Callee == nil {
				continue
			}
			if dst, ok := g.Ids[e.Callee.Func]; ok {
				g.Edges[src][dst] = true
			}
		}
	}
	return g
}

// Order returns the number of nodes, satisfying graph.Iterator.
func (g *FnGraph) Order() int {
	return len(g.Funcs)
}

// Visit calls do for every neighbor of v, satisfying graph.Iterator.
func (g *FnGraph) Visit(v int, do func(w int, c int64) bool) bool {
	for w := range g.Edges[v] {
		if do(w, 1) {
			return true
		}
	}
	return false
}

// SCCs returns the strongly connected components of the graph as sets of node ids.
func (g *FnGraph) SCCs() [][]int {
	return graph.StrongComponents(g)
}

// IsRecursive returns true when the component comp contains mutual recursion: it has more
// than one function, or its single function calls itself.
func (g *FnGraph) IsRecursive(comp []int) bool {
	if len(comp) > 1 {
		return true
	}
	return len(comp) == 1 && g.Edges[comp[0]][comp[0]]
}

// BottomUpSCCs returns the strongly connected components of the graph sorted so that callees
// come before callers: when a function in component i calls a function in component j != i,
// then j appears before i in the result. Components are the recursion groups of the program;
// the order is obtained by topologically sorting the component condensation.
func (g *FnGraph) BottomUpSCCs() ([][]*ssa.Function, error) {
	comps := g.SCCs()
	compOf := make([]int, g.Order())
	for ci, comp := range comps {
		for _, v := range comp {
			compOf[v] = ci
		}
	}

	// Condensation DAG, one gonum node per component.
	dag := simple.NewDirectedGraph()
	for ci := range comps {
		dag.AddNode(simple.Node(ci))
	}
	for v, succs := range g.Edges {
		for w := range succs {
			cv, cw := compOf[v], compOf[w]
			if cv != cw {
				dag.SetEdge(dag.NewEdge(simple.Node(cv), simple.Node(cw)))
			}
		}
	}

	sorted, err := topo.Sort(dag)
	if err != nil {
		// The condensation of a graph is acyclic; a cycle here is a bug.
		return nil, fmt.Errorf("callgraph condensation is not acyclic: %w", err)
	}

	// topo.Sort puts callers before callees; reverse for bottom-up.
	result := make([][]*ssa.Function, 0, len(comps))
	for i := len(sorted) - 1; i >= 0; i-- {
		comp := comps[int(sorted[i].ID())]
		result = append(result, funcutil.Map(comp, func(v int) *ssa.Function { return g.Funcs[v] }))
	}
	return result, nil
}
