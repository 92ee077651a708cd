package inputdep

import (
	"golang.org/x/tools/go/ssa"
)

// postDominators computes immediate post-dominators for the blocks of fn
// using the Cooper-Harvey-Kennedy iterative scheme on the reversed CFG. A
// virtual exit node is appended after the real blocks so that functions with
// several return blocks (or none) have a single sink.
//
// The returned slice is indexed by block index; entry i holds the index of
// the immediate post-dominator of block i, len(fn.Blocks) for blocks
// post-dominated only by the virtual exit, and -1 for blocks that never
// reach function exit.
func postDominators(fn *ssa.Function) []int {
	n := len(fn.Blocks)
	exit := n

	// Successors in the reversed CFG.
	rsucc := func(u int) []int {
		if u == exit {
			var vs []int
			for _, b := range fn.Blocks {
				if len(b.Succs) == 0 {
					vs = append(vs, b.Index)
				}
			}
			return vs
		}
		var vs []int
		for _, p := range fn.Blocks[u].Preds {
			vs = append(vs, p.Index)
		}
		return vs
	}
	// Predecessors in the reversed CFG.
	rpred := func(u int) []int {
		if u == exit {
			return nil
		}
		b := fn.Blocks[u]
		var vs []int
		for _, s := range b.Succs {
			vs = append(vs, s.Index)
		}
		if len(b.Succs) == 0 {
			vs = append(vs, exit)
		}
		return vs
	}

	postorder := make([]int, 0, n+1)
	ponum := make([]int, n+1)
	for i := range ponum {
		ponum[i] = -1
	}
	visited := make([]bool, n+1)
	var dfs func(u int)
	dfs = func(u int) {
		visited[u] = true
		for _, v := range rsucc(u) {
			if !visited[v] {
				dfs(v)
			}
		}
		ponum[u] = len(postorder)
		postorder = append(postorder, u)
	}
	dfs(exit)

	ipdom := make([]int, n+1)
	for i := range ipdom {
		ipdom[i] = -1
	}
	ipdom[exit] = exit

	intersect := func(b1, b2 int) int {
		for b1 != b2 {
			for ponum[b1] < ponum[b2] {
				b1 = ipdom[b1]
			}
			for ponum[b2] < ponum[b1] {
				b2 = ipdom[b2]
			}
		}
		return b1
	}

	changed := true
	for changed {
		changed = false
		// Reverse postorder of the reversed CFG, skipping the exit.
		for i := len(postorder) - 2; i >= 0; i-- {
			u := postorder[i]
			newIdom := -1
			for _, p := range rpred(u) {
				if ipdom[p] == -1 {
					continue
				}
				if newIdom == -1 {
					newIdom = p
				} else {
					newIdom = intersect(newIdom, p)
				}
			}
			if newIdom != -1 && ipdom[u] != newIdom {
				ipdom[u] = newIdom
				changed = true
			}
		}
	}
	return ipdom[:n+1]
}

// controlledBlocks returns the blocks whose execution is decided by the
// branch terminating block branch: every block on a path from one of the
// branch successors up to, but excluding, the immediate post-dominator of
// the branch. Blocks that never reach function exit (infinite loops) are
// controlled up to the end of the chain.
func controlledBlocks(fn *ssa.Function, branch *ssa.BasicBlock, ipdom []int) []*ssa.BasicBlock {
	stop := ipdom[branch.Index]
	seen := map[int]bool{}
	var res []*ssa.BasicBlock
	for _, succ := range branch.Succs {
		w := succ.Index
		for w != -1 && w != stop && w < len(fn.Blocks) && !seen[w] {
			seen[w] = true
			res = append(res, fn.Blocks[w])
			w = ipdom[w]
		}
	}
	return res
}
