package lang

import (
	"golang.org/x/tools/go/ssa"

	"github.com/tum-i22/input-dependency-analyzer/internal/funcutil"
)

// IterativeAnalysis is an iterative analysis that extends an InstrOp with a function executed each time a
// new Block is visited, and a function that queries the analysis once the Block has been visited to check
// whether the analysis information has changed.
type IterativeAnalysis interface {
	InstrOp
	Pre(instruction ssa.Instruction)
	Post(instruction ssa.Instruction)
	NewBlock(block *ssa.BasicBlock)
	ChangedOnEndBlock() bool // ChangedOnEndBlock returns a boolean signaling the information has changed.
}

// RunForwardIterative visits the blocks in the function. At each Block visited, it queues the successors of the Block
// if the information for the Block has changed after visiting each of its instructions.
// All reachable blocks of the function will be visited if the call to ChangedOnEndBlock is true after each first visit
// to a given Block (the IterativeAnalysis structure must keep track of previously visited blocks, and ensure
// termination)
func RunForwardIterative(op IterativeAnalysis, function *ssa.Function) {
	if len(function.Blocks) == 0 {
		return
	}
	// Block indexes to visit next
	var worklist []*ssa.BasicBlock
	// memoize paths between blocks
	pathMem := map[*ssa.BasicBlock]map[*ssa.BasicBlock]bool{}
	worklist = append(worklist, function.Blocks[0])
	for { // until fixpoint is reached
		// Set the current Block if there is one
		if len(worklist) == 0 {
			return
		}
		block := worklist[0]
		worklist = worklist[1:]
		// Iterate through instructions.
		op.NewBlock(block)
		for _, instr := range block.Instrs {
			op.Pre(instr)
			InstrSwitch(op, instr)
			op.Post(instr)
		}
		if op.ChangedOnEndBlock() {
			for _, nextBlock := range function.Blocks {
				if HasPathTo(block, nextBlock, pathMem) && !containsBlock(worklist, nextBlock) {
					worklist = append(worklist, nextBlock)
				}
			}
		}
	}
}

func containsBlock(list []*ssa.BasicBlock, block *ssa.BasicBlock) bool {
	return funcutil.Exists(list, func(b *ssa.BasicBlock) bool { return b == block })
}

// HasPathTo returns true if there is a control-flow path from b1 to b2. Use mem to amortize cost. If mem is nil,
// then the algorithm runs without memoization, and no map is allocated.
func HasPathTo(b1 *ssa.BasicBlock, b2 *ssa.BasicBlock, mem map[*ssa.BasicBlock]map[*ssa.BasicBlock]bool) bool {
	if mem != nil {
		if _, ok := mem[b1]; !ok {
			mem[b1] = map[*ssa.BasicBlock]bool{}
		}
		if val, ok := mem[b1][b2]; ok {
			return val
		}
	}
	vis := map[*ssa.BasicBlock]bool{}
	que := []*ssa.BasicBlock{b1}
	for len(que) > 0 {
		cur := que[0]
		if cur == b2 {
			if mem != nil {
				mem[b1][b2] = true
			}
			return true
		}
		vis[cur] = true
		que = que[1:]
		for _, nb := range cur.Succs {
			if !vis[nb] {
				que = append(que, nb)
			}
		}
	}
	if mem != nil {
		mem[b1][b2] = false
	}
	return false
}

// ReachableBlocks returns the set of blocks reachable from the entry of the function.
// An empty map is returned for an external function.
func ReachableBlocks(function *ssa.Function) map[*ssa.BasicBlock]bool {
	reach := map[*ssa.BasicBlock]bool{}
	if len(function.Blocks) == 0 {
		return reach
	}
	que := []*ssa.BasicBlock{function.Blocks[0]}
	reach[function.Blocks[0]] = true
	for len(que) > 0 {
		cur := que[0]
		que = que[1:]
		for _, nb := range cur.Succs {
			if !reach[nb] {
				reach[nb] = true
				que = append(que, nb)
			}
		}
	}
	return reach
}
