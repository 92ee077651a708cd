package inputdep_test

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/ssa"

	"github.com/tum-i22/input-dependency-analyzer/analysis/inputdep"
	"github.com/tum-i22/input-dependency-analyzer/analysis/lang"
	"github.com/tum-i22/input-dependency-analyzer/internal/analysistest"
)

func TestDefSiteOfRegisterValue(t *testing.T) {
	program, _ := runTest(t, "pure")
	compute := analysistest.FindFunction(program, "compute")
	require.NotNil(t, compute)

	found := false
	lang.IterateInstructions(compute, func(_ int, i ssa.Instruction) {
		if binop, ok := i.(*ssa.BinOp); ok && !found {
			found = true
			def, ok := inputdep.DefSite(binop)
			assert.True(t, ok)
			assert.Same(t, ssa.Value(binop), def, "a register value is its own definition")
		}
	})
	assert.True(t, found)
}

func TestDefSiteInstrsOfRegisterValue(t *testing.T) {
	program, _ := runTest(t, "pure")
	compute := analysistest.FindFunction(program, "compute")
	require.NotNil(t, compute)

	lang.IterateInstructions(compute, func(_ int, i ssa.Instruction) {
		if binop, ok := i.(*ssa.BinOp); ok {
			instrs := inputdep.DefSiteInstrs(binop)
			require.Len(t, instrs, 1)
			assert.Same(t, ssa.Instruction(binop), instrs[0])
		}
	})
}

func TestDefSiteOfEscapingLoad(t *testing.T) {
	program, _ := runTest(t, "unknown")
	main := analysistest.FindFunction(program, "main")
	require.NotNil(t, main)

	// The decoded map is loaded from an allocation whose address escapes
	// into json.Unmarshal: no unique reaching store can be named.
	checked := false
	lang.IterateInstructions(main, func(_ int, i ssa.Instruction) {
		if load, ok := i.(*ssa.UnOp); ok && load.Op == token.MUL {
			if _, isAlloc := load.X.(*ssa.Alloc); isAlloc {
				checked = true
				_, resolved := inputdep.DefSite(load)
				assert.False(t, resolved)
			}
		}
	})
	assert.True(t, checked)
}
