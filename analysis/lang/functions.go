package lang

import (
	"strings"

	"golang.org/x/tools/go/ssa"
)

// IterateInstructions applies f to every instruction in the function, in block order.
func IterateInstructions(function *ssa.Function, f func(index int, instruction ssa.Instruction)) {
	// If this is an external function, return.
	if function.Blocks == nil {
		return
	}

	for _, block := range function.Blocks {
		for index, instruction := range block.Instrs {
			f(index, instruction)
		}
	}
}

// IterateValues applies f to every value in the function. It might apply f several times to the same value.
// If the value is an operand of an instruction, the index of the instruction in its block is provided,
// otherwise the index is -1.
func IterateValues(function *ssa.Function, f func(index int, value ssa.Value)) {
	for _, param := range function.Params {
		f(-1, param)
	}

	for _, freeVar := range function.FreeVars {
		f(-1, freeVar)
	}

	IterateInstructions(function, func(index int, i ssa.Instruction) {
		var operands []*ssa.Value
		operands = i.Operands(operands)
		for _, operand := range operands {
			f(index, *operand)
		}
		if v, ok := i.(ssa.Value); ok {
			f(index, v)
		}
	})
}

// PackageNameFromFunction returns the path of the package of the function, or "" if it cannot
// be determined (e.g. the function is a synthetic wrapper with no package).
func PackageNameFromFunction(f *ssa.Function) string {
	if f == nil {
		return ""
	}

	pkg := f.Package()
	if pkg != nil {
		return pkg.Pkg.Path()
	}

	// this is a method, so need to get its Object first
	if f.Object() != nil {
		obj := f.Object().Pkg()
		if obj != nil {
			return obj.Path()
		}
	}

	return ""
}

// IsExternal returns true when the function has no body in the program (a declaration-only
// function, e.g. implemented in assembly or linked in).
func IsExternal(f *ssa.Function) bool {
	return f == nil || len(f.Blocks) == 0
}

// FnName returns the full name of the function, trimming the instantiation brackets of
// generic function instances so names are stable across builds.
func FnName(f *ssa.Function) string {
	name := f.String()
	if i := strings.Index(name, "["); i > 0 {
		if j := strings.LastIndex(name, "]"); j > i {
			name = name[:i] + name[j+1:]
		}
	}
	return name
}
