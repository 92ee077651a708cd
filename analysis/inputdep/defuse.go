package inputdep

import (
	"go/token"

	"golang.org/x/tools/go/ssa"
)

// Def-use helpers over the SSA form. Register values carry their defining
// instruction directly; values read from memory are traced back through the
// stores to their address when that is unambiguous.

// DefSite returns the unique definition reaching v, when one exists:
//   - a value defined by an instruction is its own definition,
//   - a load from a local allocation written by exactly one store resolves
//     to the stored value.
//
// The second result is false when no unique definition can be named, e.g.
// for loads from locations with several stores or from escaping memory.
func DefSite(v ssa.Value) (ssa.Value, bool) {
	if load, ok := v.(*ssa.UnOp); ok && isLoad(load) {
		stores := StoresTo(load.X)
		if len(stores) == 1 && !escapes(load.X) {
			return stores[0].Val, true
		}
		return nil, false
	}
	if _, ok := v.(ssa.Instruction); ok {
		return v, true
	}
	return nil, false
}

// DefSiteInstrs returns the instructions that may define v. For a register
// value that is the single defining instruction; for a load it is the set of
// stores through the loaded address, which may be empty when the address has
// no visible referrers.
func DefSiteInstrs(v ssa.Value) []ssa.Instruction {
	if load, ok := v.(*ssa.UnOp); ok && isLoad(load) {
		var instrs []ssa.Instruction
		for _, s := range StoresTo(load.X) {
			instrs = append(instrs, s)
		}
		return instrs
	}
	if instr, ok := v.(ssa.Instruction); ok {
		return []ssa.Instruction{instr}
	}
	return nil
}

// StoresTo returns the stores writing directly through addr, judged by its
// referrers. Writes through aliases are not included.
func StoresTo(addr ssa.Value) []*ssa.Store {
	refs := addr.Referrers()
	if refs == nil {
		return nil
	}
	var stores []*ssa.Store
	for _, r := range *refs {
		if s, ok := r.(*ssa.Store); ok && s.Addr == addr {
			stores = append(stores, s)
		}
	}
	return stores
}

// escapes reports whether addr is used by anything other than direct loads
// and stores, in which case writes through other names may reach it.
func escapes(addr ssa.Value) bool {
	refs := addr.Referrers()
	if refs == nil {
		return true
	}
	for _, r := range *refs {
		switch r := r.(type) {
		case *ssa.Store:
			if r.Val == addr {
				return true
			}
		case *ssa.UnOp:
			if !isLoad(r) {
				return true
			}
		case *ssa.DebugRef:
		default:
			return true
		}
	}
	return false
}

func isLoad(u *ssa.UnOp) bool {
	return u.Op == token.MUL
}
