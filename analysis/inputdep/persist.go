package inputdep

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/ssa"

	"github.com/tum-i22/input-dependency-analyzer/analysis/lang"
)

// Finalized analysis results can be saved and reloaded across runs, so
// consumers of the verdicts do not pay for the whole-program analysis again.
// Instructions are identified by their ordinal in the block-order sequence
// of their function, which is stable for a fixed build of the program.

const savedVersion = 1

type savedFunction struct {
	Name             string `msgpack:"name"`
	InputDepInstrs   []int  `msgpack:"input_dep_instrs"`
	InputDepBlocks   []int  `msgpack:"input_dep_blocks"`
	Unreachable      []int  `msgpack:"unreachable_blocks"`
	InputDepFunction bool   `msgpack:"input_dep_function"`
}

type savedResults struct {
	Version   int             `msgpack:"version"`
	Functions []savedFunction `msgpack:"functions"`
}

// InstrOrdinal returns the position of instr in the block-order instruction
// sequence of its parent function, or -1 when instr does not belong to it.
func InstrOrdinal(instr ssa.Instruction) int {
	ord := -1
	n := 0
	lang.IterateInstructions(instr.Parent(), func(_ int, i ssa.Instruction) {
		if i == instr {
			ord = n
		}
		n++
	})
	return ord
}

// SaveResults writes the finalized verdicts of the cache to w.
func SaveResults(c *Cache, w io.Writer) error {
	out := savedResults{Version: savedVersion}
	for fn, s := range c.Summaries() {
		// The untrimmed String() keeps distinct generic instantiations
		// distinct; the trimmed FnName would merge their verdicts.
		sf := savedFunction{
			Name:             fn.String(),
			InputDepFunction: s.IsInputDepFunction(),
		}
		n := 0
		lang.IterateInstructions(fn, func(_ int, i ssa.Instruction) {
			if s.IsInputDependent(i) {
				sf.InputDepInstrs = append(sf.InputDepInstrs, n)
			}
			n++
		})
		for _, b := range fn.Blocks {
			if s.IsBlockUnreachable(b) {
				sf.Unreachable = append(sf.Unreachable, b.Index)
			} else if s.IsBlockInputDependent(b) {
				sf.InputDepBlocks = append(sf.InputDepBlocks, b.Index)
			}
		}
		out.Functions = append(out.Functions, sf)
	}
	slices.SortFunc(out.Functions, func(a, b savedFunction) bool { return a.Name < b.Name })
	return msgpack.NewEncoder(w).Encode(out)
}

// SavedResults serves input-dependency queries from results saved by
// SaveResults, without re-running the analysis.
type SavedResults struct {
	functions map[string]*savedFunction
}

// LoadResults reads saved verdicts from r.
func LoadResults(r io.Reader) (*SavedResults, error) {
	var in savedResults
	if err := msgpack.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode saved results: %w", err)
	}
	if in.Version != savedVersion {
		return nil, fmt.Errorf("saved results version %d, want %d", in.Version, savedVersion)
	}
	res := &SavedResults{functions: map[string]*savedFunction{}}
	for i := range in.Functions {
		f := &in.Functions[i]
		res.functions[f.Name] = f
	}
	return res, nil
}

// Functions returns the names of the functions with saved verdicts.
func (s *SavedResults) Functions() []string {
	var names []string
	for name := range s.functions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsInputDependent reports whether the instruction at the given block-order
// ordinal of the named function was input-dependent. Unknown functions
// report false.
func (s *SavedResults) IsInputDependent(fnName string, ordinal int) bool {
	f, ok := s.functions[fnName]
	return ok && slices.Contains(f.InputDepInstrs, ordinal)
}

// IsBlockInputDependent reports whether the block with the given index of
// the named function executed under input-dependent control.
func (s *SavedResults) IsBlockInputDependent(fnName string, blockIndex int) bool {
	f, ok := s.functions[fnName]
	return ok && slices.Contains(f.InputDepBlocks, blockIndex)
}

// IsInputDepFunction reports whether any instruction of the named function
// was input-dependent.
func (s *SavedResults) IsInputDepFunction(fnName string) bool {
	f, ok := s.functions[fnName]
	return ok && f.InputDepFunction
}
