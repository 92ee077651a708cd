// Package libmodel holds dependency models for library functions: precomputed formulas that
// stand in for the bodies of functions the analysis does not analyze. A model describes how
// the dependency of the returned value and of every out-argument derives from the dependency
// of the arguments at the call site.
//
// The registry is an explicitly constructed object, built once per analysis from the built-in
// table and the config-file entries, and passed by reference into the analysis.
package libmodel

import (
	"fmt"
	"strings"

	"github.com/tum-i22/input-dependency-analyzer/analysis/config"
	"golang.org/x/tools/go/ssa"
)

// FormulaKind discriminates the three shapes of dependency formulas.
type FormulaKind int

const (
	// Deterministic means the result is input-independent regardless of the arguments.
	Deterministic FormulaKind = iota

	// InputDependent means the result is unconditionally input-dependent.
	InputDependent

	// ArgDependent means the result depends on the arguments at the listed positions.
	ArgDependent
)

// Formula is a dependency formula over the argument positions of a call. For methods,
// position 0 is the receiver.
type Formula struct {
	Kind FormulaKind
	Args []int
}

// DependsOnArgs returns a formula of kind ArgDependent over the given positions.
func DependsOnArgs(positions ...int) Formula {
	return Formula{Kind: ArgDependent, Args: positions}
}

// Model is the dependency model of one library function.
type Model struct {
	// Name is the full symbol name, as printed by ssa.Function.String().
	Name string

	// Return is the formula for the returned value(s).
	Return Formula

	// OutArgs maps argument positions to the formula for what the function writes back
	// through that argument.
	OutArgs map[int]Formula

	// fn is the symbol the model has been resolved against, nil until Resolve.
	fn *ssa.Function
}

// Resolved reports whether the model has been bound to a concrete function symbol.
func (m *Model) Resolved() bool {
	return m.fn != nil
}

// Fn returns the symbol the model is resolved against, or nil.
func (m *Model) Fn() *ssa.Function {
	return m.fn
}

// Registry is the process-scoped table of library function models, keyed by symbol name.
type Registry struct {
	models map[string]*Model
}

// NewRegistry returns a registry populated with the built-in table and the entries supplied
// by the configuration.
func NewRegistry(entries []config.LibraryModelEntry) (*Registry, error) {
	r := &Registry{models: map[string]*Model{}}
	for _, m := range builtinModels() {
		r.add(m)
	}
	for _, e := range entries {
		m, err := modelFromEntry(e)
		if err != nil {
			return nil, err
		}
		r.add(m)
	}
	return r, nil
}

func (r *Registry) add(m Model) {
	c := m
	r.models[m.Name] = &c
}

// HasModel returns true if a model is registered under name.
func (r *Registry) HasModel(name string) bool {
	_, ok := r.models[name]
	return ok
}

// ModelOf returns the model registered under name. Callers must check HasModel first:
// looking up an unregistered name is a contract violation and panics.
func (r *Registry) ModelOf(name string) *Model {
	m, ok := r.models[name]
	if !ok {
		panic(fmt.Sprintf("libmodel: no model registered for %q", name))
	}
	return m
}

// Resolve binds the model registered under name to the concrete symbol fn. Resolving an
// already-resolved model against the same symbol is a no-op; rebinding a symbol that was
// resolved under a different name is a contract violation and panics.
func (r *Registry) Resolve(fn *ssa.Function, name string) {
	m := r.ModelOf(name)
	if m.fn == fn {
		return
	}
	if m.fn != nil {
		panic(fmt.Sprintf("libmodel: model %q already resolved to %s", name, m.fn.String()))
	}
	m.fn = fn
}

// Size returns the number of registered models.
func (r *Registry) Size() int {
	return len(r.models)
}

func modelFromEntry(e config.LibraryModelEntry) (Model, error) {
	ret, err := formulaFromEntry(e.Return)
	if err != nil {
		return Model{}, fmt.Errorf("model %s: %w", e.Name, err)
	}
	m := Model{Name: e.Name, Return: ret}
	if len(e.OutArgs) > 0 {
		m.OutArgs = map[int]Formula{}
		for pos, fe := range e.OutArgs {
			f, err := formulaFromEntry(fe)
			if err != nil {
				return Model{}, fmt.Errorf("model %s, out-arg %d: %w", e.Name, pos, err)
			}
			m.OutArgs[pos] = f
		}
	}
	return m, nil
}

func formulaFromEntry(e config.FormulaEntry) (Formula, error) {
	switch e.Kind {
	case "", "deterministic":
		return Formula{Kind: Deterministic}, nil
	case "input-dependent":
		return Formula{Kind: InputDependent}, nil
	case "args":
		return Formula{Kind: ArgDependent, Args: e.Args}, nil
	default:
		return Formula{}, fmt.Errorf("unknown formula kind %q", e.Kind)
	}
}

// stdRoots lists the first path element of every standard library package. Synthetic
// package paths like "command-line-arguments" (how `go run main.go` style loads name the
// main package) are not in the table and are treated as user code.
var stdRoots = map[string]bool{
	"archive": true, "bufio": true, "builtin": true, "bytes": true,
	"cmp": true, "compress": true, "container": true, "context": true,
	"crypto": true, "database": true, "debug": true, "embed": true,
	"encoding": true, "errors": true, "expvar": true, "flag": true,
	"fmt": true, "go": true, "hash": true, "html": true, "image": true,
	"index": true, "internal": true, "io": true, "log": true, "maps": true,
	"math": true, "mime": true, "net": true, "os": true, "path": true,
	"plugin": true, "reflect": true, "regexp": true, "runtime": true,
	"slices": true, "sort": true, "strconv": true, "strings": true,
	"sync": true, "syscall": true, "testing": true, "text": true,
	"time": true, "unicode": true, "unsafe": true,
}

// IsStdPackageName returns true for packages of the standard library and the runtime.
func IsStdPackageName(path string) bool {
	root := path
	if i := strings.Index(path, "/"); i >= 0 {
		root = path[:i]
	}
	return stdRoots[root]
}

// IsStdFunction returns true if the function belongs to the standard library or the runtime.
func IsStdFunction(f *ssa.Function) bool {
	if f == nil {
		return false
	}
	pkg := f.Package()
	if pkg == nil {
		if f.Object() != nil && f.Object().Pkg() != nil {
			return IsStdPackageName(f.Object().Pkg().Path())
		}
		return false
	}
	return IsStdPackageName(pkg.Pkg.Path())
}
