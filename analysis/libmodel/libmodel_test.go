package libmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/ssa"

	"github.com/tum-i22/input-dependency-analyzer/analysis/config"
)

func TestRegistryBuiltins(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)

	assert.True(t, r.HasModel("os.Getenv"))
	assert.Equal(t, InputDependent, r.ModelOf("os.Getenv").Return.Kind)

	assert.True(t, r.HasModel("strings.ToUpper"))
	m := r.ModelOf("strings.ToUpper")
	assert.Equal(t, ArgDependent, m.Return.Kind)
	assert.Equal(t, []int{0}, m.Return.Args)

	assert.True(t, r.HasModel("sort.Strings"))
	assert.Contains(t, r.ModelOf("sort.Strings").OutArgs, 0)

	assert.False(t, r.HasModel("no.Such/thing.Function"))
}

func TestRegistryConfigEntries(t *testing.T) {
	entries := []config.LibraryModelEntry{
		{
			Name:   "github.com/acme/pkg.Fetch",
			Return: config.FormulaEntry{Kind: "input-dependent"},
			OutArgs: map[int]config.FormulaEntry{
				1: {Kind: "args", Args: []int{0}},
			},
		},
	}
	r, err := NewRegistry(entries)
	require.NoError(t, err)

	m := r.ModelOf("github.com/acme/pkg.Fetch")
	assert.Equal(t, InputDependent, m.Return.Kind)
	assert.Equal(t, ArgDependent, m.OutArgs[1].Kind)

	_, err = NewRegistry([]config.LibraryModelEntry{
		{Name: "bad", Return: config.FormulaEntry{Kind: "sometimes"}},
	})
	assert.Error(t, err)
}

func TestModelOfUnknownPanics(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)
	assert.Panics(t, func() { r.ModelOf("not.Registered") })
}

func TestResolveContract(t *testing.T) {
	r, err := NewRegistry(nil)
	require.NoError(t, err)
	fn1, fn2 := new(ssa.Function), new(ssa.Function)

	m := r.ModelOf("os.Getenv")
	assert.False(t, m.Resolved())

	r.Resolve(fn1, "os.Getenv")
	assert.True(t, m.Resolved())
	assert.Same(t, fn1, m.Fn())

	// Resolving again with the same symbol is a no-op.
	assert.NotPanics(t, func() { r.Resolve(fn1, "os.Getenv") })

	// Rebinding to a different symbol is a contract violation.
	assert.Panics(t, func() { r.Resolve(fn2, "os.Getenv") })
}

func TestIsStdPackageName(t *testing.T) {
	assert.True(t, IsStdPackageName("os"))
	assert.True(t, IsStdPackageName("encoding/json"))
	assert.True(t, IsStdPackageName("net/http"))
	assert.False(t, IsStdPackageName("github.com/acme/pkg"))
	assert.False(t, IsStdPackageName("zombiezen.com/go/sqlite"))
	assert.False(t, IsStdPackageName(""))
	// Loading a program as `analyze main.go` names the main package
	// "command-line-arguments"; it must count as user code.
	assert.False(t, IsStdPackageName("command-line-arguments"))
	assert.False(t, IsStdPackageName("main"))
}
