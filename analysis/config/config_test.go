package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
pkg-filter: "github.com/acme/.*"
max-fixpoint-iters: 25
strict-queries: true
summary-cache: "results.bin"
stats-db: "stats.sqlite"
log-level: 4
library-models:
  - name: "github.com/acme/pkg.Fetch"
    return:
      kind: input-dependent
  - name: "github.com/acme/pkg.Copy"
    return:
      kind: deterministic
    out-args:
      0:
        kind: args
        args: [1]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.MaxFixpointIters)
	assert.True(t, cfg.StrictQueries)
	assert.Equal(t, "results.bin", cfg.SummaryCache)
	assert.True(t, cfg.Verbose())
	require.Len(t, cfg.LibraryModels, 2)
	assert.Equal(t, "input-dependent", cfg.LibraryModels[0].Return.Kind)
	assert.Equal(t, []int{1}, cfg.LibraryModels[1].OutArgs[0].Args)

	assert.True(t, cfg.MatchPkgFilter("github.com/acme/pkg"))
	assert.False(t, cfg.MatchPkgFilter("github.com/other/pkg"))

	assert.Equal(t, filepath.Join(filepath.Dir(path), "results.bin"), cfg.RelPath("results.bin"))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "pkg-filter: \"\"\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxFixpointIters, cfg.MaxFixpointIters)
	assert.Equal(t, int(InfoLevel), cfg.LogLevel)
	assert.False(t, cfg.StrictQueries)
	assert.True(t, cfg.MatchPkgFilter("anything/at/all"), "empty filter matches everything")
}

func TestLoadRejectsInvalidModels(t *testing.T) {
	_, err := Load(writeConfig(t, `
library-models:
  - name: "pkg.F"
    return:
      kind: sometimes
`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `
library-models:
  - name: ""
`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `
library-models:
  - name: "pkg.G"
    return:
      kind: args
`))
	assert.Error(t, err, "args formula without positions must be rejected")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGlobalConfig(t *testing.T) {
	path := writeConfig(t, "log-level: 2\n")
	SetGlobalConfig(path)
	cfg, err := LoadGlobal()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.LogLevel)
}
