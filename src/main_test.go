package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iafilius/AdaptivePolling/src/results"
	"github.com/iafilius/AdaptivePolling/src/sim"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSimulatorWritesPlottableTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	out, err := execute(t, "--out", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(sim.DefaultRates)+2)
	assert.True(t, strings.HasPrefix(lines[0], "Rate=0.005 -> Energy saved="))
	assert.Equal(t, "Results written to "+path, lines[len(lines)-1])

	tbl, err := results.Load(path)
	require.NoError(t, err)
	require.Equal(t, len(sim.DefaultRates), tbl.Len())
	for _, col := range results.Header {
		assert.True(t, tbl.HasColumn(col), col)
	}
	assert.Equal(t, 240, tbl.Records[0].FixedPolls)
}

func TestSimulatorSeedIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	_, err := execute(t, "--out", a, "--seed", "7")
	require.NoError(t, err)
	_, err = execute(t, "--out", b, "--seed", "7")
	require.NoError(t, err)

	ra, err := os.ReadFile(a)
	require.NoError(t, err)
	rb, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, ra, rb)
}

func TestSimulatorRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	_, err := execute(t, "--out", path, "--horizon", "0")
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
	assert.NoFileExists(t, path)

	for _, h := range []string{"inf", "+Inf", "NaN", "-1"} {
		_, err = execute(t, "--out", path, "--horizon", h)
		assert.ErrorIs(t, err, sim.ErrInvalidConfig, "horizon %s", h)
		assert.NoFileExists(t, path)
	}

	_, err = execute(t, "--log-level", "chatty")
	assert.Error(t, err)
}
