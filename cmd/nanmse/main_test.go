package main

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/born-ml/born-expansion/internal/dataio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArrays(t *testing.T, predName, targetName string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	pred := filepath.Join(dir, predName)
	target := filepath.Join(dir, targetName)
	require.NoError(t, dataio.WriteFile(pred, []int{3}, []float64{1, 2, 3}))
	require.NoError(t, dataio.WriteFile(target, []int{3}, []float64{1, math.NaN(), 5}))
	return pred, target
}

func TestRun_Eval(t *testing.T) {
	pred, target := writeArrays(t, "pred.txt", "target.txt.zst")

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"mean", []string{pred, target}, []string{"valid:       2/3", "loss:        2 (mean)"}},
		{"sum", []string{"-reduction", "sum", pred, target}, []string{"loss:        4 (sum)"}},
		{"none", []string{"-reduction", "none", pred, target}, []string{"loss:        [0 NaN 4] (none)"}},
		{"float64 grad", []string{"-dtype", "float64", "-grad", pred, target}, []string{"loss:        2 (mean)", "grad:        [0 0 -2]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, run(append([]string{"eval"}, tt.args...), &out))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
			assert.Contains(t, out.String(), "missing=1")
		})
	}
}

func TestRun_EvalErrors(t *testing.T) {
	pred, target := writeArrays(t, "pred.lz4", "target.gz")

	var out bytes.Buffer
	err := run([]string{"eval", "-reduction", "avg", pred, target}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid parameter "reduction"`)

	err = run([]string{"eval", "-dtype", "int8", pred, target}, &out)
	assert.True(t, errors.Is(err, errUsage))

	err = run([]string{"eval", pred}, &out)
	assert.True(t, errors.Is(err, errUsage))

	other := filepath.Join(t.TempDir(), "other.txt")
	require.NoError(t, dataio.WriteFile(other, []int{2, 2}, []float64{1, 2, 3, 4}))
	err = run([]string{"eval", pred, other}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape mismatch")
}

func TestRun_Commands(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"version"}, &out))
	assert.Contains(t, out.String(), "nanmse "+version)
	assert.Contains(t, out.String(), "Features:")

	out.Reset()
	require.NoError(t, run(nil, &out))
	assert.Contains(t, out.String(), "Commands:")

	err := run([]string{"train"}, &out)
	assert.True(t, errors.Is(err, errUsage))
}
