package loss_test

import (
	"errors"
	"math"
	"testing"

	"github.com/born-ml/born-expansion/internal/loss"
	"github.com/born-ml/born-expansion/internal/params"
	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBase(t *testing.T) {
	tests := []struct {
		reduction loss.Reduction
		wantErr   bool
	}{
		{loss.ReductionNone, false},
		{loss.ReductionMean, false},
		{loss.ReductionSum, false},
		{"test", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.reduction.String(), func(t *testing.T) {
			base, err := loss.NewBase(tt.reduction)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, params.ErrInvalidParameter))
				assert.Equal(t, loss.Reduction(""), base.Reduction())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.reduction, base.Reduction())
		})
	}
}

func TestParseReduction(t *testing.T) {
	r, err := loss.ParseReduction("sum")
	require.NoError(t, err)
	assert.Equal(t, loss.ReductionSum, r)

	_, err = loss.ParseReduction("median")
	var perr *params.InvalidParameterError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "median", perr.Value)
}

// A loss can declare extra options that are validated alongside reduction.
func TestNewBaseWith_ExtraOptions(t *testing.T) {
	extra := params.Constraints{
		"mask": params.StrOptions("target", "both"),
	}

	base, err := loss.NewBaseWith("MaskedLoss", loss.ReductionSum, extra, map[string]string{"mask": "both"})
	require.NoError(t, err)
	assert.Equal(t, loss.ReductionSum, base.Reduction())

	mask, ok := base.Option("mask")
	assert.True(t, ok)
	assert.Equal(t, "both", mask)

	_, ok = base.Option("missing")
	assert.False(t, ok)

	t.Run("invalid extra", func(t *testing.T) {
		_, err := loss.NewBaseWith("MaskedLoss", loss.ReductionSum, extra, map[string]string{"mask": "prediction"})
		var perr *params.InvalidParameterError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "MaskedLoss", perr.Caller)
		assert.Equal(t, "mask", perr.Option)
		assert.Equal(t, []string{"both", "target"}, perr.Allowed)
	})

	t.Run("invalid reduction", func(t *testing.T) {
		_, err := loss.NewBaseWith("MaskedLoss", "avg", extra, map[string]string{"mask": "target"})
		var perr *params.InvalidParameterError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "reduction", perr.Option)
	})

	t.Run("missing extra", func(t *testing.T) {
		_, err := loss.NewBaseWith("MaskedLoss", loss.ReductionMean, extra, nil)
		var perr *params.InvalidParameterError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "mask", perr.Option)
	})
}

// Extra constraints may narrow the reductions a loss accepts but never add one.
func TestNewBaseWith_ReductionConstraint(t *testing.T) {
	narrowed := params.Constraints{
		"reduction": params.StrOptions("mean", "sum"),
	}

	base, err := loss.NewBaseWith("ReducedLoss", loss.ReductionMean, narrowed, nil)
	require.NoError(t, err)
	assert.Equal(t, loss.ReductionMean, base.Reduction())
	_, ok := base.Option("reduction")
	assert.False(t, ok)

	_, err = loss.NewBaseWith("ReducedLoss", loss.ReductionNone, narrowed, nil)
	var perr *params.InvalidParameterError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, []string{"mean", "sum"}, perr.Allowed)

	widened := params.Constraints{
		"reduction": params.StrOptions("none", "mean", "sum", "median"),
	}
	_, err = loss.NewBaseWith("MedianLoss", "median", widened, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, loss.ErrUnknownReduction))
	assert.Contains(t, err.Error(), `MedianLoss: unknown reduction "median"`)

	_, err = loss.NewBaseWith("MedianLoss", loss.ReductionMean, widened, nil)
	assert.True(t, errors.Is(err, loss.ErrUnknownReduction))
}

func TestValidMaskAndCount(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float64{1, math.NaN(), 0, math.Inf(1), math.NaN()}, tensor.Shape{5}, backend)
	require.NoError(t, err)

	mask := loss.ValidMask(x)
	assert.Equal(t, tensor.Shape{5}, mask.Shape())
	assert.Equal(t, []bool{true, false, true, true, false}, mask.Data())
	assert.Equal(t, 3, loss.CountValid(x))
}
