// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package loss

import (
	"github.com/born-ml/born-expansion/internal/loss"
	"github.com/born-ml/born-expansion/internal/params"
	"github.com/born-ml/born/tensor"
)

// Reduction selects how elementwise losses are combined.
type Reduction = loss.Reduction

// Reduction constants.
const (
	ReductionNone = loss.ReductionNone
	ReductionMean = loss.ReductionMean
	ReductionSum  = loss.ReductionSum

	// DefaultReduction is the reduction to use when the caller has no preference.
	DefaultReduction = loss.DefaultReduction
)

// Float is the set of element types the losses accept (float32, float64).
type Float = loss.Float

// Criterion is implemented by every loss in this package.
type Criterion[T Float, B tensor.Backend] = loss.Criterion[T, B]

// ParseReduction converts a string such as a command-line flag to a Reduction.
//
// Example:
//
//	r, err := loss.ParseReduction("sum")
func ParseReduction(s string) (Reduction, error) {
	return loss.ParseReduction(s)
}

// Base holds the validated configuration shared by all losses.
//
// Custom losses embed Base and build it with NewBase or NewBaseWith.
type Base = loss.Base

// NewBase validates reduction and returns the configuration.
func NewBase(reduction Reduction) (Base, error) {
	return loss.NewBase(reduction)
}

// Constraints maps option names to their allowed values.
type Constraints = params.Constraints

// StrOptions builds the allowed-value set of a string option.
func StrOptions(values ...string) params.StrSet {
	return params.StrOptions(values...)
}

// NewBaseWith validates reduction together with additional options declared
// by a custom loss.
//
// Example:
//
//	base, err := loss.NewBaseWith("MaskedLoss", loss.ReductionMean,
//	    loss.Constraints{"mask": loss.StrOptions("target", "both")},
//	    map[string]string{"mask": "target"},
//	)
func NewBaseWith(caller string, reduction Reduction, extra Constraints, values map[string]string) (Base, error) {
	return loss.NewBaseWith(caller, reduction, extra, values)
}

// InvalidParameterError is returned by constructors for options outside their allowed set.
type InvalidParameterError = params.InvalidParameterError

// ErrInvalidParameter matches every InvalidParameterError with errors.Is.
var ErrInvalidParameter = params.ErrInvalidParameter

// ErrUnknownReduction is returned by NewBaseWith when extra constraints
// declare a reduction outside none, mean and sum.
var ErrUnknownReduction = loss.ErrUnknownReduction

// NanMSELoss is the mean squared error that ignores NaN targets.
type NanMSELoss[T Float, B tensor.Backend] = loss.NanMSELoss[T, B]

// NewNanMSELoss creates a NaN-tolerant MSE loss.
//
// Example:
//
//	backend := cpu.New()
//	criterion, err := loss.NewNanMSELoss[float32](loss.ReductionSum, backend)
//	l := criterion.Forward(predictions, targets)
func NewNanMSELoss[T Float, B tensor.Backend](reduction Reduction, backend B) (*NanMSELoss[T, B], error) {
	return loss.NewNanMSELoss[T](reduction, backend)
}

// ValidMask returns a bool tensor that is true wherever x is not NaN.
func ValidMask[T Float, B tensor.Backend](x *tensor.Tensor[T, B]) *tensor.Tensor[bool, B] {
	return loss.ValidMask(x)
}

// CountValid returns the number of elements of x that are not NaN.
func CountValid[T Float, B tensor.Backend](x *tensor.Tensor[T, B]) int {
	return loss.CountValid(x)
}
