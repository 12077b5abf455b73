package loss

import (
	"fmt"
	"math"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
)

// NanMSELoss computes the mean squared error while ignoring missing targets.
//
// The elementwise loss is
//
//	l_n = (y_n - x_n)²
//
// where x is the prediction and y the target. A NaN target makes l_n NaN.
// Reductions then treat NaN elements as absent:
//
//	none: L = {l_1, ..., l_N}, NaNs kept so missing targets stay visible
//	sum:  Σ l_n over the non-NaN l_n
//	mean: sum / (number of non-NaN l_n), NaN when every element is NaN
//
// Predictions are not expected to hold NaN. If they do, the residual at that
// position is NaN as well and the element is dropped from sum and mean in the
// same way as a missing target.
//
// Example:
//
//	criterion, err := loss.NewNanMSELoss[float32](loss.ReductionMean, backend)
//	if err != nil {
//	    return err
//	}
//	l := criterion.Forward(predictions, targets)
//	grad := criterion.Backward(predictions, targets)
type NanMSELoss[T Float, B tensor.Backend] struct {
	Base
	backend B
}

// NewNanMSELoss creates a NaN-tolerant MSE loss.
//
// Returns a *params.InvalidParameterError if reduction is not one of
// ReductionNone, ReductionMean or ReductionSum.
func NewNanMSELoss[T Float, B tensor.Backend](reduction Reduction, backend B) (*NanMSELoss[T, B], error) {
	base, err := NewBaseWith("NanMSELoss", reduction, nil, nil)
	if err != nil {
		return nil, err
	}
	return &NanMSELoss[T, B]{
		Base:    base,
		backend: backend,
	}, nil
}

// Forward computes the loss.
//
// Parameters:
//   - predictions: model output, any shape
//   - targets: ground truth with the same shape as predictions, NaN where missing
//
// Returns a tensor shaped like the inputs for ReductionNone, or a scalar
// tensor (shape []) for ReductionMean and ReductionSum.
//
// Shapes are not checked here; mismatched operands fail inside the backend.
// Neither input is modified.
func (m *NanMSELoss[T, B]) Forward(predictions, targets *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	squared := squaredResidual(predictions, targets)

	switch m.Reduction() {
	case ReductionNone:
		return squared
	case ReductionSum:
		sum, _ := nanSum(squared)
		return m.scalar(sum)
	case ReductionMean:
		// 0/0 yields NaN when no element is valid.
		sum, n := nanSum(squared)
		return m.scalar(sum / float64(n))
	default:
		panic(fmt.Sprintf("NanMSELoss: unsupported reduction %q", m.Reduction()))
	}
}

// Backward computes the gradient of Forward with respect to predictions.
//
// Gradient:
//
//	∂l_n/∂x_n = 2·(x_n - y_n)
//
// For ReductionNone the elementwise gradient is returned unchanged, NaN where
// the residual is NaN. For ReductionSum NaN positions get a zero gradient, and
// ReductionMean additionally divides by the number of valid elements. When no
// element is valid the reduced gradients are all zero.
func (m *NanMSELoss[T, B]) Backward(predictions, targets *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	diff := subPreserving(predictions, targets)
	grad := diff.MulScalar(T(2))

	switch m.Reduction() {
	case ReductionNone:
		return grad
	case ReductionSum, ReductionMean:
	default:
		panic(fmt.Sprintf("NanMSELoss: unsupported reduction %q", m.Reduction()))
	}

	valid := ValidMask(grad)
	grad = tensor.Where(valid, grad, tensor.Zeros[T](grad.Shape(), m.backend))

	if m.Reduction() == ReductionMean {
		if n := countTrue(valid); n > 0 {
			grad = grad.MulScalar(T(1 / float64(n)))
		}
	}

	return grad
}

// Parameters returns nil (loss functions have no trainable parameters).
func (m *NanMSELoss[T, B]) Parameters() []*nn.Parameter[B] {
	return nil
}

// nanSum returns the sum of the non-NaN elements of x and their count.
// The sum is accumulated in float64 so float32 inputs keep their precision
// past 2^24 elements.
func nanSum[T Float, B tensor.Backend](x *tensor.Tensor[T, B]) (float64, int) {
	var (
		sum float64
		n   int
	)
	for _, v := range x.Data() {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		sum += f
		n++
	}
	return sum, n
}

// scalar wraps v in a tensor of shape [].
func (m *NanMSELoss[T, B]) scalar(v float64) *tensor.Tensor[T, B] {
	return tensor.Full[T](tensor.Shape{}, T(v), m.backend)
}

// squaredResidual returns (targets - predictions)².
func squaredResidual[T Float, B tensor.Backend](predictions, targets *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	residual := subPreserving(targets, predictions)
	return residual.Mul(residual)
}

// subPreserving returns a - b without writing into a's buffer.
//
// The CPU backend reuses the left operand's buffer when it holds the only
// reference to it; pinning the buffer forces a fresh result.
func subPreserving[T Float, B tensor.Backend](a, b *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	defer a.Raw().ForceNonUnique()()
	return a.Sub(b)
}
