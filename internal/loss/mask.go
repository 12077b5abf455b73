package loss

import (
	"math"

	"github.com/born-ml/born/tensor"
)

// ValidMask returns a bool tensor that is true wherever x is not NaN.
//
// It relies on NaN being the only value not equal to itself.
func ValidMask[T Float, B tensor.Backend](x *tensor.Tensor[T, B]) *tensor.Tensor[bool, B] {
	return x.Equal(x)
}

// CountValid returns the number of elements of x that are not NaN.
func CountValid[T Float, B tensor.Backend](x *tensor.Tensor[T, B]) int {
	n := 0
	for _, v := range x.Data() {
		if !math.IsNaN(float64(v)) {
			n++
		}
	}
	return n
}

func countTrue[B tensor.Backend](mask *tensor.Tensor[bool, B]) int {
	n := 0
	for _, v := range mask.Data() {
		if v {
			n++
		}
	}
	return n
}
