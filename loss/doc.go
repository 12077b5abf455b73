// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loss provides NaN-tolerant loss functions for the Born ML framework.
//
// # Overview
//
// Real-world regression targets are often incomplete: a sensor drops out, a
// label was never collected. Encoding the missing entries as NaN keeps the
// target tensor dense; the losses in this package then skip them:
//
//	import (
//	    "github.com/born-ml/born/backend/cpu"
//	    "github.com/born-ml/born/tensor"
//	    "github.com/born-ml/born-expansion/loss"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    pred, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
//	    target, _ := tensor.FromSlice([]float32{1, float32(math.NaN()), 5}, tensor.Shape{3}, backend)
//
//	    criterion, err := loss.NewNanMSELoss[float32](loss.ReductionMean, backend)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    l := criterion.Forward(pred, target) // 2.0: (0 + 4) / 2 valid elements
//	}
//
// # Reductions
//
//   - ReductionNone: elementwise loss, NaN where the target is missing
//   - ReductionSum: sum over the elements whose target is present
//   - ReductionMean: that sum divided by the number of present targets
//     (NaN when no target is present)
//
// # Configuration
//
// Options are validated when the loss is constructed. An unknown reduction
// returns a *InvalidParameterError that names the option, the received value
// and the allowed set; errors.Is(err, ErrInvalidParameter) matches it.
//
// # Gradients
//
// Born's gradient tape records backend operations only. NanMSELoss therefore
// exposes Backward, which returns ∂loss/∂predictions directly, in the same way
// nn.CrossEntropyBackward does for cross-entropy.
package loss
