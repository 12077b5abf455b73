// Package loss implements NaN-tolerant loss functions on top of Born tensors.
//
// Every loss embeds a Base that carries its validated configuration. The
// configuration is checked once, when the loss is constructed, against the
// option constraints the loss declares:
//
//	criterion, err := loss.NewNanMSELoss[float32](loss.ReductionMean, backend)
//	if err != nil {
//	    return err // *params.InvalidParameterError
//	}
//	l := criterion.Forward(predictions, targets)
//
// Losses hold no reference to their inputs and are immutable after
// construction, so a single loss value may be shared between goroutines.
package loss

import (
	"errors"
	"fmt"

	"github.com/born-ml/born-expansion/internal/params"
	"github.com/born-ml/born/tensor"
)

// Reduction selects how elementwise losses are combined.
type Reduction string

// Supported reductions.
const (
	ReductionNone Reduction = "none" // Elementwise loss, same shape as the inputs
	ReductionMean Reduction = "mean" // Mean over the contributing elements
	ReductionSum  Reduction = "sum"  // Sum over the contributing elements
)

// DefaultReduction is the reduction used when the caller has no preference.
const DefaultReduction = ReductionMean

// String returns the option value.
func (r Reduction) String() string {
	return string(r)
}

// ErrUnknownReduction is returned by NewBaseWith when a loss declares a
// reduction value that no loss in this package can compute.
var ErrUnknownReduction = errors.New("unknown reduction")

// reductionOption is the option name reported in validation errors.
const reductionOption = "reduction"

// baseConstraints are the options every loss accepts.
var baseConstraints = params.Constraints{
	reductionOption: params.StrOptions(
		string(ReductionNone),
		string(ReductionMean),
		string(ReductionSum),
	),
}

// ParseReduction converts s to a Reduction, rejecting unknown values.
func ParseReduction(s string) (Reduction, error) {
	if err := params.Validate("Loss", baseConstraints, map[string]string{reductionOption: s}); err != nil {
		return "", err
	}
	return Reduction(s), nil
}

// Float is the set of element types a loss accepts.
type Float interface {
	float32 | float64
}

// Criterion is implemented by every loss in this package.
type Criterion[T Float, B tensor.Backend] interface {
	// Forward computes the loss of predictions against targets.
	Forward(predictions, targets *tensor.Tensor[T, B]) *tensor.Tensor[T, B]

	// Reduction returns the configured reduction.
	Reduction() Reduction
}

// Base holds the validated configuration shared by all losses.
//
// Concrete losses embed Base and build it with NewBase or NewBaseWith from
// their constructor, so that no loss value exists with an invalid
// configuration.
type Base struct {
	reduction Reduction
	options   map[string]string
}

// NewBase validates reduction and returns the configuration.
func NewBase(reduction Reduction) (Base, error) {
	return NewBaseWith("Loss", reduction, nil, nil)
}

// NewBaseWith validates reduction together with additional options a loss
// declares for itself.
//
// extra maps each additional option name to its allowed values and values
// holds the received value of each. The union of the base and extra
// constraints is validated in a single pass; the first violation, in option
// name order, is returned as a *params.InvalidParameterError naming caller.
//
// extra may narrow the allowed reductions but not add new ones; a declared
// reduction outside none, mean and sum fails with ErrUnknownReduction.
func NewBaseWith(caller string, reduction Reduction, extra params.Constraints, values map[string]string) (Base, error) {
	if declared, ok := extra[reductionOption]; ok {
		known := baseConstraints[reductionOption]
		for _, v := range declared.Values() {
			if !known.Contains(v) {
				return Base{}, fmt.Errorf("%s: %w %q", caller, ErrUnknownReduction, v)
			}
		}
	}

	received := make(map[string]string, len(values)+1)
	for k, v := range values {
		received[k] = v
	}
	received[reductionOption] = string(reduction)

	constraints := baseConstraints
	if len(extra) > 0 {
		constraints = baseConstraints.Merge(extra)
	}

	if err := params.Validate(caller, constraints, received); err != nil {
		return Base{}, err
	}

	options := make(map[string]string, len(extra))
	for name := range extra {
		if name == reductionOption {
			continue
		}
		options[name] = received[name]
	}

	return Base{
		reduction: reduction,
		options:   options,
	}, nil
}

// Reduction returns the validated reduction.
func (b Base) Reduction() Reduction {
	return b.reduction
}

// Option returns the validated value of an additional option declared
// through NewBaseWith.
func (b Base) Option(name string) (string, bool) {
	v, ok := b.options[name]
	return v, ok
}
