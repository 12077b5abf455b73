// Package params validates constructor options against declared constraint sets.
//
// A component declares, for every option it accepts, the set of values that
// option may take. Validation runs once, at construction time, over the union
// of every declared option:
//
//	constraints := params.Constraints{
//	    "reduction": params.StrOptions("none", "mean", "sum"),
//	}
//	err := params.Validate("NanMSELoss", constraints, map[string]string{
//	    "reduction": "median",
//	})
//	// err: NanMSELoss: invalid parameter "reduction": got "median", must be one of {"mean", "none", "sum"}
package params

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidParameter is the sentinel wrapped by every InvalidParameterError.
var ErrInvalidParameter = errors.New("invalid parameter")

// InvalidParameterError describes an option whose value is outside its allowed set.
type InvalidParameterError struct {
	Caller  string   // Component that rejected the option (e.g. "NanMSELoss")
	Option  string   // Option name (e.g. "reduction")
	Value   string   // Received value
	Allowed []string // Allowed values, sorted
}

// Error implements the error interface.
func (e *InvalidParameterError) Error() string {
	quoted := make([]string, len(e.Allowed))
	for i, v := range e.Allowed {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	msg := fmt.Sprintf("invalid parameter %q: got %q, must be one of {%s}",
		e.Option, e.Value, strings.Join(quoted, ", "))
	if e.Caller != "" {
		return e.Caller + ": " + msg
	}
	return msg
}

// Unwrap lets errors.Is match ErrInvalidParameter.
func (e *InvalidParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// StrSet is the set of values a string option accepts.
type StrSet map[string]struct{}

// StrOptions builds a StrSet from the given values.
func StrOptions(values ...string) StrSet {
	s := make(StrSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports whether v is an allowed value.
func (s StrSet) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Values returns the allowed values in sorted order.
func (s StrSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Constraints maps option names to their allowed values.
type Constraints map[string]StrSet

// Merge returns the union of c and other. Options declared in both keep the
// constraint from other, so a component can narrow an inherited option.
func (c Constraints) Merge(other Constraints) Constraints {
	out := make(Constraints, len(c)+len(other))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// ValidateOption checks a single string option against its allowed values.
func ValidateOption(caller, option, value string, allowed StrSet) error {
	if allowed.Contains(value) {
		return nil
	}
	return &InvalidParameterError{
		Caller:  caller,
		Option:  option,
		Value:   value,
		Allowed: allowed.Values(),
	}
}

// Validate checks every declared option in constraints against values.
//
// Options are visited in name order and the first violation is returned, so
// the reported error is deterministic. A declared option missing from values
// is validated as the empty string. Values for undeclared options are ignored.
func Validate(caller string, constraints Constraints, values map[string]string) error {
	names := make([]string, 0, len(constraints))
	for name := range constraints {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ValidateOption(caller, name, values[name], constraints[name]); err != nil {
			return err
		}
	}
	return nil
}
