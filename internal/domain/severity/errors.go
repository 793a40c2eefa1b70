package severity

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for decomposition errors. Every kind matches ErrInvalidInput
// via errors.Is so callers can treat them uniformly as caller mistakes.
var (
	ErrInvalidInput     = errors.New("invalid decomposition input")
	ErrEmptyPeriod      = fmt.Errorf("%w: period total volume is zero", ErrInvalidInput)
	ErrCategoryMismatch = fmt.Errorf("%w: periods do not share the same categories", ErrInvalidInput)
	ErrInvalidBucket    = fmt.Errorf("%w: invalid claim bucket", ErrInvalidInput)
	ErrOverflow         = fmt.Errorf("%w: totals overflow float64", ErrInvalidBucket)
)

// Period labels used in error messages.
const (
	LabelBaseline   = "baseline"
	LabelComparison = "comparison"
)

// PeriodError ties a validation failure to the period it was found in.
type PeriodError struct {
	Period string
	Err    error
}

func (e *PeriodError) Error() string {
	return e.Period + ": " + e.Err.Error()
}

func (e *PeriodError) Unwrap() error { return e.Err }

// MismatchError lists the categories present in only one of the two periods.
type MismatchError struct {
	MissingInBaseline   []string
	MissingInComparison []string
}

func (e *MismatchError) Error() string {
	var b strings.Builder
	b.WriteString(ErrCategoryMismatch.Error())
	if len(e.MissingInBaseline) > 0 {
		b.WriteString("; missing in baseline: ")
		b.WriteString(strings.Join(e.MissingInBaseline, ", "))
	}
	if len(e.MissingInComparison) > 0 {
		b.WriteString("; missing in comparison: ")
		b.WriteString(strings.Join(e.MissingInComparison, ", "))
	}
	return b.String()
}

func (e *MismatchError) Unwrap() error { return ErrCategoryMismatch }
