// Package severity implements the two-factor decomposition of a change in
// average claim severity into a severity effect and a mix effect.
//
// All functions are pure: inputs are never mutated and no state is shared,
// so callers may run decompositions concurrently on disjoint inputs.
package severity

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Bucket is one claim category within a period.
type Bucket struct {
	Category string  `json:"category" yaml:"category"`
	Volume   float64 `json:"volume" yaml:"volume"`     // claim count
	Severity float64 `json:"severity" yaml:"severity"` // average cost per claim
}

// key is the identity used to pair buckets across periods.
func (b Bucket) key() string {
	return strings.TrimSpace(b.Category)
}

// Period is an ordered collection of buckets with unique categories.
type Period []Bucket

// Validate reports the first malformed bucket, or ErrOverflow when the
// period totals or average leave the float64 range. It does not check that
// the total volume is positive; see Decompose for that.
func (p Period) Validate() error {
	seen := make(map[string]struct{}, len(p))
	for i, b := range p {
		k := b.key()
		switch {
		case k == "":
			return fmt.Errorf("%w: bucket %d has an empty category", ErrInvalidBucket, i)
		case !finiteNonNegative(b.Volume):
			return fmt.Errorf("%w: category %q volume %v must be a finite number >= 0", ErrInvalidBucket, k, b.Volume)
		case !finiteNonNegative(b.Severity):
			return fmt.Errorf("%w: category %q severity %v must be a finite number >= 0", ErrInvalidBucket, k, b.Severity)
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidBucket, k)
		}
		seen[k] = struct{}{}
	}
	if !finite(TotalVolume(p), TotalCost(p), AverageSeverity(p)) {
		return ErrOverflow
	}
	return nil
}

// Index maps each category to its bucket.
func (p Period) Index() map[string]Bucket {
	idx := make(map[string]Bucket, len(p))
	for _, b := range p {
		idx[b.key()] = b
	}
	return idx
}

// Categories returns the sorted category keys.
func (p Period) Categories() []string {
	out := make([]string, 0, len(p))
	for _, b := range p {
		out = append(out, b.key())
	}
	sort.Strings(out)
	return out
}

// TotalVolume returns the number of claims across all buckets.
func TotalVolume(p Period) float64 {
	var total float64
	for _, b := range p {
		total += b.Volume
	}
	return total
}

// TotalCost returns the sum of severity times volume across all buckets.
func TotalCost(p Period) float64 {
	var total float64
	for _, b := range p {
		total += b.Severity * b.Volume
	}
	return total
}

// AverageSeverity returns the volume-weighted average severity of p.
// It returns 0 when the total volume is not positive.
func AverageSeverity(p Period) float64 {
	volume := TotalVolume(p)
	if volume <= 0 {
		return 0
	}
	return TotalCost(p) / volume
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && finite(v)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}
