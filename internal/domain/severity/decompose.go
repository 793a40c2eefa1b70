package severity

import "sort"

// Result is the output record of a decomposition.
type Result struct {
	BaselineAvgSeverity   float64 `json:"baseline_avg_severity"`
	ComparisonAvgSeverity float64 `json:"comparison_avg_severity"`
	TotalChange           float64 `json:"total_change"`
	SeverityEffect        float64 `json:"severity_effect"`
	MixEffect             float64 `json:"mix_effect"`
}

// Path is one ordering of the two factors. Scenario is the average severity
// of the synthetic dataset visited between the two steps.
type Path struct {
	Scenario float64 `json:"scenario_avg_severity"`
	Severity float64 `json:"severity_effect"`
	Mix      float64 `json:"mix_effect"`
}

// Paths holds both orderings whose mean is the final attribution.
type Paths struct {
	SeverityFirst Path `json:"severity_first"`
	MixFirst      Path `json:"mix_first"`
}

// Decompose splits the change in average severity between baseline and
// comparison into a severity effect and a mix effect. The two effects always
// sum to TotalChange up to floating point rounding.
func Decompose(baseline, comparison Period) (Result, error) {
	res, _, err := DecomposeDetailed(baseline, comparison)
	return res, err
}

// DecomposeDetailed is Decompose that also returns both orderings.
//
// Severity first: move severities to the comparison level holding baseline
// volumes, then move volumes. Mix first: move volumes holding baseline
// severities, then move severities. The reported effects are the mean of the
// two paths.
func DecomposeDetailed(baseline, comparison Period) (Result, Paths, error) {
	if err := Check(baseline, comparison); err != nil {
		return Result{}, Paths{}, err
	}

	s1 := AverageSeverity(baseline)
	s2 := AverageSeverity(comparison)
	sa := AverageSeverity(substitute(baseline, comparison.Index()))
	sb := AverageSeverity(substitute(comparison, baseline.Index()))

	paths := Paths{
		SeverityFirst: Path{Scenario: sa, Severity: sa - s1, Mix: s2 - sa},
		MixFirst:      Path{Scenario: sb, Severity: s2 - sb, Mix: sb - s1},
	}
	res := Result{
		BaselineAvgSeverity:   s1,
		ComparisonAvgSeverity: s2,
		TotalChange:           s2 - s1,
		SeverityEffect:        (paths.SeverityFirst.Severity + paths.MixFirst.Severity) / 2,
		MixEffect:             (paths.SeverityFirst.Mix + paths.MixFirst.Mix) / 2,
	}
	// Each period is finite on its own, but the swapped scenarios can still overflow.
	if !finite(sa, sb, res.TotalChange, res.SeverityEffect, res.MixEffect) {
		return Result{}, Paths{}, ErrOverflow
	}
	return res, paths, nil
}

// Check validates a pair of periods in the order the engine relies on:
// malformed buckets, then empty periods, then category pairing.
func Check(baseline, comparison Period) error {
	if err := baseline.Validate(); err != nil {
		return &PeriodError{Period: LabelBaseline, Err: err}
	}
	if err := comparison.Validate(); err != nil {
		return &PeriodError{Period: LabelComparison, Err: err}
	}
	if TotalVolume(baseline) <= 0 {
		return &PeriodError{Period: LabelBaseline, Err: ErrEmptyPeriod}
	}
	if TotalVolume(comparison) <= 0 {
		return &PeriodError{Period: LabelComparison, Err: ErrEmptyPeriod}
	}
	return matchCategories(baseline.Index(), comparison.Index())
}

func matchCategories(base, comp map[string]Bucket) error {
	var missingInBase, missingInComp []string
	for k := range comp {
		if _, ok := base[k]; !ok {
			missingInBase = append(missingInBase, k)
		}
	}
	for k := range base {
		if _, ok := comp[k]; !ok {
			missingInComp = append(missingInComp, k)
		}
	}
	if len(missingInBase) == 0 && len(missingInComp) == 0 {
		return nil
	}
	sort.Strings(missingInBase)
	sort.Strings(missingInComp)
	return &MismatchError{MissingInBaseline: missingInBase, MissingInComparison: missingInComp}
}

// substitute keeps the volumes of p and takes severities from the other
// period by category.
func substitute(p Period, severities map[string]Bucket) Period {
	out := make(Period, len(p))
	for i, b := range p {
		out[i] = Bucket{
			Category: b.Category,
			Volume:   b.Volume,
			Severity: severities[b.key()].Severity,
		}
	}
	return out
}
