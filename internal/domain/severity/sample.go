package severity

// Sample periods: five auto lines across two policy years.
var sampleCategories = []string{"Bodily Injury", "Collision", "PDL", "Med Pay", "Comprehensive"}

// SampleBaseline returns the reference baseline period.
func SampleBaseline() Period {
	return samplePeriod([]float64{50, 100, 75, 20, 30}, []float64{1000, 500, 300, 2000, 800})
}

// SampleComparison returns the reference comparison period.
func SampleComparison() Period {
	return samplePeriod([]float64{45, 110, 80, 25, 35}, []float64{1100, 550, 320, 2100, 850})
}

func samplePeriod(volumes, severities []float64) Period {
	p := make(Period, len(sampleCategories))
	for i, c := range sampleCategories {
		p[i] = Bucket{Category: c, Volume: volumes[i], Severity: severities[i]}
	}
	return p
}
