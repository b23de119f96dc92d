package assessment

import "github.com/terra-clan/cyber-assessment/internal/models"

// Band thresholds are lower bounds on the raw score. They are not scaled
// to the bank's maximum.
const (
	AdvancedThreshold = 85
	AlignedThreshold  = 65
	BasicThreshold    = 35
)

// Classification bands, highest first
var (
	BandAdvanced = models.Band{
		Level:   "advanced",
		Name:    "Advanced Cyber Maturity",
		Summary: "Advanced Cyber Maturity - Fine as it is.",
	}
	BandAligned = models.Band{
		Level:   "aligned",
		Name:    "Aligned to Foundational Values",
		Summary: "Aligned to Foundational Values - May look at framework standards.",
	}
	BandBasic = models.Band{
		Level:   "basic",
		Name:    "Basic Measures in Place",
		Summary: "Basic Measures in Place - Thorough assessment required in the mid-term.",
	}
	BandImmediate = models.Band{
		Level:   "immediate",
		Name:    "Immediate assessment required",
		Summary: "Immediate assessment required in Cyber Posture.",
	}
)

// Score sums the weights of all recorded answers. Unknown weights count 0.
func Score(answers models.AnswerSet) int {
	total := 0
	for _, a := range answers.Entries() {
		if a.Weight > 0 {
			total += a.Weight
		}
	}
	return total
}

// Classify maps a score to its band
func Classify(score int) models.Band {
	switch {
	case score >= AdvancedThreshold:
		return BandAdvanced
	case score >= AlignedThreshold:
		return BandAligned
	case score >= BasicThreshold:
		return BandBasic
	default:
		return BandImmediate
	}
}

// Progress is the completed fraction shown for a step out of n questions.
// The result step reports 1.
func Progress(step, n int) float64 {
	if step >= n {
		return 1
	}
	return float64(step+1) / float64(n+1)
}

// Tick moves an animated counter one unit toward target
func Tick(current, target int) int {
	switch {
	case current < target:
		return current + 1
	case current > target:
		return current - 1
	default:
		return target
	}
}
