package negotiation

import "math"

// SalaryAlignment scores how well a salary outcome fits both constraints.
//
// With an agreed figure it is 100 inside [candidateMin, budget] and falls
// linearly with the distance to that window. Without one it uses the gap
// between the constraints themselves, max(0, candidateMin - budget). The
// decay scale is decay*budget: a gap that large scores 0.
func SalaryAlignment(agreed *float64, budget, candidateMin, decay float64) int {
	var gap float64
	if agreed != nil {
		a := *agreed
		switch {
		case a > budget:
			gap = a - budget
		case a < candidateMin:
			gap = candidateMin - a
		}
	} else {
		gap = math.Max(0, candidateMin-budget)
	}

	scale := decay * budget
	if scale <= 0 {
		if gap == 0 {
			return 100
		}
		return 0
	}
	return clamp(int(math.Round(100 * math.Max(0, 1-gap/scale))))
}

// Blend combines fit and salary alignment. Both inputs are 0-100; the result
// never decreases when either input increases.
func Blend(fit, salary int, fitWeight, salaryWeight float64) int {
	return clamp(int(math.Round(fitWeight*float64(clamp(fit)) + salaryWeight*float64(clamp(salary)))))
}

// CandidateMinimum is the lowest figure the candidate walks away happy with.
func CandidateMinimum(target, flex float64) float64 {
	return target * (1 - flex)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
