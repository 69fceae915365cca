package dcfr

import "math"

// discountCoefficients computes the three Discounted CFR weights for
// iteration t (1-indexed), per spec §4.6 step 1.
func discountCoefficients(t int) (alpha, beta, gamma float64) {
	tau := float64(t - 1)
	if tau < 0 {
		tau = 0
	}
	tauSqrt := tau * math.Sqrt(tau)
	alpha = tauSqrt / (tauSqrt + 1)
	beta = 0.5

	p := largestPowerOf4AtMost(t)
	ratio := float64(t-p) / float64(t-p+1)
	gamma = ratio * ratio * ratio
	return alpha, beta, gamma
}

func largestPowerOf4AtMost(t int) int {
	p := 1
	for p*4 <= t {
		p *= 4
	}
	return p
}
