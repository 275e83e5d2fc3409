package trueskill

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// gaussian is a normal distribution in natural parameters:
// pi is the precision (1/sigma²) and tau is the precision-adjusted mean (pi*mu).
// Natural parameters make message multiplication and division additive.
type gaussian struct {
	pi  float64
	tau float64
}

func newGaussian(mu, sigma float64) gaussian {
	pi := 1 / (sigma * sigma)
	return gaussian{pi: pi, tau: pi * mu}
}

func (g gaussian) mu() float64 {
	if g.pi == 0 {
		return 0
	}
	return g.tau / g.pi
}

func (g gaussian) sigma() float64 {
	if g.pi == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(1 / g.pi)
}

func (g gaussian) mul(o gaussian) gaussian {
	return gaussian{pi: g.pi + o.pi, tau: g.tau + o.tau}
}

func (g gaussian) div(o gaussian) gaussian {
	return gaussian{pi: g.pi - o.pi, tau: g.tau - o.tau}
}

// cdf, pdf and ppf of the standard normal distribution.
func cdf(x float64) float64 { return distuv.UnitNormal.CDF(x) }
func pdf(x float64) float64 { return distuv.UnitNormal.Prob(x) }
func ppf(p float64) float64 { return distuv.UnitNormal.Quantile(p) }

// drawMargin converts a draw probability into the performance-difference
// margin inside which a match between size players counts as a tie.
func drawMargin(drawProbability, beta float64, size int) float64 {
	return ppf((drawProbability+1)/2) * math.Sqrt(float64(size)) * beta
}

// vWin is the additive mean correction of a Gaussian truncated to
// (margin, +inf). Deep in the tail the Mills ratio tends to -x.
func vWin(diff, margin float64) float64 {
	x := diff - margin
	denom := cdf(x)
	if denom == 0 {
		return -x
	}
	return pdf(x) / denom
}

// wWin is the multiplicative variance correction matching vWin. It is
// bounded to the open interval (0, 1); saturation at the edges is a
// floating point artefact of extreme surprises.
func wWin(diff, margin float64) float64 {
	x := diff - margin
	v := vWin(diff, margin)
	return boundCorrection(v * (v + x))
}

// vDraw is the mean correction of a Gaussian truncated to [-margin, margin].
func vDraw(diff, margin float64) float64 {
	absDiff := math.Abs(diff)
	a, b := margin-absDiff, -margin-absDiff
	denom := cdf(a) - cdf(b)
	numer := pdf(b) - pdf(a)
	var v float64
	if denom == 0 {
		v = a
	} else {
		v = numer / denom
	}
	if diff < 0 {
		return -v
	}
	return v
}

// wDraw is the variance correction matching vDraw.
func wDraw(diff, margin float64) float64 {
	absDiff := math.Abs(diff)
	a, b := margin-absDiff, -margin-absDiff
	denom := cdf(a) - cdf(b)
	if denom == 0 {
		return boundCorrection(1)
	}
	v := vDraw(absDiff, margin)
	return boundCorrection(v*v + (a*pdf(a)-b*pdf(b))/denom)
}

const correctionEpsilon = 1e-12

func boundCorrection(w float64) float64 {
	switch {
	case math.IsNaN(w) || w <= 0:
		return correctionEpsilon
	case w >= 1:
		return 1 - correctionEpsilon
	}
	return w
}
