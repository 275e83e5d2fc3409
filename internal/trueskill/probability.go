package trueskill

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// WinProbability returns the closed-form probability that team a beats team b:
// Φ((Σμa − Σμb) / sqrt(n·β² + Σσ²)) over all n players of both teams.
func (m *Model) WinProbability(a, b []Rating) float64 {
	deltaMu := 0.0
	sumSigmaSq := 0.0
	for _, r := range a {
		deltaMu += r.Mu
		sumSigmaSq += r.Variance()
	}
	for _, r := range b {
		deltaMu -= r.Mu
		sumSigmaSq += r.Variance()
	}
	size := float64(len(a) + len(b))
	denom := math.Sqrt(size*m.params.Beta*m.params.Beta + sumSigmaSq)
	return cdf(deltaMu / denom)
}

// OneOnOneWinProbability is WinProbability for two single players who both
// carry the model's prior sigma, reduced to the mean difference.
func (m *Model) OneOnOneWinProbability(deltaMu float64) float64 {
	beta, sigma := m.params.Beta, m.params.Sigma
	return cdf(deltaMu / math.Sqrt(2*beta*beta+2*sigma*sigma))
}

// PerformanceWinProbability is WinProbability for two single players whose
// skills are known exactly, so only performance noise separates them.
func (m *Model) PerformanceWinProbability(deltaMu float64) float64 {
	return cdf(deltaMu / math.Sqrt(2*m.params.Beta*m.params.Beta))
}

// OneOnOneScoreRatio returns the odds p/(1−p) of OneOnOneWinProbability.
// It fails with ErrDegenerateProbability once p rounds to exactly 0 or 1.
func (m *Model) OneOnOneScoreRatio(deltaMu float64) (float64, error) {
	p := m.OneOnOneWinProbability(deltaMu)
	if p >= 1 || p <= 0 {
		return 0, fmt.Errorf("%w: win probability %v for a mean difference of %v", ErrDegenerateProbability, p, deltaMu)
	}
	return p / (1 - p), nil
}

// Quality returns the draw probability of the match relative to the draw
// probability of a perfectly balanced one: 1 is an even match, values near 0
// are foregone conclusions.
func (m *Model) Quality(groups [][]Rating) (float64, error) {
	if err := m.validateGroups(groups); err != nil {
		return 0, err
	}

	var flat []Rating
	for _, g := range groups {
		flat = append(flat, g...)
	}
	n := len(flat)
	comparisons := len(groups) - 1

	means := mat.NewVecDense(n, nil)
	variances := mat.NewDiagDense(n, nil)
	for i, r := range flat {
		means.SetVec(i, r.Mu)
		variances.SetDiag(i, r.Variance())
	}

	// Row k compares team k against team k+1.
	rotated := mat.NewDense(comparisons, n, nil)
	offset := 0
	for k := 0; k < comparisons; k++ {
		for range groups[k] {
			rotated.Set(k, offset, 1)
			offset++
		}
		for j := range groups[k+1] {
			rotated.Set(k, offset+j, -1)
		}
	}
	a := rotated.T()

	var ata mat.Dense
	ata.Mul(rotated, a)
	ata.Scale(m.params.Beta*m.params.Beta, &ata)

	var sa, atsa mat.Dense
	sa.Mul(variances, a)
	atsa.Mul(rotated, &sa)

	var middle mat.Dense
	middle.Add(&ata, &atsa)

	var am mat.VecDense
	am.MulVec(rotated, means)

	var solved mat.VecDense
	if err := solved.SolveVec(&middle, &am); err != nil {
		return 0, fmt.Errorf("solve match quality system: %w", err)
	}

	// Log determinants keep large free-for-alls from overflowing.
	logDetA, _ := mat.LogDet(&ata)
	logDetM, _ := mat.LogDet(&middle)
	return math.Exp(-0.5*mat.Dot(&am, &solved) + 0.5*(logDetA-logDetM)), nil
}
