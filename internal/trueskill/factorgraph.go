package trueskill

import "math"

// variable is a node of the factor graph. It keeps its current marginal and
// the last message received from every adjacent factor.
type variable struct {
	value    gaussian
	messages map[factor]gaussian
}

func newVariable() *variable {
	return &variable{messages: make(map[factor]gaussian)}
}

// set replaces the marginal and returns how far it moved.
func (v *variable) set(val gaussian) float64 {
	d := v.delta(val)
	v.value = val
	return d
}

func (v *variable) delta(o gaussian) float64 {
	piDelta := math.Abs(v.value.pi - o.pi)
	if math.IsInf(piDelta, 1) {
		return 0
	}
	return math.Max(math.Abs(v.value.tau-o.tau), math.Sqrt(piDelta))
}

// updateMessage swaps the message from f and folds the change into the marginal.
func (v *variable) updateMessage(f factor, msg gaussian) float64 {
	old := v.messages[f]
	v.messages[f] = msg
	return v.set(v.value.div(old).mul(msg))
}

// updateValue forces the marginal to val and back-computes the message from f.
func (v *variable) updateValue(f factor, val gaussian) float64 {
	old := v.messages[f]
	v.messages[f] = val.mul(old).div(v.value)
	return v.set(val)
}

// cavity is the marginal without the contribution of f.
func (v *variable) cavity(f factor) gaussian {
	return v.value.div(v.messages[f])
}

type factor interface {
	down() float64
}

// priorFactor injects a rating, widened by the dynamics noise, into a skill variable.
type priorFactor struct {
	v       *variable
	rating  Rating
	dynamic float64
}

func (f *priorFactor) down() float64 {
	sigma := math.Sqrt(f.rating.Sigma*f.rating.Sigma + f.dynamic*f.dynamic)
	return f.v.updateValue(f, newGaussian(f.rating.Mu, sigma))
}

// likelihoodFactor links a skill to a noisy performance with the given variance.
type likelihoodFactor struct {
	mean     *variable
	value    *variable
	variance float64
}

func (f *likelihoodFactor) attenuate(g gaussian) gaussian {
	a := 1 / (1 + f.variance*g.pi)
	return gaussian{pi: a * g.pi, tau: a * g.tau}
}

func (f *likelihoodFactor) down() float64 {
	return f.value.updateMessage(f, f.attenuate(f.mean.cavity(f)))
}

func (f *likelihoodFactor) up() float64 {
	return f.mean.updateMessage(f, f.attenuate(f.value.cavity(f)))
}

// sumFactor constrains sum = Σ coeffs[i]*terms[i].
type sumFactor struct {
	sum    *variable
	terms  []*variable
	coeffs []float64
}

func (f *sumFactor) down() float64 {
	return f.update(f.sum, f.terms, f.coeffs)
}

// up sends a message to terms[index] by solving the constraint for it.
func (f *sumFactor) up(index int) float64 {
	pivot := f.coeffs[index]
	coeffs := make([]float64, len(f.coeffs))
	for i, c := range f.coeffs {
		switch {
		case pivot == 0:
			coeffs[i] = 0
		case i == index:
			coeffs[i] = 1 / pivot
		default:
			coeffs[i] = -c / pivot
		}
	}
	vars := make([]*variable, len(f.terms))
	copy(vars, f.terms)
	vars[index] = f.sum
	return f.update(f.terms[index], vars, coeffs)
}

func (f *sumFactor) update(target *variable, vars []*variable, coeffs []float64) float64 {
	piInv, mu := 0.0, 0.0
	for i, v := range vars {
		c := v.cavity(f)
		mu += coeffs[i] * c.mu()
		if math.IsInf(piInv, 1) {
			continue
		}
		if c.pi == 0 {
			piInv = math.Inf(1)
			continue
		}
		piInv += coeffs[i] * coeffs[i] / c.pi
	}
	pi := 1 / piInv
	return target.updateMessage(f, gaussian{pi: pi, tau: pi * mu})
}

// truncateFactor applies the observed outcome (win or draw) to a team difference.
type truncateFactor struct {
	v      *variable
	vFunc  func(diff, margin float64) float64
	wFunc  func(diff, margin float64) float64
	margin float64
}

func (f *truncateFactor) down() float64 { return 0 }

func (f *truncateFactor) up() float64 {
	c := f.v.cavity(f)
	sqrtPi := math.Sqrt(c.pi)
	diff := c.tau / sqrtPi
	margin := f.margin * sqrtPi
	v := f.vFunc(diff, margin)
	w := f.wFunc(diff, margin)
	denom := 1 - w
	return f.v.updateValue(f, gaussian{
		pi:  c.pi / denom,
		tau: (c.tau + sqrtPi*v) / denom,
	})
}
