package biquad

// Chain is an ordered cascade of biquad sections processed in series.
// It is used for higher-order filters (Butterworth cascades) where each
// second-order section feeds into the next.
type Chain struct {
	sections []Section
}

// NewChain creates a cascade from one or more coefficient sets.
// Each Coefficients value becomes one Section in the cascade.
func NewChain(coeffs []Coefficients) *Chain {
	c := &Chain{sections: make([]Section, len(coeffs))}
	for i := range coeffs {
		c.sections[i].Coefficients = coeffs[i]
	}
	return c
}

// ProcessSample cascades input through all sections in order.
func (c *Chain) ProcessSample(x float64) float64 {
	for i := range c.sections {
		x = c.sections[i].ProcessSample(x)
	}
	return x
}

// ProcessBlock filters a block in place through the full cascade.
func (c *Chain) ProcessBlock(buf []float64) {
	for i := range c.sections {
		c.sections[i].ProcessBlock(buf)
	}
}

// Reset clears all section states.
func (c *Chain) Reset() {
	for i := range c.sections {
		c.sections[i].Reset()
	}
}

// Order returns the total filter order (2 per full biquad section).
func (c *Chain) Order() int {
	return 2 * len(c.sections)
}

// NumSections returns the number of biquad sections.
func (c *Chain) NumSections() int {
	return len(c.sections)
}

// ZeroPhase filters input through a fresh cascade forward and then
// backward, cancelling the cascade's phase response. The input is not
// modified; a new slice is returned.
func ZeroPhase(coeffs []Coefficients, input []float64) []float64 {
	out := make([]float64, len(input))
	copy(out, input)
	if len(out) == 0 || len(coeffs) == 0 {
		return out
	}

	chain := NewChain(coeffs)
	chain.ProcessBlock(out)

	reverse(out)
	chain.Reset()
	chain.ProcessBlock(out)
	reverse(out)

	return out
}

func reverse(buf []float64) {
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
}
