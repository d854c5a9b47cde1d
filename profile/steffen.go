package profile

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/interp"
)

// Steffen is a shape-preserving monotonic cubic interpolant (Steffen,
// Astron. Astrophys. 239 (1990) 443). The interpolated curve never
// overshoots between samples, so physically monotone profiles stay
// monotone and non-negative data stays non-negative.
//
// Evaluation outside the fitted range returns 0, not a continuation of
// the curve: a flux coordinate beyond the profile table means vacuum.
type Steffen struct {
	xs, ys []float64
	d      []float64 // first derivatives at the nodes
}

var _ interp.FittablePredictor = (*Steffen)(nil)

// ErrTooFewPoints is returned when fewer than three samples are supplied.
var ErrTooFewPoints = errors.New("profile: need at least 3 samples")

// ErrNotIncreasing is returned when the abscissae are not strictly increasing.
var ErrNotIncreasing = errors.New("profile: abscissae not strictly increasing")

// Fit fits the interpolant to the given samples. xs must be strictly
// increasing and contain at least three points. Fit copies its inputs.
func (s *Steffen) Fit(xs, ys []float64) error {
	n := len(xs)
	if n < 3 {
		return ErrTooFewPoints
	}
	if len(ys) != n {
		return errors.New("profile: xs and ys length mismatch")
	}
	for i := 1; i < n; i++ {
		if xs[i] <= xs[i-1] {
			return ErrNotIncreasing
		}
	}

	s.xs = append([]float64(nil), xs...)
	s.ys = append([]float64(nil), ys...)

	h := make([]float64, n-1)
	sl := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = xs[i+1] - xs[i]
		sl[i] = (ys[i+1] - ys[i]) / h[i]
	}

	d := make([]float64, n)
	for i := 1; i < n-1; i++ {
		if sl[i-1]*sl[i] <= 0 {
			d[i] = 0
			continue
		}
		p := (sl[i-1]*h[i] + sl[i]*h[i-1]) / (h[i-1] + h[i])
		d[i] = (math.Copysign(1, sl[i-1]) + math.Copysign(1, sl[i])) *
			math.Min(math.Abs(sl[i-1]), math.Min(math.Abs(sl[i]), 0.5*math.Abs(p)))
	}

	// One-sided parabolic estimates at the ends, clamped to preserve
	// monotonicity in the first and last intervals.
	p0 := sl[0]*(1+h[0]/(h[0]+h[1])) - sl[1]*h[0]/(h[0]+h[1])
	switch {
	case p0*sl[0] <= 0:
		d[0] = 0
	case math.Abs(p0) > 2*math.Abs(sl[0]):
		d[0] = 2 * sl[0]
	default:
		d[0] = p0
	}
	pn := sl[n-2]*(1+h[n-2]/(h[n-2]+h[n-3])) - sl[n-3]*h[n-2]/(h[n-2]+h[n-3])
	switch {
	case pn*sl[n-2] <= 0:
		d[n-1] = 0
	case math.Abs(pn) > 2*math.Abs(sl[n-2]):
		d[n-1] = 2 * sl[n-2]
	default:
		d[n-1] = pn
	}

	s.d = d
	return nil
}

// Predict evaluates the interpolant at x. Outside [xs[0], xs[n-1]] it
// returns exactly 0.
func (s *Steffen) Predict(x float64) float64 {
	xs, ys, d := s.xs, s.ys, s.d
	n := len(xs)
	if x < xs[0] || x > xs[n-1] {
		return 0
	}
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if xs[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	i := lo
	h := xs[i+1] - xs[i]
	sl := (ys[i+1] - ys[i]) / h
	a := (d[i] + d[i+1] - 2*sl) / h / h
	b := (3*sl - 2*d[i] - d[i+1]) / h
	dx := x - xs[i]
	return ys[i] + dx*(d[i]+dx*(b+dx*a))
}

// Min and Max return the fitted abscissa range.
func (s *Steffen) Min() float64 { return s.xs[0] }

// Max returns the largest fitted abscissa.
func (s *Steffen) Max() float64 { return s.xs[len(s.xs)-1] }
