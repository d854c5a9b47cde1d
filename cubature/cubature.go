// Package cubature provides deterministic error-controlled adaptive
// integration over planar rectangles, using the Genz-Malik degree 7
// rule with an embedded degree 5 error estimate and region bisection.
package cubature

import (
	"container/heap"
	"math"
)

// Func is a scalar integrand over the plane.
type Func func(x, y float64) float64

// VecFunc evaluates a small vector integrand at (x, y) into out. The
// integrator shares evaluation points across components.
type VecFunc func(x, y float64, out []float64)

// Rect is an axis-aligned integration domain.
type Rect struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// Result is the outcome of an adaptive integration. A false Converged
// flag means the error estimate still exceeded the requested tolerance
// when the evaluation budget ran out; Value and Error remain valid as a
// degraded estimate.
type Result struct {
	Value     float64
	Error     float64 // absolute error estimate
	Evals     int
	Converged bool
}

// VecResult is the vector-integrand analogue of Result.
type VecResult struct {
	Values    []float64
	Errors    []float64
	Evals     int
	Converged bool
}

// evalsPerRule is the point count of the 2D Genz-Malik rule.
const evalsPerRule = 17

// Genz-Malik abscissae and weights for n=2. The degree 7 weights (w*)
// and the embedded degree 5 weights (e*) share all points except the
// corner orbit at l5.
var (
	l2 = math.Sqrt(9.0 / 70.0)
	l3 = math.Sqrt(9.0 / 10.0)
	l4 = math.Sqrt(9.0 / 10.0)
	l5 = math.Sqrt(9.0 / 19.0)

	w1 = (12824.0 - 9120.0*2 + 400.0*2*2) / 19683.0
	w2 = 980.0 / 6561.0
	w3 = (1820.0 - 400.0*2) / 19683.0
	w4 = 200.0 / 19683.0
	w5 = 6859.0 / 19683.0 / 4.0

	e1 = (729.0 - 950.0*2 + 50.0*2*2) / 729.0
	e2 = 245.0 / 486.0
	e3 = (265.0 - 100.0*2) / 1458.0
	e4 = 25.0 / 729.0
)

// region is one leaf of the adaptive subdivision.
type region struct {
	cx, cy   float64 // center
	hx, hy   float64 // half-widths
	value    float64
	err      float64
	splitDim int // 0 = x, 1 = y
	seq      int // tie-break for heap determinism
}

type regionHeap []*region

func (h regionHeap) Len() int { return len(h) }
func (h regionHeap) Less(i, j int) bool {
	if h[i].err != h[j].err {
		return h[i].err > h[j].err
	}
	return h[i].seq < h[j].seq
}
func (h regionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *regionHeap) Push(x any)   { *h = append(*h, x.(*region)) }
func (h *regionHeap) Pop() any {
	old := *h
	n := len(old)
	r := old[n-1]
	*h = old[:n-1]
	return r
}

// rule applies the degree 7/5 rule pair to one region.
func rule(f Func, r *region) {
	cx, cy, hx, hy := r.cx, r.cy, r.hx, r.hy
	vol := 4.0 * hx * hy

	fc := f(cx, cy)
	s2x := f(cx-l2*hx, cy) + f(cx+l2*hx, cy)
	s2y := f(cx, cy-l2*hy) + f(cx, cy+l2*hy)
	s3x := f(cx-l3*hx, cy) + f(cx+l3*hx, cy)
	s3y := f(cx, cy-l3*hy) + f(cx, cy+l3*hy)
	s4 := f(cx-l4*hx, cy-l4*hy) + f(cx+l4*hx, cy-l4*hy) +
		f(cx-l4*hx, cy+l4*hy) + f(cx+l4*hx, cy+l4*hy)
	s5 := f(cx-l5*hx, cy-l5*hy) + f(cx+l5*hx, cy-l5*hy) +
		f(cx-l5*hx, cy+l5*hy) + f(cx+l5*hx, cy+l5*hy)

	i7 := vol * (w1*fc + w2*(s2x+s2y) + w3*(s3x+s3y) + w4*s4 + w5*s5)
	i5 := vol * (e1*fc + e2*(s2x+s2y) + e3*(s3x+s3y) + e4*s4)

	r.value = i7
	r.err = math.Abs(i7 - i5)

	// Split along the axis of largest fourth divided difference.
	ratio := (l2 * l2) / (l3 * l3)
	dx := math.Abs(s2x - 2*fc - ratio*(s3x-2*fc))
	dy := math.Abs(s2y - 2*fc - ratio*(s3y-2*fc))
	if dx >= dy {
		r.splitDim = 0
	} else {
		r.splitDim = 1
	}
}

func (r Rect) valid() bool {
	return r.Xmax > r.Xmin && r.Ymax > r.Ymin &&
		!math.IsInf(r.Xmin, 0) && !math.IsInf(r.Xmax, 0) &&
		!math.IsInf(r.Ymin, 0) && !math.IsInf(r.Ymax, 0)
}

// Integrate estimates the integral of f over rect. It refines until the
// absolute error estimate drops below max(absTol, relTol*|value|) or the
// evaluation budget maxEvals is spent, whichever comes first.
func Integrate(f Func, rect Rect, relTol, absTol float64, maxEvals int) Result {
	if !rect.valid() {
		return Result{Value: math.NaN(), Error: math.Inf(1)}
	}

	root := &region{
		cx: 0.5 * (rect.Xmin + rect.Xmax),
		cy: 0.5 * (rect.Ymin + rect.Ymax),
		hx: 0.5 * (rect.Xmax - rect.Xmin),
		hy: 0.5 * (rect.Ymax - rect.Ymin),
	}
	rule(f, root)

	regions := regionHeap{root}
	heap.Init(&regions)
	total, totalErr := root.value, root.err
	evals := evalsPerRule
	seq := 0

	converged := func() bool {
		return totalErr <= absTol || totalErr <= relTol*math.Abs(total)
	}

	for !converged() && evals+2*evalsPerRule <= maxEvals {
		worst := heap.Pop(&regions).(*region)
		total -= worst.value
		totalErr -= worst.err

		var halves [2]*region
		if worst.splitDim == 0 {
			halves[0] = &region{cx: worst.cx - worst.hx/2, cy: worst.cy, hx: worst.hx / 2, hy: worst.hy}
			halves[1] = &region{cx: worst.cx + worst.hx/2, cy: worst.cy, hx: worst.hx / 2, hy: worst.hy}
		} else {
			halves[0] = &region{cx: worst.cx, cy: worst.cy - worst.hy/2, hx: worst.hx, hy: worst.hy / 2}
			halves[1] = &region{cx: worst.cx, cy: worst.cy + worst.hy/2, hx: worst.hx, hy: worst.hy / 2}
		}
		for _, h := range halves {
			rule(f, h)
			seq++
			h.seq = seq
			heap.Push(&regions, h)
			total += h.value
			totalErr += h.err
			evals += evalsPerRule
		}
	}

	return Result{Value: total, Error: totalErr, Evals: evals, Converged: converged()}
}

// IntegrateVec estimates the integral of a dim-component integrand over
// rect. Subdivision is driven by the sum of component error estimates;
// the result converges when every component error drops below
// max(absTol[k], relTol*|value[k]|). absTol may be nil for pure relative
// control.
func IntegrateVec(f VecFunc, dim int, rect Rect, relTol float64, absTol []float64, maxEvals int) VecResult {
	if dim < 1 || !rect.valid() {
		return VecResult{Values: nan(dim), Errors: inf(dim)}
	}
	if absTol == nil {
		absTol = make([]float64, dim)
	}

	scratch := make([]float64, dim)
	totals := make([]float64, dim)
	totalErrs := make([]float64, dim)

	// The vector rule reuses the scalar machinery per component by
	// evaluating all components at each point once.
	type vecRegion struct {
		region
		values []float64
		errs   []float64
	}

	apply := func(r *vecRegion) {
		cx, cy, hx, hy := r.cx, r.cy, r.hx, r.hy
		vol := 4.0 * hx * hy

		fc := make([]float64, dim)
		s2x := make([]float64, dim)
		s2y := make([]float64, dim)
		s3x := make([]float64, dim)
		s3y := make([]float64, dim)
		s4 := make([]float64, dim)
		s5 := make([]float64, dim)

		accum := func(dst []float64, x, y float64) {
			f(x, y, scratch)
			for k := 0; k < dim; k++ {
				dst[k] += scratch[k]
			}
		}
		accum(fc, cx, cy)
		accum(s2x, cx-l2*hx, cy)
		accum(s2x, cx+l2*hx, cy)
		accum(s2y, cx, cy-l2*hy)
		accum(s2y, cx, cy+l2*hy)
		accum(s3x, cx-l3*hx, cy)
		accum(s3x, cx+l3*hx, cy)
		accum(s3y, cx, cy-l3*hy)
		accum(s3y, cx, cy+l3*hy)
		accum(s4, cx-l4*hx, cy-l4*hy)
		accum(s4, cx+l4*hx, cy-l4*hy)
		accum(s4, cx-l4*hx, cy+l4*hy)
		accum(s4, cx+l4*hx, cy+l4*hy)
		accum(s5, cx-l5*hx, cy-l5*hy)
		accum(s5, cx+l5*hx, cy-l5*hy)
		accum(s5, cx-l5*hx, cy+l5*hy)
		accum(s5, cx+l5*hx, cy+l5*hy)

		r.values = make([]float64, dim)
		r.errs = make([]float64, dim)
		r.err = 0
		ratio := (l2 * l2) / (l3 * l3)
		var dxMax, dyMax float64
		for k := 0; k < dim; k++ {
			i7 := vol * (w1*fc[k] + w2*(s2x[k]+s2y[k]) + w3*(s3x[k]+s3y[k]) + w4*s4[k] + w5*s5[k])
			i5 := vol * (e1*fc[k] + e2*(s2x[k]+s2y[k]) + e3*(s3x[k]+s3y[k]) + e4*s4[k])
			r.values[k] = i7
			r.errs[k] = math.Abs(i7 - i5)
			r.err += r.errs[k]
			dxMax = math.Max(dxMax, math.Abs(s2x[k]-2*fc[k]-ratio*(s3x[k]-2*fc[k])))
			dyMax = math.Max(dyMax, math.Abs(s2y[k]-2*fc[k]-ratio*(s3y[k]-2*fc[k])))
		}
		if dxMax >= dyMax {
			r.splitDim = 0
		} else {
			r.splitDim = 1
		}
	}

	root := &vecRegion{region: region{
		cx: 0.5 * (rect.Xmin + rect.Xmax),
		cy: 0.5 * (rect.Ymin + rect.Ymax),
		hx: 0.5 * (rect.Xmax - rect.Xmin),
		hy: 0.5 * (rect.Ymax - rect.Ymin),
	}}
	apply(root)

	regions := make([]*vecRegion, 0, 64)
	regions = append(regions, root)
	for k := 0; k < dim; k++ {
		totals[k] = root.values[k]
		totalErrs[k] = root.errs[k]
	}
	evals := evalsPerRule

	converged := func() bool {
		for k := 0; k < dim; k++ {
			if totalErrs[k] > absTol[k] && totalErrs[k] > relTol*math.Abs(totals[k]) {
				return false
			}
		}
		return true
	}

	for !converged() && evals+2*evalsPerRule <= maxEvals {
		// Linear scan for the worst region; vector passes stay small
		// enough that heap bookkeeping is not worth carrying twice.
		worst := 0
		for i := 1; i < len(regions); i++ {
			if regions[i].err > regions[worst].err {
				worst = i
			}
		}
		w := regions[worst]
		regions[worst] = regions[len(regions)-1]
		regions = regions[:len(regions)-1]
		for k := 0; k < dim; k++ {
			totals[k] -= w.values[k]
			totalErrs[k] -= w.errs[k]
		}

		var halves [2]*vecRegion
		if w.splitDim == 0 {
			halves[0] = &vecRegion{region: region{cx: w.cx - w.hx/2, cy: w.cy, hx: w.hx / 2, hy: w.hy}}
			halves[1] = &vecRegion{region: region{cx: w.cx + w.hx/2, cy: w.cy, hx: w.hx / 2, hy: w.hy}}
		} else {
			halves[0] = &vecRegion{region: region{cx: w.cx, cy: w.cy - w.hy/2, hx: w.hx, hy: w.hy / 2}}
			halves[1] = &vecRegion{region: region{cx: w.cx, cy: w.cy + w.hy/2, hx: w.hx, hy: w.hy / 2}}
		}
		for _, h := range halves {
			apply(h)
			regions = append(regions, h)
			for k := 0; k < dim; k++ {
				totals[k] += h.values[k]
				totalErrs[k] += h.errs[k]
			}
			evals += evalsPerRule
		}
	}

	return VecResult{Values: totals, Errors: totalErrs, Evals: evals, Converged: converged()}
}

func nan(n int) []float64 {
	if n < 0 {
		n = 0
	}
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

func inf(n int) []float64 {
	if n < 0 {
		n = 0
	}
	s := make([]float64, n)
	for i := range s {
		s[i] = math.Inf(1)
	}
	return s
}
