package cubature

import (
	"math"
	"testing"
)

func TestIntegratePolynomialExact(t *testing.T) {
	// Degree 7 rule integrates x^3 y^2 exactly in a single application.
	r := Integrate(func(x, y float64) float64 { return x * x * x * y * y },
		Rect{0, 2, 0, 1}, 1e-12, 0, 10000)
	const want = 4.0 / 3.0
	if math.Abs(r.Value-want) > 1e-12 {
		t.Errorf("value = %.16g, want %.16g", r.Value, want)
	}
	if r.Evals != 17 {
		t.Errorf("evals = %d, want 17 (single rule application)", r.Evals)
	}
	if !r.Converged {
		t.Error("polynomial integration did not converge")
	}
}

func TestIntegrateExp(t *testing.T) {
	r := Integrate(func(x, y float64) float64 { return math.Exp(x + y) },
		Rect{0, 1, 0, 1}, 1e-10, 0, 100000)
	want := (math.E - 1) * (math.E - 1)
	if !r.Converged {
		t.Fatalf("did not converge: %+v", r)
	}
	if rel := math.Abs(r.Value-want) / want; rel > 1e-10 {
		t.Errorf("value = %.16g, want %.16g (rel %g)", r.Value, want, rel)
	}
	if r.Error > 1e-10*want {
		t.Errorf("error estimate %g exceeds requested tolerance", r.Error)
	}
}

func TestIntegrateGaussianPeak(t *testing.T) {
	f := func(x, y float64) float64 {
		return math.Exp(-50 * ((x-0.5)*(x-0.5) + (y-0.5)*(y-0.5)))
	}
	const want = 0.06283178102841873
	r := Integrate(f, Rect{0, 1, 0, 1}, 1e-9, 0, 200000)
	if !r.Converged {
		t.Fatalf("did not converge: %+v", r)
	}
	if rel := math.Abs(r.Value-want) / want; rel > 1e-9 {
		t.Errorf("value = %.16g, want %.16g (rel %g)", r.Value, want, rel)
	}
}

func TestIntegrateBudgetExhaustion(t *testing.T) {
	f := func(x, y float64) float64 {
		return math.Exp(-50 * ((x-0.5)*(x-0.5) + (y-0.5)*(y-0.5)))
	}
	r := Integrate(f, Rect{0, 1, 0, 1}, 1e-9, 0, 40)
	if r.Converged {
		t.Error("claimed convergence with a 40-eval budget")
	}
	if r.Evals > 40 {
		t.Errorf("evals = %d, exceeds budget 40", r.Evals)
	}
	if r.Error <= 0 {
		t.Errorf("error estimate = %g, want positive for degraded result", r.Error)
	}
}

func TestIntegrateZeroIntegrand(t *testing.T) {
	r := Integrate(func(x, y float64) float64 { return 0 }, Rect{0, 1, 0, 1}, 1e-9, 0, 1000)
	if r.Value != 0 || r.Error != 0 || !r.Converged {
		t.Errorf("zero integrand: %+v, want exact converged zero", r)
	}
}

func TestIntegrateInvalidRect(t *testing.T) {
	for _, rect := range []Rect{
		{1, 0, 0, 1},
		{0, 1, 1, 0},
		{0, 0, 0, 1},
		{math.Inf(-1), 1, 0, 1},
	} {
		r := Integrate(func(x, y float64) float64 { return 1 }, rect, 1e-9, 0, 1000)
		if !math.IsNaN(r.Value) || r.Converged {
			t.Errorf("rect %+v: got %+v, want NaN unconverged", rect, r)
		}
	}
}

func TestIntegrateDeterministic(t *testing.T) {
	f := func(x, y float64) float64 { return math.Sin(3*x) * math.Cos(2*y) }
	a := Integrate(f, Rect{0, 2, -1, 1}, 1e-8, 0, 50000)
	b := Integrate(f, Rect{0, 2, -1, 1}, 1e-8, 0, 50000)
	if a != b {
		t.Errorf("repeated integration differs: %+v vs %+v", a, b)
	}
}

func TestIntegrateVecMatchesScalar(t *testing.T) {
	vf := func(x, y float64, out []float64) {
		out[0] = 1
		out[1] = x
	}
	r := IntegrateVec(vf, 2, Rect{0, 1, 0, 1}, 1e-10, nil, 10000)
	if !r.Converged {
		t.Fatalf("did not converge: %+v", r)
	}
	if math.Abs(r.Values[0]-1) > 1e-12 {
		t.Errorf("component 0 = %.16g, want 1", r.Values[0])
	}
	if math.Abs(r.Values[1]-0.5) > 1e-12 {
		t.Errorf("component 1 = %.16g, want 0.5", r.Values[1])
	}
}

func TestIntegrateVecAbsoluteTolerance(t *testing.T) {
	// Second component integrates to zero by antisymmetry; only an
	// absolute tolerance can declare it converged.
	vf := func(x, y float64, out []float64) {
		out[0] = math.Exp(x + y)
		out[1] = (x - 0.5) * math.Exp(y)
	}
	r := IntegrateVec(vf, 2, Rect{0, 1, 0, 1}, 1e-9, []float64{0, 1e-12}, 200000)
	if !r.Converged {
		t.Fatalf("did not converge: %+v", r)
	}
	want := (math.E - 1) * (math.E - 1)
	if rel := math.Abs(r.Values[0]-want) / want; rel > 1e-9 {
		t.Errorf("component 0 = %.16g, want %.16g", r.Values[0], want)
	}
	if math.Abs(r.Values[1]) > 1e-10 {
		t.Errorf("component 1 = %g, want ~0", r.Values[1])
	}
}

func TestIntegrateVecInvalid(t *testing.T) {
	vf := func(x, y float64, out []float64) { out[0] = 1 }
	if r := IntegrateVec(vf, 0, Rect{0, 1, 0, 1}, 1e-9, nil, 100); r.Converged {
		t.Error("zero-dimensional integrand accepted")
	}
	if r := IntegrateVec(vf, 1, Rect{1, 0, 0, 1}, 1e-9, nil, 100); !math.IsNaN(r.Values[0]) {
		t.Error("invalid rect accepted")
	}
}
