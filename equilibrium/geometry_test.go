package equilibrium

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// analyticGrid builds a flux grid for a circular plasma of minor radius a
// centered on (r0, 0): psi quadratic in distance from the axis, with
// non-trivial axis and boundary flux levels.
func analyticGrid(nw, nh int) *Grid {
	const (
		r0, a        = 2.0, 0.5
		simag, sibry = -1.2, 0.3
	)
	g := &Grid{
		R:           make([]float64, nw),
		Z:           make([]float64, nh),
		Psi:         mat.NewDense(nh, nw, nil),
		PsiAxis:     simag,
		PsiBoundary: sibry,
		Raxis:       r0,
		Zaxis:       0,
	}
	for i := 0; i < nw; i++ {
		g.R[i] = 1.4 + 1.2*float64(i)/float64(nw-1)
	}
	for j := 0; j < nh; j++ {
		g.Z[j] = -0.6 + 1.2*float64(j)/float64(nh-1)
	}
	for j := 0; j < nh; j++ {
		for i := 0; i < nw; i++ {
			rho2 := ((g.R[i]-r0)*(g.R[i]-r0) + g.Z[j]*g.Z[j]) / (a * a)
			g.Psi.Set(j, i, simag+(sibry-simag)*rho2)
		}
	}
	for k := 0; k < 64; k++ {
		theta := 2 * math.Pi * float64(k) / 64
		g.Boundary = append(g.Boundary, Point{
			R: r0 + a*math.Cos(theta),
			Z: a * math.Sin(theta),
		})
	}
	return g
}

func TestGeometryBoundingBox(t *testing.T) {
	geom, err := analyticGrid(33, 33).Geometry()
	if err != nil {
		t.Fatalf("Geometry: %v", err)
	}
	for name, got := range map[string][2]float64{
		"Rmin": {geom.Rmin, 1.5},
		"Rmax": {geom.Rmax, 2.5},
		"Zmin": {geom.Zmin, -0.5},
		"Zmax": {geom.Zmax, 0.5},
	} {
		if math.Abs(got[0]-got[1]) > 1e-12 {
			t.Errorf("%s = %g, want %g", name, got[0], got[1])
		}
	}
}

func TestGeometryNormalization(t *testing.T) {
	geom, err := analyticGrid(33, 33).Geometry()
	if err != nil {
		t.Fatalf("Geometry: %v", err)
	}
	// The magnetic axis sits on a grid node up to rounding of the axis
	// coordinates.
	if got := geom.Psi(2.0, 0.0); math.Abs(got) > 1e-9 {
		t.Errorf("psi at axis = %g, want ~0", got)
	}
	// Points on the boundary circle evaluate near 1 up to the bilinear
	// discretization error of the quadratic flux.
	for _, p := range []Point{{2.5, 0}, {2.0, 0.5}, {1.5, 0}, {2.354, 0.354}} {
		if got := geom.Psi(p.R, p.Z); math.Abs(got-1) > 0.01 {
			t.Errorf("psi(%g, %g) = %g, want ~1", p.R, p.Z, got)
		}
	}
	// Outside the last closed surface psi exceeds 1 but stays finite.
	if got := geom.Psi(2.49, 0.49); got <= 1 || math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("psi outside LCFS = %g, want finite > 1", got)
	}
}

func TestGeometryMonotoneAlongRay(t *testing.T) {
	geom, err := analyticGrid(65, 65).Geometry()
	if err != nil {
		t.Fatalf("Geometry: %v", err)
	}
	prev := -1.0
	for k := 0; k <= 100; k++ {
		r := 2.0 + 0.5*float64(k)/100
		v := geom.Psi(r, 0)
		if v < prev-1e-12 {
			t.Fatalf("psi not monotone outward at R=%g: %g < %g", r, v, prev)
		}
		prev = v
	}
}

func TestGeometryContains(t *testing.T) {
	geom, err := analyticGrid(33, 33).Geometry()
	if err != nil {
		t.Fatalf("Geometry: %v", err)
	}
	for _, tc := range []struct {
		r, z float64
		want bool
	}{
		{2.0, 0.0, true},
		{1.5, -0.5, true}, // corners included
		{2.5, 0.5, true},
		{1.49, 0, false},
		{2.0, 0.51, false},
		{3.0, 0, false},
	} {
		if got := geom.Contains(tc.r, tc.z); got != tc.want {
			t.Errorf("Contains(%g, %g) = %v, want %v", tc.r, tc.z, got, tc.want)
		}
	}
}

func TestGeometryValidation(t *testing.T) {
	good := analyticGrid(17, 17)

	flat := analyticGrid(17, 17)
	flat.PsiBoundary = flat.PsiAxis
	if _, err := flat.Geometry(); err == nil {
		t.Error("equal axis/boundary flux accepted")
	}

	outside := analyticGrid(17, 17)
	outside.Boundary = append(outside.Boundary, Point{R: 3.5, Z: 0})
	if _, err := outside.Geometry(); err == nil {
		t.Error("boundary outside flux grid accepted")
	}

	short := analyticGrid(17, 17)
	short.Boundary = short.Boundary[:2]
	if _, err := short.Geometry(); err == nil {
		t.Error("two-point boundary accepted")
	}

	mismatched := analyticGrid(17, 17)
	mismatched.R = mismatched.R[:16]
	if _, err := mismatched.Geometry(); err == nil {
		t.Error("mismatched grid dimensions accepted")
	}

	if _, err := good.Geometry(); err != nil {
		t.Errorf("valid grid rejected: %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	flat := func(r, z float64) float64 { return 0 }
	if _, err := New(1, 2, -1, 1, nil); err == nil {
		t.Error("nil flux function accepted")
	}
	if _, err := New(-1, 2, -1, 1, flat); err == nil {
		t.Error("negative rmin accepted")
	}
	if _, err := New(2, 1, -1, 1, flat); err == nil {
		t.Error("inverted R range accepted")
	}
	if _, err := New(1, 2, 1, -1, flat); err == nil {
		t.Error("inverted Z range accepted")
	}
}
