// Package equilibrium adapts magnetic-equilibrium descriptions into the
// normalized flux geometry the neutron source model evaluates against.
package equilibrium

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Point is a position in the poloidal plane, meters.
type Point struct {
	R, Z float64
}

// FluxGeometry is an immutable view of the plasma region: the bounding
// box of the last closed flux surface and the normalized flux coordinate
// psi(R,Z), 0 on the magnetic axis and 1 on the plasma boundary. Psi is
// finite over the whole box and may exceed 1 outside the last closed
// surface.
type FluxGeometry struct {
	Rmin, Rmax float64
	Zmin, Zmax float64

	psi func(r, z float64) float64
}

// New builds a FluxGeometry from a bounding box and a normalized flux
// function. The box must be non-degenerate and sit at positive major
// radius.
func New(rmin, rmax, zmin, zmax float64, psi func(r, z float64) float64) (*FluxGeometry, error) {
	if psi == nil {
		return nil, errors.New("equilibrium: nil flux function")
	}
	if rmin <= 0 {
		return nil, fmt.Errorf("equilibrium: rmin=%g, want > 0", rmin)
	}
	if rmax <= rmin || zmax <= zmin {
		return nil, fmt.Errorf("equilibrium: degenerate bounding box [%g,%g]x[%g,%g]", rmin, rmax, zmin, zmax)
	}
	return &FluxGeometry{Rmin: rmin, Rmax: rmax, Zmin: zmin, Zmax: zmax, psi: psi}, nil
}

// Psi returns the normalized flux coordinate at (r, z). It is only
// meaningful inside the bounding box; callers gate on Contains first.
func (g *FluxGeometry) Psi(r, z float64) float64 {
	return g.psi(r, z)
}

// Contains reports whether (r, z) lies inside the bounding box.
func (g *FluxGeometry) Contains(r, z float64) bool {
	return r >= g.Rmin && r <= g.Rmax && z >= g.Zmin && z <= g.Zmax
}

// Grid is a rectilinear poloidal-flux map as supplied by an equilibrium
// code, together with the flux levels on axis and boundary and the
// plasma boundary contour.
type Grid struct {
	R, Z []float64 // grid axes, strictly increasing, meters

	// Psi holds poloidal flux values with rows indexed by Z and columns
	// by R.
	Psi *mat.Dense

	PsiAxis     float64 // flux on the magnetic axis
	PsiBoundary float64 // flux on the last closed surface

	Raxis, Zaxis float64 // magnetic axis position

	Boundary []Point // last closed flux surface contour
	Limiter  []Point // limiter contour, may be empty
}

func checkAxis(name string, xs []float64) error {
	if len(xs) < 2 {
		return fmt.Errorf("equilibrium: %s axis has %d points, want >= 2", name, len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return fmt.Errorf("equilibrium: %s axis not strictly increasing at index %d", name, i)
		}
	}
	return nil
}

// Geometry normalizes the flux map and derives the plasma bounding box
// from the boundary contour extrema. The returned geometry interpolates
// the gridded flux bilinearly.
func (g *Grid) Geometry() (*FluxGeometry, error) {
	if err := checkAxis("R", g.R); err != nil {
		return nil, err
	}
	if err := checkAxis("Z", g.Z); err != nil {
		return nil, err
	}
	if g.Psi == nil {
		return nil, errors.New("equilibrium: nil flux grid")
	}
	rows, cols := g.Psi.Dims()
	if rows != len(g.Z) || cols != len(g.R) {
		return nil, fmt.Errorf("equilibrium: flux grid is %dx%d, axes are %dx%d", rows, cols, len(g.Z), len(g.R))
	}
	if g.PsiBoundary == g.PsiAxis {
		return nil, errors.New("equilibrium: axis and boundary flux are equal")
	}
	if len(g.Boundary) < 3 {
		return nil, fmt.Errorf("equilibrium: boundary contour has %d points, want >= 3", len(g.Boundary))
	}

	rmin, rmax := math.Inf(1), math.Inf(-1)
	zmin, zmax := math.Inf(1), math.Inf(-1)
	for _, p := range g.Boundary {
		rmin = math.Min(rmin, p.R)
		rmax = math.Max(rmax, p.R)
		zmin = math.Min(zmin, p.Z)
		zmax = math.Max(zmax, p.Z)
	}
	if rmin < g.R[0] || rmax > g.R[len(g.R)-1] || zmin < g.Z[0] || zmax > g.Z[len(g.Z)-1] {
		return nil, fmt.Errorf("equilibrium: boundary box [%g,%g]x[%g,%g] exceeds flux grid extent", rmin, rmax, zmin, zmax)
	}

	inv := 1.0 / (g.PsiBoundary - g.PsiAxis)
	psi := func(r, z float64) float64 {
		return (g.bilinear(r, z) - g.PsiAxis) * inv
	}
	return New(rmin, rmax, zmin, zmax, psi)
}

// cell locates the interval containing x and returns its lower index and
// the fractional position inside it, clamped to the grid.
func cell(xs []float64, x float64) (int, float64) {
	n := len(xs)
	i := sort.SearchFloat64s(xs, x) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	t := (x - xs[i]) / (xs[i+1] - xs[i])
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return i, t
}

func (g *Grid) bilinear(r, z float64) float64 {
	i, tr := cell(g.R, r)
	j, tz := cell(g.Z, z)
	p00 := g.Psi.At(j, i)
	p01 := g.Psi.At(j, i+1)
	p10 := g.Psi.At(j+1, i)
	p11 := g.Psi.At(j+1, i+1)
	lo := p00 + tr*(p01-p00)
	hi := p10 + tr*(p11-p10)
	return lo + tz*(hi-lo)
}
