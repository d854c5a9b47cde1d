// Package yield integrates neutron source distributions over the torus
// volume: total emission rate, per-cell yield maps, spatial moments and
// a mesh-quality metric.
package yield

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/neutronics/cubature"
	"github.com/pthm-cable/neutronics/source"
)

// cm3PerM3 converts the m^3 volume element of the (R,Z,phi) domain to
// the cm^3 units the intensity field is expressed in.
const cm3PerM3 = 1e6

// Options controls the adaptive integration.
type Options struct {
	RelTol   float64
	AbsTol   float64 // in neutrons/s, 0 for pure relative control
	MaxEvals int
}

// DefaultOptions matches the tolerances the reference analyses run at.
func DefaultOptions() Options {
	return Options{RelTol: 1e-6, AbsTol: 0, MaxEvals: 200000}
}

// Moment1 is the yield-weighted centroid of a distribution over a
// sub-rectangle, with per-axis absolute error estimates.
type Moment1 struct {
	R, Z       float64
	ErrR, ErrZ float64
	Evals      int
	Converged  bool
}

// Total integrates the distribution over its full bounding box:
// the toroidal volume integral of I(R,Z), in neutrons per second.
func Total(d source.Distribution, opt Options) cubature.Result {
	g := d.Geometry()
	return Segment(d, g.Rmin, g.Rmax, g.Zmin, g.Zmax, opt)
}

// Segment integrates the distribution over the toroidal shell swept by
// the rectangle [rmin,rmax]x[zmin,zmax]. The rectangle is mapped to the
// unit square and the cylindrical volume element R dR dZ dphi supplies
// the R weight and a 2*pi factor.
func Segment(d source.Distribution, rmin, rmax, zmin, zmax float64, opt Options) cubature.Result {
	dr := rmax - rmin
	dz := zmax - zmin
	norm := 2 * math.Pi * dr * dz * cm3PerM3

	f := func(x, y float64) float64 {
		r := rmin + dr*x
		z := zmin + dz*y
		return r * d.IntensityRZ(r, z)
	}
	res := cubature.Integrate(f, cubature.Rect{Xmin: 0, Xmax: 1, Ymin: 0, Ymax: 1},
		opt.RelTol, opt.AbsTol/math.Abs(norm), opt.MaxEvals)
	res.Value *= norm
	res.Error *= math.Abs(norm)
	return res
}

// SegmentMoment1 computes the yield-weighted centroid over a
// sub-rectangle. The zeroth moment (the segment yield itself) is
// integrated first and acts as the normalizer; if that pass does not
// converge the centroid would be meaningless, so an error is returned
// instead. Non-convergence of the first-moment pass is reported through
// the Converged flag with the degraded values left in place.
func SegmentMoment1(d source.Distribution, rmin, rmax, zmin, zmax float64, opt Options) (Moment1, error) {
	m0 := Segment(d, rmin, rmax, zmin, zmax, opt)
	if !m0.Converged {
		return Moment1{}, fmt.Errorf("yield: zeroth moment did not converge (error %.3g after %d evaluations)",
			m0.Error, m0.Evals)
	}
	if m0.Value == 0 {
		return Moment1{}, fmt.Errorf("yield: zero segment yield, centroid undefined")
	}

	dr := rmax - rmin
	dz := zmax - zmin
	norm := 2 * math.Pi * dr * dz * cm3PerM3
	m0raw := m0.Value / norm

	f := func(x, y float64, out []float64) {
		r := rmin + dr*x
		z := zmin + dz*y
		w := r * d.IntensityRZ(r, z)
		out[0] = r * w
		out[1] = z * w
	}
	// Component magnitudes scale like m0 times a coordinate, so the
	// absolute floors keep the Z component (near zero for up-down
	// symmetric plasmas) from stalling the relative test.
	absTol := []float64{
		opt.RelTol * math.Abs(m0raw) * math.Max(math.Abs(rmin), math.Abs(rmax)),
		opt.RelTol * math.Abs(m0raw) * math.Max(math.Abs(zmin), math.Abs(zmax)),
	}
	res := cubature.IntegrateVec(f, 2, cubature.Rect{Xmin: 0, Xmax: 1, Ymin: 0, Ymax: 1},
		opt.RelTol, absTol, opt.MaxEvals)

	return Moment1{
		R:         res.Values[0] / m0raw,
		Z:         res.Values[1] / m0raw,
		ErrR:      res.Errors[0] / math.Abs(m0raw),
		ErrZ:      res.Errors[1] / math.Abs(m0raw),
		Evals:     m0.Evals + res.Evals,
		Converged: res.Converged,
	}, nil
}

func checkBins(name string, bins []float64) error {
	if len(bins) < 2 {
		return fmt.Errorf("yield: %s mesh has %d edges, want >= 2", name, len(bins))
	}
	for i := 1; i < len(bins); i++ {
		if bins[i] <= bins[i-1] {
			return fmt.Errorf("yield: %s mesh not strictly increasing at edge %d", name, i)
		}
	}
	return nil
}

// Map computes the per-cell segment yield over the mesh whose cell
// edges are rbins and zbins. Rows are indexed by Z cell, columns by R
// cell.
func Map(d source.Distribution, rbins, zbins []float64, opt Options) (*mat.Dense, error) {
	if err := checkBins("R", rbins); err != nil {
		return nil, err
	}
	if err := checkBins("Z", zbins); err != nil {
		return nil, err
	}
	m := mat.NewDense(len(zbins)-1, len(rbins)-1, nil)
	for j := 0; j < len(zbins)-1; j++ {
		for i := 0; i < len(rbins)-1; i++ {
			res := Segment(d, rbins[i], rbins[i+1], zbins[j], zbins[j+1], opt)
			m.Set(j, i, res.Value)
		}
	}
	return m, nil
}

// VarianceOnMesh estimates, per mesh cell, how strongly the local yield
// density r*I(r,z) varies across the cell's four corner nodes:
// min(1, 4*(max-min)/sum), with cells whose corner sum is not positive
// flagged as 1 (maximally in need of refinement). A single
// fixed-resolution pass; the caller decides where to refine.
func VarianceOnMesh(d source.Distribution, rbins, zbins []float64) (*mat.Dense, error) {
	if err := checkBins("R", rbins); err != nil {
		return nil, err
	}
	if err := checkBins("Z", zbins); err != nil {
		return nil, err
	}

	// Corner node yields, reused by the four adjacent cells.
	nodes := mat.NewDense(len(zbins), len(rbins), nil)
	for j, z := range zbins {
		for i, r := range rbins {
			nodes.Set(j, i, r*d.IntensityRZ(r, z))
		}
	}

	m := mat.NewDense(len(zbins)-1, len(rbins)-1, nil)
	for j := 0; j < len(zbins)-1; j++ {
		for i := 0; i < len(rbins)-1; i++ {
			c := [4]float64{
				nodes.At(j, i), nodes.At(j, i+1),
				nodes.At(j+1, i), nodes.At(j+1, i+1),
			}
			lo, hi, sum := c[0], c[0], 0.0
			for _, v := range c {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
				sum += v
			}
			if sum <= 0 {
				m.Set(j, i, 1.0)
				continue
			}
			m.Set(j, i, math.Min(1.0, 4.0*(hi-lo)/sum))
		}
	}
	return m, nil
}
