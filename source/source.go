// Package source models the local fusion neutron emission intensity of a
// plasma: kinetic profiles composed with reaction-rate coefficients on a
// flux geometry.
package source

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/neutronics/equilibrium"
	"github.com/pthm-cable/neutronics/profile"
	"github.com/pthm-cable/neutronics/reaction"
)

// Distribution is a neutron emission intensity field over a flux
// geometry. Implementations are immutable after construction and
// evaluate on demand.
type Distribution interface {
	// Geometry returns the flux geometry the distribution lives on.
	Geometry() *equilibrium.FluxGeometry

	// Intensity returns the local neutron source intensity in
	// cm^-3 s^-1 at normalized flux psi. psi > 1 yields 0.
	Intensity(psi float64) float64

	// IntensityRZ evaluates intensity at a point in the poloidal
	// plane. Points outside the geometry's bounding box yield 0
	// without evaluating the flux function.
	IntensityRZ(r, z float64) float64
}

// FuelRatio gives the tritium fraction of the ion density as a function
// of normalized flux.
type FuelRatio func(psi float64) float64

// ConstantFuel returns a flux-independent fuel ratio.
func ConstantFuel(eta float64) FuelRatio {
	return func(float64) float64 { return eta }
}

// kinetic holds the pieces shared by the physical distributions.
type kinetic struct {
	geom *equilibrium.FluxGeometry
	temp *profile.Steffen // T(psi), keV
	dens *profile.Steffen // n(psi), cm^-3
}

func newKinetic(geom *equilibrium.FluxGeometry, tab *profile.Table) (kinetic, error) {
	if geom == nil {
		return kinetic{}, errors.New("source: nil geometry")
	}
	if tab == nil {
		return kinetic{}, errors.New("source: nil profile table")
	}
	temp, err := tab.Temperature()
	if err != nil {
		return kinetic{}, err
	}
	dens, err := tab.Density()
	if err != nil {
		return kinetic{}, err
	}
	return kinetic{geom: geom, temp: temp, dens: dens}, nil
}

func (k kinetic) Geometry() *equilibrium.FluxGeometry { return k.geom }

// DD is a pure-deuterium plasma emitting through the D(d,n)3He branch.
type DD struct {
	kinetic
}

// NewDD builds a DD distribution from a geometry and a profile table.
func NewDD(geom *equilibrium.FluxGeometry, tab *profile.Table) (*DD, error) {
	k, err := newKinetic(geom, tab)
	if err != nil {
		return nil, err
	}
	return &DD{kinetic: k}, nil
}

// Intensity returns 1/2 n^2 <sigma*v>_DDn. The factor 1/2 avoids double
// counting identical reactants.
func (d *DD) Intensity(psi float64) float64 {
	if psi > 1.0 {
		return 0
	}
	n := d.dens.Predict(psi)
	t := d.temp.Predict(psi)
	return 0.5 * n * n * reaction.Reactivity(reaction.DDN, t)
}

// IntensityRZ resolves psi through the geometry, clamping to the
// bounding box first.
func (d *DD) IntensityRZ(r, z float64) float64 {
	if !d.geom.Contains(r, z) {
		return 0
	}
	return d.Intensity(d.geom.Psi(r, z))
}

// DT is a deuterium-tritium mixture emitting through T(d,n)4He. The fuel
// ratio splits the ion density into deuterium and tritium fractions.
type DT struct {
	kinetic
	fuel FuelRatio
}

// NewDT builds a DT distribution. fuel may vary with flux; use
// ConstantFuel for a fixed mixture.
func NewDT(geom *equilibrium.FluxGeometry, tab *profile.Table, fuel FuelRatio) (*DT, error) {
	if fuel == nil {
		return nil, errors.New("source: nil fuel ratio")
	}
	k, err := newKinetic(geom, tab)
	if err != nil {
		return nil, err
	}
	return &DT{kinetic: k, fuel: fuel}, nil
}

// Intensity returns n_d n_t <sigma*v>_DT with n_d = (1-eta) n and
// n_t = eta n.
func (d *DT) Intensity(psi float64) float64 {
	if psi > 1.0 {
		return 0
	}
	n := d.dens.Predict(psi)
	t := d.temp.Predict(psi)
	eta := d.fuel(psi)
	return (1 - eta) * n * eta * n * reaction.Reactivity(reaction.DT, t)
}

// IntensityRZ resolves psi through the geometry, clamping to the
// bounding box first.
func (d *DT) IntensityRZ(r, z float64) float64 {
	if !d.geom.Contains(r, z) {
		return 0
	}
	return d.Intensity(d.geom.Psi(r, z))
}

// IntensityInto evaluates d elementwise over psis into dst and returns
// dst, allocating when dst is nil.
func IntensityInto(d Distribution, dst, psis []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(psis))
	}
	if len(dst) != len(psis) {
		panic("source: slice length mismatch")
	}
	for i, p := range psis {
		dst[i] = d.Intensity(p)
	}
	return dst
}

// IntensityGrid evaluates d on the tensor mesh rs x zs and returns a
// matrix with rows indexed by zs and columns by rs, the layout the CSV
// and plotting outputs consume.
func IntensityGrid(d Distribution, rs, zs []float64) (*mat.Dense, error) {
	if len(rs) == 0 || len(zs) == 0 {
		return nil, fmt.Errorf("source: empty mesh (%d x %d)", len(rs), len(zs))
	}
	m := mat.NewDense(len(zs), len(rs), nil)
	for j, z := range zs {
		for i, r := range rs {
			m.Set(j, i, d.IntensityRZ(r, z))
		}
	}
	return m, nil
}
