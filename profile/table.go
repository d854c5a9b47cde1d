// Package profile holds tabulated kinetic profiles mapped against the
// normalized flux coordinate and builds monotonic interpolants from them.
package profile

import (
	"errors"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// DensityScale converts the source-unit density column (1e13 cm^-3) to
// particles per cm^3.
const DensityScale = 1e13

// Sample is one row of the external profile table. Density is in source
// units of 1e13 cm^-3; temperature in keV; psi is the normalized flux
// coordinate.
type Sample struct {
	Psi  float64 `csv:"psi"`
	Temp float64 `csv:"ti"`
	Dens float64 `csv:"ni"`
}

// ErrMissingAxis is returned when a table has no psi=0 row and its first
// row has negative psi, so no axis anchor can be synthesized.
var ErrMissingAxis = errors.New("profile: first sample has psi < 0")

// Table holds validated profile samples with strictly increasing psi and
// a leading psi=0 axis row. Density is stored in particles/cm^3.
type Table struct {
	Psi  []float64
	Temp []float64 // keV
	Dens []float64 // cm^-3
}

// New validates raw samples and builds a Table. Psi must be strictly
// increasing; when the first sample is not at psi=0 an axis anchor is
// prepended holding the first sample's temperature and density. Density
// is rescaled from source units by DensityScale.
func New(samples []Sample) (*Table, error) {
	if len(samples) == 0 {
		return nil, errors.New("profile: empty table")
	}
	if samples[0].Psi < 0 {
		return nil, fmt.Errorf("%w: psi=%g", ErrMissingAxis, samples[0].Psi)
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Psi <= samples[i-1].Psi {
			return nil, fmt.Errorf("profile: psi not strictly increasing at row %d (%g after %g): %w",
				i, samples[i].Psi, samples[i-1].Psi, ErrNotIncreasing)
		}
	}

	t := &Table{}
	if samples[0].Psi > 0 {
		// Flat extension onto the magnetic axis.
		t.Psi = append(t.Psi, 0)
		t.Temp = append(t.Temp, samples[0].Temp)
		t.Dens = append(t.Dens, samples[0].Dens*DensityScale)
	}
	for _, s := range samples {
		t.Psi = append(t.Psi, s.Psi)
		t.Temp = append(t.Temp, s.Temp)
		t.Dens = append(t.Dens, s.Dens*DensityScale)
	}
	if len(t.Psi) < 3 {
		return nil, fmt.Errorf("profile: %d samples after axis anchor: %w", len(t.Psi), ErrTooFewPoints)
	}
	return t, nil
}

// Load reads a profile table in the external CSV format (columns psi, ti,
// ni) and validates it.
func Load(r io.Reader) (*Table, error) {
	var rows []Sample
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("profile: parsing table: %w", err)
	}
	return New(rows)
}

// Temperature builds the monotonic interpolant T(psi) in keV.
func (t *Table) Temperature() (*Steffen, error) {
	var s Steffen
	if err := s.Fit(t.Psi, t.Temp); err != nil {
		return nil, fmt.Errorf("profile: fitting temperature: %w", err)
	}
	return &s, nil
}

// Density builds the monotonic interpolant n(psi) in cm^-3.
func (t *Table) Density() (*Steffen, error) {
	var s Steffen
	if err := s.Fit(t.Psi, t.Dens); err != nil {
		return nil, fmt.Errorf("profile: fitting density: %w", err)
	}
	return &s, nil
}
