package profile

import (
	"errors"
	"math"
	"strings"
	"testing"
)

// fixtureSamples is a parabolic temperature profile with a root-parabolic
// density profile, in source units.
func fixtureSamples() []Sample {
	var rows []Sample
	for i := 0; i <= 10; i++ {
		p := float64(i) / 10.0
		rows = append(rows, Sample{
			Psi:  p,
			Temp: 20.0 * (1.0 - p*p),
			Dens: 10.0 * math.Sqrt(1.0-p*p),
		})
	}
	return rows
}

func TestNewValidTable(t *testing.T) {
	tab, err := New(fixtureSamples())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(tab.Psi) != 11 {
		t.Fatalf("got %d rows, want 11", len(tab.Psi))
	}
	if tab.Psi[0] != 0 {
		t.Errorf("first psi = %g, want 0", tab.Psi[0])
	}
	if tab.Dens[0] != 10.0*DensityScale {
		t.Errorf("density not rescaled: got %g, want %g", tab.Dens[0], 10.0*DensityScale)
	}
}

func TestNewPrependsAxisAnchor(t *testing.T) {
	rows := fixtureSamples()[1:] // drop the psi=0 row
	tab, err := New(rows)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tab.Psi[0] != 0 {
		t.Fatalf("axis anchor not prepended, first psi = %g", tab.Psi[0])
	}
	if tab.Temp[0] != rows[0].Temp {
		t.Errorf("anchor temperature = %g, want copy of first sample %g", tab.Temp[0], rows[0].Temp)
	}
	if tab.Dens[0] != rows[0].Dens*DensityScale {
		t.Errorf("anchor density = %g, want %g", tab.Dens[0], rows[0].Dens*DensityScale)
	}
}

func TestNewRejectsNonMonotonic(t *testing.T) {
	rows := fixtureSamples()
	rows[5].Psi = rows[4].Psi // duplicate
	if _, err := New(rows); !errors.Is(err, ErrNotIncreasing) {
		t.Errorf("got %v, want ErrNotIncreasing", err)
	}
	rows[5].Psi = 0.01 // decreasing
	if _, err := New(rows); !errors.Is(err, ErrNotIncreasing) {
		t.Errorf("got %v, want ErrNotIncreasing", err)
	}
}

func TestNewRejectsBadTables(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("empty table accepted")
	}
	if _, err := New([]Sample{{Psi: -0.5, Temp: 1, Dens: 1}}); !errors.Is(err, ErrMissingAxis) {
		t.Errorf("negative leading psi: got %v, want ErrMissingAxis", err)
	}
	two := []Sample{{Psi: 0, Temp: 2, Dens: 1}, {Psi: 1, Temp: 1, Dens: 0}}
	if _, err := New(two); !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("two-row table: got %v, want ErrTooFewPoints", err)
	}
}

func TestLoadCSV(t *testing.T) {
	csv := "psi,ti,ni\n0.0,20.0,10.0\n0.5,15.0,8.66\n1.0,0.0,0.0\n"
	tab, err := Load(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tab.Psi) != 3 {
		t.Fatalf("got %d rows, want 3", len(tab.Psi))
	}
	if tab.Dens[1] != 8.66*DensityScale {
		t.Errorf("density = %g, want %g", tab.Dens[1], 8.66*DensityScale)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	if _, err := Load(strings.NewReader("psi,ti,ni\n0.0,twenty,10\n")); err == nil {
		t.Error("non-numeric cell accepted")
	}
}

func TestInterpolantReproducesNodes(t *testing.T) {
	tab, err := New(fixtureSamples())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ti, err := tab.Temperature()
	if err != nil {
		t.Fatalf("Temperature: %v", err)
	}

	// Interior and first nodes are reproduced exactly; the last node sits
	// on the closed end of the final interval and is only exact up to
	// rounding in the Hermite form.
	for i := 0; i < len(tab.Psi)-1; i++ {
		if got := ti.Predict(tab.Psi[i]); got != tab.Temp[i] {
			t.Errorf("T(%g) = %g, want exactly %g", tab.Psi[i], got, tab.Temp[i])
		}
	}
	last := len(tab.Psi) - 1
	if got := ti.Predict(tab.Psi[last]); math.Abs(got-tab.Temp[last]) > 1e-9*20.0 {
		t.Errorf("T(%g) = %g, want %g", tab.Psi[last], got, tab.Temp[last])
	}
}

func TestInterpolantZeroOutsideRange(t *testing.T) {
	tab, _ := New(fixtureSamples())
	ni, err := tab.Density()
	if err != nil {
		t.Fatalf("Density: %v", err)
	}
	for _, p := range []float64{-1, -1e-9, 1.0000001, 1.1, 2, 100} {
		if got := ni.Predict(p); got != 0 {
			t.Errorf("n(%g) = %g, want exactly 0", p, got)
		}
	}
}

func TestInterpolantNoOvershoot(t *testing.T) {
	tab, _ := New(fixtureSamples())
	for name, build := range map[string]func() (*Steffen, error){
		"temperature": tab.Temperature,
		"density":     tab.Density,
	} {
		s, err := build()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		ys := tab.Temp
		if name == "density" {
			ys = tab.Dens
		}
		for i := 0; i < len(tab.Psi)-1; i++ {
			lo := math.Min(ys[i], ys[i+1])
			hi := math.Max(ys[i], ys[i+1])
			slack := 1e-12 * (hi - lo + 1)
			for k := 1; k < 50; k++ {
				x := tab.Psi[i] + (tab.Psi[i+1]-tab.Psi[i])*float64(k)/50.0
				v := s.Predict(x)
				if v < lo-slack || v > hi+slack {
					t.Fatalf("%s overshoots at psi=%g: %g outside [%g, %g]", name, x, v, lo, hi)
				}
			}
		}
	}
}

func TestInterpolantMonotoneDecreasing(t *testing.T) {
	tab, _ := New(fixtureSamples())
	ti, _ := tab.Temperature()
	prev := math.Inf(1)
	for k := 0; k <= 1000; k++ {
		v := ti.Predict(float64(k) / 1000.0)
		if v > prev+1e-12 {
			t.Fatalf("temperature increases at psi=%g: %g > %g", float64(k)/1000.0, v, prev)
		}
		prev = v
	}
}

func TestSteffenFitErrors(t *testing.T) {
	var s Steffen
	if err := s.Fit([]float64{0, 1}, []float64{1, 0}); !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("short fit: got %v, want ErrTooFewPoints", err)
	}
	if err := s.Fit([]float64{0, 1, 1}, []float64{2, 1, 0}); !errors.Is(err, ErrNotIncreasing) {
		t.Errorf("duplicate abscissae: got %v, want ErrNotIncreasing", err)
	}
	if err := s.Fit([]float64{0, 1, 2}, []float64{2, 1}); err == nil {
		t.Error("length mismatch accepted")
	}
}

func TestSteffenRange(t *testing.T) {
	var s Steffen
	if err := s.Fit([]float64{0, 0.5, 2}, []float64{3, 2, 1}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if s.Min() != 0 || s.Max() != 2 {
		t.Errorf("range = [%g, %g], want [0, 2]", s.Min(), s.Max())
	}
}
