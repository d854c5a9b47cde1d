// Package reaction evaluates fusion reaction-rate coefficients from the
// Bosch-Hale empirical parametrization (Nucl. Fusion 32 (1992) 611).
package reaction

import "math"

// Channel selects a fusion reaction branch.
type Channel int

const (
	// DT is T(d,n)4He.
	DT Channel = iota
	// DDN is the neutron branch of D(d,n)3He.
	DDN
)

// String returns the conventional short name of the channel.
func (c Channel) String() string {
	switch c {
	case DT:
		return "DT"
	case DDN:
		return "DDn"
	}
	return "unknown"
}

// minTemp is the validity floor of the Bosch-Hale fits in keV. The fits
// must not be extrapolated below it; reactivity is defined as exactly
// zero there.
const minTemp = 0.2

// coeffs holds one channel's Bosch-Hale fit constants (Table VII).
type coeffs struct {
	c1, c2, c3, c4, c5, c6, c7 float64
	bg2                        float64 // Gamow constant squared, keV
	mrc2                       float64 // reduced mass energy m_r*c^2, keV
}

var coeffTable = map[Channel]coeffs{
	DT: {
		c1: 1.17302e-9, c2: 1.51361e-2, c3: 7.51886e-2,
		c4: 4.60643e-3, c5: 1.35000e-2, c6: -1.06750e-4, c7: 1.36600e-5,
		bg2:  34.3827 * 34.3827,
		mrc2: 1124656.0,
	},
	DDN: {
		c1: 5.43360e-12, c2: 5.85778e-3, c3: 7.68222e-3,
		c4: 0, c5: -2.96400e-6, c6: 0, c7: 0,
		bg2:  31.3970 * 31.3970,
		mrc2: 937814.0,
	},
}

// Reactivity returns the Maxwellian-averaged reactivity <sigma*v> in cm^3/s
// for ion temperature t in keV. Temperatures below the fit validity floor
// (0.2 keV) return exactly 0.
func Reactivity(ch Channel, t float64) float64 {
	if t < minTemp {
		return 0.0
	}
	k := coeffTable[ch]
	num := t * (k.c2 + t*(k.c4+t*k.c6))
	den := 1.0 + t*(k.c3+t*(k.c5+t*k.c7))
	theta := t / (1.0 - num/den)
	xi := math.Cbrt(k.bg2 / (4.0 * theta))
	return k.c1 * theta * math.Sqrt(xi/(k.mrc2*t*t*t)) * math.Exp(-3.0*xi)
}

// ReactivityInto evaluates Reactivity elementwise over temps into dst and
// returns dst. If dst is nil a new slice is allocated; otherwise dst and
// temps must have equal length, following gonum slice conventions.
func ReactivityInto(ch Channel, dst, temps []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(temps))
	}
	if len(dst) != len(temps) {
		panic("reaction: slice length mismatch")
	}
	for i, t := range temps {
		dst[i] = Reactivity(ch, t)
	}
	return dst
}
