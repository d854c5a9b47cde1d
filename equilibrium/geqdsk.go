package equilibrium

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// fieldWidth is the fixed column width of the G-EQDSK float format
// (Fortran 5e16.9, five values per line, no guaranteed separators).
const fieldWidth = 16

type geqdskScanner struct {
	s    *bufio.Scanner
	line string
	pos  int
	n    int // lines consumed, for diagnostics
}

func (g *geqdskScanner) nextLine() error {
	if !g.s.Scan() {
		if err := g.s.Err(); err != nil {
			return err
		}
		return io.ErrUnexpectedEOF
	}
	g.line = g.s.Text()
	g.pos = 0
	g.n++
	return nil
}

// float reads the next fixed-width float, crossing line boundaries.
func (g *geqdskScanner) float() (float64, error) {
	for g.pos >= len(g.line) || strings.TrimSpace(g.line[g.pos:]) == "" {
		if err := g.nextLine(); err != nil {
			return 0, err
		}
	}
	end := g.pos + fieldWidth
	if end > len(g.line) {
		end = len(g.line)
	}
	tok := strings.TrimSpace(g.line[g.pos:end])
	g.pos = end
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: bad float %q: %w", g.n, tok, err)
	}
	return v, nil
}

func (g *geqdskScanner) floats(dst []float64) error {
	for i := range dst {
		v, err := g.float()
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// intsLine reads a fresh line of whitespace-separated integers.
func (g *geqdskScanner) intsLine(n int) ([]int, error) {
	if err := g.nextLine(); err != nil {
		return nil, err
	}
	fields := strings.Fields(g.line)
	if len(fields) < n {
		return nil, fmt.Errorf("line %d: want %d integers, got %q", g.n, n, g.line)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad integer %q: %w", g.n, fields[i], err)
		}
		out[i] = v
	}
	return out, nil
}

// ReadGEQDSK parses an equilibrium in the standard G-EQDSK text format
// and returns its flux grid. Only the quantities the source model needs
// are retained; the 1D flux-function arrays are read past and dropped.
func ReadGEQDSK(r io.Reader) (*Grid, error) {
	sc := &geqdskScanner{s: bufio.NewScanner(r)}
	sc.s.Buffer(make([]byte, 0, 1<<16), 1<<20)

	if err := sc.nextLine(); err != nil {
		return nil, fmt.Errorf("equilibrium: reading geqdsk header: %w", err)
	}
	fields := strings.Fields(sc.line)
	if len(fields) < 3 {
		return nil, fmt.Errorf("equilibrium: geqdsk header %q lacks grid dimensions", sc.line)
	}
	nw, err := strconv.Atoi(fields[len(fields)-2])
	if err != nil {
		return nil, fmt.Errorf("equilibrium: geqdsk width: %w", err)
	}
	nh, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return nil, fmt.Errorf("equilibrium: geqdsk height: %w", err)
	}
	if nw < 2 || nh < 2 {
		return nil, fmt.Errorf("equilibrium: geqdsk grid %dx%d too small", nw, nh)
	}
	sc.pos = len(sc.line) // header consumed; floats start on the next line

	head := make([]float64, 20)
	if err := sc.floats(head); err != nil {
		return nil, fmt.Errorf("equilibrium: reading geqdsk scalars: %w", err)
	}
	rdim, zdim := head[0], head[1]
	rleft, zmid := head[3], head[4]
	rmaxis, zmaxis := head[5], head[6]
	simag, sibry := head[7], head[8]
	if rdim <= 0 || zdim <= 0 {
		return nil, fmt.Errorf("equilibrium: geqdsk domain %gx%g, want positive", rdim, zdim)
	}

	// fpol, pres, ffprim, pprime: read past.
	skip := make([]float64, 4*nw)
	if err := sc.floats(skip); err != nil {
		return nil, fmt.Errorf("equilibrium: reading flux functions: %w", err)
	}

	psirz := make([]float64, nw*nh)
	if err := sc.floats(psirz); err != nil {
		return nil, fmt.Errorf("equilibrium: reading psi grid: %w", err)
	}
	if err := sc.floats(make([]float64, nw)); err != nil { // qpsi
		return nil, fmt.Errorf("equilibrium: reading q profile: %w", err)
	}

	counts, err := sc.intsLine(2)
	if err != nil {
		return nil, fmt.Errorf("equilibrium: reading contour sizes: %w", err)
	}
	nbbbs, limitr := counts[0], counts[1]
	if nbbbs < 3 {
		return nil, fmt.Errorf("equilibrium: boundary contour has %d points, want >= 3", nbbbs)
	}

	bdry := make([]float64, 2*nbbbs)
	if err := sc.floats(bdry); err != nil {
		return nil, fmt.Errorf("equilibrium: reading boundary contour: %w", err)
	}
	var lim []float64
	if limitr > 0 {
		lim = make([]float64, 2*limitr)
		if err := sc.floats(lim); err != nil {
			return nil, fmt.Errorf("equilibrium: reading limiter contour: %w", err)
		}
	}

	grid := &Grid{
		R:           make([]float64, nw),
		Z:           make([]float64, nh),
		Psi:         mat.NewDense(nh, nw, nil),
		PsiAxis:     simag,
		PsiBoundary: sibry,
		Raxis:       rmaxis,
		Zaxis:       zmaxis,
	}
	for i := 0; i < nw; i++ {
		grid.R[i] = rleft + rdim*float64(i)/float64(nw-1)
	}
	for j := 0; j < nh; j++ {
		grid.Z[j] = zmid - zdim/2 + zdim*float64(j)/float64(nh-1)
	}
	for j := 0; j < nh; j++ {
		for i := 0; i < nw; i++ {
			grid.Psi.Set(j, i, psirz[j*nw+i])
		}
	}
	for k := 0; k < nbbbs; k++ {
		grid.Boundary = append(grid.Boundary, Point{R: bdry[2*k], Z: bdry[2*k+1]})
	}
	for k := 0; k < limitr; k++ {
		grid.Limiter = append(grid.Limiter, Point{R: lim[2*k], Z: lim[2*k+1]})
	}
	return grid, nil
}
