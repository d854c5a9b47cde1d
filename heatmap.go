package main

import (
	"bufio"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// intensityGrid exposes a node-sampled intensity matrix as a GridXYZ
// for heatmap plotting. Matrix rows follow the Z axis, columns the R axis.
type intensityGrid struct {
	rs, zs []float64
	vals   *mat.Dense
}

func (g intensityGrid) Dims() (c, r int) { return len(g.rs), len(g.zs) }
func (g intensityGrid) Z(c, r int) float64 {
	return g.vals.At(r, c)
}
func (g intensityGrid) X(c int) float64 { return g.rs[c] }
func (g intensityGrid) Y(r int) float64 { return g.zs[r] }

// renderHeatmap writes a PNG heatmap of the intensity field in the
// poloidal plane.
func renderHeatmap(path, title string, rs, zs []float64, vals *mat.Dense) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "R (m)"
	p.Y.Label.Text = "Z (m)"

	pal := moreland.Kindlmann().Palette(255)
	hm := plotter.NewHeatMap(intensityGrid{rs: rs, zs: zs, vals: vals}, pal)
	p.Add(hm)

	c := vgimg.NewWith(
		vgimg.UseWH(6*vg.Inch, 6*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	defer bw.Flush()

	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(bw); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
