// Package main tabulates fusion reactivity over a temperature sweep,
// writing a CSV suitable for plotting or cross-checking against
// published tables.
package main

import (
	"flag"
	"log"
	"math"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/neutronics/reaction"
)

// row is one sweep point in the output CSV.
type row struct {
	Temp float64 `csv:"ti_kev"`
	DT   float64 `csv:"sigmav_dt_cm3_per_s"`
	DDN  float64 `csv:"sigmav_ddn_cm3_per_s"`
}

func main() {
	tmin := flag.Float64("tmin", 0.2, "Sweep start temperature in keV")
	tmax := flag.Float64("tmax", 100, "Sweep end temperature in keV")
	points := flag.Int("points", 200, "Number of sweep points")
	logSpacing := flag.Bool("log", true, "Space points logarithmically")
	outPath := flag.String("output", "", "Output CSV path (empty = stdout)")
	flag.Parse()

	if *tmin <= 0 || *tmax <= *tmin {
		log.Fatalf("invalid sweep range [%g, %g]", *tmin, *tmax)
	}
	if *points < 2 {
		log.Fatalf("need at least 2 sweep points, got %d", *points)
	}

	rows := make([]row, *points)
	for i := range rows {
		frac := float64(i) / float64(*points-1)
		var t float64
		if *logSpacing {
			t = *tmin * math.Pow(*tmax / *tmin, frac)
		} else {
			t = *tmin + frac*(*tmax-*tmin)
		}
		rows[i] = row{
			Temp: t,
			DT:   reaction.Reactivity(reaction.DT, t),
			DDN:  reaction.Reactivity(reaction.DDN, t),
		}
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	if err := gocsv.Marshal(rows, out); err != nil {
		log.Fatalf("failed to write sweep: %v", err)
	}
}
