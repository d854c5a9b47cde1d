package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmittmann/tint"

	"github.com/pthm-cable/neutronics/config"
	"github.com/pthm-cable/neutronics/equilibrium"
	"github.com/pthm-cable/neutronics/output"
	"github.com/pthm-cable/neutronics/profile"
	"github.com/pthm-cable/neutronics/source"
	"github.com/pthm-cable/neutronics/yield"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	eqdskPath := flag.String("eqdsk", "", "Path to G-EQDSK equilibrium file")
	profilesPath := flag.String("profiles", "", "Path to kinetic profiles CSV (psi,ti,ni)")
	channels := flag.String("channels", "dd,dt", "Comma-separated emission channels (dd, dt)")
	tritium := flag.Float64("tritium-fraction", -1, "Tritium fraction override (-1 = use config)")
	outDir := flag.String("out", "", "Output directory override")
	heatmap := flag.Bool("heatmap", false, "Render intensity heatmaps as PNG")

	flag.Parse()

	// Set up slog before anything else logs
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: "15:04:05",
		}),
	))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides take precedence over the config file.
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *heatmap {
		cfg.Output.Heatmap = true
	}
	if *tritium >= 0 {
		cfg.Fuel.TritiumFraction = *tritium
	}

	if *eqdskPath == "" || *profilesPath == "" {
		slog.Error("both -eqdsk and -profiles are required")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(cfg, *eqdskPath, *profilesPath, *channels); err != nil {
		slog.Error("analysis failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, eqdskPath, profilesPath, channels string) error {
	timer := output.NewStageTimer()
	timer.Start(output.StageLoad)

	geom, err := loadGeometry(eqdskPath)
	if err != nil {
		return err
	}
	tab, err := loadProfiles(profilesPath)
	if err != nil {
		return err
	}
	slog.Info("loaded inputs",
		"eqdsk", eqdskPath,
		"profiles", profilesPath,
		"box_r", []float64{geom.Rmin, geom.Rmax},
		"box_z", []float64{geom.Zmin, geom.Zmax},
	)

	om, err := output.NewManager(cfg.Output.Dir)
	if err != nil {
		return err
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		return err
	}

	// Mesh node coordinates span the plasma bounding box.
	rbins := linspace(geom.Rmin, geom.Rmax, cfg.Mesh.NR+1)
	zbins := linspace(geom.Zmin, geom.Zmax, cfg.Mesh.NZ+1)
	if err := om.WriteAxis("mesh_r.csv", rbins); err != nil {
		return err
	}
	if err := om.WriteAxis("mesh_z.csv", zbins); err != nil {
		return err
	}

	opt := yield.Options{
		RelTol:   cfg.Cubature.RelTol,
		AbsTol:   cfg.Cubature.AbsTol,
		MaxEvals: cfg.Cubature.MaxEvals,
	}

	for _, ch := range strings.Split(channels, ",") {
		dist, name, err := buildChannel(strings.TrimSpace(ch), cfg, geom, tab)
		if err != nil {
			return err
		}
		if err := analyzeChannel(dist, name, rbins, zbins, opt, cfg, om, timer); err != nil {
			return err
		}
	}

	timer.Log()
	return nil
}

func loadGeometry(path string) (*equilibrium.FluxGeometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	grid, err := equilibrium.ReadGEQDSK(f)
	if err != nil {
		return nil, err
	}
	return grid.Geometry()
}

func loadProfiles(path string) (*profile.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return profile.Load(f)
}

func buildChannel(ch string, cfg *config.Config, geom *equilibrium.FluxGeometry, tab *profile.Table) (source.Distribution, string, error) {
	switch ch {
	case "dd":
		d, err := source.NewDD(geom, tab)
		return d, "DDn", err
	case "dt":
		d, err := source.NewDT(geom, tab, source.ConstantFuel(cfg.Fuel.TritiumFraction))
		return d, "DT", err
	default:
		return nil, "", fmt.Errorf("unknown emission channel %q (want dd or dt)", ch)
	}
}

func analyzeChannel(dist source.Distribution, name string, rbins, zbins []float64, opt yield.Options, cfg *config.Config, om *output.Manager, timer *output.StageTimer) error {
	geom := dist.Geometry()

	timer.Start(output.StageTotal)
	tot := yield.Total(dist, opt)
	if !tot.Converged {
		slog.Warn("total yield did not converge",
			"channel", name, "evals", tot.Evals, "err_est", tot.Error)
	}

	timer.Start(output.StageMoment)
	m1, err := yield.SegmentMoment1(dist, geom.Rmin, geom.Rmax, geom.Zmin, geom.Zmax, opt)
	if err != nil {
		slog.Warn("centroid unavailable", "channel", name, "error", err)
		m1 = yield.Moment1{R: math.NaN(), Z: math.NaN()}
	}

	slog.Info("channel result",
		"channel", name,
		"yield_n_per_s", tot.Value,
		"err_est", tot.Error,
		"centroid_r", m1.R,
		"centroid_z", m1.Z,
		"evals", tot.Evals,
	)

	timer.Start(output.StageIntensity)
	intensity, err := source.IntensityGrid(dist, rbins, zbins)
	if err != nil {
		return err
	}
	if err := om.WriteMatrix("intensity_"+name+".csv", intensity); err != nil {
		return err
	}

	timer.Start(output.StageSegments)
	segments, err := yield.Map(dist, rbins, zbins, opt)
	if err != nil {
		return err
	}
	if err := om.WriteMatrix("yield_"+name+".csv", segments); err != nil {
		return err
	}

	timer.Start(output.StageVariance)
	variance, err := yield.VarianceOnMesh(dist, rbins, zbins)
	if err != nil {
		return err
	}
	if err := om.WriteMatrix("variance_"+name+".csv", variance); err != nil {
		return err
	}

	timer.Start(output.StageWrite)
	if err := om.WriteSummary(output.SummaryRow{
		Channel:   name,
		Yield:     tot.Value,
		YieldErr:  tot.Error,
		CentroidR: m1.R,
		CentroidZ: m1.Z,
		Evals:     tot.Evals,
		Converged: tot.Converged,
	}); err != nil {
		return err
	}

	if cfg.Output.Heatmap && om.Dir() != "" {
		path := filepath.Join(om.Dir(), "intensity_"+name+".png")
		if err := renderHeatmap(path, name+" emission intensity", rbins, zbins, intensity); err != nil {
			return err
		}
		slog.Info("wrote heatmap", "channel", name, "path", path)
	}

	return nil
}

func linspace(lo, hi float64, n int) []float64 {
	xs := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range xs {
		xs[i] = lo + float64(i)*step
	}
	xs[n-1] = hi
	return xs
}
