// Package output handles structured run artifacts: summary and matrix
// CSV files plus a copy of the effective configuration.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/neutronics/config"
)

// SummaryRow is one emission channel's result in summary.csv.
type SummaryRow struct {
	Channel   string  `csv:"channel"`
	Yield     float64 `csv:"yield_n_per_s"`
	YieldErr  float64 `csv:"yield_err_n_per_s"`
	CentroidR float64 `csv:"centroid_r_m"`
	CentroidZ float64 `csv:"centroid_z_m"`
	Evals     int     `csv:"evals"`
	Converged bool    `csv:"converged"`
}

// Manager writes run artifacts into a single output directory.
type Manager struct {
	dir string

	summaryFile          *os.File
	summaryHeaderWritten bool
}

// NewManager creates an output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled).
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	m := &Manager{dir: dir}

	summaryPath := filepath.Join(dir, "summary.csv")
	f, err := os.Create(summaryPath)
	if err != nil {
		return nil, fmt.Errorf("creating summary.csv: %w", err)
	}
	m.summaryFile = f

	return m, nil
}

// WriteConfig saves the effective configuration as YAML.
func (m *Manager) WriteConfig(cfg *config.Config) error {
	if m == nil {
		return nil
	}
	configPath := filepath.Join(m.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteSummary appends a channel result to summary.csv.
func (m *Manager) WriteSummary(row SummaryRow) error {
	if m == nil {
		return nil
	}

	records := []SummaryRow{row}

	if !m.summaryHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, m.summaryFile); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		m.summaryHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, m.summaryFile); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}

	return nil
}

// WriteMatrix writes a dense matrix as a headerless CSV, one row per
// matrix row. Rows correspond to the Z axis, columns to the R axis.
func (m *Manager) WriteMatrix(name string, a *mat.Dense) error {
	if m == nil {
		return nil
	}

	f, err := os.Create(filepath.Join(m.dir, name))
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows, cols := a.Dims()
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(a.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", name, err)
	}
	return nil
}

// WriteAxis writes a coordinate axis as a single-column headerless CSV.
func (m *Manager) WriteAxis(name string, vals []float64) error {
	if m == nil {
		return nil
	}

	f, err := os.Create(filepath.Join(m.dir, name))
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, v := range vals {
		if err := w.Write([]string{strconv.FormatFloat(v, 'g', -1, 64)}); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", name, err)
	}
	return nil
}

// Dir returns the output directory path.
func (m *Manager) Dir() string {
	if m == nil {
		return ""
	}
	return m.dir
}

// Close flushes and closes all output files.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}

	var firstErr error

	if m.summaryFile != nil {
		if err := m.summaryFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
