// Package resultwriter persists locator-bench scenario outcomes to disk,
// adapted from the teacher's capture-file Writer: same NewWriter/WriteFile
// shape, but YAML scenario reports instead of a binary IQ-sample format.
package resultwriter

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ScenarioReport is one scenario's recorded outcome.
type ScenarioReport struct {
	Name              string        `yaml:"name"`
	Method            string        `yaml:"method"`
	Dim               int           `yaml:"dim"`
	NumReadings       int           `yaml:"num_readings"`
	Seed              int64         `yaml:"seed"`
	Iterations        int           `yaml:"iterations"`
	InlierCount       int           `yaml:"inlier_count"`
	Position          []float64     `yaml:"position,omitempty"`
	CovarianceDiag    []float64     `yaml:"covariance_diag,omitempty"`
	GeometricDilution float64       `yaml:"geometric_dilution,omitempty"`
	Duration          time.Duration `yaml:"duration"`
	Error             string        `yaml:"error,omitempty"`
	CollectedAt       time.Time     `yaml:"collected_at"`
}

// Writer serializes one or more ScenarioReports to a YAML file.
type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// WriteFile writes reports to filename as a YAML document, overwriting
// any existing file.
func (w *Writer) WriteFile(filename string, reports []ScenarioReport) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("resultwriter: create %s: %w", filename, err)
	}
	defer file.Close()

	enc := yaml.NewEncoder(file)
	defer enc.Close()
	if err := enc.Encode(reports); err != nil {
		return fmt.Errorf("resultwriter: encode %s: %w", filename, err)
	}
	return nil
}
