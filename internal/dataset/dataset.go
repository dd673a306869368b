// Package dataset provides index-based access to manifest-backed audio
// samples. Loading and feature extraction stay lazy: nothing touches the
// filesystem until a sample is asked for.
package dataset

import (
	"github.com/mkuronen/phonolab/internal/audioclip"
	"github.com/mkuronen/phonolab/internal/errors"
	"github.com/mkuronen/phonolab/internal/manifest"
)

// ProcessFunc turns a raw waveform into model input features. It is supplied
// by the preprocessing collaborator and bound per phase.
type ProcessFunc func(wave []float64) ([]float64, error)

// Sample is one materialized dataset element.
type Sample struct {
	Path     string
	Features []float64
	Label    int
}

// Dataset binds manifest rows to the load, process and label functions of
// one dataset family and phase.
type Dataset struct {
	rows    [][]string
	load    audioclip.LoadFunc
	process ProcessFunc
	label   manifest.LabelFunc
	path    manifest.PathFunc
	phase   string
}

// New reads the manifest at manifestPath and binds it to the given functions.
func New(manifestPath string, load audioclip.LoadFunc, process ProcessFunc,
	label manifest.LabelFunc, path manifest.PathFunc, phase string) (*Dataset, error) {

	rows, err := manifest.ReadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Newf("manifest %s is empty", manifestPath).
			Component("dataset").
			Category(errors.CategoryDataset).
			Build()
	}
	return FromRows(rows, load, process, label, path, phase), nil
}

// FromRows builds a dataset directly from manifest rows. The training manager
// uses this to carve folds out of the combined manifest.
func FromRows(rows [][]string, load audioclip.LoadFunc, process ProcessFunc,
	label manifest.LabelFunc, path manifest.PathFunc, phase string) *Dataset {

	return &Dataset{
		rows:    rows,
		load:    load,
		process: process,
		label:   label,
		path:    path,
		phase:   phase,
	}
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Phase returns the phase this dataset was built for.
func (d *Dataset) Phase() string {
	return d.phase
}

// Rows exposes the underlying manifest rows.
func (d *Dataset) Rows() [][]string {
	return d.rows
}

// At materializes sample i: load the clip, extract features, map the label.
func (d *Dataset) At(i int) (Sample, error) {
	row := d.rows[i]
	path := d.path(row)

	wave, err := d.load(path)
	if err != nil {
		return Sample{}, err
	}

	features := wave
	if d.process != nil {
		features, err = d.process(wave)
		if err != nil {
			return Sample{}, errors.New(err).
				Component("dataset").
				Category(errors.CategoryDataset).
				Context("path", path).
				Context("phase", d.phase).
				Build()
		}
	}

	label, err := d.label(row)
	if err != nil {
		return Sample{}, err
	}

	return Sample{Path: path, Features: features, Label: label}, nil
}
