// Package metrics tracks named scalar metrics across the phases of an
// experiment and aggregates them over cross-validation folds.
package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Direction states whether a smaller or larger metric value is better.
type Direction int

const (
	Minimize Direction = iota
	Maximize
)

func (d Direction) String() string {
	if d == Minimize {
		return "minimize"
	}
	return "maximize"
}

// AverageMeter accumulates one metric within one phase. Value holds the
// latest completed average, Best the best seen so far per the direction.
type AverageMeter struct {
	Value float64
	Best  float64

	direction Direction
	sum       float64
	count     int
	seen      bool
}

// Update folds n observations averaging value into the running epoch average.
func (m *AverageMeter) Update(value float64, n int) {
	if n <= 0 {
		return
	}
	m.sum += value * float64(n)
	m.count += n
}

// Average returns the running average of the current epoch.
func (m *AverageMeter) Average() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// Commit finalizes the current epoch: Value becomes the epoch average, Best
// is refreshed, and the running sums reset. It reports whether the epoch set
// a new best, which drives model checkpointing.
func (m *AverageMeter) Commit() bool {
	m.Value = m.Average()
	m.sum = 0
	m.count = 0

	improved := !m.seen ||
		(m.direction == Minimize && m.Value < m.Best) ||
		(m.direction == Maximize && m.Value > m.Best)
	if improved {
		m.Best = m.Value
		m.seen = true
	}
	return improved
}

// Set sets the meter's value directly, for single-pass evaluations that
// produce a final number without epoch accumulation.
func (m *AverageMeter) Set(value float64) {
	m.Value = value
	m.sum = value
	m.count = 1
	if !m.seen {
		m.Best = value
		m.seen = true
	} else if (m.direction == Minimize && value < m.Best) ||
		(m.direction == Maximize && value > m.Best) {
		m.Best = value
	}
}

// Metric is one tracked scalar: its name, optimization direction, whether an
// improvement should trigger a model checkpoint, and one meter per phase.
type Metric struct {
	Name      string
	Direction Direction
	SaveModel bool

	meters map[string]*AverageMeter
}

// NewMetric creates a metric. Meters are created lazily per phase.
func NewMetric(name string, direction Direction, saveModel bool) *Metric {
	return &Metric{
		Name:      name,
		Direction: direction,
		SaveModel: saveModel,
		meters:    make(map[string]*AverageMeter),
	}
}

// Meter returns the phase's meter, creating it on first use.
func (m *Metric) Meter(phase string) *AverageMeter {
	if m.meters == nil {
		m.meters = make(map[string]*AverageMeter)
	}
	meter, ok := m.meters[phase]
	if !ok {
		meter = &AverageMeter{direction: m.Direction}
		m.meters[phase] = meter
	}
	return meter
}

// clone deep-copies the metric including its per-phase meters.
func (m *Metric) clone() *Metric {
	out := NewMetric(m.Name, m.Direction, m.SaveModel)
	for phase, meter := range m.meters {
		copied := *meter
		out.meters[phase] = &copied
	}
	return out
}

// Set is an ordered collection of metrics for one phase group.
type Set struct {
	Metrics []*Metric
}

// NewSet builds a set from metrics in order.
func NewSet(metrics ...*Metric) *Set {
	return &Set{Metrics: metrics}
}

// Clone deep-copies the set so folds never alias each other's meters.
func (s *Set) Clone() *Set {
	out := &Set{Metrics: make([]*Metric, len(s.Metrics))}
	for i, m := range s.Metrics {
		out.Metrics[i] = m.clone()
	}
	return out
}

// Find returns the metric with the given name, or nil.
func (s *Set) Find(name string) *Metric {
	for _, m := range s.Metrics {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Names returns the metric names in set order.
func (s *Set) Names() []string {
	names := make([]string, len(s.Metrics))
	for i, m := range s.Metrics {
		names[i] = m.Name
	}
	return names
}

// WriteCSV emits a (metric, value) table of one phase's current values.
func (s *Set) WriteCSV(w io.Writer, phase string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"metric", "value"}); err != nil {
		return err
	}
	for _, m := range s.Metrics {
		row := []string{m.Name, fmt.Sprintf("%g", m.Meter(phase).Value)}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// FoldValues holds per-fold values keyed by metric name.
type FoldValues map[string][]float64

// Append records one fold's value for a metric.
func (fv FoldValues) Append(name string, value float64) {
	fv[name] = append(fv[name], value)
}

// Mean returns the arithmetic mean of one metric's fold values.
func (fv FoldValues) Mean(name string) float64 {
	values := fv[name]
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Aggregate reduces every metric's fold values to their mean.
func (fv FoldValues) Aggregate() map[string]float64 {
	out := make(map[string]float64, len(fv))
	for name := range fv {
		out[name] = fv.Mean(name)
	}
	return out
}

// Names returns the tracked metric names sorted for deterministic output.
func (fv FoldValues) Names() []string {
	names := make([]string, 0, len(fv))
	for name := range fv {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mean is a convenience wrapper over gonum's arithmetic mean.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// WriteFoldCSV emits a (metric, value) table of aggregated fold means.
func WriteFoldCSV(w io.Writer, folds FoldValues) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"metric", "value"}); err != nil {
		return err
	}
	for _, name := range folds.Names() {
		if err := writer.Write([]string{name, fmt.Sprintf("%g", folds.Mean(name))}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
