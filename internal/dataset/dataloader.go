package dataset

import (
	"github.com/mkuronen/phonolab/internal/errors"
)

// Batch is one dataloader step worth of materialized samples.
type Batch struct {
	Features [][]float64
	Labels   []int
}

// Loader hands out batches to the training loop.
type Loader interface {
	// NumBatches returns how many batches one pass over the data takes.
	NumBatches() int
	// Batch materializes the i-th batch.
	Batch(i int) (Batch, error)
	// Dataset returns the underlying dataset.
	Dataset() *Dataset
}

// FactoryFunc builds a loader for a dataset and phase.
type FactoryFunc func(ds *Dataset, phase string, batchSize int) (Loader, error)

// Factories maps dataloader type names to their constructors: "normal" does
// conventional mini-batching; "ml" hands the whole set over in a single batch
// for classical-ML backends that fit on the full design matrix.
var Factories = map[string]FactoryFunc{
	"normal": newBatchLoader,
	"ml":     newWholeSetLoader,
}

// NewLoader builds a loader of the named type.
func NewLoader(kind string, ds *Dataset, phase string, batchSize int) (Loader, error) {
	factory, ok := Factories[kind]
	if !ok {
		return nil, errors.Newf("unknown dataloader type %q", kind).
			Component("dataset").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return factory(ds, phase, batchSize)
}

type batchLoader struct {
	ds        *Dataset
	batchSize int
}

func newBatchLoader(ds *Dataset, phase string, batchSize int) (Loader, error) {
	if batchSize <= 0 {
		return nil, errors.Newf("batch size must be positive, got %d", batchSize).
			Component("dataset").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return &batchLoader{ds: ds, batchSize: batchSize}, nil
}

func (l *batchLoader) NumBatches() int {
	return (l.ds.Len() + l.batchSize - 1) / l.batchSize
}

func (l *batchLoader) Dataset() *Dataset {
	return l.ds
}

func (l *batchLoader) Batch(i int) (Batch, error) {
	start := i * l.batchSize
	end := start + l.batchSize
	if end > l.ds.Len() {
		end = l.ds.Len()
	}
	return materialize(l.ds, start, end)
}

type wholeSetLoader struct {
	ds *Dataset
}

func newWholeSetLoader(ds *Dataset, phase string, batchSize int) (Loader, error) {
	return &wholeSetLoader{ds: ds}, nil
}

func (l *wholeSetLoader) NumBatches() int {
	return 1
}

func (l *wholeSetLoader) Dataset() *Dataset {
	return l.ds
}

func (l *wholeSetLoader) Batch(i int) (Batch, error) {
	return materialize(l.ds, 0, l.ds.Len())
}

func materialize(ds *Dataset, start, end int) (Batch, error) {
	batch := Batch{
		Features: make([][]float64, 0, end-start),
		Labels:   make([]int, 0, end-start),
	}
	for i := start; i < end; i++ {
		sample, err := ds.At(i)
		if err != nil {
			return Batch{}, err
		}
		batch.Features = append(batch.Features, sample.Features)
		batch.Labels = append(batch.Labels, sample.Label)
	}
	return batch, nil
}
