package conf

import (
	"fmt"
)

// DataSource identifies the dataset family an experiment runs on. The two
// families differ in preprocessing parameters, label vocabulary and split
// strategy, so dispatch on this type must stay exhaustive.
type DataSource int

const (
	// DataSourceHSS is the heart-sound dataset with a fixed
	// train/devel/test split.
	DataSourceHSS DataSource = iota
	// DataSourceCinC is the PhysioNet/CinC ECG+PCG dataset, split into
	// folds by the training manager.
	DataSourceCinC
)

// ParseDataSource converts the CLI string into a DataSource.
func ParseDataSource(s string) (DataSource, error) {
	switch s {
	case "HSS":
		return DataSourceHSS, nil
	case "CinC":
		return DataSourceCinC, nil
	default:
		return 0, fmt.Errorf("unknown data source %q (expected HSS or CinC)", s)
	}
}

func (ds DataSource) String() string {
	switch ds {
	case DataSourceHSS:
		return "HSS"
	case DataSourceCinC:
		return "CinC"
	default:
		return fmt.Sprintf("DataSource(%d)", int(ds))
	}
}
