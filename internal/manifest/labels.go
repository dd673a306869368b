package manifest

import (
	"strconv"

	"github.com/mkuronen/phonolab/internal/errors"
)

// LabelFunc maps a manifest row to its integer class index.
type LabelFunc func(row []string) (int, error)

// PathFunc extracts the audio file path from a manifest row. HSS train/val
// rows carry the path in the last column, HSS test and CinC rows in the first.
type PathFunc func(row []string) string

// HSSLabel returns the raw numeric label column unchanged; the HSS label
// tables are already integer coded.
func HSSLabel(row []string) (int, error) {
	if len(row) < 2 {
		return 0, shortRowError(row)
	}
	label, err := strconv.Atoi(row[1])
	if err != nil {
		return 0, errors.Newf("non-numeric HSS label %q", row[1]).
			Component("manifest").
			Category(errors.CategoryManifest).
			Build()
	}
	return label, nil
}

// CinCLabel maps the fixed CinC vocabulary to class indices. Anything outside
// it is a data error, not a new class.
func CinCLabel(row []string) (int, error) {
	if len(row) < 2 {
		return 0, shortRowError(row)
	}
	switch row[1] {
	case "Normal":
		return 0, nil
	case "Abnormal":
		return 1, nil
	default:
		return 0, errors.Newf("unknown CinC label %q (expected Normal or Abnormal)", row[1]).
			Component("manifest").
			Category(errors.CategoryManifest).
			Build()
	}
}

func shortRowError(row []string) error {
	return errors.Newf("manifest row has %d columns, expected a label in column 2", len(row)).
		Component("manifest").
		Category(errors.CategoryManifest).
		Build()
}

// LastColumnPath reads the path from the final column (HSS train/val layout).
func LastColumnPath(row []string) string {
	return row[len(row)-1]
}

// FirstColumnPath reads the path from the first column (HSS test and CinC layout).
func FirstColumnPath(row []string) string {
	return row[0]
}
