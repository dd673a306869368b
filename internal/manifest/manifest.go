// Package manifest scans the raw dataset trees and writes the normalized CSV
// manifests the datasets are built from. Two families are supported: the HSS
// heart-sound corpus with a fixed train/devel/test split, and the
// PhysioNet/CinC corpus whose fold split is left to the training manager.
package manifest

import (
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mkuronen/phonolab/internal/errors"
	"github.com/mkuronen/phonolab/internal/logging"
)

var logger *slog.Logger = logging.ForService("manifest")

// HSSPaths holds the locations of the three single-split manifests.
type HSSPaths struct {
	Train string
	Val   string
	Test  string
}

// BuildHSS scans <dataDir>/wav and <dataDir>/lab and writes the three phase
// manifests into dataDir. Train and val rows keep the label table's columns
// with the file path appended last; test rows are (file_name, label).
func BuildHSS(dataDir string) (HSSPaths, error) {
	paths := HSSPaths{
		Train: filepath.Join(dataDir, "train_manifest.csv"),
		Val:   filepath.Join(dataDir, "val_manifest.csv"),
		Test:  filepath.Join(dataDir, "test_manifest.csv"),
	}

	// The raw corpus names phases train/devel/test; devel becomes val.
	files := make(map[string][]string, 3)
	for _, phase := range []string{"train", "devel", "test"} {
		discovered, err := discoverBySubstring(filepath.Join(dataDir, "wav"), phase)
		if err != nil {
			return HSSPaths{}, err
		}
		files[phase] = discovered
	}

	trainDevRows, err := readDelimited(filepath.Join(dataDir, "lab", "labels_train_dev.tsv"), '\t', true)
	if err != nil {
		return HSSPaths{}, err
	}

	nTrain := len(files["train"])
	if nTrain > len(trainDevRows) {
		return HSSPaths{}, integrityErrorf(
			"label table has %d rows but %d train files were discovered",
			len(trainDevRows), nTrain)
	}
	if got := len(trainDevRows) - nTrain; got != len(files["devel"]) {
		return HSSPaths{}, integrityErrorf(
			"label table leaves %d devel rows but %d devel files were discovered",
			got, len(files["devel"]))
	}

	trainRows := appendPathColumn(trainDevRows[:nTrain], files["train"])
	valRows := appendPathColumn(trainDevRows[nTrain:], files["devel"])

	testLabelRows, err := readDelimited(filepath.Join(dataDir, "lab", "labels_test.txt"), ',', false)
	if err != nil {
		return HSSPaths{}, err
	}
	if len(testLabelRows) != len(files["test"]) {
		return HSSPaths{}, integrityErrorf(
			"test label file has %d rows but %d test files were discovered",
			len(testLabelRows), len(files["test"]))
	}
	// Replace the name column with the discovered paths: (file_name, label).
	testRows := make([][]string, len(testLabelRows))
	for i, row := range testLabelRows {
		if len(row) < 2 {
			return HSSPaths{}, integrityErrorf(
				"test label row %d has %d columns, expected (name, label)", i+1, len(row))
		}
		testRows[i] = []string{files["test"][i], row[1]}
	}

	for _, m := range []struct {
		path string
		rows [][]string
	}{
		{paths.Train, trainRows},
		{paths.Val, valRows},
		{paths.Test, testRows},
	} {
		if err := writeManifest(m.path, m.rows); err != nil {
			return HSSPaths{}, err
		}
	}

	logger.Info("built HSS manifests",
		"train", len(trainRows), "val", len(valRows), "test", len(testRows))

	return paths, nil
}

// BuildCinC scans the training-* fold directories under <dataDir>/cinc for
// (header, waveform) pairs and writes one combined (path, label) manifest.
// Fold splitting is the training manager's responsibility.
func BuildCinC(dataDir string) (string, error) {
	manifestPath := filepath.Join(dataDir, "cinc_manifest.csv")

	folders, err := filepath.Glob(filepath.Join(dataDir, "cinc", "training-*"))
	if err != nil {
		return "", fileError(err, dataDir)
	}
	sort.Strings(folders)

	var headPaths, wavPaths []string
	for _, folder := range folders {
		heads, err := discoverBySuffix(folder, ".hea")
		if err != nil {
			return "", err
		}
		wavs, err := discoverBySuffix(folder, ".wav")
		if err != nil {
			return "", err
		}
		headPaths = append(headPaths, heads...)
		wavPaths = append(wavPaths, wavs...)
	}
	sort.Strings(headPaths)
	sort.Strings(wavPaths)

	if len(headPaths) != len(wavPaths) {
		return "", integrityErrorf("found %d header files but %d waveform files",
			len(headPaths), len(wavPaths))
	}

	rows := make([][]string, 0, len(wavPaths))
	for i, head := range headPaths {
		wav := wavPaths[i]
		if stem(head) != stem(wav) {
			return "", integrityErrorf("header/waveform name mismatch: %s vs %s",
				filepath.Base(head), filepath.Base(wav))
		}
		label, err := readHeaderLabel(head)
		if err != nil {
			return "", err
		}
		rows = append(rows, []string{wav, label})
	}

	if err := writeManifest(manifestPath, rows); err != nil {
		return "", err
	}

	logger.Info("built CinC manifest", "records", len(rows), "path", manifestPath)

	return manifestPath, nil
}

// readHeaderLabel extracts the diagnosis from a WFDB header file: the text
// after the last "# " comment marker, trimmed.
func readHeaderLabel(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fileError(err, path)
	}
	parts := strings.Split(string(data), "# ")
	label := strings.TrimSpace(strings.ReplaceAll(parts[len(parts)-1], "\n", ""))
	if label == "" {
		return "", integrityErrorf("no label comment found in header file %s", path)
	}
	return label, nil
}

// discoverBySubstring lists files in dir whose names contain token, sorted
// lexicographically, as absolute paths.
func discoverBySubstring(dir, token string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fileError(err, dir)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), token) {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fileError(err, entry.Name())
		}
		out = append(out, abs)
	}
	sort.Strings(out)
	return out, nil
}

func discoverBySuffix(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fileError(err, dir)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fileError(err, entry.Name())
		}
		out = append(out, abs)
	}
	sort.Strings(out)
	return out, nil
}

func appendPathColumn(rows [][]string, paths []string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		combined := make([]string, 0, len(row)+1)
		combined = append(combined, row...)
		combined = append(combined, paths[i])
		out[i] = combined
	}
	return out
}

// stem returns the file name without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func integrityErrorf(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("manifest").
		Category(errors.CategoryManifest).
		Build()
}

func fileError(err error, path string) error {
	return errors.New(err).
		Component("manifest").
		Category(errors.CategoryFileIO).
		Context("path", path).
		Build()
}

// ReadManifest reads a headerless comma-delimited manifest.
func ReadManifest(path string) ([][]string, error) {
	return readDelimited(path, ',', false)
}

func readDelimited(path string, comma rune, hasHeader bool) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fileError(err, path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fileError(err, path)
	}
	if hasHeader && len(rows) > 0 {
		rows = rows[1:]
	}
	return rows, nil
}

// writeManifest persists rows as a headerless comma-delimited file.
func writeManifest(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fileError(err, path)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.WriteAll(rows); err != nil {
		return fileError(err, path)
	}
	writer.Flush()
	return writer.Error()
}
