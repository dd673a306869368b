package datastore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.SaveRun(&RunRecord{
		LogID:        "expt-1",
		DataSource:   "CinC",
		ModelType:    "resnet",
		LearningRate: 0.0001,
		ValUAR:       0.725,
		UAR:          0.85,
		Recall1:      0.7,
		Specificity:  0.6,
		F1:           0.5,
	}))
	require.NoError(t, store.SaveRun(&RunRecord{
		LogID:        "expt-1",
		DataSource:   "CinC",
		ModelType:    "resnet",
		LearningRate: 0.00001,
		UAR:          0.8,
	}))
	require.NoError(t, store.SaveRun(&RunRecord{LogID: "expt-2", ModelType: "vgg16"}))

	records, err := store.RunsByLogID("expt-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.InDelta(t, 0.85, records[0].UAR, 1e-9)
	assert.InDelta(t, 0.0001, records[0].LearningRate, 1e-12)
	assert.False(t, records[0].CreatedAt.IsZero())

	other, err := store.RunsByLogID("expt-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
