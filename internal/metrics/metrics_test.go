package metrics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageMeterEpochCycle(t *testing.T) {
	t.Parallel()

	loss := NewMetric("loss", Minimize, true)
	meter := loss.Meter("train")

	meter.Update(2.0, 2)
	meter.Update(1.0, 2)
	assert.InDelta(t, 1.5, meter.Average(), 1e-9)

	improved := meter.Commit()
	assert.True(t, improved, "first epoch is always a new best")
	assert.InDelta(t, 1.5, meter.Value, 1e-9)
	assert.InDelta(t, 1.5, meter.Best, 1e-9)

	meter.Update(2.0, 1)
	assert.False(t, meter.Commit(), "worse loss must not checkpoint")
	assert.InDelta(t, 2.0, meter.Value, 1e-9)
	assert.InDelta(t, 1.5, meter.Best, 1e-9)

	meter.Update(1.0, 1)
	assert.True(t, meter.Commit())
	assert.InDelta(t, 1.0, meter.Best, 1e-9)
}

func TestAverageMeterMaximize(t *testing.T) {
	t.Parallel()

	uar := NewMetric("uar", Maximize, false)
	meter := uar.Meter("val")

	meter.Set(0.7)
	meter.Set(0.6)
	assert.InDelta(t, 0.6, meter.Value, 1e-9)
	assert.InDelta(t, 0.7, meter.Best, 1e-9)

	meter.Set(0.8)
	assert.InDelta(t, 0.8, meter.Best, 1e-9)
}

func TestSetCloneDoesNotAliasMeters(t *testing.T) {
	t.Parallel()

	template := NewSet(
		NewMetric("loss", Minimize, true),
		NewMetric("uar", Maximize, false),
	)
	template.Find("uar").Meter("val").Set(0.5)

	clone := template.Clone()
	clone.Find("uar").Meter("val").Set(0.9)

	assert.InDelta(t, 0.5, template.Find("uar").Meter("val").Value, 1e-9)
	assert.InDelta(t, 0.9, clone.Find("uar").Meter("val").Value, 1e-9)
	assert.Equal(t, template.Names(), clone.Names())
}

func TestFoldValuesAggregate(t *testing.T) {
	t.Parallel()

	folds := FoldValues{}
	folds.Append("uar", 0.8)
	folds.Append("uar", 0.9)
	folds.Append("f1", 0.5)

	assert.InDelta(t, 0.85, folds.Mean("uar"), 1e-9)

	agg := folds.Aggregate()
	assert.InDelta(t, 0.85, agg["uar"], 1e-9)
	assert.InDelta(t, 0.5, agg["f1"], 1e-9)
	assert.Equal(t, []string{"f1", "uar"}, folds.Names())
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	set := NewSet(
		NewMetric("loss", Minimize, true),
		NewMetric("uar", Maximize, false),
	)
	set.Find("loss").Meter("test").Set(0.25)
	set.Find("uar").Meter("test").Set(0.75)

	var buf bytes.Buffer
	require.NoError(t, set.WriteCSV(&buf, "test"))
	assert.Equal(t, "metric,value\nloss,0.25\nuar,0.75\n", buf.String())
}

func TestWriteFoldCSV(t *testing.T) {
	t.Parallel()

	folds := FoldValues{"uar": {0.8, 0.9}, "f1": {0.4, 0.6}}

	var buf bytes.Buffer
	require.NoError(t, WriteFoldCSV(&buf, folds))
	assert.Equal(t, "metric,value\nf1,0.5\nuar,0.85\n", buf.String())
}

func TestMean(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.85, Mean([]float64{0.8, 0.9}), 1e-9)
	assert.Zero(t, Mean(nil))
}
