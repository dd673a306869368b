package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderCarriesCategoryAndContext(t *testing.T) {
	t.Parallel()

	err := Newf("decode failed for %s", "a.wav").
		Component("audioclip").
		Category(CategoryAudioDecode).
		Context("path", "a.wav").
		Build()

	assert.Equal(t, "decode failed for a.wav", err.Error())
	assert.Equal(t, "audioclip", err.Component)
	assert.Equal(t, CategoryAudioDecode, err.Category)
	assert.Equal(t, "a.wav", err.Context["path"])
	assert.False(t, err.Timestamp.IsZero())
}

func TestIsCategoryThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := New(NewStd("bad label")).Category(CategoryManifest).Build()
	wrapped := fmt.Errorf("building manifest: %w", inner)

	assert.True(t, IsCategory(wrapped, CategoryManifest))
	assert.False(t, IsCategory(wrapped, CategoryTraining))
}

func TestUncategorizedDefaultsToGeneric(t *testing.T) {
	t.Parallel()

	err := New(NewStd("oops")).Build()
	require.NotNil(t, err)
	assert.Equal(t, CategoryGeneric, err.Category)
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := ValidationError("train-path or val-path required")
	assert.True(t, IsCategory(err, CategoryValidation))
}
