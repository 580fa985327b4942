package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mlerrors "github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager("Ridge")
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("Predict")
	require.Error(t, err)
	var nf *mlerrors.NotFittedError
	require.True(t, mlerrors.As(err, &nf))
	assert.Equal(t, "Ridge", nf.ModelName)
	assert.Equal(t, "Predict", nf.Method)

	s.SetFitted(3, 40)
	assert.True(t, s.IsFitted())
	nFeatures, nSamples := s.GetDimensions()
	assert.Equal(t, 3, nFeatures)
	assert.Equal(t, 40, nSamples)
	assert.NoError(t, s.RequireFitted("Predict"))

	s.Reset()
	assert.False(t, s.IsFitted())
}

func TestStateManagerRequireFeatures(t *testing.T) {
	s := NewStateManager("Lasso")
	s.SetFitted(4, 10)

	assert.NoError(t, s.RequireFeatures("Lasso.Predict", 4))

	err := s.RequireFeatures("Lasso.Predict", 2)
	var dim *mlerrors.DimensionError
	require.True(t, mlerrors.As(err, &dim))
	assert.Equal(t, 4, dim.Expected)
	assert.Equal(t, 2, dim.Got)
	assert.Equal(t, 1, dim.Axis)
}
