package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 3, []float64{
		1, 10, 5,
		2, 20, 5,
		3, 30, 5,
		4, 40, 5,
	})

	scaler := NewStandardScalerDefault()
	Xs, err := scaler.FitTransform(X)
	require.NoError(t, err)

	col := make([]float64, 4)
	for j := 0; j < 2; j++ {
		mat.Col(col, j, Xs)
		mean, std := stat.PopMeanStdDev(col, nil)
		assert.InDelta(t, 0, mean, 1e-12)
		assert.InDelta(t, 1, std, 1e-12)
	}
	// a constant column keeps scale 1 and is only centred
	assert.Equal(t, 1.0, scaler.Scale[2])
	mat.Col(col, 2, Xs)
	assert.Equal(t, []float64{0, 0, 0, 0}, col)

	back, err := scaler.InverseTransform(Xs)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))

	_, err = scaler.Transform(mat.NewDense(1, 2, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestStandardScalerNotFitted(t *testing.T) {
	_, err := NewStandardScalerDefault().Transform(mat.NewDense(1, 1, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestMinMaxScaler(t *testing.T) {
	train := mat.NewDense(3, 2, []float64{
		0, 5,
		5, 5,
		10, 5,
	})
	scaler := NewMinMaxScalerDefault()
	Xs, err := scaler.FitTransform(train)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0.5, 0, 1, 0}, Xs.(*mat.Dense).RawMatrix().Data)

	// test rows outside the fitted range are not clipped
	test, err := scaler.Transform(mat.NewDense(1, 2, []float64{20, 5}))
	require.NoError(t, err)
	assert.Equal(t, 2.0, test.At(0, 0))

	back, err := scaler.InverseTransform(Xs)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(train, back, 1e-12))

	bad := NewMinMaxScaler([2]float64{1, 0})
	assert.Error(t, bad.Fit(train))
}

func TestNewScaler(t *testing.T) {
	for kind, want := range map[string]any{
		ScalingStandard: &StandardScaler{},
		ScalingMinMax:   &MinMaxScaler{},
		ScalingNone:     &IdentityScaler{},
	} {
		s, err := NewScaler(kind)
		require.NoError(t, err)
		assert.IsType(t, want, s, kind)
	}

	identity, _ := NewScaler(ScalingNone)
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	out, err := identity.FitTransform(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(X, out))

	_, err = NewScaler("robust")
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestScalerRejectsNaN(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, math.NaN()})
	assert.Error(t, NewStandardScalerDefault().Fit(X))
	assert.Error(t, NewMinMaxScalerDefault().Fit(X))
}

func TestLabelEncoder(t *testing.T) {
	enc := NewLabelEncoder()
	codes, err := enc.FitTransform([]string{"yes", "no", "", "no"})
	require.NoError(t, err)
	assert.Equal(t, []string{"no", "yes"}, enc.Classes())
	assert.Equal(t, 1.0, codes[0])
	assert.Equal(t, 0.0, codes[1])
	assert.True(t, math.IsNaN(codes[2]))

	labels, err := enc.InverseTransform(codes)
	require.NoError(t, err)
	assert.Equal(t, []string{"yes", "no", "", "no"}, labels)

	_, err = enc.Transform([]string{"maybe"})
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	_, err = enc.InverseTransform([]float64{2})
	assert.Error(t, err)

	_, err = NewLabelEncoder().Transform([]string{"no"})
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	assert.Error(t, NewLabelEncoder().Fit([]string{"", ""}))
}
