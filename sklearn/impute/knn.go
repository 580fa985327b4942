package impute

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/core/model"
	"github.com/YuminosukeSato/mlworkflow/core/parallel"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// 近傍の重み付け方式
const (
	WeightsUniform  = "uniform"
	WeightsDistance = "distance"
)

// KNNImputer はk近傍の平均で欠損値を補完する（scikit-learnのKNNImputer相当）。
//
// 距離は欠損を考慮したユークリッド距離
//
//	d(a, b) = sqrt(total / present * Σ_present (a_i - b_i)^2)
//
// で、どちらかの行で欠損している座標は無視する。列Cの補完に使えるのは
// 学習データのうちCが観測されている行で、距離が同じ場合は行番号の小さい方を優先する。
// 候補となる行がない場合は列の平均で補完する。
type KNNImputer struct {
	state *model.StateManager

	nNeighbors int
	weights    string

	fitX     *mat.Dense
	colMeans []float64
}

// KNNOption configures a KNNImputer.
type KNNOption func(*KNNImputer)

// WithNeighbors sets the number of donors averaged per missing value (default 5).
func WithNeighbors(k int) KNNOption {
	return func(m *KNNImputer) { m.nNeighbors = k }
}

// WithWeights sets "uniform" or "distance" weighting (default "uniform").
func WithWeights(w string) KNNOption {
	return func(m *KNNImputer) { m.weights = w }
}

// NewKNNImputer creates a KNNImputer.
func NewKNNImputer(opts ...KNNOption) *KNNImputer {
	m := &KNNImputer{
		state:      model.NewStateManager("KNNImputer"),
		nNeighbors: 5,
		weights:    WeightsUniform,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NNeighbors returns k.
func (m *KNNImputer) NNeighbors() int { return m.nNeighbors }

// Weights returns the weighting scheme.
func (m *KNNImputer) Weights() string { return m.weights }

// Fit stores the reference rows and the observed column means.
func (m *KNNImputer) Fit(X mat.Matrix) error {
	const op = "KNNImputer.Fit"
	if m.nNeighbors < 1 {
		return errors.NewValidationError("n_neighbors", "must be at least 1", m.nNeighbors)
	}
	if m.weights != WeightsUniform && m.weights != WeightsDistance {
		return errors.NewValidationError("weights", "must be uniform or distance", m.weights)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	m.state.Reset()

	m.colMeans = make([]float64, c)
	for j := 0; j < c; j++ {
		_, _, mean, ok := observedRange(X, j)
		if !ok {
			return errors.NewValueError(op, fmt.Sprintf("column %d has no observed values", j))
		}
		m.colMeans[j] = mean
	}
	m.fitX = mat.DenseCopyOf(X)
	m.state.SetFitted(c, r)
	return nil
}

// nanEuclidean returns NaN when the rows share no observed coordinate.
func nanEuclidean(a, b []float64) float64 {
	var sum float64
	present := 0
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		d := a[i] - b[i]
		sum += d * d
		present++
	}
	if present == 0 {
		return math.NaN()
	}
	return math.Sqrt(float64(len(a)) / float64(present) * sum)
}

type donor struct {
	row  int
	dist float64
}

// Transform replaces every NaN in X. Rows are processed in parallel.
func (m *KNNImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := m.state.RequireFeatures("KNNImputer.Transform", c); err != nil {
		return nil, err
	}
	result := mat.DenseCopyOf(X)
	fitRows, _ := m.fitX.Dims()

	parallel.ParallelizeWithThreshold(r, parallel.DefaultThreshold, func(start, end int) {
		dists := make([]float64, fitRows)
		for i := start; i < end; i++ {
			row := result.RawRowView(i)
			if !hasNaN(row) {
				continue
			}
			// 距離は補完前の値で計算する
			orig := mat.Row(nil, i, X)
			for k := 0; k < fitRows; k++ {
				dists[k] = nanEuclidean(orig, m.fitX.RawRowView(k))
			}
			for j := 0; j < c; j++ {
				if math.IsNaN(orig[j]) {
					row[j] = m.imputeValue(j, dists)
				}
			}
		}
	})
	return result, nil
}

func hasNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// imputeValue averages the k nearest donors that observe column j.
func (m *KNNImputer) imputeValue(j int, dists []float64) float64 {
	donors := make([]donor, 0, len(dists))
	for k, d := range dists {
		if math.IsNaN(d) || math.IsNaN(m.fitX.At(k, j)) {
			continue
		}
		donors = append(donors, donor{row: k, dist: d})
	}
	if len(donors) == 0 {
		return m.colMeans[j]
	}
	sort.SliceStable(donors, func(a, b int) bool {
		return donors[a].dist < donors[b].dist
	})
	if len(donors) > m.nNeighbors {
		donors = donors[:m.nNeighbors]
	}

	if m.weights == WeightsDistance {
		// 距離0の近傍があればそれらだけを平均する
		var exact []donor
		for _, d := range donors {
			if d.dist == 0 {
				exact = append(exact, d)
			}
		}
		if len(exact) == 0 {
			var num, den float64
			for _, d := range donors {
				w := 1 / d.dist
				num += w * m.fitX.At(d.row, j)
				den += w
			}
			return num / den
		}
		donors = exact
	}

	var sum float64
	for _, d := range donors {
		sum += m.fitX.At(d.row, j)
	}
	return sum / float64(len(donors))
}

// FitTransform fits on X and imputes X.
func (m *KNNImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

var _ model.Transformer = (*KNNImputer)(nil)
