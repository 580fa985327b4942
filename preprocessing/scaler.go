// Package preprocessing はscikit-learn互換の前処理（スケーリング・ラベル符号化）を提供します。
//
// スケーラーは訓練パーティションでFitし、同じパラメータでテストパーティションを変換します。
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/mlworkflow/core/model"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// スケーリング方式の名前
const (
	ScalingStandard = "standard"
	ScalingMinMax   = "minmax"
	ScalingNone     = "none"
)

// NewScaler は名前からスケーラーを作成する。"none"は恒等変換を返す。
func NewScaler(kind string) (model.Transformer, error) {
	switch kind {
	case ScalingStandard, "":
		return NewStandardScalerDefault(), nil
	case ScalingMinMax:
		return NewMinMaxScalerDefault(), nil
	case ScalingNone:
		return &IdentityScaler{state: model.NewStateManager("IdentityScaler")}, nil
	default:
		return nil, errors.NewValidationError("scaling", "must be one of standard, minmax, none", kind)
	}
}

func checkFitInput(op string, X mat.Matrix) (int, int, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if err := errors.CheckMatrix(op, X, r, c, 0); err != nil {
		return 0, 0, err
	}
	return r, c, nil
}

// columnwise はXの各要素にfnを適用した新しい行列を返す
func columnwise(X mat.Matrix, fn func(j int, v float64) float64) *mat.Dense {
	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 { return fn(j, v) }, X)
	return result
}

// StandardScaler はscikit-learn互換の標準化スケーラー
// データを平均0、標準偏差1に変換する
type StandardScaler struct {
	state *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差（0の場合は1）
	Scale []float64

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	XTrain, err := scaler.FitTransform(XTrain)
//	XTest, err := scaler.Transform(XTest)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager("StandardScaler"),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから平均と母標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c, err := checkFitInput("StandardScaler.Fit", X)
	if err != nil {
		return err
	}
	s.state.Reset()

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		mean, std := stat.PopMeanStdDev(col, nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1
		// 標準偏差が0に近い定数列はスケーリングしない
		if s.WithStd && std >= 1e-8 {
			s.Scale[j] = std
		}
	}

	s.state.SetFitted(c, r)
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.Transform", c); err != nil {
		return nil, err
	}
	return columnwise(X, func(j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}), nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := s.state.RequireFeatures("StandardScaler.InverseTransform", c); err != nil {
		return nil, err
	}
	return columnwise(X, func(j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}), nil
}

// IsFitted reports whether Fit has completed.
func (s *StandardScaler) IsFitted() bool { return s.state.IsFitted() }

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.state.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	nFeatures, _ := s.state.GetDimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, nFeatures)
}

// MinMaxScaler はscikit-learn互換のMin-Maxスケーラー
// データを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	state *model.StateManager

	// DataMin, DataMax は学習データの最小値・最大値
	DataMin []float64
	DataMax []float64

	// Scale は各特徴量の幅 (max - min)、定数列では1
	Scale []float64

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager("MinMaxScaler"),
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	if m.FeatureRange[0] >= m.FeatureRange[1] {
		return errors.NewValidationError("feature_range", "minimum must be smaller than maximum", m.FeatureRange)
	}
	r, c, err := checkFitInput("MinMaxScaler.Fit", X)
	if err != nil {
		return err
	}
	m.state.Reset()

	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		m.DataMin[j] = floats.Min(col)
		m.DataMax[j] = floats.Max(col)
		m.Scale[j] = m.DataMax[j] - m.DataMin[j]
		if math.Abs(m.Scale[j]) < 1e-8 {
			m.Scale[j] = 1
		}
	}

	m.state.SetFitted(c, r)
	return nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする。
// 学習範囲外の値は範囲外にマップされる（クリップしない）。
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := m.state.RequireFeatures("MinMaxScaler.Transform", c); err != nil {
		return nil, err
	}
	width := m.FeatureRange[1] - m.FeatureRange[0]
	return columnwise(X, func(j int, v float64) float64 {
		return (v-m.DataMin[j])/m.Scale[j]*width + m.FeatureRange[0]
	}), nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := m.state.RequireFeatures("MinMaxScaler.InverseTransform", c); err != nil {
		return nil, err
	}
	width := m.FeatureRange[1] - m.FeatureRange[0]
	return columnwise(X, func(j int, v float64) float64 {
		return (v-m.FeatureRange[0])/width*m.Scale[j] + m.DataMin[j]
	}), nil
}

// IsFitted reports whether Fit has completed.
func (m *MinMaxScaler) IsFitted() bool { return m.state.IsFitted() }

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
		m.FeatureRange[0], m.FeatureRange[1])
}

// IdentityScaler returns a copy of its input; it stands in for "no scaling".
type IdentityScaler struct {
	state *model.StateManager
}

func (s *IdentityScaler) Fit(X mat.Matrix) error {
	r, c, err := checkFitInput("IdentityScaler.Fit", X)
	if err != nil {
		return err
	}
	s.state.SetFitted(c, r)
	return nil
}

func (s *IdentityScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := s.state.RequireFeatures("IdentityScaler.Transform", c); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(X), nil
}

func (s *IdentityScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

var (
	_ model.Transformer = (*StandardScaler)(nil)
	_ model.Transformer = (*MinMaxScaler)(nil)
	_ model.Transformer = (*IdentityScaler)(nil)
)
