// Package linear は最小二乗法に基づく線形回帰モデルを提供します。
//
// LinearRegression（正則化なし）、Ridge（L2正則化）、Lasso（L1正則化）は
// いずれも model.LinearModel を満たし、同じ評価コードで比較できます。
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/core/model"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// LinearRegression は線形回帰モデル
type LinearRegression struct {
	state *model.StateManager
	opts  options

	coef      []float64 // 重み（係数）
	intercept float64   // 切片
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &LinearRegression{
		state: model.NewStateManager("LinearRegression"),
		opts:  o,
	}
}

// Fit はモデルを訓練データで学習させる。
// 中心化した計画行列に対してQR分解で最小二乗問題を解き、ランク落ちの場合は
// SVD による最小ノルム解を用いる。
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	const op = "LinearRegression.Fit"
	lr.state.Reset()

	xd, yv, err := validateXY(op, X, y)
	if err != nil {
		return err
	}
	r, c := xd.Dims()

	var xMean []float64
	var yMean float64
	if lr.opts.fitIntercept {
		xMean, yMean = center(xd, yv)
	}

	w, err := solveLeastSquares(xd, yv)
	if err != nil {
		return errors.NewModelError(op, "singular matrix", err)
	}

	lr.coef = append([]float64(nil), w.RawVector().Data...)
	if err := errors.CheckNumericalStability(op, lr.coef, 0); err != nil {
		return err
	}
	lr.intercept = 0
	if lr.opts.fitIntercept {
		lr.intercept = interceptFor(lr.coef, xMean, yMean)
	}

	lr.state.SetFitted(c, r)
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := lr.state.RequireFeatures("LinearRegression.Predict", c); err != nil {
		return nil, err
	}
	return predictLinear(X, lr.coef, lr.intercept), nil
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2Score("LinearRegression.Score", y, yPred)
}

// Coef は学習された重み（係数）を返す
func (lr *LinearRegression) Coef() []float64 {
	return append([]float64(nil), lr.coef...)
}

// Intercept は学習された切片を返す
func (lr *LinearRegression) Intercept() float64 {
	return lr.intercept
}

// IsFitted はモデルが学習済みかどうかを返す
func (lr *LinearRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

var _ model.LinearModel = (*LinearRegression)(nil)
