// Package metrics はモデル評価のための回帰・分類指標を提供します。
//
// すべての関数は空入力や長さ不一致をエラーとして返し、パニックしません。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// vecLen はnilを長さ0として扱う
func vecLen(v *mat.VecDense) int {
	if v == nil {
		return 0
	}
	return v.Len()
}

// checkPair は正解と予測の組を検証し、要素数を返す
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := vecLen(yTrue)
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if vecLen(yPred) != n {
		return 0, errors.NewDimensionError(op, n, vecLen(yPred), 0)
	}
	return n, nil
}

// values はベクトルの値をスライスにコピーする
func values(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

// residuals は yTrue - yPred を返す
func residuals(yTrue, yPred *mat.VecDense) []float64 {
	diff := values(yTrue)
	floats.Sub(diff, values(yPred))
	return diff
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	diff := residuals(yTrue, yPred)
	return floats.Dot(diff, diff) / float64(n), nil
}

// MSEMatrix は行列形式の入力（n×1）に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yTrueVec, err := columnVector("MSEMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	yPredVec, err := columnVector("MSEMatrix", yPred)
	if err != nil {
		return 0, err
	}
	if yTrueVec.Len() != yPredVec.Len() {
		return 0, errors.NewDimensionError("MSEMatrix", yTrueVec.Len(), yPredVec.Len(), 0)
	}
	return MSE(yTrueVec, yPredVec)
}

// columnVector はn×1行列をVecDenseに変換する
func columnVector(op string, m mat.Matrix) (*mat.VecDense, error) {
	if m == nil {
		return nil, errors.NewValueError(op, "nil matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	if c != 1 {
		return nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v, nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Norm(residuals(yTrue, yPred), 1) / float64(n), nil
}

// R2Score は決定係数（R²）を計算する。
// yTrueに分散がない場合はエラーを返す。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}

	truth := values(yTrue)
	yMean := stat.Mean(truth, nil)

	// 全変動（TSS）と残差変動（RSS）
	var tss float64
	for _, v := range truth {
		tss += (v - yMean) * (v - yMean)
	}
	diff := residuals(yTrue, yPred)
	rss := floats.Dot(diff, diff)

	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// MAPE は平均絶対パーセンテージ誤差を計算する。yTrueが0の要素は無視する。
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	validCount := 0
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		if yTrueVal != 0 {
			sum += math.Abs(yTrueVal-yPred.AtVec(i)) / math.Abs(yTrueVal)
			validCount++
		}
	}
	if validCount == 0 {
		return 0, errors.NewValueError("MAPE", "all yTrue values are zero")
	}
	return (sum / float64(validCount)) * 100, nil
}

// ExplainedVarianceScore は説明分散スコア 1 - Var(yTrue - yPred) / Var(yTrue) を計算する
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("ExplainedVarianceScore", yTrue, yPred); err != nil {
		return 0, err
	}

	// 母分散（n で割る）で計算する
	populationVariance := func(x []float64) float64 {
		_, v := stat.PopMeanVariance(x, nil)
		return v
	}
	varYTrue := populationVariance(values(yTrue))
	if varYTrue == 0 {
		return 0, errors.NewValueError("ExplainedVarianceScore", "no variance in yTrue")
	}
	return 1 - populationVariance(residuals(yTrue, yPred))/varYTrue, nil
}
