package linear

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/core/parallel"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// lstsqRcond は数値ランク判定に使う相対しきい値
func lstsqRcond(r, c int) float64 {
	return (math.Nextafter(1, 2) - 1) * float64(max(r, c))
}

// solveLeastSquares は X w = y の最小二乗解を返す。
// 列フルランクなら QR で解き、条件数が 1/rcond を超える（重複列・定数列など）
// または行数が列数より少ない場合は SVD の最小ノルム解に切り替える。
func solveLeastSquares(X *mat.Dense, y *mat.VecDense) (*mat.VecDense, error) {
	r, c := X.Dims()
	rcond := lstsqRcond(r, c)
	if r >= c {
		var qr mat.QR
		qr.Factorize(X)
		if cond := qr.Cond(); !math.IsInf(cond, 1) && !math.IsNaN(cond) && cond*rcond < 1 {
			w := mat.NewVecDense(c, nil)
			if err := qr.SolveVecTo(w, false, y); err == nil {
				return w, nil
			}
		}
	}
	return minNormSolve(X, y, rcond)
}

// minNormSolve は SVD で最小ノルムの最小二乗解を求める。
// ランク0（全列が定数）の場合は係数をすべて0にする。
func minNormSolve(X *mat.Dense, y *mat.VecDense, rcond float64) (*mat.VecDense, error) {
	_, c := X.Dims()
	var svd mat.SVD
	if !svd.Factorize(X, mat.SVDThin) {
		return nil, errors.ErrSingularMatrix
	}
	w := mat.NewVecDense(c, nil)
	rank := svd.Rank(rcond)
	if rank == 0 {
		return w, nil
	}
	svd.SolveVecTo(w, y, rank)
	return w, nil
}

// validateXY は学習データを検証し、作業用のコピーを返す
func validateXY(op string, X, y mat.Matrix) (*mat.Dense, *mat.VecDense, error) {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return nil, nil, errors.NewDimensionError(op, r, ry, 0)
	}
	if cy != 1 {
		return nil, nil, errors.NewValueError(op, "y must be a column vector")
	}
	if err := errors.CheckMatrix(op, X, r, c, 0); err != nil {
		return nil, nil, err
	}
	if err := errors.CheckMatrix(op, y, ry, cy, 0); err != nil {
		return nil, nil, err
	}

	xd := mat.DenseCopyOf(X)
	yv := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yv.SetVec(i, y.At(i, 0))
	}
	return xd, yv, nil
}

// center は各列と目的変数から平均を引く（インプレース）。
// 切片は係数から復元するので、正則化の対象にならない。
func center(X *mat.Dense, y *mat.VecDense) (xMean []float64, yMean float64) {
	r, c := X.Dims()
	xMean = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		xMean[j] = floats.Sum(col) / float64(r)
	}

	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			row := X.RawRowView(i)
			floats.Sub(row, xMean)
		}
	})

	yMean = floats.Sum(y.RawVector().Data) / float64(r)
	for i := 0; i < r; i++ {
		y.SetVec(i, y.AtVec(i)-yMean)
	}
	return xMean, yMean
}

// interceptFor は中心化した係数から切片を計算する
func interceptFor(coef, xMean []float64, yMean float64) float64 {
	return yMean - floats.Dot(coef, xMean)
}

// predictLinear は y = X * coef + intercept を計算する
func predictLinear(X mat.Matrix, coef []float64, intercept float64) *mat.Dense {
	r, c := X.Dims()
	predictions := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			pred := intercept
			for j := 0; j < c; j++ {
				pred += X.At(i, j) * coef[j]
			}
			predictions.Set(i, 0, pred)
		}
	})
	return predictions
}

// r2Score は決定係数（R²）を計算する
func r2Score(op string, y, yPred mat.Matrix) (float64, error) {
	r, _ := y.Dims()
	pr, _ := yPred.Dims()
	if r != pr {
		return 0, errors.NewDimensionError(op, r, pr, 0)
	}
	if r == 0 {
		return 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	// 全変動 (TSS) と残差変動 (RSS) を計算
	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		d := yTrue - yPred.At(i, 0)
		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += d * d
	}

	// R² = 1 - RSS/TSS
	if tss == 0 {
		return 0, errors.NewValueError(op, "total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}

// countZeros は係数のうち厳密に0のものを数える
func countZeros(coef []float64) int {
	n := 0
	for _, w := range coef {
		if w == 0 {
			n++
		}
	}
	return n
}
