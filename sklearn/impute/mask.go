// Package impute は欠損値（NaN）の補完を提供します。
//
// KNNImputerは欠損を考慮したユークリッド距離で近傍行を探して平均で補完し、
// RegressionImputerは欠損のない列から線形回帰で対象列を予測して補完します。
package impute

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// CountMissing は列ごとのNaNの数を返す
func CountMissing(X mat.Matrix) []int {
	r, c := X.Dims()
	counts := make([]int, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(X.At(i, j)) {
				counts[j]++
			}
		}
	}
	return counts
}

// CompleteColumns は欠損のない列のインデックスを返す
func CompleteColumns(X mat.Matrix) []int {
	var cols []int
	for j, n := range CountMissing(X) {
		if n == 0 {
			cols = append(cols, j)
		}
	}
	return cols
}

// MissingRows は列colがNaNである行のインデックスを返す
func MissingRows(X mat.Matrix, col int) []int {
	r, _ := X.Dims()
	var rows []int
	for i := 0; i < r; i++ {
		if math.IsNaN(X.At(i, col)) {
			rows = append(rows, i)
		}
	}
	return rows
}

// observedRange は列の観測値の最小・最大・平均を返す。観測値がなければokはfalse。
func observedRange(X mat.Matrix, col int) (lo, hi, mean float64, ok bool) {
	r, _ := X.Dims()
	lo, hi = math.Inf(1), math.Inf(-1)
	n := 0
	for i := 0; i < r; i++ {
		v := X.At(i, col)
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		mean += v
		n++
	}
	if n == 0 {
		return 0, 0, 0, false
	}
	return lo, hi, mean / float64(n), true
}
