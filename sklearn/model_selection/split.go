// Package model_selection はデータ分割と交差検証を提供します。
//
// scikit-learnのmodel_selectionに倣い、train/test分割（層化あり・なし）、
// KFold、StratifiedKFold、およびfoldごとのスコアを並列に計算する
// CrossValScoreを実装しています。すべての分割はシードに対して決定的です。
package model_selection

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// Split はtrain/test分割の行インデックス（どちらも昇順）
type Split struct {
	Train []int
	Test  []int
}

// testCount はtestSizeを件数に変換する。
// (0,1)は割合（切り上げ）、1以上は件数として扱う。
func testCount(n int, testSize float64) (int, error) {
	var count int
	switch {
	case math.IsNaN(testSize) || testSize <= 0:
		return 0, errors.NewValidationError("test_size", "must be a fraction in (0, 1) or a count >= 1", testSize)
	case testSize < 1:
		count = int(math.Ceil(testSize * float64(n)))
	default:
		if testSize != math.Trunc(testSize) {
			return 0, errors.NewValidationError("test_size", "a count must be an integer", testSize)
		}
		count = int(testSize)
	}
	if count < 1 || count >= n {
		return 0, errors.NewValidationError("test_size",
			"both partitions must contain at least one row", testSize)
	}
	return count, nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// TrainTestSplit はn行をtrainとtestに分割する。
//
// stratifyがnilでなければ層化分割を行い、各クラスのtest件数を最大剰余法で決める。
// これにより各パーティションのクラス比率は全体の比率から1/|パーティション|以内に収まる。
func TrainTestSplit(n int, testSize float64, seed uint64, stratify []float64) (Split, error) {
	if n < 2 {
		return Split{}, errors.NewValidationError("n", "need at least two rows to split", n)
	}
	nTest, err := testCount(n, testSize)
	if err != nil {
		return Split{}, err
	}
	rng := newRand(seed)

	var test []int
	if stratify == nil {
		test = rng.Perm(n)[:nTest]
	} else {
		if len(stratify) != n {
			return Split{}, errors.NewDimensionError("TrainTestSplit", n, len(stratify), 0)
		}
		test = stratifiedTest(stratify, nTest, rng)
	}

	inTest := make([]bool, n)
	for _, i := range test {
		inTest[i] = true
	}
	s := Split{
		Train: make([]int, 0, n-nTest),
		Test:  make([]int, 0, nTest),
	}
	for i := 0; i < n; i++ {
		if inTest[i] {
			s.Test = append(s.Test, i)
		} else {
			s.Train = append(s.Train, i)
		}
	}
	return s, nil
}

// groupByClass はラベルごとの行インデックスを昇順ラベル順で返す
func groupByClass(y []float64) ([]float64, [][]int) {
	groups := make(map[float64][]int)
	for i, label := range y {
		groups[label] = append(groups[label], i)
	}
	labels := make([]float64, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	members := make([][]int, len(labels))
	for i, label := range labels {
		members[i] = groups[label]
	}
	return labels, members
}

// stratifiedTest は最大剰余法でクラスごとのtest件数を決め、各クラスからシャッフル順に取り出す
func stratifiedTest(y []float64, nTest int, rng *rand.Rand) []int {
	_, members := groupByClass(y)
	n := float64(len(y))

	quotas := make([]int, len(members))
	remainders := make([]float64, len(members))
	assigned := 0
	for c, m := range members {
		exact := float64(nTest) * float64(len(m)) / n
		quotas[c] = int(math.Floor(exact))
		remainders[c] = exact - float64(quotas[c])
		assigned += quotas[c]
	}

	order := make([]int, len(members))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for _, c := range order {
		if assigned == nTest {
			break
		}
		if quotas[c] < len(members[c]) {
			quotas[c]++
			assigned++
		}
	}

	test := make([]int, 0, nTest)
	for c, m := range members {
		idx := append([]int(nil), m...)
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		test = append(test, idx[:quotas[c]]...)
	}
	return test
}

// TakeRows はXから指定した行を取り出した新しい行列を返す。idxは空であってはならない。
func TakeRows(X mat.Matrix, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(r, j))
		}
	}
	return out
}

// TakeVec はyの第1列から指定した行を取り出す
func TakeVec(y mat.Matrix, idx []int) *mat.VecDense {
	out := mat.NewVecDense(len(idx), nil)
	for i, r := range idx {
		out.SetVec(i, y.At(r, 0))
	}
	return out
}

// TakeFloats はスライスから指定した要素を取り出す
func TakeFloats(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, r := range idx {
		out[i] = values[r]
	}
	return out
}
