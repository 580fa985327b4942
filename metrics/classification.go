package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// logLossEpsilon は対数損失で確率をクリップする幅
const logLossEpsilon = 1e-15

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyMatrix はn×1行列に対する正解率（交差検証のスコア関数として使う）
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, err := columnVector("Accuracy", yTrue)
	if err != nil {
		return 0, err
	}
	p, err := columnVector("Accuracy", yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(t, p)
}

// ClassificationError は誤分類率（1 - 正解率）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("ClassificationError", yTrue, yPred); err != nil {
		return 0, err
	}
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// checkBinaryLabels はラベルが0または1であることを確認する
func checkBinaryLabels(op string, yTrue *mat.VecDense) (nPos int, err error) {
	for i := 0; i < yTrue.Len(); i++ {
		switch yTrue.AtVec(i) {
		case 1:
			nPos++
		case 0:
		default:
			return 0, errors.NewValueError(op, fmt.Sprintf("labels must be 0 or 1, got %v", yTrue.AtVec(i)))
		}
	}
	return nPos, nil
}

// AUC はROC曲線下面積を順位（Mann-Whitney U統計量）から計算する。
// 同順位は平均順位で扱う。正例または負例しかない場合は0.5を返す。
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	nPos, err := checkBinaryLabels("AUC", yTrue)
	if err != nil {
		return 0, err
	}
	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		return 0.5, nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return yPred.AtVec(order[a]) < yPred.AtVec(order[b])
	})

	// 正例の平均順位の和
	var rankSum float64
	for start := 0; start < n; {
		end := start
		for end+1 < n && yPred.AtVec(order[end+1]) == yPred.AtVec(order[start]) {
			end++
		}
		avgRank := float64(start+end)/2 + 1
		for k := start; k <= end; k++ {
			if yTrue.AtVec(order[k]) == 1 {
				rankSum += avgRank
			}
		}
		start = end + 1
	}

	u := rankSum - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), nil
}

// AUCMatrix は行列入力に対するAUC。複数列の場合は先頭列を使う。
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	first := func(m mat.Matrix) (*mat.VecDense, error) {
		if m == nil {
			return nil, errors.NewValueError("AUCMatrix", "nil matrix")
		}
		r, c := m.Dims()
		if r == 0 || c == 0 {
			return nil, errors.NewValueError("AUCMatrix", "empty matrix")
		}
		v := mat.NewVecDense(r, nil)
		for i := 0; i < r; i++ {
			v.SetVec(i, m.At(i, 0))
		}
		return v, nil
	}
	t, err := first(yTrue)
	if err != nil {
		return 0, err
	}
	p, err := first(yPred)
	if err != nil {
		return 0, err
	}
	return AUC(t, p)
}

// BinaryLogLoss は二値分類の対数損失を計算する。確率は[1e-15, 1-1e-15]にクリップする。
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if _, err := checkBinaryLabels("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var loss float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yPred.AtVec(i), logLossEpsilon, 1-logLossEpsilon)
		if yTrue.AtVec(i) == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	return loss / float64(n), nil
}

// uniqueLabels は両方のベクトルに現れるラベルを昇順で返す
func uniqueLabels(vs ...*mat.VecDense) []float64 {
	seen := make(map[float64]bool)
	var labels []float64
	for _, v := range vs {
		for i := 0; i < v.Len(); i++ {
			if l := v.AtVec(i); !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	sort.Float64s(labels)
	return labels
}

// ConfusionMatrix は混同行列を計算する。行が正解、列が予測で、順序は返されるラベルの順。
// labelsがnilの場合は両ベクトルに現れるラベルを昇順で使う。
func ConfusionMatrix(yTrue, yPred *mat.VecDense, labels []float64) (*mat.Dense, []float64, error) {
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, nil, err
	}
	if labels == nil {
		labels = uniqueLabels(yTrue, yPred)
	}
	if len(labels) == 0 {
		return nil, nil, errors.NewValueError("ConfusionMatrix", "no labels")
	}
	index := make(map[float64]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}

	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < n; i++ {
		a, okA := index[yTrue.AtVec(i)]
		b, okB := index[yPred.AtVec(i)]
		if !okA || !okB {
			continue
		}
		cm.Set(a, b, cm.At(a, b)+1)
	}
	return cm, labels, nil
}

// ClassScore はクラスごとの適合率・再現率・F1・サポート
type ClassScore struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// PrecisionRecallFScoreSupport はクラスごとの適合率・再現率・F1・サポートを計算する。
// 分母が0になる指標は0とし、UndefinedMetricWarningを発行する。
func PrecisionRecallFScoreSupport(yTrue, yPred *mat.VecDense) ([]ClassScore, []float64, error) {
	cm, labels, err := ConfusionMatrix(yTrue, yPred, nil)
	if err != nil {
		return nil, nil, err
	}

	k := len(labels)
	scores := make([]ClassScore, k)
	for c := 0; c < k; c++ {
		tp := cm.At(c, c)
		var predicted, actual float64
		for j := 0; j < k; j++ {
			predicted += cm.At(j, c)
			actual += cm.At(c, j)
		}

		s := ClassScore{Label: formatLabel(labels[c]), Support: int(actual)}
		if predicted == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("precision",
				fmt.Sprintf("no predicted samples for label %s", s.Label), 0))
		} else {
			s.Precision = tp / predicted
		}
		if actual == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("recall",
				fmt.Sprintf("no true samples for label %s", s.Label), 0))
		} else {
			s.Recall = tp / actual
		}
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
		scores[c] = s
	}
	return scores, labels, nil
}

func formatLabel(l float64) string {
	if l == math.Trunc(l) {
		return fmt.Sprintf("%d", int64(l))
	}
	return fmt.Sprintf("%g", l)
}

// Report はscikit-learnのclassification_reportに相当する集計
type Report struct {
	Classes     []ClassScore
	Accuracy    float64
	MacroAvg    ClassScore
	WeightedAvg ClassScore
	Support     int
}

// ClassificationReport はクラスごとの指標とマクロ平均・重み付き平均をまとめる。
// targetNamesを指定すると、昇順ラベルの順にクラス名として使う。
func ClassificationReport(yTrue, yPred *mat.VecDense, targetNames []string) (*Report, error) {
	scores, labels, err := PrecisionRecallFScoreSupport(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	if targetNames != nil {
		if len(targetNames) != len(labels) {
			return nil, errors.NewDimensionError("ClassificationReport", len(labels), len(targetNames), 0)
		}
		for i := range scores {
			scores[i].Label = targetNames[i]
		}
	}
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Classes:     scores,
		Accuracy:    acc,
		MacroAvg:    ClassScore{Label: "macro avg"},
		WeightedAvg: ClassScore{Label: "weighted avg"},
	}
	for _, s := range scores {
		r.Support += s.Support
	}
	k := float64(len(scores))
	for _, s := range scores {
		w := float64(s.Support) / float64(r.Support)
		r.MacroAvg.Precision += s.Precision / k
		r.MacroAvg.Recall += s.Recall / k
		r.MacroAvg.F1 += s.F1 / k
		r.WeightedAvg.Precision += s.Precision * w
		r.WeightedAvg.Recall += s.Recall * w
		r.WeightedAvg.F1 += s.F1 * w
	}
	r.MacroAvg.Support = r.Support
	r.WeightedAvg.Support = r.Support
	return r, nil
}

// String renders the report in the layout of scikit-learn's classification_report.
func (r *Report) String() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "\tprecision\trecall\tf1-score\tsupport\t")
	for _, s := range r.Classes {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%d\t\n", s.Label, s.Precision, s.Recall, s.F1, s.Support)
	}
	fmt.Fprintln(w, "\t\t\t\t\t")
	fmt.Fprintf(w, "accuracy\t\t\t%.2f\t%d\t\n", r.Accuracy, r.Support)
	for _, s := range []ClassScore{r.MacroAvg, r.WeightedAvg} {
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%d\t\n", s.Label, s.Precision, s.Recall, s.F1, s.Support)
	}
	_ = w.Flush()
	return sb.String()
}
