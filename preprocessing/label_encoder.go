package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"github.com/YuminosukeSato/mlworkflow/core/model"
	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// LabelEncoder は文字列ラベルを0..n_classes-1の整数コードに変換する。
// クラスは辞書順に並べられる（scikit-learnのLabelEncoderと同じ）。
type LabelEncoder struct {
	state   *model.StateManager
	classes []string
	index   map[string]int
}

// NewLabelEncoder は新しいLabelEncoderを作成する
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{state: model.NewStateManager("LabelEncoder")}
}

// Fit は観測されたラベルからクラス一覧を学習する。空文字列は欠損として無視する。
func (e *LabelEncoder) Fit(labels []string) error {
	seen := make(map[string]bool)
	for _, l := range labels {
		if l != "" {
			seen[l] = true
		}
	}
	if len(seen) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	e.classes = make([]string, 0, len(seen))
	for l := range seen {
		e.classes = append(e.classes, l)
	}
	sort.Strings(e.classes)
	e.index = make(map[string]int, len(e.classes))
	for i, l := range e.classes {
		e.index[l] = i
	}
	e.state.SetFitted(1, len(labels))
	return nil
}

// Transform はラベルをコードに変換する。空文字列はNaNになる。
func (e *LabelEncoder) Transform(labels []string) ([]float64, error) {
	if err := e.state.RequireFitted("Transform"); err != nil {
		return nil, err
	}
	codes := make([]float64, len(labels))
	for i, l := range labels {
		if l == "" {
			codes[i] = math.NaN()
			continue
		}
		code, ok := e.index[l]
		if !ok {
			return nil, errors.NewValueError("LabelEncoder.Transform", fmt.Sprintf("y contains previously unseen label %q", l))
		}
		codes[i] = float64(code)
	}
	return codes, nil
}

// FitTransform はFitとTransformを続けて実行する
func (e *LabelEncoder) FitTransform(labels []string) ([]float64, error) {
	if err := e.Fit(labels); err != nil {
		return nil, err
	}
	return e.Transform(labels)
}

// InverseTransform はコードを元のラベルに戻す。NaNは空文字列になる。
func (e *LabelEncoder) InverseTransform(codes []float64) ([]string, error) {
	if err := e.state.RequireFitted("InverseTransform"); err != nil {
		return nil, err
	}
	labels := make([]string, len(codes))
	for i, c := range codes {
		if math.IsNaN(c) {
			continue
		}
		if c != math.Trunc(c) || c < 0 || int(c) >= len(e.classes) {
			return nil, errors.NewValueError("LabelEncoder.InverseTransform", fmt.Sprintf("invalid code %v", c))
		}
		labels[i] = e.classes[int(c)]
	}
	return labels, nil
}

// Classes は学習したクラスを辞書順で返す
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}
