package errors

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// warnSink は警告の出力先。zerolog 関数が設定されていればそちらを優先する。
type warnSink struct {
	mu      sync.Mutex
	handler func(w error)
	zerolog func(w error)
}

var sink = &warnSink{handler: stderrWarning}

// stderrWarning はロガー未設定時のデフォルト出力。
func stderrWarning(w error) {
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).With().Timestamp().Logger()
	ev := l.Warn()
	if m, ok := w.(zerolog.LogObjectMarshaler); ok {
		ev = ev.EmbedObject(m)
	}
	ev.Msg(w.Error())
}

// SetWarningHandler は zerolog 未設定時に使う警告ハンドラを差し替える。
// テストで警告を収集する場合などに使う。
func SetWarningHandler(handler func(w error)) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.handler = handler
}

// SetZerologWarnFunc は pkg/log からの構造化出力関数を登録する（循環import回避）。
// nil で解除する。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	sink.zerolog = warnFunc
}

// Warn はパイプラインの処理を止めずに警告を通知する。
func Warn(w error) {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	switch {
	case sink.zerolog != nil:
		sink.zerolog(w)
	case sink.handler != nil:
		sink.handler(w)
	}
}

// ConvergenceWarning は反復ソルバ（Lasso の座標降下法、ロジスティック回帰）が
// 上限回数までに収束しなかったことを示す。結果は最後の反復のものが使われる。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	s := fmt.Sprintf("%s did not converge within %d iterations", w.Algorithm, w.Iterations)
	if w.Message == "" {
		return s + "; raise max_iter or loosen tol"
	}
	return s + ": " + w.Message
}

func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "ConvergenceWarning").
		Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("detail", w.Message)
}

func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// DataConversionWarning はカテゴリ列を数値ラベルに置き換えた場合など、
// 列の型が暗黙に変わったことを示す。
type DataConversionWarning struct {
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("column converted %s -> %s (%s)", w.FromType, w.ToType, w.Reason)
}

func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "DataConversionWarning").
		Str("from", w.FromType).
		Str("to", w.ToType).
		Str("detail", w.Reason)
}

func NewDataConversionWarning(from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{FromType: from, ToType: to, Reason: reason}
}

// UndefinedMetricWarning は分母が0になる評価指標に代替値を返したことを示す。
// 例: 陽性予測が1件もない fold での precision。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("%s undefined (%s); reporting %g", w.Metric, w.Condition, w.Result)
}

func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "UndefinedMetricWarning").
		Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("reported", w.Result)
}

func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}
