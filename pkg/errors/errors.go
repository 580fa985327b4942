// Package errors はデータセット生成・前処理・モデル評価のパイプラインで使う
// 構造化エラーと警告を提供します。
//
// エラーはすべて cockroachdb/errors でスタックトレースを付与して返され、
// zerolog.LogObjectMarshaler を実装する型はログにフィールドとして展開されます。
// 処理を継続できる問題（収束しない、型変換した等）は Warn で通知します。
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// 共通の番兵エラー
var (
	// ErrEmptyData は行数0のデータや空の列リストが渡された場合のエラー。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は正規方程式の係数行列が分解できない場合のエラー。
	ErrSingularMatrix = New("singular matrix")
)

// NotFittedError は Fit 前のモデルで Predict / Score / Transform を呼んだ場合のエラー。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("mlworkflow: %s.%s called before Fit", e.ModelName, e.Method)
}

func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "NotFittedError").
		Str("model", e.ModelName).
		Str("method", e.Method)
}

func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は行数または特徴量数が食い違う場合のエラー。
// Axis は 0 が行、1 が特徴量（列）。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("mlworkflow: %s: expected %d %s, got %d", e.Op, e.Expected, e.axisName(), e.Got)
}

func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "DimensionError").
		Str("operation", e.Op).
		Str("axis", e.axisName()).
		Int("expected", e.Expected).
		Int("got", e.Got)
}

func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError は設定値・列指定・生成パラメータが不正な場合のエラー。
// ParamName には設定キーや列名を入れる。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("mlworkflow: invalid %s: %s (value: %v)", e.ParamName, e.Reason, e.Value)
}

func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "ValidationError").
		Str("param", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value)
}

func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の組み合わせが計算できない値になる場合のエラー
// （ラベルが1種類しかない、fold 数が行数を超える等）。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return "mlworkflow: " + e.Op + ": " + e.Message
}

func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError は学習処理の内部で起きた失敗を原因エラーとともに包む。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	msg := "mlworkflow: " + e.Op + ": " + e.Kind
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ModelError) Unwrap() error { return e.Err }

func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// CategoricalFeatureError は未エンコードのカテゴリ列を数値行列に含めようとした場合のエラー。
// 呼び出し側は事前に LabelEncode を適用する必要がある。
type CategoricalFeatureError struct {
	Op     string
	Column string
}

func (e *CategoricalFeatureError) Error() string {
	return fmt.Sprintf("mlworkflow: %s: column %q is categorical; label-encode it first", e.Op, e.Column)
}

func (e *CategoricalFeatureError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "CategoricalFeatureError").
		Str("operation", e.Op).
		Str("column", e.Column)
}

func NewCategoricalFeatureError(op, column string) error {
	return errors.WithStack(&CategoricalFeatureError{Op: op, Column: column})
}

// MissingValueError は欠損を許さない処理（補完モデルの学習など）に NaN が残っていた場合のエラー。
type MissingValueError struct {
	Op     string
	Column string
	Count  int
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("mlworkflow: %s: %d missing value(s) in column %q", e.Op, e.Count, e.Column)
}

func (e *MissingValueError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "MissingValueError").
		Str("operation", e.Op).
		Str("column", e.Column).
		Int("missing", e.Count)
}

func NewMissingValueError(op, column string, count int) error {
	return errors.WithStack(&MissingValueError{Op: op, Column: column, Count: count})
}

// NumericalInstabilityError は係数・損失・入力に NaN / Inf が現れた場合のエラー。
// Iteration は反復ソルバ以外では 0。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Iteration int
}

// maxShownValues 個を超える値は省略して表示する
const maxShownValues = 5

func (e *NumericalInstabilityError) Error() string {
	shown := e.Values
	if len(shown) > maxShownValues {
		shown = shown[:maxShownValues]
	}
	parts := make([]string, len(shown), len(shown)+1)
	for i, v := range shown {
		parts[i] = fmt.Sprintf("%.6g", v)
	}
	if len(e.Values) > maxShownValues {
		parts = append(parts, "...")
	}
	return fmt.Sprintf("mlworkflow: %s: non-finite values at iteration %d: [%s]",
		e.Operation, e.Iteration, strings.Join(parts, ", "))
}

func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("type", "NumericalInstabilityError").
		Str("operation", e.Operation).
		Int("iteration", e.Iteration).
		Floats64("values", e.Values)
}

func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Values: values, Iteration: iteration})
}

// cockroachdb/errors の薄いラッパー。呼び出し側が標準の errors と衝突しないようにする。

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

func Wrap(err error, message string) error { return errors.Wrap(err, message) }

func New(message string) error { return errors.New(message) }

func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
