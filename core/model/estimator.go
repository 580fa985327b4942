// Package model はモデルが満たすべき能力インターフェースと学習状態の管理を提供します。
//
// ワークフローの評価ハーネスはこのパッケージのインターフェースだけに依存して書かれており、
// 線形回帰・Ridge・Lasso・ロジスティック回帰を同じコードで扱えます。
package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator は学習と予測の両方ができるモデル
type Estimator interface {
	Fitter
	Predictor
}

// Factory は新しい未学習のEstimatorを生成する。
// 交差検証ではfoldごとに呼び出される。
type Factory func() Estimator

// Scorer はモデル固有のスコアを計算する（回帰はR²、分類は正解率）
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	Estimator
	// Coef は学習された係数を特徴量の順に返す
	Coef() []float64
	// Intercept は学習された切片を返す
	Intercept() float64
}

// Classifier は確率を出力できる分類器
type Classifier interface {
	Estimator
	Scorer

	// PredictProba は各クラスの確率を返す（列はClasses()の順）
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes は学習時に観測したクラスラベルを昇順で返す
	Classes() []float64
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}
