package linear

// options は線形モデル共通の設定
type options struct {
	fitIntercept bool
	maxIter      int
	tol          float64
}

func defaultOptions() options {
	return options{
		fitIntercept: true,
		maxIter:      1000,
		tol:          1e-4,
	}
}

// Option is a function that configures LinearRegression, Ridge and Lasso.
type Option func(*options)

// WithFitIntercept sets whether to calculate the intercept.
// When false the data is assumed to be centered already.
func WithFitIntercept(fit bool) Option {
	return func(o *options) {
		o.fitIntercept = fit
	}
}

// WithMaxIter sets the maximum number of coordinate descent sweeps (Lasso only).
func WithMaxIter(n int) Option {
	return func(o *options) {
		o.maxIter = n
	}
}

// WithTol sets the tolerance for the optimization (Lasso only).
func WithTol(tol float64) Option {
	return func(o *options) {
		o.tol = tol
	}
}
