package dataset

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics of the non-null values of a numeric column.
type Summary struct {
	Column string
	Count  int
	Nulls  int
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
}

// observed returns the non-null values of a numeric column.
func observed(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Summarize computes a Summary for a slice that may contain NaN nulls.
func Summarize(name string, values []float64) Summary {
	obs := observed(values)
	s := Summary{Column: name, Count: len(obs), Nulls: len(values) - len(obs)}
	if len(obs) == 0 {
		s.Mean, s.Std, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	col := series.Floats(obs)
	s.Mean = col.Mean()
	s.Std = 0
	if len(obs) > 1 {
		s.Std = col.StdDev()
	}
	s.Min = col.Min()
	s.Max = col.Max()
	return s
}

// Describe returns a Summary for every numeric column. Categorical columns are skipped.
func (f *Frame) Describe() []Summary {
	var out []Summary
	for j, t := range f.df.Types() {
		if t != series.Float {
			continue
		}
		name := f.df.Names()[j]
		out = append(out, Summarize(name, f.df.Col(name).Float()))
	}
	return out
}

// FormatSummaries renders summaries as an aligned table.
func FormatSummaries(summaries []Summary) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "column\tcount\tnulls\tmean\tstd\tmin\tmax\t")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.4g\t%.4g\t%.4g\t%.4g\t\n", s.Column, s.Count, s.Nulls, s.Mean, s.Std, s.Min, s.Max)
	}
	_ = w.Flush()
	return sb.String()
}

// Correlation returns the Pearson correlation matrix of the named numeric
// columns (all numeric columns when none are given). Each pair uses only rows
// where both values are present; pairs with fewer than two such rows are NaN.
func (f *Frame) Correlation(names ...string) ([]string, *mat.SymDense, error) {
	if len(names) == 0 {
		for j, t := range f.df.Types() {
			if t == series.Float {
				names = append(names, f.df.Names()[j])
			}
		}
	}
	cols := make([][]float64, len(names))
	for j, name := range names {
		values, err := f.Float64s(name)
		if err != nil {
			return nil, nil, err
		}
		cols[j] = values
	}

	corr := mat.NewSymDense(len(names), nil)
	for a := range cols {
		for b := a; b < len(cols); b++ {
			if a == b {
				corr.SetSym(a, b, 1)
				continue
			}
			var x, y []float64
			for i := range cols[a] {
				if math.IsNaN(cols[a][i]) || math.IsNaN(cols[b][i]) {
					continue
				}
				x = append(x, cols[a][i])
				y = append(y, cols[b][i])
			}
			r := math.NaN()
			if len(x) >= 2 {
				r = stat.Correlation(x, y, nil)
			}
			corr.SetSym(a, b, r)
		}
	}
	return names, corr, nil
}

// FormatCorrelation renders a correlation matrix with row and column labels.
func FormatCorrelation(names []string, corr mat.Symmetric) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "\t%s\t\n", strings.Join(names, "\t"))
	for i, name := range names {
		cells := make([]string, len(names))
		for j := range names {
			cells[j] = fmt.Sprintf("%.3f", corr.At(i, j))
		}
		fmt.Fprintf(w, "%s\t%s\t\n", name, strings.Join(cells, "\t"))
	}
	_ = w.Flush()
	return sb.String()
}
