// Package dataset provides an in-memory tabular dataset with named numeric
// and categorical columns, plus a seeded synthetic data generator.
//
// A Frame is backed by a gota dataframe.DataFrame: numeric columns are
// series.Float and categorical columns are series.String. Nulls are gota NA
// elements. They read back as NaN from numeric columns and as the empty
// string from categorical ones.
package dataset

import (
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	mlerrors "github.com/YuminosukeSato/mlworkflow/pkg/errors"
	"github.com/YuminosukeSato/mlworkflow/preprocessing"
)

// Kind is the storage type of a column.
type Kind int

const (
	// Numeric columns hold float64 values; NaN marks a null.
	Numeric Kind = iota
	// Categorical columns hold string values; "" marks a null.
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

func kindOf(t series.Type) Kind {
	if t == series.String {
		return Categorical
	}
	return Numeric
}

// na is the record gota parses as a missing element.
const na = "NaN"

// floatSeries builds a series.Float column whose NaN values are NA elements.
func floatSeries(name string, values []float64) series.Series {
	s := series.New(values, series.Float, name)
	for i, v := range values {
		if math.IsNaN(v) {
			s.Elem(i).Set(na)
		}
	}
	return s
}

// stringSeries builds a series.String column whose "" values are NA elements.
func stringSeries(name string, values []string) series.Series {
	records := make([]string, len(values))
	for i, v := range values {
		if v == "" {
			v = na
		}
		records[i] = v
	}
	return series.New(records, series.String, name)
}

// Column is a read-only snapshot of one named column.
type Column struct {
	Name string
	Kind Kind
	s    series.Series
}

// Len returns the number of values in the column.
func (c *Column) Len() int { return c.s.Len() }

// IsNull reports whether row i is null.
func (c *Column) IsNull(i int) bool { return c.s.Elem(i).IsNA() }

// Float64s returns the values of a numeric column with NaN for nulls.
func (c *Column) Float64s() []float64 {
	if c.Kind != Numeric {
		return nil
	}
	return c.s.Float()
}

// Strings returns the values of a categorical column with "" for nulls.
func (c *Column) Strings() []string {
	if c.Kind != Categorical {
		return nil
	}
	out := c.s.Records()
	for i, isNA := range c.s.IsNaN() {
		if isNA {
			out[i] = ""
		}
	}
	return out
}

func (c *Column) format(i int) string {
	e := c.s.Elem(i)
	if e.IsNA() {
		return na
	}
	if c.Kind == Categorical {
		return e.String()
	}
	return fmt.Sprintf("%.4g", e.Float())
}

// Frame is an ordered collection of equal-length named columns.
// The zero value is an empty frame ready to use.
type Frame struct {
	df dataframe.DataFrame
}

// NewFrame returns an empty frame.
func NewFrame() *Frame {
	return &Frame{}
}

// FromDataFrame wraps an existing gota dataframe. Only float and string
// columns are accepted.
func FromDataFrame(df dataframe.DataFrame) (*Frame, error) {
	if df.Err != nil {
		return nil, mlerrors.Wrap(df.Err, "FromDataFrame")
	}
	for j, t := range df.Types() {
		if t != series.Float && t != series.String {
			return nil, mlerrors.NewValidationError(df.Names()[j], "column must be float or string", string(t))
		}
	}
	return &Frame{df: df.Copy()}, nil
}

// DataFrame returns a copy of the underlying gota dataframe.
func (f *Frame) DataFrame() dataframe.DataFrame { return f.df.Copy() }

func (f *Frame) has(name string) bool {
	for _, n := range f.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// mutate adds s, or replaces the column of the same name.
func (f *Frame) mutate(op string, s series.Series) error {
	if f.df.Ncol() == 0 {
		df := dataframe.New(s)
		if df.Err != nil {
			return mlerrors.Wrap(df.Err, op)
		}
		f.df = df
		return nil
	}
	if s.Len() != f.df.Nrow() {
		return mlerrors.NewDimensionError(op, f.df.Nrow(), s.Len(), 0)
	}
	next := f.df.Mutate(s)
	if next.Err != nil {
		return mlerrors.Wrap(next.Err, op)
	}
	f.df = next
	return nil
}

func (f *Frame) add(op string, s series.Series) error {
	if f.has(s.Name) {
		return mlerrors.NewValidationError("name", "column already exists", s.Name)
	}
	return f.mutate(op, s)
}

// AddNumeric appends a numeric column. The values are copied.
func (f *Frame) AddNumeric(name string, values []float64) error {
	return f.add("Frame.AddNumeric", floatSeries(name, values))
}

// AddCategorical appends a categorical column. The values are copied.
func (f *Frame) AddCategorical(name string, values []string) error {
	return f.add("Frame.AddCategorical", stringSeries(name, values))
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return f.df.Nrow() }

// Shape returns (rows, columns).
func (f *Frame) Shape() (int, int) { return f.df.Dims() }

// Names returns the column names in declaration order.
func (f *Frame) Names() []string { return f.df.Names() }

// Column looks up a column by name.
func (f *Frame) Column(name string) (*Column, error) {
	if !f.has(name) {
		return nil, mlerrors.NewValidationError("column", "no such column", name)
	}
	s := f.df.Col(name)
	return &Column{Name: name, Kind: kindOf(s.Type()), s: s}, nil
}

// Float64s returns a copy of the named numeric column.
func (f *Frame) Float64s(name string) ([]float64, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Numeric {
		return nil, mlerrors.NewCategoricalFeatureError("Frame.Float64s", name)
	}
	return c.Float64s(), nil
}

// SetFloat64s replaces the values of a numeric column.
func (f *Frame) SetFloat64s(name string, values []float64) error {
	c, err := f.Column(name)
	if err != nil {
		return err
	}
	if c.Kind != Numeric {
		return mlerrors.NewCategoricalFeatureError("Frame.SetFloat64s", name)
	}
	return f.mutate("Frame.SetFloat64s", floatSeries(name, values))
}

// Vector returns the named numeric column as a vector.
func (f *Frame) Vector(name string) (*mat.VecDense, error) {
	values, err := f.Float64s(name)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, mlerrors.NewModelError("Frame.Vector", "empty data", mlerrors.ErrEmptyData)
	}
	return mat.NewVecDense(len(values), values), nil
}

// Matrix returns the named columns as a rows×len(names) matrix. With no
// names every column is used. Any categorical column yields a
// CategoricalFeatureError; nulls are carried through as NaN.
func (f *Frame) Matrix(names ...string) (*mat.Dense, error) {
	if len(names) == 0 {
		names = f.Names()
	}
	if f.NumRows() == 0 || len(names) == 0 {
		return nil, mlerrors.NewModelError("Frame.Matrix", "empty data", mlerrors.ErrEmptyData)
	}
	for _, name := range names {
		if !f.has(name) {
			return nil, mlerrors.NewValidationError("column", "no such column", name)
		}
	}
	sel := f.df.Select(names)
	if sel.Err != nil {
		return nil, mlerrors.Wrap(sel.Err, "Frame.Matrix")
	}
	for j, t := range sel.Types() {
		if t != series.Float {
			return nil, mlerrors.NewCategoricalFeatureError("Frame.Matrix", names[j])
		}
	}

	m := mat.NewDense(sel.Nrow(), len(names), nil)
	for j := range names {
		m.SetCol(j, sel.Col(names[j]).Float())
	}
	return m, nil
}

// NullCount returns the number of null entries in the named column.
func (f *Frame) NullCount(name string) (int, error) {
	rows, err := f.MissingRows(name)
	return len(rows), err
}

// NullCounts returns the null count of every column.
func (f *Frame) NullCounts() map[string]int {
	counts := make(map[string]int, f.df.Ncol())
	for _, name := range f.Names() {
		counts[name], _ = f.NullCount(name)
	}
	return counts
}

// MissingRows returns the ascending row indices where the column is null.
func (f *Frame) MissingRows(name string) ([]int, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	var rows []int
	for i, isNA := range c.s.IsNaN() {
		if isNA {
			rows = append(rows, i)
		}
	}
	return rows, nil
}

// InjectMissing sets the null sentinel at the given rows.
func (f *Frame) InjectMissing(name string, rows []int) error {
	c, err := f.Column(name)
	if err != nil {
		return err
	}
	n := f.NumRows()
	for _, r := range rows {
		if r < 0 || r >= n {
			return mlerrors.NewValidationError("rows", fmt.Sprintf("row index out of range [0, %d)", n), r)
		}
	}
	// c.s is a copy made by dataframe.Col, so it can be edited before the swap.
	for _, r := range rows {
		c.s.Elem(r).Set(na)
	}
	return f.mutate("Frame.InjectMissing", c.s)
}

// LabelEncode converts a categorical column in place to integer codes.
// Classes are sorted lexicographically; the returned slice maps code to
// class. Nulls stay null.
func (f *Frame) LabelEncode(name string) ([]string, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Categorical {
		return nil, mlerrors.NewValidationError("column", "column is not categorical", name)
	}

	enc := preprocessing.NewLabelEncoder()
	encoded, err := enc.FitTransform(c.Strings())
	if err != nil {
		return nil, mlerrors.Wrapf(err, "label encoding column %q", name)
	}
	if err := f.mutate("Frame.LabelEncode", floatSeries(name, encoded)); err != nil {
		return nil, err
	}
	return enc.Classes(), nil
}

// Row gives read access to one row while deriving a column.
type Row struct {
	cols map[string]*Column
	i    int
}

// Index returns the row position.
func (r Row) Index() int { return r.i }

func (r Row) column(name string) *Column {
	c, ok := r.cols[name]
	if !ok {
		panic(fmt.Sprintf("dataset: no such column %q", name))
	}
	return c
}

// Float returns the numeric value of the named column (NaN when null).
// It panics on unknown or categorical columns, which is a programming error.
func (r Row) Float(name string) float64 {
	c := r.column(name)
	if c.Kind != Numeric {
		panic(fmt.Sprintf("dataset: column %q is categorical", name))
	}
	return c.s.Elem(r.i).Float()
}

// String returns the categorical value of the named column ("" when null).
func (r Row) String(name string) string {
	c := r.column(name)
	if c.Kind == Categorical {
		if c.IsNull(r.i) {
			return ""
		}
		return c.s.Elem(r.i).String()
	}
	return c.format(r.i)
}

// Derive appends a numeric column computed row-wise. Unknown columns
// referenced by fn are reported as a ValidationError.
func (f *Frame) Derive(name string, fn func(r Row) float64) (err error) {
	if f.has(name) {
		return mlerrors.NewValidationError("name", "column already exists", name)
	}
	cols := make(map[string]*Column, f.df.Ncol())
	for _, n := range f.Names() {
		cols[n], _ = f.Column(n)
	}
	values := make([]float64, f.NumRows())
	defer func() {
		if r := recover(); r != nil {
			err = mlerrors.NewValidationError("fn", fmt.Sprint(r), name)
		}
	}()
	for i := range values {
		values[i] = fn(Row{cols: cols, i: i})
	}
	return f.mutate("Frame.Derive", floatSeries(name, values))
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	if f.df.Ncol() == 0 {
		return NewFrame()
	}
	return &Frame{df: f.df.Copy()}
}

// Head renders the first n rows as an aligned text table.
func (f *Frame) Head(n int) string {
	if n > f.NumRows() {
		n = f.NumRows()
	}
	names := f.Names()
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "\t%s\t\n", strings.Join(names, "\t"))
	if n > 0 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		sub := f.df.Subset(idx)
		cols := make([]*Column, len(names))
		for j, name := range names {
			s := sub.Col(name)
			cols[j] = &Column{Name: name, Kind: kindOf(s.Type()), s: s}
		}
		for i := 0; i < n; i++ {
			cells := make([]string, len(cols))
			for j, c := range cols {
				cells[j] = c.format(i)
			}
			fmt.Fprintf(w, "%d\t%s\t\n", i, strings.Join(cells, "\t"))
		}
	}
	_ = w.Flush()
	return sb.String()
}
