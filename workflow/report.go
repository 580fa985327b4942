package workflow

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/mat"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatBalance(shares []ClassShare) string {
	parts := make([]string, len(shares))
	for i, s := range shares {
		parts[i] = fmt.Sprintf("%g: %d (%.1f%%)", s.Label, s.Count, 100*s.Fraction)
	}
	return strings.Join(parts, ", ")
}

// Render writes a text report of the cross-validation run.
func (r *CrossValidationResult) Render(w io.Writer) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Cross-validation (run %s)\n", r.RunID)
	fmt.Fprintf(tw, "dataset\t%d rows x %d columns\n", r.Rows, r.Columns)
	fmt.Fprintf(tw, "features\t%s\n", strings.Join(r.Features, ", "))
	fmt.Fprintf(tw, "train\t%d rows\t%s\n", r.TrainSize, formatBalance(r.TrainBalance))
	fmt.Fprintf(tw, "test\t%d rows\t%s\n", r.TestSize, formatBalance(r.TestBalance))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "fold\taccuracy")
	for i, s := range r.FoldScores {
		fmt.Fprintf(tw, "%d\t%.4f\n", i+1, s)
	}
	fmt.Fprintf(tw, "mean\t%.4f (+/- %.4f)\n", r.MeanScore, r.StdScore)
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "test accuracy\t%.4f\n", r.TestAccuracy)
	fmt.Fprintf(tw, "test AUC\t%.4f\n", r.AUC)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "feature\tcoefficient")
	for i, name := range r.Features {
		if i < len(r.Coef) {
			fmt.Fprintf(tw, "%s\t%+.4f\n", name, r.Coef[i])
		}
	}
	fmt.Fprintf(tw, "(intercept)\t%+.4f\n", r.Intercept)
	if err := tw.Flush(); err != nil {
		return err
	}

	if r.Report != nil {
		if _, err := fmt.Fprintf(w, "\n%s", r.Report.String()); err != nil {
			return err
		}
	}
	if r.Confusion != nil {
		if _, err := fmt.Fprintf(w, "\nconfusion matrix (rows: true %v, columns: predicted)\n%v\n",
			r.Labels, mat.Formatted(r.Confusion)); err != nil {
			return err
		}
	}
	return nil
}

// Render writes a text report of the regularization comparison, including
// the per-feature coefficient table.
func (r *RegularizationResult) Render(w io.Writer) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Regularization comparison (run %s)\n", r.RunID)
	fmt.Fprintf(tw, "target\t%s\n", r.Target)
	fmt.Fprintf(tw, "train / test\t%d / %d rows\n", r.TrainSize, r.TestSize)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "model\talpha\tMSE\tRMSE\tR2\tzero coefs")
	for _, v := range r.Variants {
		fmt.Fprintf(tw, "%s\t%g\t%.2f\t%.2f\t%.4f\t%d\n", v.Name, v.Alpha, v.MSE, v.RMSE, v.R2, v.Zeros)
	}
	fmt.Fprintln(tw)

	header := []string{"feature"}
	for _, v := range r.Variants {
		header = append(header, v.Name)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for i, name := range r.Features {
		row := []string{name}
		for _, v := range r.Variants {
			row = append(row, fmt.Sprintf("%.2f", v.Coef[i]))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	row := []string{"(intercept)"}
	for _, v := range r.Variants {
		row = append(row, fmt.Sprintf("%.2f", v.Intercept))
	}
	fmt.Fprintln(tw, strings.Join(row, "\t"))
	return tw.Flush()
}

// Render writes a text report of the imputation run.
func (r *ImputationResult) Render(w io.Writer) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Imputation (run %s, strategy %s)\n", r.RunID, r.Strategy)
	fmt.Fprintf(tw, "rows\t%d before, %d after\n", r.RowsBefore, r.RowsAfter)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "column\tnulls before\tnulls after")
	for _, n := range r.Nulls {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", n.Column, n.Before, n.After)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "column\timputed\tmin\tmax\tmean\tobserved min\tobserved max\tobserved mean")
	for _, c := range r.Columns {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			c.Column, len(c.Rows), c.Min, c.Max, c.Mean, c.ObservedMin, c.ObservedMax, c.ObservedMean)
	}
	return tw.Flush()
}
