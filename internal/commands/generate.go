package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mlworkflow/dataset"
)

// defaultGenerateRows is used when neither --rows nor dataset.rows is set.
const defaultGenerateRows = 100

func (a *app) newGenerateCommand() *cobra.Command {
	var (
		head        int
		describe    bool
		correlation bool
	)
	cmd := &cobra.Command{
		Use:       "generate <patients|housing|applicants>",
		Short:     "Generate a preset dataset and print a preview",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"patients", "housing", "applicants"},
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := dataset.Preset(args[0])
			if err != nil {
				return err
			}
			rows := a.cfg.Dataset.Rows
			if rows == 0 {
				rows = defaultGenerateRows
			}
			frame, err := gen(rows, a.cfg.Dataset.Seed)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			n, m := frame.Shape()
			fmt.Fprintf(w, "%s: %d rows x %d columns (seed %d)\n\n", args[0], n, m, a.cfg.Dataset.Seed)
			if head > 0 {
				fmt.Fprint(w, frame.Head(head))
			}
			if describe {
				fmt.Fprintln(w)
				fmt.Fprint(w, dataset.FormatSummaries(frame.Describe()))
			}
			if correlation {
				names, corr, err := frame.Correlation()
				if err != nil {
					return err
				}
				fmt.Fprintln(w)
				fmt.Fprint(w, dataset.FormatCorrelation(names, corr))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&head, "head", 5, "number of rows to print")
	cmd.Flags().BoolVar(&describe, "describe", true, "print per-column summary statistics")
	cmd.Flags().BoolVar(&correlation, "correlation", false, "print the correlation table of the numeric columns")
	return cmd
}
