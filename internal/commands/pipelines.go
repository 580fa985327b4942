package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mlworkflow/pkg/log"
	"github.com/YuminosukeSato/mlworkflow/plotting"
	"github.com/YuminosukeSato/mlworkflow/workflow"
)

func (a *app) newCrossValCommand() *cobra.Command {
	var (
		folds    int
		stratify bool
		scaling  string
		plotPath string
	)
	cmd := &cobra.Command{
		Use:   "crossval",
		Short: "Cross-validate a logistic regression on the patient risk dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.CrossValidation()
			f := cmd.Flags()
			if f.Changed("folds") {
				cfg.Folds = folds
			}
			if f.Changed("stratify") {
				cfg.Stratify = stratify
			}
			if f.Changed("scaling") {
				cfg.Scaling = scaling
			}
			return a.crossValidate(cmd.Context(), cmd.OutOrStdout(), cfg, plotPath)
		},
	}
	cmd.Flags().IntVarP(&folds, "folds", "k", 0, "number of folds (overrides config)")
	cmd.Flags().BoolVar(&stratify, "stratify", true, "stratify the split and the folds by label (overrides config)")
	cmd.Flags().StringVar(&scaling, "scaling", "", "feature scaling: standard, minmax or none (overrides config)")
	cmd.Flags().StringVar(&plotPath, "plot", "", "write a per-fold accuracy chart to this file (.png, .svg, .pdf)")
	return cmd
}

func (a *app) crossValidate(ctx context.Context, w io.Writer, cfg workflow.CrossValidationConfig, plotPath string) error {
	res, err := workflow.RunCrossValidation(ctx, cfg, a.runOptions()...)
	if err != nil {
		return err
	}
	if err := res.Render(w); err != nil {
		return err
	}
	if plotPath == "" {
		return nil
	}
	p, err := plotting.FoldScoreChart("Cross-validation accuracy", res.FoldScores, res.MeanScore)
	if err != nil {
		return err
	}
	if err := plotting.Save(p, plotPath); err != nil {
		return err
	}
	a.logger.Info("chart written", "path", plotPath, log.PipelineKey, log.PipelineCrossValidation)
	return nil
}

func (a *app) newRegularizeCommand() *cobra.Command {
	var (
		ridgeAlpha float64
		lassoAlpha float64
		plotPath   string
	)
	cmd := &cobra.Command{
		Use:   "regularize",
		Short: "Compare unregularized, ridge and lasso regression on the housing dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.RegularizationPipeline()
			f := cmd.Flags()
			if f.Changed("ridge-alpha") {
				cfg.RidgeAlpha = ridgeAlpha
			}
			if f.Changed("lasso-alpha") {
				cfg.LassoAlpha = lassoAlpha
			}
			return a.regularize(cmd.Context(), cmd.OutOrStdout(), cfg, plotPath)
		},
	}
	cmd.Flags().Float64Var(&ridgeAlpha, "ridge-alpha", 0, "L2 penalty strength (overrides config)")
	cmd.Flags().Float64Var(&lassoAlpha, "lasso-alpha", 0, "L1 penalty strength (overrides config)")
	cmd.Flags().StringVar(&plotPath, "plot", "", "write a coefficient bar chart to this file (.png, .svg, .pdf)")
	return cmd
}

func (a *app) regularize(ctx context.Context, w io.Writer, cfg workflow.RegularizationConfig, plotPath string) error {
	res, err := workflow.RunRegularization(ctx, cfg, a.runOptions()...)
	if err != nil {
		return err
	}
	if err := res.Render(w); err != nil {
		return err
	}
	if plotPath == "" {
		return nil
	}
	series := make([]plotting.Series, len(res.Variants))
	for i, v := range res.Variants {
		series[i] = plotting.Series{Name: v.Name, Values: v.Coef}
	}
	p, err := plotting.CoefficientChart("Coefficients by regularization", res.Features, series)
	if err != nil {
		return err
	}
	if err := plotting.Save(p, plotPath); err != nil {
		return err
	}
	a.logger.Info("chart written", "path", plotPath, log.PipelineKey, log.PipelineRegularization)
	return nil
}

func (a *app) newImputeCommand() *cobra.Command {
	var (
		strategy  string
		neighbors int
		weights   string
		head      int
	)
	cmd := &cobra.Command{
		Use:   "impute",
		Short: "Inject missing values into the applicant dataset and impute them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.ImputationPipeline()
			f := cmd.Flags()
			if f.Changed("strategy") {
				cfg.Strategy = strategy
			}
			if f.Changed("neighbors") {
				cfg.Neighbors = neighbors
			}
			if f.Changed("weights") {
				cfg.Weights = weights
			}
			return a.impute(cmd.Context(), cmd.OutOrStdout(), cfg, head)
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "imputation strategy: knn or regression (overrides config)")
	cmd.Flags().IntVar(&neighbors, "neighbors", 0, "neighbours used by the knn strategy (overrides config)")
	cmd.Flags().StringVar(&weights, "weights", "", "knn donor weighting: uniform or distance (overrides config)")
	cmd.Flags().IntVar(&head, "head", 0, "also print the first n rows of the imputed dataset")
	return cmd
}

func (a *app) impute(ctx context.Context, w io.Writer, cfg workflow.ImputationConfig, head int) error {
	res, err := workflow.RunImputation(ctx, cfg, a.runOptions()...)
	if err != nil {
		return err
	}
	if err := res.Render(w); err != nil {
		return err
	}
	if head > 0 {
		fmt.Fprintln(w)
		fmt.Fprint(w, res.Frame.Head(head))
	}
	return nil
}

func (a *app) newAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run the three workflows one after another with the configured settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, w := cmd.Context(), cmd.OutOrStdout()
			if err := a.crossValidate(ctx, w, a.cfg.CrossValidation(), ""); err != nil {
				return err
			}
			fmt.Fprintln(w)
			if err := a.regularize(ctx, w, a.cfg.RegularizationPipeline(), ""); err != nil {
				return err
			}
			fmt.Fprintln(w)
			return a.impute(ctx, w, a.cfg.ImputationPipeline(), 0)
		},
	}
}
