package model_selection

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mlworkflow/pkg/errors"
)

// Splitter defines interface for cross-validation splitters
type Splitter interface {
	// Split returns one Fold per split. y may be nil for splitters that ignore labels.
	Split(X, y mat.Matrix) ([]Fold, error)
	GetNSplits() int
}

// Fold represents a single fold in cross-validation
type Fold struct {
	Train []int
	Test  []int
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int, shuffle bool, seed uint64) *KFold {
	return &KFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// GetNSplits returns the number of splits
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

func checkSplits(nSplits, nSamples int) error {
	if nSplits < 2 {
		return errors.NewValidationError("n_splits", "must be at least 2", nSplits)
	}
	if nSplits > nSamples {
		return errors.NewValidationError("n_splits", "cannot exceed the number of samples", nSplits)
	}
	return nil
}

// Split generates train/test indices for each fold.
// The first n%k folds hold one extra sample.
func (kf *KFold) Split(X, _ mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if err := checkSplits(kf.NSplits, nSamples); err != nil {
		return nil, err
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := newRand(kf.Seed)
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	assignment := make([]int, nSamples)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits
	current := 0
	for f := 0; f < kf.NSplits; f++ {
		size := foldSize
		if f < remainder {
			size++
		}
		for _, idx := range indices[current : current+size] {
			assignment[idx] = f
		}
		current += size
	}
	return buildFolds(assignment, kf.NSplits), nil
}

// StratifiedKFold implements stratified k-fold cross-validation.
// Each class is dealt round-robin across folds, so per-class and total fold
// sizes differ by at most one.
type StratifiedKFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewStratifiedKFold creates a new stratified k-fold splitter
func NewStratifiedKFold(nSplits int, shuffle bool, seed uint64) *StratifiedKFold {
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// GetNSplits returns the number of splits
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates stratified train/test indices for each fold
func (skf *StratifiedKFold) Split(X, y mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if err := checkSplits(skf.NSplits, nSamples); err != nil {
		return nil, err
	}
	if y == nil {
		return nil, errors.NewValueError("StratifiedKFold.Split", "labels are required for stratification")
	}
	if yRows, _ := y.Dims(); yRows != nSamples {
		return nil, errors.NewDimensionError("StratifiedKFold.Split", nSamples, yRows, 0)
	}

	labels := make([]float64, nSamples)
	for i := range labels {
		labels[i] = y.At(i, 0)
	}
	_, members := groupByClass(labels)

	var r *rand.Rand
	if skf.Shuffle {
		r = newRand(skf.Seed)
	}

	assignment := make([]int, nSamples)
	next := 0
	for _, m := range members {
		if r != nil {
			r.Shuffle(len(m), func(i, j int) { m[i], m[j] = m[j], m[i] })
		}
		for _, idx := range m {
			assignment[idx] = next % skf.NSplits
			next++
		}
	}
	return buildFolds(assignment, skf.NSplits), nil
}

// buildFolds converts a fold assignment per sample into sorted index lists
func buildFolds(assignment []int, nSplits int) []Fold {
	folds := make([]Fold, nSplits)
	for idx, f := range assignment {
		for g := range folds {
			if g == f {
				folds[g].Test = append(folds[g].Test, idx)
			} else {
				folds[g].Train = append(folds[g].Train, idx)
			}
		}
	}
	for i := range folds {
		sort.Ints(folds[i].Test)
		sort.Ints(folds[i].Train)
	}
	return folds
}
