// Package parallel provides chunked parallel loops over an index range.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultThreshold is the item count below which loops run sequentially.
// Pairwise distance rows are cheap, so small tables are not worth a goroutine.
const DefaultThreshold = 256

// chunks divides items into at most runtime.NumCPU() contiguous ranges.
func chunks(items int) [][2]int {
	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	chunkSize := (items + numWorkers - 1) / numWorkers

	ranges := make([][2]int, 0, numWorkers)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

// Parallelize divides the specified total number (items) according to the number of CPU cores,
// and executes fn in parallel for each range [start, end).
// fn must only write to state owned by its range.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	var wg sync.WaitGroup
	for _, r := range chunks(items) {
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(r[0], r[1])
	}
	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold.
// If below threshold, fn is called once with the full range.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForEachChunk is the error-returning variant of ParallelizeWithThreshold.
// The first error cancels the context passed to the remaining chunks and is returned.
func ForEachChunk(ctx context.Context, items, threshold int, fn func(ctx context.Context, start, end int) error) error {
	if items <= 0 {
		return nil
	}
	if items <= threshold {
		return fn(ctx, 0, items)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range chunks(items) {
		s, e := r[0], r[1]
		g.Go(func() error {
			return fn(gctx, s, e)
		})
	}
	return g.Wait()
}
