package parallel

import (
	"context"
	"errors"
	"testing"
)

func TestParallelizeCoversEveryIndexOnce(t *testing.T) {
	for _, items := range []int{0, 1, 7, 1000} {
		counts := make([]int, items)
		Parallelize(items, func(start, end int) {
			for i := start; i < end; i++ {
				counts[i]++
			}
		})
		for i, c := range counts {
			if c != 1 {
				t.Fatalf("items=%d: index %d visited %d times", items, i, c)
			}
		}
	}
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Errorf("expected full range, got [%d, %d)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

func TestForEachChunkPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := ForEachChunk(context.Background(), 1000, 1, func(ctx context.Context, start, end int) error {
		if start == 0 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	sum := make([]int, 50)
	err = ForEachChunk(context.Background(), 50, DefaultThreshold, func(ctx context.Context, start, end int) error {
		for i := start; i < end; i++ {
			sum[i] = i
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum[49] != 49 {
		t.Errorf("expected sum[49]=49, got %d", sum[49])
	}
}
