package domdec

import (
	"sync"
	"testing"
)

func TestSingleRank(t *testing.T) {
	dec := SingleRank{N: 7}

	a0, a1 := dec.HomeRange()
	if a0 != 0 || a1 != 7 {
		t.Errorf("HomeRange: got [%d,%d)", a0, a1)
	}
	if dec.GlobalIndex(3) != 3 {
		t.Error("GlobalIndex should be identity")
	}

	vals := []float64{1, 2, 3}
	dec.CollectiveSum(vals)
	if vals[0] != 1 || vals[1] != 2 || vals[2] != 3 {
		t.Errorf("single-rank sum must be identity, got %v", vals)
	}

	if !Single(dec) || !Single(nil) {
		t.Error("Single misclassified")
	}
}

func TestGroupCollectiveSum(t *testing.T) {
	const ranks = 4
	g := NewGroup(ranks)

	results := make([][]float64, ranks)
	var wg sync.WaitGroup
	for r := 0; r < ranks; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			m := g.Member(r, []int{r})
			vals := []float64{float64(r + 1), 1}
			m.CollectiveSum(vals)
			results[r] = vals
		}(r)
	}
	wg.Wait()

	for r := 0; r < ranks; r++ {
		if results[r][0] != 10 || results[r][1] != 4 {
			t.Errorf("rank %d: got %v want [10 4]", r, results[r])
		}
	}
}

func TestGroupRepeatedReductions(t *testing.T) {
	const ranks = 2
	g := NewGroup(ranks)

	var wg sync.WaitGroup
	errs := make(chan string, ranks)
	for r := 0; r < ranks; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			m := g.Member(r, nil)
			for round := 1; round <= 5; round++ {
				vals := []float64{float64(round)}
				m.CollectiveSum(vals)
				if vals[0] != float64(round*ranks) {
					errs <- "wrong reduction value"
					return
				}
			}
		}(r)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestOverAlloc(t *testing.T) {
	if OverAlloc(100) <= 100 {
		t.Error("OverAlloc must grow")
	}
	if OverAlloc(0) <= 0 {
		t.Error("OverAlloc of zero must still reserve room")
	}
}
