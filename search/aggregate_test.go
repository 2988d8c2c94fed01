package search

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTallyCountsAndEvents(t *testing.T) {
	t.Parallel()

	var matchOrder []string
	var lastCompleted, lastTotal int
	agg := newTally(4,
		func(path string) { matchOrder = append(matchOrder, path) },
		func(completed, total int) { lastCompleted, lastTotal = completed, total },
	)

	agg.record(FileResult{Path: "a.pdf", Matched: true})
	agg.record(FileResult{Path: "b.pdf"})
	agg.record(FileResult{Path: "c.pdf", Skipped: true, Err: fmt.Errorf("unreadable")})
	agg.record(FileResult{Path: "d.docx", Matched: true, Locators: []Locator{
		{Kind: UnitParagraph, Index: 1},
		{Kind: UnitTableCell, Index: 0},
	}})

	assert.Equal(t, []string{"a.pdf", "d.docx"}, matchOrder)
	assert.Equal(t, 4, lastCompleted)
	assert.Equal(t, 4, lastTotal)

	sum := agg.summarize("invoice", false)
	assert.Equal(t, "invoice", sum.Keyword)
	assert.False(t, sum.Cancelled)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 4, sum.Completed)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, []string{"a.pdf", "d.docx"}, sum.Matched)
	assert.Equal(t, 1, sum.Unmatched())
	assert.Equal(t, []Locator{
		{Kind: UnitParagraph, Index: 1},
		{Kind: UnitTableCell, Index: 0},
	}, sum.Locators)
	assert.Equal(t, 1.0, sum.Progress())
}

func TestTallyEmptyRunProgress(t *testing.T) {
	t.Parallel()

	sum := newTally(0, nil, nil).summarize("anything", false)
	assert.Equal(t, 0, sum.Total)
	assert.Equal(t, 1.0, sum.Progress())
}

func TestTallySummarizeCancelled(t *testing.T) {
	t.Parallel()

	agg := newTally(5, nil, nil)
	agg.record(FileResult{Path: "a.pdf", Matched: true})
	agg.record(FileResult{Path: "b.pdf", Skipped: true})

	sum := agg.summarize("tax", true)
	assert.True(t, sum.Cancelled)
	assert.Equal(t, 5, sum.Total)
	assert.Equal(t, 2, sum.Completed)
	assert.InDelta(t, 0.4, sum.Progress(), 1e-9)
}

func TestTallyConcurrentRecord(t *testing.T) {
	t.Parallel()

	const n = 200

	// Callbacks fire under the tally lock, so plain appends are safe here.
	// assert, not require: the callback runs on worker goroutines.
	var seen []int
	agg := newTally(n, nil, func(completed, total int) {
		assert.Equal(t, n, total)
		seen = append(seen, completed)
	})

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := FileResult{Path: fmt.Sprintf("doc-%03d.pdf", i)}
			switch i % 3 {
			case 0:
				res.Matched = true
			case 2:
				res.Skipped = true
			}
			agg.record(res)
		}(i)
	}
	wg.Wait()

	require.Len(t, seen, n)
	for i, completed := range seen {
		assert.Equal(t, i+1, completed, "progress went backwards at event %d", i)
	}

	sum := agg.summarize("x", false)
	assert.Equal(t, n, sum.Completed)
	assert.Equal(t, n, sum.Total)
	assert.Equal(t, sum.Completed, len(sum.Matched)+sum.Unmatched()+sum.Skipped)
	assert.Equal(t, 67, len(sum.Matched))
	assert.Equal(t, 66, sum.Skipped)
}
