package search

import "sync"

// tally accumulates task results for one run behind a single mutex. Match
// and progress callbacks fire under the same lock, so observers always see
// counts advance monotonically and never see events out of order.
type tally struct {
	mu sync.Mutex

	total     int
	completed int
	skipped   int
	matched   []string
	locators  []Locator

	onMatch    func(path string)
	onProgress func(completed, total int)
}

func newTally(total int, onMatch func(string), onProgress func(int, int)) *tally {
	return &tally{total: total, onMatch: onMatch, onProgress: onProgress}
}

// record folds one task result into the running totals and fires callbacks.
func (t *tally) record(res FileResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.completed++
	switch {
	case res.Skipped:
		t.skipped++
	case res.Matched:
		t.matched = append(t.matched, res.Path)
		t.locators = append(t.locators, res.Locators...)
		if t.onMatch != nil {
			t.onMatch(res.Path)
		}
	}
	if t.onProgress != nil {
		t.onProgress(t.completed, t.total)
	}
}

// summarize closes the run out into its terminal Summary.
func (t *tally) summarize(keyword string, cancelled bool) *Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return &Summary{
		Keyword:   keyword,
		Cancelled: cancelled,
		Total:     t.total,
		Completed: t.completed,
		Skipped:   t.skipped,
		Matched:   t.matched,
		Locators:  t.locators,
	}
}
