package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"docseek/search"
)

// runPlain executes the search with line-oriented output: matched paths
// stream to stdout as they arrive, the accounting goes to stderr. Exit code
// 0 on a finished run, 1 on a request or configuration error, 130 when
// cancelled.
func runPlain(ctx context.Context, engine *search.Engine, req search.Request) int {
	engine.OnMatch = func(path string) {
		fmt.Println(path)
	}

	sum, err := engine.Run(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrEmptyKeyword):
			fmt.Fprintln(os.Stderr, "Error: keyword is empty")
		case errors.Is(err, search.ErrOpticalUnavailable):
			fmt.Fprintf(os.Stderr, "Error: %v (install tesseract or pass --text-only)\n", err)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}

	for _, loc := range sum.Locators {
		fmt.Printf("%s: %s\n", req.Target, loc)
	}

	state := "completed"
	if sum.Cancelled {
		state = "cancelled"
	}
	fmt.Fprintf(os.Stderr, "%s: %d candidates, %d searched, %d matched, %d skipped\n",
		state, sum.Total, sum.Completed, len(sum.Matched), sum.Skipped)

	if sum.Cancelled {
		return 130
	}
	return 0
}
