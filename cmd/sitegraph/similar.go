package main

import (
	"fmt"

	"github.com/fwojciec/sitegraph"
)

// Run executes the similar command.
func (c *SimilarCmd) Run(deps *Dependencies) error {
	matches, err := deps.Matcher.Match(deps.Ctx, c.Query, nil, c.Limit)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitegraph.ErrorMessage(err))
		return err
	}

	if len(matches) == 0 {
		fmt.Fprintln(deps.Stdout, "No similar pages found. Crawl with an embedder first.")
		return nil
	}

	for _, m := range matches {
		fmt.Fprintf(deps.Stdout, "%.3f  %s  %s\n", m.Score, m.NodeID, m.Title)
	}
	return nil
}
