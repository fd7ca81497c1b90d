package main

import (
	"fmt"

	"github.com/fwojciec/sitegraph"
)

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	stats, err := deps.Store.Stats(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitegraph.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Pages:          %d (%d crawled)\n", stats.Pages, stats.CrawledPages)
	fmt.Fprintf(deps.Stdout, "Elements:       %d\n", stats.Elements)
	fmt.Fprintf(deps.Stdout, "External links: %d\n", stats.ExternalLinks)
	fmt.Fprintln(deps.Stdout, "Relationships:")
	for _, rel := range sitegraph.RelationTypes() {
		fmt.Fprintf(deps.Stdout, "  %-18s %d\n", rel, stats.Relationships[rel])
	}
	return nil
}
