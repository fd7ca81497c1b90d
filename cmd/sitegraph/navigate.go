package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/sitegraph"
)

// Run executes the navigate command. The result is printed as JSON whether
// or not a route was found.
func (c *NavigateCmd) Run(deps *Dependencies) error {
	nav, err := deps.Navigator.Navigate(deps.Ctx, sitegraph.NavigationRequest{
		Query:    c.Query,
		StartID:  c.Start,
		Keywords: c.Keywords,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitegraph.ErrorMessage(err))
		return err
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(nav)
}
