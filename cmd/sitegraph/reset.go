package main

import (
	"fmt"

	"github.com/fwojciec/sitegraph"
)

// Run executes the reset command.
func (c *ResetCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return sitegraph.Errorf(sitegraph.EINVALID, "use --force to confirm deletion")
	}

	if err := deps.Resetter.Reset(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitegraph.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, "Deleted all nodes and relationships")
	return nil
}
