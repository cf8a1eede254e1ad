package main

import (
	"fmt"

	"github.com/fwojciec/pagelens"
)

// Run executes the capture command.
func (c *CaptureCmd) Run(deps *Dependencies) error {
	snap, err := deps.Service.Capture(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagelens.ErrorMessage(err))
		return err
	}

	if c.Out != "" {
		return c.save(deps, snap)
	}

	content, err := snap.View(pagelens.View(c.View))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagelens.ErrorMessage(err))
		return err
	}
	fmt.Fprintln(deps.Stdout, content)
	return nil
}

func (c *CaptureCmd) save(deps *Dependencies, snap *pagelens.Snapshot) error {
	if err := deps.Store.Save(deps.Ctx, snap); err != nil {
		_ = deps.Store.Abort()
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagelens.ErrorMessage(err))
		return err
	}
	if err := deps.Store.Commit(); err != nil {
		_ = deps.Store.Abort()
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagelens.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Saved %s to %s\n", snap.URL, c.Out)
	return nil
}
