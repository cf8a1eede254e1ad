package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/pagelens"
)

// Run executes the extract command. The result is printed as a JSON
// object; fields whose selector did not match are null.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	result, err := deps.Service.Extract(deps.Ctx, c.URL, pagelens.FieldSelectors(c.Selectors))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pagelens.ErrorMessage(err))
		return err
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
