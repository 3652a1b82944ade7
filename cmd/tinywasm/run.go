package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RI5255/tinywasm/harness"
)

var runCmd = &cobra.Command{
	Use:   "run <manifest.json>",
	Short: "Run a JSON test manifest: exit 0 iff every command passes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := harness.RunManifest(args[0])
		if results == nil {
			return err // failed before any command ran (bad path/JSON)
		}

		var total, passed, skipped int
		for _, r := range results {
			total++
			switch {
			case r.Skipped:
				skipped++
			case r.Err == nil:
				passed++
			}
		}
		fmt.Printf("%d/%d passed (%d skipped)\n", passed, total, skipped)
		return err
	},
}
