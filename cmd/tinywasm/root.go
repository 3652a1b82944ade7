package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RI5255/tinywasm/log"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "tinywasm",
	Short:         "tinywasm runs JSON test manifests against a minimal WebAssembly core",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			return nil
		}
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		log.Set(l)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log decode/instantiate/invoke steps to stderr")
	rootCmd.AddCommand(runCmd)
}
