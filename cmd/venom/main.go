// Package main provides the venom command, which runs a spider described in YAML.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "venom",
		Short:         "Run step-chained spiders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewStepsCmd())

	return cmd
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
