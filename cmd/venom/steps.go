package main

import (
	"fmt"
	"strings"

	"github.com/ShroXd/venom/internal/spider"
	"github.com/spf13/cobra"
)

func NewStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the steps of the built-in spider and their settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for def := spider.NewDefinitions(&spider.Config{}); def != nil; def = def.Next {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n  fields: %s\n", def.Name, def.Doc, strings.Join(def.Fields(), ", "))
			}
			return nil
		},
	}
}
