package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"Fpublisher/internal/platform"

	"github.com/spf13/cobra"
)

func newPlatformsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List supported platforms and their steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printPlatforms(cmd.OutOrStdout(), platform.DefaultRegistry())
		},
	}
}

func printPlatforms(out io.Writer, registry *platform.Registry) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLATFORM\tNAME\tSTEPS")
	for _, a := range registry.List() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.Platform, a.Name, strings.Join(a.StepNames(), ","))
	}
	return w.Flush()
}
