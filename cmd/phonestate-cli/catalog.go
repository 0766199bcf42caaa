package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	internalpermission "github.com/rmacdonaldsmith/phonestate-go/internal/permission"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the event catalog",
		Long:  `Catalog lists every event kind with its id, scope and required permission tier.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEVENT\tSCOPE\tPERMISSION")
			for _, kind := range telephony.AllEventKinds() {
				scope := kind.Scope().String()
				if kind.MultiValued() {
					scope += " (per APN)"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", int(kind), kind, scope, internalpermission.RequiredTier(kind))
			}
			return w.Flush()
		},
	}

	return cmd
}
