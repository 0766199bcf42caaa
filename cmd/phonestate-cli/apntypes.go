package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

func newApnTypesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apn-types <mask>",
		Short: "Render an APN type bitmask",
		Long: `Render an APN type bitmask as a comma-joined label list.
The mask may be decimal, hexadecimal (0x...) or binary (0b...).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mask, err := strconv.ParseUint(args[0], 0, 32)
			if err != nil {
				return fmt.Errorf("invalid mask %q: %w", args[0], err)
			}
			label := telephony.ApnTypesString(telephony.ApnType(mask))
			if label == "" {
				label = "(none)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), label)
			return nil
		},
	}

	return cmd
}
