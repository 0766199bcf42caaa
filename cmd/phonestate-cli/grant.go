package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	internalpermission "github.com/rmacdonaldsmith/phonestate-go/internal/permission"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
)

func newGrantCommand() *cobra.Command {
	var (
		pkg    string
		tiers  []string
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Mint a permission grant token",
		Long: `Grant signs a token listing permission tiers for a caller package.
A registry configured with the same secret (PHONESTATE_GRANT_SECRET) accepts
the token when the caller presents it as its credential.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = config.GrantSecret
			}
			return runGrant(cmd, pkg, tiers, secret, ttl)
		},
	}

	cmd.Flags().StringVar(&pkg, "package", "", "Caller package the grant is issued to (required)")
	cmd.Flags().StringSliceVar(&tiers, "tier", nil, "Permission tier to grant, repeatable (required)")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to PHONESTATE_GRANT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", internalpermission.DefaultGrantTTL, "Token lifetime")

	// Mark package and tier as required
	for _, name := range []string{"package", "tier"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("Failed to mark %s flag as required: %v", name, err))
		}
	}

	return cmd
}

func runGrant(cmd *cobra.Command, pkg string, names []string, secret string, ttl time.Duration) error {
	authority, err := internalpermission.NewJWTAuthority(secret)
	if err != nil {
		return err
	}

	tiers := make([]permission.Tier, 0, len(names))
	for _, name := range names {
		tier, err := permission.ParseTier(name)
		if err != nil {
			return err
		}
		tiers = append(tiers, tier)
	}

	token, expiresAt, err := authority.IssueGrant(pkg, tiers, ttl)
	if err != nil {
		return fmt.Errorf("failed to issue grant: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, token)
	fmt.Fprintf(cmd.ErrOrStderr(), "✅ Grant for '%s' expires at %s\n", pkg, expiresAt.Format(time.RFC3339))
	return nil
}
