package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/phonestate-go/internal/scenario"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario file against a fresh registry",
		Long: `Run applies every step of a scenario file to a new registry and
checks its expectations. The command fails when any expectation does not hold.
The --slots flag, when given, overrides the slot count of the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd, args[0])
		},
	}

	return cmd
}

func runScenario(cmd *cobra.Command, path string) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("slots") {
		slots := config.ActiveSlots
		sc.Slots = &slots
	}

	out := cmd.OutOrStdout()
	name := sc.Name
	if name == "" {
		name = path
	}
	fmt.Fprintf(out, "▶️  Running scenario '%s' (%d steps, %d slots)\n", name, len(sc.Steps), sc.ActiveSlots())

	report, err := scenario.Run(cmd.Context(), sc, logger)
	if err != nil {
		return fmt.Errorf("scenario aborted: %w", err)
	}

	fmt.Fprintf(out, "   Notifications: %d accepted, %d unchanged, %d dropped\n",
		report.Stats.Notifications, report.Stats.Deduplicated, report.Stats.Dropped)
	fmt.Fprintf(out, "   Callbacks: %d deliveries, %d replays\n", report.Stats.Deliveries, report.Stats.Replays)

	if !report.Passed() {
		for _, failure := range report.Failures {
			fmt.Fprintf(out, "❌ %s\n", failure)
		}
		return fmt.Errorf("%d of %d steps failed", len(report.Failures), report.Steps)
	}

	fmt.Fprintf(out, "✅ All %d steps passed\n", report.Steps)
	return nil
}
