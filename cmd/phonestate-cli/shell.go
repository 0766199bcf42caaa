package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/phonestate-go/internal/scenario"
)

func newShellCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive registry shell",
		Long: `Shell starts a registry and reads steps interactively. Every scenario
step can be typed as a YAML flow mapping, for example:

  listen: {name: ui, package: app, target: default, events: [display-info], notify_now: true}
  notify: {kind: display-info, phone: 0, sub: 1, value: {networkType: 13}}
  expect: {subscriber: ui, kind: display-info, count: 1}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context())
		},
	}

	return cmd
}

type shell struct {
	runner *scenario.Runner
	rl     *readline.Instance
}

func runShell(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "phonestate> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	// Route logs through readline so they do not garble the prompt
	shellLogger := config.NewLogger(rl.Stderr())
	runner, err := scenario.NewRunner(ctx, config.ActiveSlots, shellLogger)
	if err != nil {
		return err
	}
	defer runner.Close()

	s := &shell{runner: runner, rl: rl}
	s.printHelp()

	for {
		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			return nil
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			return nil
		}

		if err := s.execute(ctx, input); err != nil {
			fmt.Fprintf(rl.Stdout(), "Error: %v\n", err)
		}
	}
}

// execute handles one shell line: a built-in command or a scenario step
func (s *shell) execute(ctx context.Context, input string) error {
	out := s.rl.Stdout()
	fields := strings.Fields(input)

	switch strings.ToLower(fields[0]) {
	case "help", "?":
		s.printHelp()
		return nil

	case "grant":
		if len(fields) < 3 {
			return errors.New("usage: grant <package> <tier> [tier...]")
		}
		if err := s.runner.Grant(fields[1], fields[2:]); err != nil {
			return err
		}
		fmt.Fprintln(out, "OK")
		return nil

	case "received":
		if len(fields) != 2 {
			return errors.New("usage: received <subscriber>")
		}
		return s.printReceived(out, fields[1])

	case "stats":
		stats := s.runner.Broker().Stats()
		fmt.Fprintf(out, "enqueued=%d processed=%d pending=%d notifications=%d deduplicated=%d dropped=%d deliveries=%d replays=%d panics=%d subscriptions=%d\n",
			stats.Enqueued, stats.Processed, stats.Pending, stats.Notifications, stats.Deduplicated,
			stats.Dropped, stats.Deliveries, stats.Replays, stats.CallbackPanics, stats.Subscriptions)
		return nil

	case "health":
		health, err := s.runner.Broker().GetHealth(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "healthy=%t slots=%d subscriptions=%d pending=%d (%s)\n",
			health.Healthy, health.ActiveSlots, health.Subscriptions, health.Pending, health.Message)
		return nil

	case "snapshot":
		snap, err := s.runner.Broker().Snapshot(ctx)
		if err != nil {
			return err
		}
		data, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	step, err := scenario.ParseStep(input)
	if err != nil {
		return fmt.Errorf("%w (type 'help' for commands)", err)
	}
	if err := s.runner.Apply(ctx, step); err != nil {
		return err
	}
	if step.Expect != nil {
		fmt.Fprintln(out, "✅ expectation holds")
	}
	return nil
}

func (s *shell) printReceived(out io.Writer, name string) error {
	if err := s.runner.Broker().Drain(context.Background()); err != nil {
		return err
	}
	deliveries, err := s.runner.Deliveries(name)
	if err != nil {
		return err
	}
	if len(deliveries) == 0 {
		fmt.Fprintf(out, "%s has received nothing\n", name)
		return nil
	}
	for i, d := range deliveries {
		fmt.Fprintf(out, "  %3d  %-32s %+v\n", i+1, d.Kind, d.Payload)
	}
	return nil
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
Commands:
  grant <package> <tier>...   Grant permission tiers to a caller package
  received <subscriber>       Show what a named listener has received
  stats                       Show registry counters
  health                      Show registry health
  snapshot                    Dump topology, cached values and listeners as JSON
  help                        Show this help
  exit                        Leave the shell

Steps (YAML flow mappings):
  topology: 2
  default: {sub: 1, slot: 0}
  bind: {sub: 2, slot: 1}
  unbind: 2
  listen: {name: ui, package: app, target: default, events: [radio-power-state], notify_now: true}
  unlisten: ui
  notify: {kind: radio-power-state, phone: 0, sub: 1, value: "on"}
  drain: true
  expect: {subscriber: ui, kind: radio-power-state, count: 1, last: "on"}`)
}
