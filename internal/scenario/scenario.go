package scenario

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

var (
	// ErrInvalidStep is returned when a step names no action or several
	ErrInvalidStep = errors.New("invalid step")
	// ErrExpectationFailed is returned when an expect step does not hold
	ErrExpectationFailed = errors.New("expectation failed")
	// ErrUnknownSubscriber is returned when a step refers to a listener that was never declared
	ErrUnknownSubscriber = errors.New("unknown subscriber")
)

// Scenario is a scripted sequence of registry operations and expectations.
type Scenario struct {
	Name string `yaml:"name"`

	// Slots is the active slot count at start, 1 when omitted
	Slots *int `yaml:"slots"`

	// Grants maps caller packages to the tiers they hold
	Grants map[string][]string `yaml:"grants"`

	Steps []Step `yaml:"steps"`
}

// Step holds exactly one action.
type Step struct {
	Topology *int        `yaml:"topology,omitempty"`
	Default  *BindStep   `yaml:"default,omitempty"`
	Bind     *BindStep   `yaml:"bind,omitempty"`
	Unbind   *int        `yaml:"unbind,omitempty"`
	Listen   *ListenStep `yaml:"listen,omitempty"`
	Unlisten string      `yaml:"unlisten,omitempty"`
	Notify   *NotifyStep `yaml:"notify,omitempty"`
	Drain    bool        `yaml:"drain,omitempty"`
	Expect   *ExpectStep `yaml:"expect,omitempty"`
}

// BindStep ties a subscription to a slot.
type BindStep struct {
	Sub  int `yaml:"sub"`
	Slot int `yaml:"slot"`
}

// ListenStep registers a named recording observer.
type ListenStep struct {
	Name    string `yaml:"name"`
	Package string `yaml:"package"`
	Tag     string `yaml:"tag,omitempty"`

	// Target is a subscription id or "default"
	Target string `yaml:"target"`

	Events    []string `yaml:"events"`
	NotifyNow bool     `yaml:"notify_now,omitempty"`

	// Denied expects the registration to be refused for missing permissions
	Denied bool `yaml:"denied,omitempty"`
}

// NotifyStep issues one producer notification.
type NotifyStep struct {
	Kind  string    `yaml:"kind"`
	Phone int       `yaml:"phone"`
	Sub   *int      `yaml:"sub,omitempty"`
	Value yaml.Node `yaml:"value"`
}

// ExpectStep checks what a named observer has received so far.
type ExpectStep struct {
	Subscriber string    `yaml:"subscriber"`
	Kind       string    `yaml:"kind"`
	Count      *int      `yaml:"count,omitempty"`
	Last       yaml.Node `yaml:"last,omitempty"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if sc.Slots != nil && *sc.Slots < 0 {
		return nil, fmt.Errorf("slots cannot be negative: %d", *sc.Slots)
	}
	for i, step := range sc.Steps {
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &sc, nil
}

// ActiveSlots returns the slot count the scenario starts with.
func (sc *Scenario) ActiveSlots() int {
	if sc.Slots == nil {
		return 1
	}
	return *sc.Slots
}

// ParseStep decodes a single step, e.g. a YAML flow mapping typed in a shell.
func ParseStep(line string) (Step, error) {
	var step Step
	if err := yaml.Unmarshal([]byte(line), &step); err != nil {
		return Step{}, fmt.Errorf("failed to parse step: %w", err)
	}
	if err := step.Validate(); err != nil {
		return Step{}, err
	}
	return step, nil
}

// Validate checks that the step names exactly one action.
func (s Step) Validate() error {
	actions := 0
	for _, set := range []bool{
		s.Topology != nil, s.Default != nil, s.Bind != nil, s.Unbind != nil,
		s.Listen != nil, s.Unlisten != "", s.Notify != nil, s.Drain, s.Expect != nil,
	} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return fmt.Errorf("%w: want exactly one action, got %d", ErrInvalidStep, actions)
	}

	switch {
	case s.Listen != nil && s.Listen.Name == "":
		return fmt.Errorf("%w: listen needs a name", ErrInvalidStep)
	case s.Notify != nil && s.Notify.Kind == "":
		return fmt.Errorf("%w: notify needs a kind", ErrInvalidStep)
	case s.Expect != nil && (s.Expect.Subscriber == "" || s.Expect.Kind == ""):
		return fmt.Errorf("%w: expect needs a subscriber and a kind", ErrInvalidStep)
	}
	return nil
}

// Name returns the action verb of the step
func (s Step) Name() string {
	switch {
	case s.Topology != nil:
		return "topology"
	case s.Default != nil:
		return "default"
	case s.Bind != nil:
		return "bind"
	case s.Unbind != nil:
		return "unbind"
	case s.Listen != nil:
		return "listen"
	case s.Unlisten != "":
		return "unlisten"
	case s.Notify != nil:
		return "notify"
	case s.Drain:
		return "drain"
	case s.Expect != nil:
		return "expect"
	default:
		return "empty"
	}
}

// parseTarget accepts a subscription id or "default".
func parseTarget(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "default") {
		return telephony.DefaultSubscriptionID, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid target %q", s)
	}
	return id, nil
}

func parseEvents(names []string) (telephony.EventSet, error) {
	var set telephony.EventSet
	for _, name := range names {
		kind, err := telephony.ParseEventKind(name)
		if err != nil {
			return 0, err
		}
		set = set.With(kind)
	}
	return set, nil
}
