package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	internalpermission "github.com/rmacdonaldsmith/phonestate-go/internal/permission"
	"github.com/rmacdonaldsmith/phonestate-go/internal/registry"
	"github.com/rmacdonaldsmith/phonestate-go/internal/statecache"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
	pkgregistry "github.com/rmacdonaldsmith/phonestate-go/pkg/registry"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

// Delivery is one payload received by a recording observer.
type Delivery struct {
	Kind    telephony.EventKind
	Payload any
}

// recorder is a named observer that records everything it receives.
type recorder struct {
	name string
	cb   *pkgregistry.Callback

	mu         sync.Mutex
	deliveries []Delivery
}

func newRecorder(name string) *recorder {
	r := &recorder{name: name, cb: pkgregistry.NewCallback()}
	for _, kind := range telephony.AllEventKinds() {
		r.cb.On(kind, func(payload any) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.deliveries = append(r.deliveries, Delivery{Kind: kind, Payload: payload})
		})
	}
	return r
}

func (r *recorder) received(kind telephony.EventKind) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, d := range r.deliveries {
		if d.Kind == kind {
			out = append(out, d.Payload)
		}
	}
	return out
}

// Runner applies scenario steps to a broker backed by a static grant table.
type Runner struct {
	broker    *registry.Broker
	authority *internalpermission.StaticAuthority
	logger    *slog.Logger

	recorders map[string]*recorder
}

// NewRunner creates and starts a broker with slots active slots.
func NewRunner(ctx context.Context, slots int, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}

	authority := internalpermission.NewStaticAuthority()
	config := registry.NewConfig(slots).WithAuthority(authority).WithLogger(logger)
	broker, err := registry.NewBroker(config)
	if err != nil {
		return nil, err
	}
	if err := broker.Start(ctx); err != nil {
		return nil, err
	}

	return &Runner{
		broker:    broker,
		authority: authority,
		logger:    logger,
		recorders: make(map[string]*recorder),
	}, nil
}

// Broker returns the broker under test.
func (r *Runner) Broker() *registry.Broker {
	return r.broker
}

// Close closes the broker.
func (r *Runner) Close() error {
	return r.broker.Close()
}

// Grant gives pkg the named tiers.
func (r *Runner) Grant(pkg string, tiers []string) error {
	for _, name := range tiers {
		tier, err := permission.ParseTier(name)
		if err != nil {
			return err
		}
		r.authority.Grant(pkg, tier)
	}
	return nil
}

// Deliveries returns what the named observer has received so far.
func (r *Runner) Deliveries(name string) ([]Delivery, error) {
	rec, ok := r.recorders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSubscriber, name)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]Delivery(nil), rec.deliveries...), nil
}

// Apply runs one step. Expect steps drain the broker first. A failed
// expectation returns an error wrapping ErrExpectationFailed.
func (r *Runner) Apply(ctx context.Context, step Step) error {
	if err := step.Validate(); err != nil {
		return err
	}

	switch {
	case step.Topology != nil:
		r.broker.TopologyChanged(*step.Topology)
	case step.Default != nil:
		r.broker.DefaultScopeChanged(step.Default.Sub, step.Default.Slot)
	case step.Bind != nil:
		r.broker.BindSubscription(step.Bind.Sub, step.Bind.Slot)
	case step.Unbind != nil:
		r.broker.UnbindSubscription(*step.Unbind)
	case step.Listen != nil:
		return r.listen(ctx, step.Listen)
	case step.Unlisten != "":
		rec, ok := r.recorders[step.Unlisten]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownSubscriber, step.Unlisten)
		}
		r.broker.Unlisten(rec.cb.Handle())
	case step.Notify != nil:
		return r.notify(step.Notify)
	case step.Drain:
		return r.broker.Drain(ctx)
	case step.Expect != nil:
		if err := r.broker.Drain(ctx); err != nil {
			return err
		}
		return r.expect(step.Expect)
	}
	return nil
}

func (r *Runner) listen(ctx context.Context, step *ListenStep) error {
	target, err := parseTarget(step.Target)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}
	events, err := parseEvents(step.Events)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}

	rec, ok := r.recorders[step.Name]
	if !ok {
		rec = newRecorder(step.Name)
		r.recorders[step.Name] = rec
	}

	caller := permission.Caller{Package: step.Package, AttributionTag: step.Tag}
	err = r.broker.Listen(ctx, target, caller, rec.cb, events, step.NotifyNow)
	switch {
	case step.Denied && errors.Is(err, pkgregistry.ErrPermissionDenied):
		return nil
	case step.Denied && err == nil:
		return fmt.Errorf("%w: listen %q was accepted, want permission denied", ErrExpectationFailed, step.Name)
	case errors.Is(err, pkgregistry.ErrPermissionDenied):
		return fmt.Errorf("%w: listen %q: %v", ErrExpectationFailed, step.Name, err)
	default:
		return err
	}
}

func (r *Runner) notify(step *NotifyStep) error {
	kind, err := telephony.ParseEventKind(step.Kind)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}

	subID := telephony.InvalidSubscriptionID
	if step.Sub != nil {
		subID = *step.Sub
	}

	if err := notifiers[kind](r.broker, step.Phone, subID, &step.Value); err != nil {
		return fmt.Errorf("%w: notify %s: %v", ErrInvalidStep, kind, err)
	}
	return nil
}

func (r *Runner) expect(step *ExpectStep) error {
	rec, ok := r.recorders[step.Subscriber]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSubscriber, step.Subscriber)
	}
	kind, err := telephony.ParseEventKind(step.Kind)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}

	received := rec.received(kind)
	if step.Count != nil && len(received) != *step.Count {
		return fmt.Errorf("%w: %s received %d %s, want %d",
			ErrExpectationFailed, step.Subscriber, len(received), kind, *step.Count)
	}

	if step.Last.Kind == 0 {
		return nil
	}
	if len(received) == 0 {
		return fmt.Errorf("%w: %s received no %s", ErrExpectationFailed, step.Subscriber, kind)
	}

	last := received[len(received)-1]
	want, err := decodeLike(&step.Last, last)
	if err != nil {
		return fmt.Errorf("%w: expect %s: %v", ErrInvalidStep, kind, err)
	}
	if !statecache.Equal(want, last) {
		return fmt.Errorf("%w: %s last %s is %v, want %v",
			ErrExpectationFailed, step.Subscriber, kind, last, want)
	}
	return nil
}

// Report summarises a scenario run.
type Report struct {
	Name     string
	Steps    int
	Failures []string
	Stats    pkgregistry.Stats
}

// Passed reports whether every expectation held.
func (rep *Report) Passed() bool {
	return len(rep.Failures) == 0
}

// Run executes sc on a fresh broker. Failed expectations are collected in
// the report; any other error aborts the run.
func Run(ctx context.Context, sc *Scenario, logger *slog.Logger) (*Report, error) {
	runner, err := NewRunner(ctx, sc.ActiveSlots(), logger)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	for pkg, tiers := range sc.Grants {
		if err := runner.Grant(pkg, tiers); err != nil {
			return nil, fmt.Errorf("grants for %s: %w", pkg, err)
		}
	}

	report := &Report{Name: sc.Name}
	for i, step := range sc.Steps {
		err := runner.Apply(ctx, step)
		report.Steps++
		switch {
		case err == nil:
		case errors.Is(err, ErrExpectationFailed):
			report.Failures = append(report.Failures, fmt.Sprintf("step %d (%s): %v", i+1, step.Name(), err))
		default:
			return report, fmt.Errorf("step %d (%s): %w", i+1, step.Name(), err)
		}
	}

	if err := runner.broker.Drain(ctx); err != nil {
		return report, err
	}
	report.Stats = runner.broker.Stats()
	return report, nil
}
