package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	internalpermission "github.com/rmacdonaldsmith/phonestate-go/internal/permission"
	"github.com/rmacdonaldsmith/phonestate-go/internal/statecache"
	"github.com/rmacdonaldsmith/phonestate-go/internal/subscriber"
	"github.com/rmacdonaldsmith/phonestate-go/internal/topology"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/registry"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

// ErrNotRunning is returned by calls that need the worker while it is stopped
var ErrNotRunning = errors.New("registry worker is not running")

// Broker implements the registry.Registry interface.
//
// Every listen, notify and topology signal becomes a work item on one FIFO
// queue. A single worker goroutine applies the items in order and is the only
// code that touches the topology mapper, the state cache and the subscriber
// table. Callbacks run on that worker, so a slow callback delays every other
// observer and a callback must never call Drain, Stop, Close or Snapshot.
type Broker struct {
	config *Config
	logger *slog.Logger
	policy *internalpermission.Policy

	mu      sync.Mutex
	queue   []func()
	signal  chan struct{}
	quit    chan struct{}
	done    chan struct{}
	running bool
	closed  bool

	// Owned by the worker goroutine
	mapper *topology.Mapper
	cache  *statecache.Cache
	table  *subscriber.Table

	activeSlots atomic.Int64
	stats       counters
}

type counters struct {
	enqueued      atomic.Uint64
	processed     atomic.Uint64
	notifications atomic.Uint64
	deduplicated  atomic.Uint64
	dropped       atomic.Uint64
	deliveries    atomic.Uint64
	replays       atomic.Uint64
	panics        atomic.Uint64
	subscriptions atomic.Int64
}

// NewBroker creates a broker with the given configuration.
// The worker is not running until Start is called.
func NewBroker(config *Config) (*Broker, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg := *config
	cfg.SetDefaults()

	authority, err := cfg.authority()
	if err != nil {
		return nil, err
	}

	b := &Broker{
		config: &cfg,
		logger: cfg.Logger.With("component", "phonestate.registry"),
		policy: internalpermission.NewPolicy(authority),
		signal: make(chan struct{}, 1),
		mapper: topology.NewMapper(cfg.ActiveSlots),
		cache:  statecache.New(),
		table:  subscriber.NewTable(),
	}
	b.activeSlots.Store(int64(cfg.ActiveSlots))
	for phoneID := range cfg.ActiveSlots {
		b.seed(phoneID)
	}

	return b, nil
}

// Start launches the worker goroutine. Work enqueued earlier is applied first.
func (b *Broker) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return registry.ErrRegistryClosed
	}

	if b.running {
		return nil // Already started, idempotent
	}

	b.quit = make(chan struct{})
	b.done = make(chan struct{})
	b.running = true
	go b.run(b.quit, b.done)

	b.logger.Info("registry started", "active_slots", b.activeSlots.Load(), "pending", len(b.queue))
	return nil
}

// Stop drains pending work and stops the worker. Work enqueued after Stop
// is held until the next Start.
func (b *Broker) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil // Not started, idempotent
	}
	b.mu.Unlock()

	if err := b.Drain(ctx); err != nil {
		return fmt.Errorf("failed to drain queue: %w", err)
	}

	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	close(b.quit)
	done := b.done
	b.running = false
	b.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	b.logger.Info("registry stopped")
	return nil
}

// Close stops the broker and releases its state. After Close, notify calls
// are dropped and Listen returns registry.ErrRegistryClosed.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil // Already closed, idempotent
	}
	b.mu.Unlock()

	if err := b.Stop(context.Background()); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.queue = nil
	if !b.running {
		b.cache.Clear()
	}
	b.logger.Info("registry closed")
	return nil
}

// Listen checks permissions on the calling goroutine and, when every
// requested kind is permitted, enqueues the registration. Unknown kinds are
// ignored, and a set holding nothing else leaves the registration as it is.
// An empty set removes the callback's registration.
func (b *Broker) Listen(ctx context.Context, target int, caller permission.Caller, callback *registry.Callback, events telephony.EventSet, notifyNow bool) error {
	if callback == nil {
		return registry.ErrNilCallback
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.isClosed() {
		return registry.ErrRegistryClosed
	}

	known := events.Known()
	if known != events {
		b.logger.Warn("ignoring unknown event kinds",
			"caller", caller.String(),
			"mask", fmt.Sprintf("%#x", uint64(events&^known)))

		// Only an explicitly empty set unregisters
		if known.Empty() {
			return nil
		}
	}

	if err := b.policy.Check(caller, known); err != nil {
		b.logger.Debug("listen rejected", "caller", caller.String(), "events", known.String(), "error", err)
		return err
	}

	sub := subscriber.New(callback, caller, target, known)
	if !b.enqueue(func() { b.listen(sub, notifyNow) }) {
		return registry.ErrRegistryClosed
	}
	return nil
}

// Unlisten removes the registration of handle, along with registrations
// whose callbacks have been collected. Work applied after the removal no
// longer reaches the callback.
func (b *Broker) Unlisten(handle registry.Handle) {
	b.enqueue(func() {
		if b.table.Remove(handle) {
			b.logger.Debug("subscription removed", "handle", handle.String())
		}
		if n := b.table.Prune(); n > 0 {
			b.logger.Debug("collected callbacks pruned", "count", n)
		}
		b.stats.subscriptions.Store(int64(b.table.Len()))
	})
}

// TopologyChanged applies a new active slot count. Cached values of removed
// slots are dropped; new slots start with their sentinel values.
func (b *Broker) TopologyChanged(activeSlots int) {
	b.enqueue(func() { b.applyTopology(activeSlots) })
}

// DefaultScopeChanged records the new default subscription and its slot.
// When the default phone moves, observers following the default receive the
// cached values of the new phone.
func (b *Broker) DefaultScopeChanged(subID, slot int) {
	b.enqueue(func() { b.applyDefault(subID, slot) })
}

// BindSubscription records that subID is served by slot.
func (b *Broker) BindSubscription(subID, slot int) {
	b.enqueue(func() { b.mapper.BindSubscription(subID, slot) })
}

// UnbindSubscription forgets the slot of subID.
func (b *Broker) UnbindSubscription(subID int) {
	b.enqueue(func() { b.mapper.UnbindSubscription(subID) })
}

// Drain blocks until every work item enqueued before the call has been
// applied, or ctx is done.
func (b *Broker) Drain(ctx context.Context) error {
	return b.query(ctx, func() {})
}

// Stats returns a snapshot of the broker counters.
func (b *Broker) Stats() registry.Stats {
	b.mu.Lock()
	pending := len(b.queue)
	b.mu.Unlock()

	return registry.Stats{
		Enqueued:       b.stats.enqueued.Load(),
		Processed:      b.stats.processed.Load(),
		Pending:        pending,
		Notifications:  b.stats.notifications.Load(),
		Deduplicated:   b.stats.deduplicated.Load(),
		Dropped:        b.stats.dropped.Load(),
		Deliveries:     b.stats.deliveries.Load(),
		Replays:        b.stats.replays.Load(),
		CallbackPanics: b.stats.panics.Load(),
		Subscriptions:  int(b.stats.subscriptions.Load()),
	}
}

// GetHealth returns the health status of the broker.
func (b *Broker) GetHealth(ctx context.Context) (registry.HealthStatus, error) {
	if err := ctx.Err(); err != nil {
		return registry.HealthStatus{}, err
	}

	b.mu.Lock()
	running, closed, pending := b.running, b.closed, len(b.queue)
	b.mu.Unlock()

	status := registry.HealthStatus{
		Healthy:       running && !closed,
		WorkerRunning: running,
		ActiveSlots:   int(b.activeSlots.Load()),
		Subscriptions: int(b.stats.subscriptions.Load()),
		Pending:       pending,
	}

	switch {
	case closed:
		status.Message = "registry is closed"
	case !running:
		status.Message = "registry worker is not running"
	default:
		status.Message = "all components healthy"
	}

	return status, nil
}

// LastKnown returns the cached payloads of kind for phoneID, in the order
// they were first observed. phoneID is ignored for global kinds.
func (b *Broker) LastKnown(ctx context.Context, kind telephony.EventKind, phoneID int) ([]any, error) {
	var payloads []any
	err := b.query(ctx, func() {
		scope := statecache.PhoneScope(phoneID)
		if kind.Scope() == telephony.ScopeGlobal {
			scope = statecache.GlobalScope()
		}
		for _, r := range b.cache.Get(kind, scope) {
			payloads = append(payloads, r.Payload)
		}
	})
	if err != nil {
		return nil, err
	}
	return payloads, nil
}

func (b *Broker) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// enqueue appends work to the queue and wakes the worker. It never blocks
// on the worker and reports false once the broker is closed.
func (b *Broker) enqueue(work func()) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.queue = append(b.queue, work)
	b.mu.Unlock()

	b.stats.enqueued.Add(1)
	select {
	case b.signal <- struct{}{}:
	default:
	}
	return true
}

// query runs fn on the worker and waits for it.
func (b *Broker) query(ctx context.Context, fn func()) error {
	b.mu.Lock()
	running, closed, done := b.running, b.closed, b.done
	b.mu.Unlock()

	if closed {
		return registry.ErrRegistryClosed
	}
	if !running {
		return ErrNotRunning
	}

	applied := make(chan struct{})
	if !b.enqueue(func() {
		defer close(applied)
		fn()
	}) {
		return registry.ErrRegistryClosed
	}

	// The worker may stop before reaching fn; fn is then requeued and
	// only runs after the next Start.
	select {
	case <-applied:
		return nil
	case <-done:
		select {
		case <-applied:
			return nil
		default:
			return ErrNotRunning
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Broker) take() []func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	batch := b.queue
	b.queue = nil
	return batch
}

// run is the worker loop.
func (b *Broker) run(quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-quit:
			return
		default:
		}

		batch := b.take()
		if len(batch) == 0 {
			select {
			case <-b.signal:
			case <-quit:
				return
			}
			continue
		}

		for i, work := range batch {
			b.apply(work)
			b.stats.processed.Add(1)

			select {
			case <-quit:
				b.requeue(batch[i+1:])
				return
			default:
			}
		}
	}
}

// requeue puts unapplied work back at the head of the queue.
func (b *Broker) requeue(rest []func()) {
	if len(rest) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = slices.Concat(rest, b.queue)
}

func (b *Broker) apply(work func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("work item panicked", "panic", r)
		}
	}()
	work()
}
