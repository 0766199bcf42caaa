package registry

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rmacdonaldsmith/phonestate-go/pkg/permission"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/registry"
	"github.com/rmacdonaldsmith/phonestate-go/pkg/telephony"
)

const (
	subA = 10
	subB = 20
)

var testCaller = permission.Caller{Package: "com.example.observer"}

type delivery struct {
	kind    telephony.EventKind
	payload any
}

// recorder collects deliveries. It owns its callback so the callback stays
// reachable for as long as the test uses the recorder.
type recorder struct {
	cb *registry.Callback

	mu         sync.Mutex
	deliveries []delivery
}

func newRecorder(kinds ...telephony.EventKind) *recorder {
	rec := &recorder{cb: registry.NewCallback()}
	for _, kind := range kinds {
		rec.cb.On(kind, func(payload any) {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.deliveries = append(rec.deliveries, delivery{kind: kind, payload: payload})
		})
	}
	return rec
}

func (r *recorder) all() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.deliveries...)
}

func (r *recorder) payloads(kind telephony.EventKind) []any {
	var out []any
	for _, d := range r.all() {
		if d.kind == kind {
			out = append(out, d.payload)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestBroker returns a started broker with two active slots, subA on
// slot 0 as the default subscription and subB on slot 1.
func newTestBroker(t *testing.T, authority permission.Authority) *Broker {
	t.Helper()

	config := NewConfig(2).WithAuthority(authority).WithLogger(quietLogger())
	b, err := NewBroker(config)
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { _ = b.Close() })

	b.BindSubscription(subB, 1)
	b.DefaultScopeChanged(subA, 0)
	drain(t, b)
	return b
}

func drain(t *testing.T, b *Broker) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, b.Drain(ctx))
}

func listen(t *testing.T, b *Broker, target int, rec *recorder, notifyNow bool, kinds ...telephony.EventKind) {
	t.Helper()
	require.NoError(t, b.Listen(context.Background(), target, testCaller, rec.cb, telephony.NewEventSet(kinds...), notifyNow))
	drain(t, b)
}
