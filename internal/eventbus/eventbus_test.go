package eventbus

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := New(nil)
	defer b.Close()

	got := make(chan SectionChangedEvent, 1)
	b.Subscribe(EventSectionChanged, func(e DomainEvent) {
		if ev, ok := e.(SectionChangedEvent); ok {
			got <- ev
		}
	})

	b.Publish(SectionChangedEvent{From: 0, To: 2})

	select {
	case ev := <-got:
		assert.Equal(t, 0, ev.From)
		assert.Equal(t, 2, ev.To)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := New(nil)

	var calls atomic.Int32
	unsubscribe := b.Subscribe(EventRecovery, func(DomainEvent) { calls.Add(1) })
	unsubscribe()

	b.Publish(RecoveryEvent{Check: "stuck-animation"})
	b.Close()

	assert.Equal(t, int32(0), calls.Load())
}

func TestHandlerPanicIsContained(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := New(nil)
	defer b.Close()

	done := make(chan struct{})
	b.Subscribe(EventError, func(DomainEvent) { panic("boom") })
	b.Subscribe(EventError, func(DomainEvent) { close(done) })

	b.Publish(ErrorEvent{Message: "x"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second handler did not run")
	}
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := New(nil)
	b.Close()
	require.NotPanics(t, func() {
		b.Publish(SectionChangedEvent{To: 1})
		b.Close()
	})
}
