package eventbus_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/payment_request-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_request-go/internal/infrastructure/eventbus"
)

func TestInMemoryBus_ShouldDeliverOnlyMatchingType(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	var got []event.Type

	bus.Subscribe(event.PaymentCompleted, func(evt event.Event) error {
		got = append(got, evt.Type)
		return nil
	})

	require.NoError(t, bus.Publish(event.Event{Type: event.OrderCreated}))
	require.NoError(t, bus.Publish(event.Event{Type: event.PaymentCompleted}))

	assert.Equal(t, []event.Type{event.PaymentCompleted}, got)
}

func TestInMemoryBus_ShouldRunAllHandlersAndJoinErrors(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	boom := errors.New("view gone")
	calls := 0

	bus.Subscribe(event.OrderDiscarded, func(event.Event) error {
		calls++
		return boom
	})
	bus.Subscribe(event.OrderDiscarded, func(event.Event) error {
		calls++
		return nil
	})

	err := bus.Publish(event.Event{Type: event.OrderDiscarded})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestInMemoryBus_SubscribeAll(t *testing.T) {
	bus := eventbus.NewInMemoryBus()
	seen := map[event.Type]int{}

	bus.SubscribeAll(func(evt event.Event) error {
		seen[evt.Type]++
		return nil
	})

	for _, typ := range []event.Type{event.OrderCreated, event.SubmissionFailed, event.PaymentCompleted, event.OrderDiscarded} {
		require.NoError(t, bus.Publish(event.Event{Type: typ}))
	}

	assert.Len(t, seen, 4)
}
