package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByGamer01/DamnBruh/models"
)

func TestBus_EmitDispatchesToSubscribers(t *testing.T) {
	bus := NewBus()

	received := make(chan Event, 2)
	bus.Subscribe(EventTypeGameJoined, func(ctx context.Context, e Event) {
		received <- e
	})
	bus.Subscribe(EventTypeGameJoined, func(ctx context.Context, e Event) {
		received <- e
	})

	event := GameJoinedEvent{
		UserID:    "user-1",
		SessionID: "session-1",
		GameType:  models.GameTypeSkillMatch,
		BetAmount: decimal.RequireFromString("0.5"),
	}
	bus.Emit(context.Background(), event)

	for i := 0; i < 2; i++ {
		select {
		case e := <-received:
			joined := e.(GameJoinedEvent)
			assert.Equal(t, "session-1", joined.SessionID)
		case <-time.After(2 * time.Second):
			t.Fatal("handler not invoked")
		}
	}
}

func TestBus_EmitOnlyMatchingType(t *testing.T) {
	bus := NewBus()

	var settledCalls atomic.Int32
	bus.Subscribe(EventTypeGameSettled, func(ctx context.Context, e Event) {
		settledCalls.Add(1)
	})

	bus.Emit(context.Background(), UserCreatedEvent{UserID: "user-1"})

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), settledCalls.Load())
}

func TestBus_HandlerPanicDoesNotStopOthers(t *testing.T) {
	bus := NewBus()

	received := make(chan struct{}, 1)
	bus.Subscribe(EventTypeUserCreated, func(ctx context.Context, e Event) {
		panic("handler blew up")
	})
	bus.Subscribe(EventTypeUserCreated, func(ctx context.Context, e Event) {
		received <- struct{}{}
	})

	bus.Emit(context.Background(), UserCreatedEvent{UserID: "user-1"})

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("surviving handler not invoked")
	}
}

func TestTransactionalBus_FlushEmitsPending(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 2)
	bus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, e Event) {
		received <- e
	})

	txBus := NewTransactionalBus(bus)
	txBus.Publish(BalanceChangeEvent{UserID: "user-1", ChangeAmount: decimal.NewFromInt(1)})
	txBus.Publish(BalanceChangeEvent{UserID: "user-1", ChangeAmount: decimal.NewFromInt(2)})

	// Nothing fires before the flush
	select {
	case <-received:
		t.Fatal("event emitted before flush")
	case <-time.After(100 * time.Millisecond):
	}

	txBus.Flush(context.Background())

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatal("pending event not flushed")
		}
	}
}

func TestTransactionalBus_DiscardDropsPending(t *testing.T) {
	bus := NewBus()
	received := make(chan Event, 1)
	bus.Subscribe(EventTypeWithdrawalRequested, func(ctx context.Context, e Event) {
		received <- e
	})

	txBus := NewTransactionalBus(bus)
	txBus.Publish(WithdrawalRequestedEvent{UserID: "user-1", WithdrawalID: "wd-1"})
	txBus.Discard()
	txBus.Flush(context.Background())

	select {
	case <-received:
		t.Fatal("discarded event emitted")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestTransactionalBus_FlushIsIdempotent(t *testing.T) {
	bus := NewBus()
	var calls atomic.Int32
	bus.Subscribe(EventTypeGameSettled, func(ctx context.Context, e Event) {
		calls.Add(1)
	})

	txBus := NewTransactionalBus(bus)
	txBus.Publish(GameSettledEvent{UserID: "user-1", SessionID: "session-1"})

	txBus.Flush(context.Background())
	txBus.Flush(context.Background())

	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}
