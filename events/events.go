package events

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/ByGamer01/DamnBruh/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserCreated         EventType = "user_created"
	EventTypeBalanceChange       EventType = "balance_change"
	EventTypeGameJoined          EventType = "game_joined"
	EventTypeGameSettled         EventType = "game_settled"
	EventTypeWithdrawalRequested EventType = "withdrawal_requested"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserCreatedEvent represents a new user creation
type UserCreatedEvent struct {
	UserID      string
	PrivyUserID string
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          string
	OldBalance      decimal.Decimal
	NewBalance      decimal.Decimal
	ChangeAmount    decimal.Decimal
	TransactionType models.TransactionType
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// GameJoinedEvent represents a user joining a game session
type GameJoinedEvent struct {
	UserID    string
	SessionID string
	GameType  models.GameType
	BetAmount decimal.Decimal
}

func (e GameJoinedEvent) Type() EventType {
	return EventTypeGameJoined
}

// GameSettledEvent represents a game session being finalized
type GameSettledEvent struct {
	UserID       string
	SessionID    string
	GameType     models.GameType
	BetAmount    decimal.Decimal
	Payout       decimal.Decimal
	FinalRank    int
	TotalPlayers int
}

func (e GameSettledEvent) Type() EventType {
	return EventTypeGameSettled
}

// WithdrawalRequestedEvent represents a withdrawal entering the pending state
type WithdrawalRequestedEvent struct {
	UserID       string
	WithdrawalID string
	Amount       decimal.Decimal
}

func (e WithdrawalRequestedEvent) Type() EventType {
	return EventTypeWithdrawalRequested
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events; called after successful DB commit.
// Events are emitted on a background context so they outlive the
// request that produced them.
func (b *TransactionalBus) Flush(ctx context.Context) {
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events; called after db rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
