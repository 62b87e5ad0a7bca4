package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of an engine event.
type EventType string

const (
	// View resynchronisation events
	EventZoneChanged EventType = "ZONE_CHANGED"
	EventCardMoved   EventType = "CARD_MOVED"
	EventCardFlipped EventType = "CARD_FLIPPED"

	// Turn flow events
	EventTurnStarted        EventType = "TURN_STARTED"
	EventPhaseChanged       EventType = "PHASE_CHANGED"
	EventResourcesRefreshed EventType = "RESOURCES_REFRESHED"
	EventGameEnded          EventType = "GAME_ENDED"

	// Card events
	EventCardDrawn  EventType = "CARD_DRAWN"
	EventCardPlayed EventType = "CARD_PLAYED"
	EventHandFull   EventType = "HAND_FULL"
	EventDeckEmpty  EventType = "DECK_EMPTY"

	// Player events
	EventPlayerDamaged EventType = "PLAYER_DAMAGED"
)

// Event is a state change pushed to subscribers. Only the fields relevant to
// the event type are set.
type Event struct {
	Type       EventType `json:"type"`
	ID         string    `json:"id"`
	GameID     string    `json:"gameId,omitempty"`
	Sequence   int       `json:"sequence"`
	ZoneName   string    `json:"zoneName,omitempty"`
	CardID     int       `json:"cardId,omitempty"`
	FromZone   string    `json:"fromZone,omitempty"`
	ToZone     string    `json:"toZone,omitempty"`
	FaceUp     bool      `json:"faceUp,omitempty"`
	PlayerID   int       `json:"playerId,omitempty"`
	TurnNumber int       `json:"turnNumber,omitempty"`
	Phase      string    `json:"phaseName,omitempty"`
	WinnerID   int       `json:"winnerId,omitempty"`
	Amount     int       `json:"amount,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

type subscription struct {
	handle    int
	eventType EventType
	typed     bool
	callback  Listener
}

// EventBus is a synchronous publish/subscribe hub. Listeners are called in
// subscription order on the publishing goroutine.
type EventBus struct {
	mu         sync.RWMutex
	subs       []subscription
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	return bus.add(subscription{callback: listener})
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *EventBus) SubscribeTyped(eventType EventType, listener Listener) int {
	if listener == nil {
		return -1
	}
	return bus.add(subscription{eventType: eventType, typed: true, callback: listener})
}

func (bus *EventBus) add(sub subscription) int {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	sub.handle = bus.nextHandle
	bus.nextHandle++
	bus.subs = append(bus.subs, sub)
	return sub.handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subs {
		if sub.handle == handle {
			bus.subs = append(bus.subs[:i], bus.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to all matching listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	subs := make([]subscription, len(bus.subs))
	copy(subs, bus.subs)
	bus.mu.RUnlock()

	for _, sub := range subs {
		if sub.typed && sub.eventType != event.Type {
			continue
		}
		sub.callback(event)
	}
}

// PublishBatch publishes multiple events in order.
func (bus *EventBus) PublishBatch(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, playerID int) Event {
	return Event{
		Type:      eventType,
		PlayerID:  playerID,
		Timestamp: time.Now(),
	}
}
