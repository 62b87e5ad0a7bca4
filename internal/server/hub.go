package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/tcgworld/tcg-engine/internal/game"
	"github.com/tcgworld/tcg-engine/internal/game/card"
	"github.com/tcgworld/tcg-engine/internal/game/rules"
)

// GameFactory builds a new, unstarted game.
type GameFactory func() (*game.TurnEngine, error)

// EngineFactory returns a factory that builds engines over a shared rules
// document and catalog.
func EngineFactory(doc *rules.Document, catalog *card.Catalog, opts ...game.ContextOption) GameFactory {
	return func() (*game.TurnEngine, error) {
		ctx, err := game.NewEngineContext(doc, catalog, opts...)
		if err != nil {
			return nil, err
		}
		return game.NewTurnEngine(ctx), nil
	}
}

// Seat errors returned by Handle.
var (
	ErrSeatTaken       = errors.New("seat already taken")
	ErrSeatUnavailable = errors.New("seat is not a human seat of the game")
	ErrNotSeated       = errors.New("client holds no seat")
	ErrSeatMismatch    = errors.New("player id does not match the client's seat")
)

// Client is one connected view. Clients follow at most one game at a time
// and act for at most one seat in it; seat 0 is a spectator.
type Client struct {
	send chan []byte

	mu     sync.Mutex
	gameID string
	seat   int
	closed bool
}

// NewClient creates a client with a send queue of the given size.
func NewClient(queue int) *Client {
	if queue <= 0 {
		queue = 256
	}
	return &Client{send: make(chan []byte, queue)}
}

// Send exposes the outbound queue.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// GameID returns the game the client follows.
func (c *Client) GameID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameID
}

// Seat returns the player id the client acts for.
func (c *Client) Seat() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seat
}

func (c *Client) follow() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameID, c.seat
}

func (c *Client) join(gameID string, seat int) {
	c.mu.Lock()
	c.gameID = gameID
	c.seat = seat
	c.mu.Unlock()
}

// deliver queues payload without blocking. A full queue drops the payload.
func (c *Client) deliver(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub owns the hosted games and fans their events out to clients.
type Hub struct {
	factory GameFactory
	logger  *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	games   map[string]*game.TurnEngine
}

// NewHub creates a hub that builds games with factory.
func NewHub(factory GameFactory, logger *zap.Logger) *Hub {
	return &Hub{
		factory: factory,
		logger:  logger,
		clients: make(map[*Client]struct{}),
		games:   make(map[string]*game.TurnEngine),
	}
}

// Register adds a client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client registered", zap.Int("clients", n))
}

// Unregister removes a client and closes its queue. An ended game nobody
// follows any more is dropped.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
		gameID := c.GameID()
		h.logger.Debug("client unregistered", zap.String("game_id", gameID))
		h.reap(gameID)
	}
}

// Game returns a hosted game.
func (h *Hub) Game(gameID string) (*game.TurnEngine, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.games[gameID]
	return e, ok
}

// GameCount returns the number of hosted games.
func (h *Hub) GameCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games)
}

// CreateGame builds a game, attaches c to it and starts it, so c receives the
// opening events. c takes seat, or the first human seat when seat is 0.
func (h *Hub) CreateGame(c *Client, seat int) (*game.TurnEngine, error) {
	if h.factory == nil {
		return nil, errors.New("no game factory configured")
	}
	e, err := h.factory()
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	gameID := e.GameID()
	e.Events().Subscribe(func(ev rules.Event) {
		h.publish(gameID, ev)
	})

	h.mu.Lock()
	h.games[gameID] = e
	h.mu.Unlock()
	var previous string
	var previousSeat int
	if c != nil {
		previous, previousSeat = c.follow()
		c.join(gameID, 0)
	}

	if err := e.Start(); err != nil {
		h.drop(gameID, c, previous, previousSeat)
		return nil, fmt.Errorf("start game %s: %w", gameID, err)
	}

	if c != nil {
		if seat == 0 {
			seat = firstHumanSeat(e)
		}
		if err := h.bind(c, e, seat); err != nil {
			h.drop(gameID, c, previous, previousSeat)
			return nil, err
		}
		if previous != "" && previous != gameID {
			h.reap(previous)
		}
	}
	h.logger.Info("game created", zap.String("game_id", gameID), zap.Int("seat", seat))
	return e, nil
}

// JoinGame attaches c to a hosted game at seat. Seat 0 joins as a spectator.
func (h *Hub) JoinGame(c *Client, gameID string, seat int) error {
	e, ok := h.Game(gameID)
	if !ok {
		return fmt.Errorf("game %q not found", gameID)
	}
	return h.bind(c, e, seat)
}

// bind points c at e and seat, checking the seat is a free human seat.
func (h *Hub) bind(c *Client, e *game.TurnEngine, seat int) error {
	gameID := e.GameID()
	if seat != 0 {
		p, ok := e.Player(seat)
		if !ok || p.IsAI {
			return fmt.Errorf("seat %d: %w", seat, ErrSeatUnavailable)
		}
	}

	h.mu.Lock()
	if seat != 0 {
		for other := range h.clients {
			if other == c {
				continue
			}
			if g, s := other.follow(); g == gameID && s == seat {
				h.mu.Unlock()
				return fmt.Errorf("seat %d: %w", seat, ErrSeatTaken)
			}
		}
	}
	previous := c.GameID()
	c.join(gameID, seat)
	h.mu.Unlock()

	if previous != "" && previous != gameID {
		h.reap(previous)
	}
	return nil
}

func firstHumanSeat(e *game.TurnEngine) int {
	for _, p := range e.Snapshot().Players {
		if !p.IsAI {
			return p.ID
		}
	}
	return 0
}

// drop removes a game that failed to come up and puts c back where it was.
func (h *Hub) drop(gameID string, c *Client, previous string, previousSeat int) {
	h.mu.Lock()
	delete(h.games, gameID)
	h.mu.Unlock()
	if c != nil && c.GameID() == gameID {
		c.join(previous, previousSeat)
	}
}

// reap removes gameID once it has ended and no client follows it.
func (h *Hub) reap(gameID string) {
	if gameID == "" {
		return
	}
	e, ok := h.Game(gameID)
	if !ok || e.Status() != game.StatusEnded {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.GameID() == gameID {
			return
		}
	}
	delete(h.games, gameID)
	h.logger.Info("game removed", zap.String("game_id", gameID))
}

// publish pushes an engine event to every client following the game. It runs
// inside the engine call that produced the event.
func (h *Hub) publish(gameID string, ev rules.Event) {
	ev.GameID = gameID
	payload, err := json.Marshal(Envelope{Type: EnvelopeEvent, GameID: gameID, Event: &ev})
	if err != nil {
		h.logger.Error("marshal event", zap.String("event_type", string(ev.Type)), zap.Error(err))
		return
	}

	h.mu.RLock()
	for c := range h.clients {
		if c.GameID() != gameID {
			continue
		}
		if !c.deliver(payload) {
			h.logger.Warn("client queue full, event dropped",
				zap.String("game_id", gameID),
				zap.String("event_type", string(ev.Type)),
			)
		}
	}
	h.mu.RUnlock()

	if ev.Type == rules.EventGameEnded {
		h.reap(gameID)
	}
}

// Handle executes one client message and returns the reply. Game actions run
// for the seat the client holds; the player_id of the message, when set,
// must match it. apply_damage is the exception: player_id names the target.
func (h *Hub) Handle(c *Client, msg Message) Envelope {
	switch msg.Type {
	case TypeCreateGame:
		e, err := h.CreateGame(c, msg.PlayerID)
		if err != nil {
			h.logger.Error("create game failed", zap.Error(err))
			return errorEnvelope(msg.Type, "", seatCode(err, CodeInternal), err)
		}
		return snapshotEnvelope(msg.Type, e)

	case TypeJoinGame:
		e, ok := h.Game(msg.GameID)
		if !ok {
			return errorEnvelope(msg.Type, msg.GameID, CodeGameNotFound, fmt.Errorf("game %q not found", msg.GameID))
		}
		if err := h.JoinGame(c, msg.GameID, msg.PlayerID); err != nil {
			return errorEnvelope(msg.Type, msg.GameID, seatCode(err, CodeGameNotFound), err)
		}
		return snapshotEnvelope(msg.Type, e)
	}

	gameID, seat := c.follow()
	if msg.Type == TypeSnapshot && msg.GameID != "" {
		gameID = msg.GameID
	} else if msg.GameID != "" && msg.GameID != gameID {
		return errorEnvelope(msg.Type, msg.GameID, CodeNoGame, fmt.Errorf("game %q not joined", msg.GameID))
	}
	if gameID == "" {
		return errorEnvelope(msg.Type, "", CodeNoGame, errors.New("no game joined"))
	}
	e, ok := h.Game(gameID)
	if !ok {
		return errorEnvelope(msg.Type, gameID, CodeGameNotFound, fmt.Errorf("game %q not found", gameID))
	}

	switch msg.Type {
	case TypeSnapshot:
		return snapshotEnvelope(msg.Type, e)
	case TypePlayCard, TypeAdvancePhase, TypeEndTurn, TypeShuffleZone, TypeApplyDamage:
	default:
		return errorEnvelope(msg.Type, gameID, CodeUnknownMessage, fmt.Errorf("unknown message type %q", msg.Type))
	}

	if seat == 0 {
		return errorEnvelope(msg.Type, gameID, CodeNotSeated, ErrNotSeated)
	}
	if msg.Type != TypeApplyDamage && msg.PlayerID != 0 && msg.PlayerID != seat {
		return errorEnvelope(msg.Type, gameID, CodeSeatMismatch,
			fmt.Errorf("player %d, seat %d: %w", msg.PlayerID, seat, ErrSeatMismatch))
	}

	var err error
	switch msg.Type {
	case TypePlayCard:
		err = e.PlayCard(seat, msg.CardID, msg.Zone)
	case TypeAdvancePhase:
		err = e.AdvancePhase(seat)
	case TypeEndTurn:
		err = e.EndTurn(seat)
	case TypeShuffleZone:
		err = e.ShuffleZone(seat, msg.Zone)
	case TypeApplyDamage:
		err = e.ApplyDamage(msg.PlayerID, msg.Amount)
	}

	if err != nil {
		h.logger.Debug("request rejected",
			zap.String("game_id", gameID),
			zap.String("request", msg.Type),
			zap.Int("seat", seat),
			zap.Error(err),
		)
		return errorEnvelope(msg.Type, gameID, ErrorCode(err), err)
	}
	return Envelope{Type: EnvelopeResult, Request: msg.Type, GameID: gameID}
}

func snapshotEnvelope(request string, e *game.TurnEngine) Envelope {
	s := e.Snapshot()
	return Envelope{Type: EnvelopeSnapshot, Request: request, GameID: e.GameID(), Snapshot: &s}
}
