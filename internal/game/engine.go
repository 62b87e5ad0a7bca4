package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tcgworld/tcg-engine/internal/game/card"
	"github.com/tcgworld/tcg-engine/internal/game/rules"
	"github.com/tcgworld/tcg-engine/internal/game/zone"
)

// Status is the lifecycle state of a game.
type Status int

const (
	StatusNotStarted Status = iota
	StatusRunning
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "NOT_STARTED"
	case StatusRunning:
		return "RUNNING"
	case StatusEnded:
		return "ENDED"
	default:
		return fmt.Sprintf("STATUS(%d)", int(s))
	}
}

type drawResult int

const (
	drawOK drawResult = iota
	drawHandFull
	drawDeckEmpty
)

// TurnEngine runs one game. Mutating calls are serialised; events produced by
// a call are published after the call has released the engine, in the order
// they happened.
type TurnEngine struct {
	mu sync.Mutex

	ctx    *EngineContext
	logger *zap.Logger
	gameID string

	status        Status
	winner        int
	endReason     string
	stopRequested bool

	players []*Player
	zones   *zone.Registry
	turns   *rules.TurnManager

	sequence int
	pending  []rules.Event
	replay   *Replay
}

// NewTurnEngine creates a game that has not started yet.
func NewTurnEngine(ctx *EngineContext) *TurnEngine {
	gameID := uuid.NewString()
	e := &TurnEngine{
		ctx:    ctx,
		logger: ctx.Logger.With(zap.String("game_id", gameID)),
		gameID: gameID,
		turns:  rules.NewTurnManager(ctx.Rules.PhaseNames(), ctx.Rules.GameInfo.PlayerCount),
		zones:  zone.NewRegistry(),
	}
	if ctx.Options.RecordReplay {
		e.replay = NewReplay(gameID)
	}
	return e
}

// GameID returns the game's unique id.
func (e *TurnEngine) GameID() string {
	return e.gameID
}

// Events returns the bus events are published on.
func (e *TurnEngine) Events() *rules.EventBus {
	return e.ctx.Events
}

// Validator returns the rule validator in use.
func (e *TurnEngine) Validator() *rules.Validator {
	return e.ctx.Validator
}

// Replay returns the recorded turn snapshots, or nil when recording is off.
func (e *TurnEngine) Replay() *Replay {
	return e.replay
}

// run executes fn under the engine lock and publishes the events it queued.
func (e *TurnEngine) run(fn func() error) error {
	e.mu.Lock()
	err := fn()
	events := e.pending
	e.pending = nil
	e.mu.Unlock()

	e.ctx.Events.PublishBatch(events)
	return err
}

func (e *TurnEngine) emit(ev rules.Event) {
	e.sequence++
	ev.ID = uuid.NewString()
	ev.GameID = e.gameID
	ev.Sequence = e.sequence
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	e.pending = append(e.pending, ev)
}

func (e *TurnEngine) onZoneChanged(z *zone.Zone, flipped *card.Card) {
	ev := rules.NewEvent(rules.EventZoneChanged, z.OwnerID)
	ev.ZoneName = z.Key()
	e.emit(ev)

	if flipped != nil {
		ev := rules.NewEvent(rules.EventCardFlipped, flipped.OwnerID)
		ev.CardID = flipped.ID
		ev.ZoneName = z.Key()
		ev.FaceUp = flipped.FaceUp
		e.emit(ev)
	}
}

// Start sets up players, zones and decks, deals opening hands and begins the
// first turn. AI seats play until a human seat is up or the game ends.
func (e *TurnEngine) Start() error {
	return e.run(e.start)
}

func (e *TurnEngine) start() error {
	if e.status != StatusNotStarted {
		return engineErr("start", ErrAlreadyStarted, 0, "")
	}

	doc := e.ctx.Rules
	opts := e.ctx.Options

	e.players = make([]*Player, 0, doc.GameInfo.PlayerCount)
	owners := make([]zone.Owner, 0, doc.GameInfo.PlayerCount)
	for seat := 1; seat <= doc.GameInfo.PlayerCount; seat++ {
		human := opts.isHuman(seat)
		e.players = append(e.players, newPlayer(seat, human, doc.GameInfo.InitialPlayerHealth, doc.TurnStructure.ResourceSystem))
		owners = append(owners, zone.Owner{ID: seat, Human: human})
	}

	zones, err := zone.Build(doc, owners, opts.FacePolicy, e.onZoneChanged)
	if err != nil {
		return fmt.Errorf("build zones: %w", err)
	}
	e.zones = zones

	for _, p := range e.players {
		if err := e.fillDeck(p); err != nil {
			return err
		}
	}

	e.status = StatusRunning
	e.logger.Info("game started",
		zap.String("rules", doc.GameInfo.Name),
		zap.Int("players", len(e.players)),
		zap.Int("deck_size", opts.DeckSize),
		zap.String("strategy", e.ctx.Strategy.Name()),
	)

	for i, p := range e.players {
		n := doc.TurnStructure.FirstPlayerDraws
		if i > 0 {
			n++
		}
		for j := 0; j < n; j++ {
			if e.draw(p) == drawDeckEmpty {
				break
			}
		}
	}
	if e.checkWin() {
		return nil
	}

	e.runTurns()
	return nil
}

func (e *TurnEngine) fillDeck(p *Player) error {
	deck, ok := e.zones.ForPlayer(rules.ZoneDeck, p.ID)
	if !ok {
		return engineErr("start", ErrUnknownZone, p.ID, rules.ZoneDeck)
	}

	cards := card.BuildRandomDeck(e.ctx.Catalog, p.ID, e.ctx.Options.DeckSize, e.ctx.Rand)
	if len(cards) < e.ctx.Options.DeckSize {
		e.logger.Warn("card pool exhausted while building deck",
			zap.Int("player_id", p.ID),
			zap.Int("wanted", e.ctx.Options.DeckSize),
			zap.Int("built", len(cards)),
		)
	}
	for _, c := range cards {
		if err := deck.Add(c, nil); err != nil {
			e.logger.Warn("deck zone full, dropping remaining cards",
				zap.Int("player_id", p.ID),
				zap.Int("deck_count", deck.Len()),
			)
			break
		}
	}
	if deck.IsOrderable {
		_ = deck.Shuffle(e.ctx.Rand)
	}
	return nil
}

// runTurns begins turns until a human seat has to act or the game ends. A
// pending stop request is honoured before each turn begins.
func (e *TurnEngine) runTurns() {
	for e.status == StatusRunning {
		if e.stopRequested {
			e.end(0, "stopped")
			return
		}

		e.beginTurn()
		if e.status != StatusRunning {
			return
		}

		p := e.currentPlayer()
		if !p.IsAI {
			return
		}
		e.playAITurn(p)
		if e.status != StatusRunning {
			return
		}
		e.passTurn()
	}
}

func (e *TurnEngine) beginTurn() {
	p := e.currentPlayer()
	ts := e.ctx.Rules.TurnStructure

	ev := rules.NewEvent(rules.EventTurnStarted, p.ID)
	ev.TurnNumber = e.turns.TurnNumber()
	e.emit(ev)

	amount := p.resources.Refresh(ts.ResourceSystem)
	ev = rules.NewEvent(rules.EventResourcesRefreshed, p.ID)
	ev.Amount = amount
	e.emit(ev)

	e.logger.Debug("turn started",
		zap.Int("turn", e.turns.TurnNumber()),
		zap.Int("player_id", p.ID),
		zap.Int("resources", amount),
	)

	for i := 0; i < ts.NormalDrawCount; i++ {
		if e.draw(p) == drawDeckEmpty {
			if e.checkWin() {
				return
			}
			break
		}
	}

	phase := e.turns.EnterFirstPhase()
	ev = rules.NewEvent(rules.EventPhaseChanged, p.ID)
	ev.Phase = phase
	ev.TurnNumber = e.turns.TurnNumber()
	e.emit(ev)

	if e.replay != nil {
		e.replay.Record(e.snapshot())
	}
}

// draw moves the top card of p's deck into p's hand. A full hand leaves the
// card on top of the deck.
func (e *TurnEngine) draw(p *Player) drawResult {
	deck, _ := e.zones.ForPlayer(rules.ZoneDeck, p.ID)
	hand, _ := e.zones.ForPlayer(rules.ZoneHand, p.ID)

	if hand.IsFull() {
		e.handFull(p, hand)
		return drawHandFull
	}

	c, ok := deck.DrawTop()
	if !ok {
		p.failedDraw = true
		ev := rules.NewEvent(rules.EventDeckEmpty, p.ID)
		ev.ZoneName = deck.Key()
		e.emit(ev)
		e.logger.Info("deck empty", zap.Int("player_id", p.ID))
		return drawDeckEmpty
	}

	if err := hand.Add(c, nil); err != nil {
		top := 0
		_ = deck.Add(c, &top)
		e.handFull(p, hand)
		return drawHandFull
	}

	e.emitMove(c, deck, hand)
	ev := rules.NewEvent(rules.EventCardDrawn, p.ID)
	ev.CardID = c.ID
	e.emit(ev)
	return drawOK
}

func (e *TurnEngine) handFull(p *Player, hand *zone.Zone) {
	ev := rules.NewEvent(rules.EventHandFull, p.ID)
	ev.ZoneName = hand.Key()
	e.emit(ev)
	e.logger.Info("hand full, draw skipped",
		zap.Int("player_id", p.ID),
		zap.Int("hand_count", hand.Len()),
	)
}

func (e *TurnEngine) emitMove(c *card.Card, from, to *zone.Zone) {
	ev := rules.NewEvent(rules.EventCardMoved, c.OwnerID)
	ev.CardID = c.ID
	ev.FromZone = from.Key()
	ev.ToZone = to.Key()
	e.emit(ev)
}

func (e *TurnEngine) playAITurn(p *Player) {
	for {
		phase := e.turns.CurrentPhase()
		if e.ctx.Validator.IsActionAllowed(rules.ActionPlayCard, phase) {
			e.playAIPhase(p, phase)
			if e.status != StatusRunning {
				return
			}
		}
		if !e.advancePhase() {
			return
		}
	}
}

func (e *TurnEngine) playAIPhase(p *Player, phase string) {
	hand, _ := e.zones.ForPlayer(rules.ZoneHand, p.ID)
	field, _ := e.zones.ForPlayer(rules.ZoneField, p.ID)

	view := TurnView{
		PlayerID:   p.ID,
		TurnNumber: e.turns.TurnNumber(),
		Phase:      phase,
		Resources:  p.CurrentResources(),
		FieldZone:  field.Key(),
	}
	for _, c := range hand.Cards() {
		view.Hand = append(view.Hand, *c.Clone())
	}

	for _, m := range e.ctx.Strategy.Plan(view) {
		if err := e.playCard(p, m.CardID, m.Zone); err != nil {
			e.logger.Debug("ai move rejected",
				zap.Int("player_id", p.ID),
				zap.Int("card_id", m.CardID),
				zap.Error(err),
			)
			continue
		}
		if e.status != StatusRunning {
			return
		}
	}
}

func (e *TurnEngine) advancePhase() bool {
	phase, ok := e.turns.AdvancePhase()
	if !ok {
		return false
	}
	ev := rules.NewEvent(rules.EventPhaseChanged, e.currentPlayer().ID)
	ev.Phase = phase
	ev.TurnNumber = e.turns.TurnNumber()
	e.emit(ev)
	return true
}

func (e *TurnEngine) passTurn() {
	_, wrapped := e.turns.EndTurn()
	limit := e.ctx.Options.MaxTurns
	if wrapped && limit > 0 && e.turns.TurnNumber() > limit {
		e.end(0, "turn limit reached")
	}
}

// playCard moves a card from p's hand to the named zone. Every check runs
// before anything is mutated.
func (e *TurnEngine) playCard(p *Player, cardID int, zoneName string) error {
	hand, _ := e.zones.ForPlayer(rules.ZoneHand, p.ID)
	idx := hand.IndexOf(cardID)
	if idx < 0 {
		return &PlayError{Kind: ErrNotInHand, PlayerID: p.ID, CardID: cardID, Zone: zoneName}
	}
	c := hand.Cards()[idx]

	phase := e.turns.CurrentPhase()
	if !e.ctx.Validator.IsActionAllowed(rules.ActionPlayCard, phase) {
		return &PlayError{Kind: ErrWrongPhase, PlayerID: p.ID, CardID: cardID, Zone: zoneName,
			Err: fmt.Errorf("phase %q", phase)}
	}

	target, ok := e.zones.Resolve(zoneName, p.ID)
	if !ok {
		return engineErr("play card", ErrUnknownZone, p.ID, zoneName)
	}

	candidate := rules.PlayCandidate{ID: c.ID, Cost: c.Cost, CardType: c.CardType, OwnerID: c.OwnerID}
	dest := rules.ZoneTarget{
		Name:        target.Name,
		OwnerID:     target.OwnerID,
		PerPlayer:   target.OwnerID != 0,
		Count:       target.Len(),
		MaxCapacity: target.MaxCapacity,
	}
	if err := e.ctx.Validator.ValidateCardPlay(candidate, dest, p.CurrentResources()); err != nil {
		return &PlayError{Kind: playKind(err), PlayerID: p.ID, CardID: cardID, Zone: target.Key(), Err: err}
	}

	if _, err := hand.RemoveAt(idx); err != nil {
		return &PlayError{Kind: ErrNotInHand, PlayerID: p.ID, CardID: cardID, Zone: target.Key(), Err: err}
	}
	if err := target.Add(c, nil); err != nil {
		_ = hand.Add(c, &idx)
		return &PlayError{Kind: ErrZoneFull, PlayerID: p.ID, CardID: cardID, Zone: target.Key(), Err: err}
	}
	_ = p.resources.Spend(c.Cost)

	e.emitMove(c, hand, target)
	ev := rules.NewEvent(rules.EventCardPlayed, p.ID)
	ev.CardID = c.ID
	ev.ToZone = target.Key()
	ev.Amount = c.Cost
	e.emit(ev)

	e.logger.Debug("card played",
		zap.Int("player_id", p.ID),
		zap.Stringer("card", c),
		zap.String("zone", target.Key()),
		zap.Int("resources_left", p.CurrentResources()),
	)

	if err := e.ctx.Effects.Resolve(engineScope{e: e}, *c.Clone()); err != nil {
		e.logger.Warn("effect resolution failed", zap.Int("card_id", c.ID), zap.Error(err))
	}
	e.checkWin()
	return nil
}

func playKind(err error) error {
	for _, kind := range []error{ErrInsufficientResources, ErrZoneFull, ErrWrongOwner, ErrIllegalCardType} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return err
}

func (e *TurnEngine) damage(playerID, amount int) error {
	p, ok := e.player(playerID)
	if !ok {
		return engineErr("damage", ErrUnknownPlayer, playerID, "")
	}
	if amount <= 0 {
		return nil
	}
	p.Health -= amount
	ev := rules.NewEvent(rules.EventPlayerDamaged, p.ID)
	ev.Amount = amount
	e.emit(ev)
	return nil
}

// checkWin evaluates the win conditions and ends the game if one triggers.
func (e *TurnEngine) checkWin() bool {
	statuses := make([]rules.PlayerStatus, len(e.players))
	for i, p := range e.players {
		deck, _ := e.zones.ForPlayer(rules.ZoneDeck, p.ID)
		statuses[i] = rules.PlayerStatus{
			ID:         p.ID,
			Health:     p.Health,
			DeckCount:  deck.Len(),
			FailedDraw: p.failedDraw,
		}
	}
	winner, ok := e.ctx.Validator.CheckWinConditions(statuses)
	if !ok {
		return false
	}
	if winner == 0 {
		e.end(0, "all players lost")
		return true
	}
	e.end(winner, "win condition met")
	return true
}

func (e *TurnEngine) end(winner int, reason string) {
	e.status = StatusEnded
	e.winner = winner
	e.endReason = reason

	ev := rules.NewEvent(rules.EventGameEnded, winner)
	ev.WinnerID = winner
	ev.TurnNumber = e.turns.TurnNumber()
	e.emit(ev)

	e.logger.Info("game ended",
		zap.Int("winner_id", winner),
		zap.String("reason", reason),
		zap.Int("turn", e.turns.TurnNumber()),
	)
}

func (e *TurnEngine) currentPlayer() *Player {
	return e.players[e.turns.SeatIndex()]
}

func (e *TurnEngine) player(id int) (*Player, bool) {
	if id < 1 || id > len(e.players) {
		return nil, false
	}
	return e.players[id-1], true
}

// requireTurn checks that the game is running and playerID holds the turn.
func (e *TurnEngine) requireTurn(op string, playerID int) (*Player, error) {
	switch e.status {
	case StatusNotStarted:
		return nil, engineErr(op, ErrNotStarted, playerID, "")
	case StatusEnded:
		return nil, engineErr(op, ErrGameAlreadyEnded, playerID, "")
	}
	p, ok := e.player(playerID)
	if !ok {
		return nil, engineErr(op, ErrUnknownPlayer, playerID, "")
	}
	if cur := e.currentPlayer(); cur.ID != p.ID {
		return nil, engineErr(op, ErrNotCurrentPlayer, playerID, fmt.Sprintf("player %d holds the turn", cur.ID))
	}
	return p, nil
}

// PlayCard plays cardID from the player's hand into zoneName. zoneName is a
// zone definition name resolved for the player ("Field") or a registry key
// ("Field_1").
func (e *TurnEngine) PlayCard(playerID, cardID int, zoneName string) error {
	return e.run(func() error {
		p, err := e.requireTurn("play card", playerID)
		if err != nil {
			return err
		}
		return e.playCard(p, cardID, zoneName)
	})
}

// AdvancePhase moves the current turn to its next phase. The last phase does
// not wrap; the turn has to be ended instead.
func (e *TurnEngine) AdvancePhase(playerID int) error {
	return e.run(func() error {
		if _, err := e.requireTurn("advance phase", playerID); err != nil {
			return err
		}
		if !e.advancePhase() {
			return engineErr("advance phase", ErrNoNextPhase, playerID, e.turns.CurrentPhase())
		}
		return nil
	})
}

// EndTurn passes the turn to the next seat and begins it.
func (e *TurnEngine) EndTurn(playerID int) error {
	return e.run(func() error {
		if _, err := e.requireTurn("end turn", playerID); err != nil {
			return err
		}
		e.passTurn()
		e.runTurns()
		return nil
	})
}

// ShuffleZone shuffles one of the current player's zones or a shared zone.
func (e *TurnEngine) ShuffleZone(playerID int, zoneName string) error {
	return e.run(func() error {
		if _, err := e.requireTurn("shuffle zone", playerID); err != nil {
			return err
		}
		z, ok := e.zones.Resolve(zoneName, playerID)
		if !ok {
			return engineErr("shuffle zone", ErrUnknownZone, playerID, zoneName)
		}
		if z.OwnerID != 0 && z.OwnerID != playerID {
			return engineErr("shuffle zone", ErrWrongOwner, playerID, z.Key())
		}
		return z.Shuffle(e.ctx.Rand)
	})
}

// ApplyDamage reduces a player's health and checks the win conditions.
func (e *TurnEngine) ApplyDamage(playerID, amount int) error {
	return e.run(func() error {
		switch e.status {
		case StatusNotStarted:
			return engineErr("apply damage", ErrNotStarted, playerID, "")
		case StatusEnded:
			return engineErr("apply damage", ErrGameAlreadyEnded, playerID, "")
		}
		if err := e.damage(playerID, amount); err != nil {
			return err
		}
		e.checkWin()
		return nil
	})
}

// Stop asks the engine to end the game before the next turn begins.
func (e *TurnEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.stopRequested {
		e.stopRequested = true
		e.logger.Info("stop requested")
	}
}

// Status returns the lifecycle state.
func (e *TurnEngine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Winner returns the winning player id. 0 with ok true is a draw or a stop.
func (e *TurnEngine) Winner() (winner int, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.winner, e.status == StatusEnded
}

// EndReason describes why the game ended.
func (e *TurnEngine) EndReason() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.endReason
}

// TurnNumber returns the current turn number.
func (e *TurnEngine) TurnNumber() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.turns.TurnNumber()
}

// CurrentPlayerID returns the id of the player whose turn it is.
func (e *TurnEngine) CurrentPlayerID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.players) == 0 {
		return 0
	}
	return e.currentPlayer().ID
}

// CurrentPhase returns the phase in progress.
func (e *TurnEngine) CurrentPhase() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.turns.CurrentPhase()
}

// Player returns a copy of a player.
func (e *TurnEngine) Player(id int) (PlayerView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.player(id)
	if !ok {
		return PlayerView{}, false
	}
	return e.playerView(p), true
}

// Zone returns a copy of a zone by registry key or by name for playerID.
func (e *TurnEngine) Zone(name string, playerID int) (zone.View, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	z, ok := e.zones.Resolve(name, playerID)
	if !ok {
		return zone.View{}, false
	}
	return z.Snapshot(), true
}

func (e *TurnEngine) playerView(p *Player) PlayerView {
	v := PlayerView{
		ID:               p.ID,
		Name:             p.Name,
		IsAI:             p.IsAI,
		Health:           p.Health,
		CurrentResources: p.CurrentResources(),
		MaxResources:     p.MaxResources(),
	}
	if deck, ok := e.zones.ForPlayer(rules.ZoneDeck, p.ID); ok {
		v.DeckCount = deck.Len()
	}
	if hand, ok := e.zones.ForPlayer(rules.ZoneHand, p.ID); ok {
		v.HandCount = hand.Len()
	}
	return v
}
