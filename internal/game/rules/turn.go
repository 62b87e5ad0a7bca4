package rules

// TurnManager tracks turn number, the seat whose turn it is and the current
// phase within that turn. Phases come from the rules document and are walked
// in document order; the cursor never wraps back to the first phase on its
// own, a new turn has to be started explicitly.
type TurnManager struct {
	phases      []string
	playerCount int
	turnNumber  int
	seatIndex   int
	phaseIndex  int
}

// NewTurnManager creates a manager at turn 1, seat 0, before the first phase.
func NewTurnManager(phases []string, playerCount int) *TurnManager {
	if playerCount < 1 {
		playerCount = 1
	}
	return &TurnManager{
		phases:      append([]string(nil), phases...),
		playerCount: playerCount,
		turnNumber:  1,
		phaseIndex:  -1,
	}
}

// TurnNumber returns the current turn number (1-based).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// SeatIndex returns the index of the player whose turn it is.
func (tm *TurnManager) SeatIndex() int {
	return tm.seatIndex
}

// PlayerCount returns the number of seats in the rotation.
func (tm *TurnManager) PlayerCount() int {
	return tm.playerCount
}

// CurrentPhase returns the phase in progress, or "" before the first phase of
// a turn has been entered.
func (tm *TurnManager) CurrentPhase() string {
	if tm.phaseIndex < 0 || tm.phaseIndex >= len(tm.phases) {
		return ""
	}
	return tm.phases[tm.phaseIndex]
}

// IsLastPhase reports whether the current phase is the final declared phase.
func (tm *TurnManager) IsLastPhase() bool {
	return tm.phaseIndex == len(tm.phases)-1
}

// EnterFirstPhase moves the cursor to the first declared phase.
func (tm *TurnManager) EnterFirstPhase() string {
	if len(tm.phases) == 0 {
		tm.phaseIndex = -1
		return ""
	}
	tm.phaseIndex = 0
	return tm.phases[0]
}

// AdvancePhase moves to the next phase. It returns false, leaving the cursor
// unchanged, when the current phase is the last one.
func (tm *TurnManager) AdvancePhase() (string, bool) {
	if tm.phaseIndex+1 >= len(tm.phases) {
		return tm.CurrentPhase(), false
	}
	tm.phaseIndex++
	return tm.phases[tm.phaseIndex], true
}

// EndTurn passes the turn to the next seat. When the rotation wraps back to
// seat 0 the turn number is incremented. The phase cursor is reset so the
// next turn starts before its first phase.
func (tm *TurnManager) EndTurn() (seat int, wrapped bool) {
	tm.seatIndex = (tm.seatIndex + 1) % tm.playerCount
	if tm.seatIndex == 0 {
		tm.turnNumber++
		wrapped = true
	}
	tm.phaseIndex = -1
	return tm.seatIndex, wrapped
}
