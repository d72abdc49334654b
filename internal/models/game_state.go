// internal/models/game_state.go
package models

// GameState is a full snapshot of a match. Transitions never mutate a
// GameState in place; they build a new one and share whatever did not change.
type GameState struct {
	Phase             Phase     `json:"phase"`
	TurnCount         int       `json:"turnCount"`
	Players           []*Player `json:"players"` // always two, fixed order
	Market            []Card    `json:"market"`
	MarketDeck        []Card    `json:"marketDeck"`
	Log               []string  `json:"log"`
	FirstPlayerIndex  int       `json:"firstPlayerIndex"`
	ActivePlayerIndex int       `json:"activePlayerIndex"`
	WinnerID          string    `json:"winnerId,omitempty"` // empty until decided
}

// PlayerIndex returns the seat of playerID or -1.
func (s GameState) PlayerIndex(playerID string) int {
	for i, p := range s.Players {
		if p != nil && p.ID == playerID {
			return i
		}
	}
	return -1
}

// ActivePlayer returns the participant whose turn it is, or nil before setup.
func (s GameState) ActivePlayer() *Player {
	if s.ActivePlayerIndex < 0 || s.ActivePlayerIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.ActivePlayerIndex]
}

// IsOver reports whether a winner has been decided.
func (s GameState) IsOver() bool {
	return s.Phase == PhaseGameOver
}
