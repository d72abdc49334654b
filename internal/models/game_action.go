package models

// GameAction is a move sent by a connected client. CardID is used by
// play_card, CardIndex by buy_card.
type GameAction struct {
	ActionType string `json:"type"`
	CardID     string `json:"cardId,omitempty"`
	CardIndex  int    `json:"cardIndex,omitempty"`
}

// Client action types.
const (
	ActionPlayCard    = "play_card"
	ActionSelfInflict = "self_inflict"
	ActionBuyCard     = "buy_card"
	ActionPassPhase   = "pass_phase"
	ActionPing        = "ping"
)
