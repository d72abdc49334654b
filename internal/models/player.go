// internal/models/player.go
package models

// Player is one participant of a match. Life and BloodPool hold opaque token
// ids; a token moves between the two but is never created or destroyed after
// setup.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	IsCPU bool   `json:"isCpu"`

	Hand    []Card `json:"hand"`
	Field   []Card `json:"field"`   // committed to this turn's battle
	Discard []Card `json:"discard"` // doubles as the draw pile

	Life      []string `json:"life"`
	BloodPool []string `json:"bloodPool"`

	Jinki        Jinki `json:"jinki"`
	ActionsTaken int   `json:"actionsTaken"`
	HasPassed    bool  `json:"hasPassed"`
	TotalAttack  int   `json:"totalAttack"`
}

// CardCount is the number of cards and tokens the player holds across every
// container.
func (p *Player) CardCount() int {
	return len(p.Hand) + len(p.Field) + len(p.Discard) + len(p.Life) + len(p.BloodPool)
}

// HandCard returns the index of cardID in the hand or -1.
func (p *Player) HandCard(cardID string) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}
