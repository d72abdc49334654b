// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/bloodrecall/internal/models"
)

// viewLogTail bounds how many log lines a view carries.
const viewLogTail = 50

// PlayerView is one participant as seen by a viewer. Only the viewer's own
// hand is revealed; the rest of the participant's private containers are
// reported as counts.
type PlayerView struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	IsCPU        bool              `json:"isCpu"`
	Connected    bool              `json:"connected"`
	IsActive     bool              `json:"isActive"`
	Hand         []models.Card     `json:"hand,omitempty"`
	HandSize     int               `json:"handSize"`
	Field        []models.Card     `json:"field"`
	DiscardSize  int               `json:"discardSize"`
	LifeCount    int               `json:"lifeCount"`
	BloodCount   int               `json:"bloodCount"`
	Jinki        models.Jinki      `json:"jinki"`
	Stats        models.JinkiStats `json:"stats"`
	ActionsTaken int               `json:"actionsTaken"`
	HasPassed    bool              `json:"hasPassed"`
	TotalAttack  int               `json:"totalAttack"`
}

// MatchView is the per-viewer projection of a GameState sent to clients.
type MatchView struct {
	MatchID        uuid.UUID     `json:"matchId"`
	Phase          models.Phase  `json:"phase"`
	TurnCount      int           `json:"turnCount"`
	Players        []PlayerView  `json:"players"`
	Market         []models.Card `json:"market"`
	MarketDeckSize int           `json:"marketDeckSize"`
	Log            []string      `json:"log"`
	ActivePlayerID string        `json:"activePlayerId,omitempty"`
	FirstPlayerID  string        `json:"firstPlayerId,omitempty"`
	WinnerID       string        `json:"winnerId,omitempty"`
}

// NewView projects s for viewerID. An empty viewerID sees no hands.
func NewView(s models.GameState, viewerID string) MatchView {
	v := MatchView{
		Phase:          s.Phase,
		TurnCount:      s.TurnCount,
		Market:         s.Market,
		MarketDeckSize: len(s.MarketDeck),
		Log:            s.Log,
		WinnerID:       s.WinnerID,
	}
	if n := len(s.Log); n > viewLogTail {
		v.Log = s.Log[n-viewLogTail:]
	}
	if p := s.ActivePlayer(); p != nil {
		v.ActivePlayerID = p.ID
	}
	if s.FirstPlayerIndex >= 0 && s.FirstPlayerIndex < len(s.Players) {
		v.FirstPlayerID = s.Players[s.FirstPlayerIndex].ID
	}

	for i, p := range s.Players {
		pv := PlayerView{
			ID:           p.ID,
			Name:         p.Name,
			IsCPU:        p.IsCPU,
			IsActive:     i == s.ActivePlayerIndex && s.Phase == models.PhaseMain,
			HandSize:     len(p.Hand),
			Field:        p.Field,
			DiscardSize:  len(p.Discard),
			LifeCount:    len(p.Life),
			BloodCount:   len(p.BloodPool),
			Jinki:        p.Jinki,
			Stats:        p.Jinki.Stats(),
			ActionsTaken: p.ActionsTaken,
			HasPassed:    p.HasPassed,
			TotalAttack:  p.TotalAttack,
		}
		if viewerID != "" && p.ID == viewerID {
			pv.Hand = p.Hand
		}
		v.Players = append(v.Players, pv)
	}
	return v
}

// view builds the viewer's projection with connection flags. Lock must be held.
func (m *Match) view(viewerID string) MatchView {
	v := NewView(m.state, viewerID)
	v.MatchID = m.ID
	for i := range v.Players {
		v.Players[i].Connected = v.Players[i].IsCPU || m.connected[v.Players[i].ID]
	}
	return v
}
