// Package bot implements the fixed-priority opponent that plays CPU seats.
package bot

import (
	"errors"
	"fmt"

	"github.com/jason-s-yu/bloodrecall/internal/game"
	"github.com/jason-s-yu/bloodrecall/internal/models"
)

// Decide returns the CPU's next action, or false when it is not a CPU's turn
// to act in Main. It proposes exactly one action per call, in priority order:
// self-inflict while the relic is untapped, play the first Assault card in
// hand, buy the first affordable market card while actions remain, pass.
func Decide(s models.GameState) (game.Action, bool) {
	if s.Phase != models.PhaseMain || s.WinnerID != "" {
		return nil, false
	}
	p := s.ActivePlayer()
	if p == nil || !p.IsCPU {
		return nil, false
	}

	if !p.Jinki.IsTapped && len(p.Life) > 0 {
		return game.SelfInflict{PlayerID: p.ID}, true
	}
	for _, c := range p.Hand {
		if c.Type == models.CardAssault {
			return game.PlayCard{PlayerID: p.ID, CardID: c.ID}, true
		}
	}
	if p.ActionsTaken < p.Jinki.Stats().BloodSuccession {
		if i := firstAffordable(s.Market, len(p.BloodPool)); i >= 0 {
			return game.BuyCard{PlayerID: p.ID, CardIndex: i}, true
		}
	}
	return game.PassPhase{PlayerID: p.ID}, true
}

func firstAffordable(market []models.Card, blood int) int {
	for i, c := range market {
		if c.Cost <= blood {
			return i
		}
	}
	return -1
}

// ErrTurnLimit is returned by Play when the match outlasts its turn budget.
var ErrTurnLimit = errors.New("turn limit reached")

// Play runs a headless match with every seat driven by Decide and the
// system transitions applied immediately. maxTurns <= 0 means no limit.
func Play(env game.Env, seats []game.Seat, maxTurns int) (models.GameState, error) {
	cpus := make([]game.Seat, len(seats))
	for i, st := range seats {
		st.IsCPU = true
		cpus[i] = st
	}
	s, err := game.Apply(env, models.GameState{}, game.Initialize{Seats: cpus})
	if err != nil {
		return s, err
	}

	for !s.IsOver() {
		if maxTurns > 0 && s.TurnCount > maxTurns {
			return s, fmt.Errorf("%w after %d turns", ErrTurnLimit, maxTurns)
		}
		var a game.Action
		switch s.Phase {
		case models.PhaseBattle:
			a = game.ResolveBattle{}
		case models.PhaseCleanup:
			a = game.Cleanup{}
		default:
			var ok bool
			if a, ok = Decide(s); !ok {
				return s, fmt.Errorf("no move in %s", s.Phase)
			}
		}
		next, err := game.Apply(env, s, a)
		if err != nil {
			return s, err
		}
		s = next
	}
	return s, nil
}
