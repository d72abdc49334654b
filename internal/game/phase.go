// internal/game/phase.go
package game

import "github.com/jason-s-yu/bloodrecall/internal/models"

// phaseTable lists the legal successors of each phase. GameOver has none.
var phaseTable = map[models.Phase][]models.Phase{
	models.PhaseMain:    {models.PhaseBattle},
	models.PhaseBattle:  {models.PhaseCleanup, models.PhaseGameOver},
	models.PhaseCleanup: {models.PhaseMain},
}

// CanAdvance reports whether the machine may move from one phase to another.
func CanAdvance(from, to models.Phase) bool {
	for _, p := range phaseTable[from] {
		if p == to {
			return true
		}
	}
	return false
}

// advance moves s to phase to, or fails without touching s.
func advance(s *models.GameState, to models.Phase) error {
	if !CanAdvance(s.Phase, to) {
		return ErrIllegalTransition
	}
	s.Phase = to
	return nil
}
