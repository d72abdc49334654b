// internal/models/phase.go
package models

import "fmt"

// Phase is the match phase. Setup exists for completeness but no transition
// ever enters it.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseMain
	PhaseBattle
	PhaseCleanup
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseSetup:    "SETUP",
	PhaseMain:     "MAIN",
	PhaseBattle:   "BATTLE",
	PhaseCleanup:  "CLEANUP",
	PhaseGameOver: "GAME_OVER",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParsePhase maps a wire name back to a Phase.
func ParsePhase(s string) (Phase, error) {
	for p, name := range phaseNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	parsed, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
