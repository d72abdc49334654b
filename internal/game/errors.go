// internal/game/errors.go
package game

import (
	"errors"
	"fmt"
)

// Rejection reasons. Apply wraps them in a *RejectionError; match them with
// errors.Is.
var (
	ErrWrongPhase        = errors.New("action not allowed in current phase")
	ErrIllegalTransition = errors.New("illegal phase transition")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrCardNotInHand     = errors.New("card not in hand")
	ErrRelicTapped       = errors.New("relic already tapped")
	ErrNoLife            = errors.New("no life left")
	ErrNoActionsLeft     = errors.New("no succession actions left")
	ErrNoMarketSlot      = errors.New("no such market slot")
	ErrInsufficientBlood = errors.New("not enough blood")
	ErrUnknownRelic      = errors.New("unknown relic")
	ErrUnknownAction     = errors.New("unknown action")
	ErrDuplicateSeat     = errors.New("duplicate seat id")
)

// RejectionError reports why an action left the state unchanged.
type RejectionError struct {
	Kind ActionKind
	Err  error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s rejected: %v", e.Kind, e.Err)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// Session errors returned by Match.
var (
	ErrMatchNotStarted = errors.New("match not started")
	ErrMatchStarted    = errors.New("match already started")
	ErrMatchOver       = errors.New("match is over")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrNotYourSeat     = errors.New("action issued for another participant")
	ErrSystemAction    = errors.New("action may only be issued by the match")
)
