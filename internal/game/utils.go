// internal/game/utils.go
package game

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// MatchEventType names the outbound messages of a match.
type MatchEventType string

const (
	EventMatchState MatchEventType = "match_state"
	EventError      MatchEventType = "error"
	EventMatchEnd   MatchEventType = "match_end"
	EventPong       MatchEventType = "pong"
)

// MatchEvent is the envelope every outbound message uses.
type MatchEvent struct {
	Type     MatchEventType `json:"type"`
	State    *MatchView     `json:"state,omitempty"`
	Message  string         `json:"message,omitempty"`
	WinnerID string         `json:"winnerId,omitempty"`
}

// EventBytes marshals a MatchEvent into JSON bytes. It logs and returns "{}"
// if marshalling fails.
func EventBytes(ev MatchEvent) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).WithField("type", ev.Type).Warn("failed to marshal match event")
		return []byte("{}")
	}
	return data
}
