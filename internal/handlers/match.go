// internal/handlers/match.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/bloodrecall/internal/game"
)

type createMatchRequest struct {
	OpponentID    string `json:"opponentId,omitempty"` // another user; empty plays the CPU
	Relic         string `json:"relic,omitempty"`
	OpponentRelic string `json:"opponentRelic,omitempty"`
}

type createMatchResponse struct {
	MatchID uuid.UUID      `json:"matchId"`
	State   game.MatchView `json:"state"`
}

// CreateMatchHandler starts a match for the caller, either against the CPU or
// against another registered user.
//
// Request payload:
//
//	{
//	  "opponentId": "{uuid}",   // optional
//	  "relic": "Shiragane",     // optional
//	  "opponentRelic": "..."    // optional
//	}
func (s *Server) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := authenticate(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var req createMatchRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
	}

	if existing, ok := s.Store.ForPlayer(userID); ok {
		http.Error(w, "already in match "+existing.ID.String(), http.StatusConflict)
		return
	}

	ctx := r.Context()
	self, ephemeral := game.Seat{ID: userID, Name: "Player", Relic: req.Relic}, true
	if s.Persist != nil {
		if uid, perr := uuid.Parse(userID); perr == nil {
			if u, lerr := s.Persist.LookupUser(ctx, uid); lerr == nil {
				self.Name = u.Username
				ephemeral = u.IsEphemeral
			}
		}
	}

	opponent := game.DefaultSeats[1]
	opponent.Relic = req.OpponentRelic
	ranked := false
	if req.OpponentID != "" {
		oppID, err := uuid.Parse(req.OpponentID)
		if err != nil || oppID.String() == userID {
			http.Error(w, "invalid opponent id", http.StatusBadRequest)
			return
		}
		if s.Persist == nil {
			http.Error(w, "human opponents need a database", http.StatusServiceUnavailable)
			return
		}
		u, err := s.Persist.LookupUser(ctx, oppID)
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "opponent not found", http.StatusNotFound)
			return
		}
		if err != nil {
			s.Log.WithError(err).Error("failed to look up opponent")
			http.Error(w, "error looking up opponent", http.StatusInternalServerError)
			return
		}
		opponent = game.Seat{ID: oppID.String(), Name: u.Username, Relic: req.OpponentRelic}
		ranked = !ephemeral && !u.IsEphemeral
	}

	m, err := s.NewMatch([2]game.Seat{self, opponent}, ranked)
	if errors.Is(err, game.ErrUnknownRelic) {
		http.Error(w, "unknown relic", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.Log.WithError(err).Error("failed to start match")
		http.Error(w, "error creating match", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, createMatchResponse{
		MatchID: m.ID,
		State:   m.Snapshot(userID),
	})
}

// MatchStateHandler returns the caller's view of a match.
func (s *Server) MatchStateHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := authenticate(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	m, status := s.lookupMatch(chi.URLParam(r, "id"))
	if m == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if !m.IsParticipant(userID) {
		http.Error(w, "not a participant", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot(userID))
}

func (s *Server) lookupMatch(raw string) (*game.Match, int) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, http.StatusBadRequest
	}
	m, ok := s.Store.Get(id)
	if !ok {
		return nil, http.StatusNotFound
	}
	return m, http.StatusOK
}
