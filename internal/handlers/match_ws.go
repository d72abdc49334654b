// internal/handlers/match_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/bloodrecall/internal/game"
	"github.com/jason-s-yu/bloodrecall/internal/middleware"
	"github.com/jason-s-yu/bloodrecall/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	matchSubprotocol = "match"

	// maxThrottled is how many over-limit messages in a row a client may
	// send before it is disconnected.
	maxThrottled = 20
)

var errUnknownMessage = errors.New("unknown message type")

// toAction maps a client message onto a reducer action issued by playerID.
func toAction(playerID string, msg models.GameAction) (game.Action, error) {
	switch msg.ActionType {
	case models.ActionPlayCard:
		if msg.CardID == "" {
			return nil, errors.New("cardId is required")
		}
		return game.PlayCard{PlayerID: playerID, CardID: msg.CardID}, nil
	case models.ActionSelfInflict:
		return game.SelfInflict{PlayerID: playerID}, nil
	case models.ActionBuyCard:
		return game.BuyCard{PlayerID: playerID, CardIndex: msg.CardIndex}, nil
	case models.ActionPassPhase:
		return game.PassPhase{PlayerID: playerID}, nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownMessage, msg.ActionType)
}

// MatchWSHandler upgrades the connection for a participant of a live match,
// sends them the current view, then routes their moves into the match.
func (s *Server) MatchWSHandler(w http.ResponseWriter, r *http.Request) {
	m, status := s.lookupMatch(chi.URLParam(r, "id"))
	if m == nil {
		http.Error(w, http.StatusText(status), status)
		return
	}
	h, ok := s.hubs.get(m.ID)
	if !ok {
		http.Error(w, "match is closing", http.StatusGone)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{matchSubprotocol},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Log.WithError(err).WithField("match_id", m.ID).Warn("websocket accept error")
		return
	}
	defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

	if c.Subprotocol() != matchSubprotocol {
		c.Close(BadSubprotocolError, "Client must use the 'match' subprotocol.")
		return
	}

	userID, err := authenticate(r)
	if err != nil {
		c.Close(InvalidAuthTokenError, "Authentication failed.")
		return
	}
	if !m.IsParticipant(userID) {
		c.Close(InvalidUserIDError, "You are not a participant in this match.")
		return
	}

	logger := s.Log.WithFields(logrus.Fields{"match_id": m.ID, "player_id": userID})
	middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cl := newClient(userID)
	h.attach(cl)
	go cl.writeLoop(ctx, c, logger)
	m.Connect(userID)

	err = s.readMatchMessages(ctx, c, m, cl, logger)

	if h.detach(cl) {
		m.Disconnect(userID)
	}
	middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
}

// readMatchMessages runs until the socket closes or the client is dropped.
func (s *Server) readMatchMessages(ctx context.Context, c *websocket.Conn, m *game.Match, cl *client, logger logrus.FieldLogger) error {
	burst := s.Config.WSRateBurst
	if burst <= 0 {
		burst = 1
	}
	perSec := rate.Inf
	if s.Config.WSRatePerSec > 0 {
		perSec = rate.Limit(s.Config.WSRatePerSec)
	}
	limiter := rate.NewLimiter(perSec, burst)
	throttled := 0

	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if !limiter.Allow() {
			throttled++
			if throttled >= maxThrottled {
				cl.close(RateLimitedError, "Too many messages.")
				c.Close(RateLimitedError, "Too many messages.")
				return errors.New("rate limited")
			}
			sendError(cl, "rate limited")
			continue
		}
		throttled = 0

		if msgType != websocket.MessageText {
			logger.Warn("ignoring non-text message")
			continue
		}

		var msg models.GameAction
		if err := json.Unmarshal(data, &msg); err != nil {
			sendError(cl, "Invalid JSON format.")
			continue
		}

		if msg.ActionType == models.ActionPing {
			cl.enqueue(game.EventBytes(game.MatchEvent{Type: game.EventPong}))
			continue
		}

		a, err := toAction(cl.playerID, msg)
		if err != nil {
			sendError(cl, err.Error())
			continue
		}
		if err := m.Dispatch(cl.playerID, a); err != nil {
			logger.WithError(err).WithField("type", msg.ActionType).Debug("move rejected")
			sendError(cl, err.Error())
		}
	}
}

func sendError(cl *client, msg string) {
	cl.enqueue(game.EventBytes(game.MatchEvent{Type: game.EventError, Message: msg}))
}
