// internal/game/match.go
package game

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bloodrecall/internal/cache"
	"github.com/jason-s-yu/bloodrecall/internal/models"
	"github.com/sirupsen/logrus"
)

// OnMatchEndFunc handles a finished match, e.g. persisting results and
// updating ratings. It is called with the match lock held and must not call
// back into the Match.
type OnMatchEndFunc func(matchID uuid.UUID, winnerID string, final models.GameState)

// DriverFunc picks the next action for an automated participant. It returns
// false when it has nothing to do.
type DriverFunc func(s models.GameState) (Action, bool)

// Timing holds the delays the session waits before advancing on its own.
type Timing struct {
	BattleDelay   time.Duration
	CleanupDelay  time.Duration
	CPUThinkDelay time.Duration
}

// DefaultTiming mirrors the pacing of the tabletop client.
var DefaultTiming = Timing{
	BattleDelay:   2 * time.Second,
	CleanupDelay:  2 * time.Second,
	CPUThinkDelay: 1500 * time.Millisecond,
}

// Match owns the GameState of one live match. Every change goes through the
// reducer while Mu is held; the match also plays the scheduler role, firing
// ResolveBattle, Cleanup and CPU moves after their delays.
type Match struct {
	ID     uuid.UUID
	Env    Env
	Seats  [2]Seat
	Timing Timing

	// Driver chooses moves for CPU seats. If nil, CPU seats never act.
	Driver DriverFunc

	// BroadcastFn is used to send events to every viewer. If nil, no broadcast is done.
	BroadcastFn func(ev MatchEvent)

	// BroadcastToPlayerFn sends an event to a single participant.
	BroadcastToPlayerFn func(playerID string, ev MatchEvent)

	// OnGameEnd is invoked once when the match reaches GameOver.
	OnGameEnd OnMatchEndFunc

	Mu          sync.Mutex
	state       models.GameState
	started     bool
	token       int // bumped on every accepted transition; timers carry the value they were armed with
	actionIndex int
	timer       *time.Timer
	connected   map[string]bool
	log         logrus.FieldLogger
}

// NewMatch builds an unstarted match for the given seats.
func NewMatch(seats [2]Seat, env Env, logger logrus.FieldLogger) *Match {
	id, _ := uuid.NewRandom()
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Match{
		ID:        id,
		Env:       env.orDefault(),
		Seats:     seats,
		Timing:    DefaultTiming,
		connected: make(map[string]bool),
		log:       logger.WithField("match_id", id),
	}
}

// Start deals the opening state and arms whatever comes next.
func (m *Match) Start() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.started {
		return ErrMatchStarted
	}
	if err := m.apply("", Initialize{Seats: m.Seats[:]}); err != nil {
		return err
	}
	m.started = true
	m.log.WithFields(logrus.Fields{
		"p1": m.Seats[0].ID,
		"p2": m.Seats[1].ID,
	}).Info("match started")
	m.afterTransition()
	return nil
}

// Dispatch applies a participant's action. The participant must be the
// active one and the action must be issued on their own behalf.
func (m *Match) Dispatch(playerID string, a Action) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	switch {
	case !m.started:
		return ErrMatchNotStarted
	case m.state.IsOver():
		return ErrMatchOver
	}
	actor := ActorID(a)
	if actor == "" {
		return ErrSystemAction
	}
	if actor != playerID {
		return ErrNotYourSeat
	}
	if active := m.state.ActivePlayer(); active == nil || active.ID != playerID {
		return ErrNotYourTurn
	}

	if err := m.apply(playerID, a); err != nil {
		return err
	}
	m.afterTransition()
	return nil
}

// State returns the current snapshot. GameState values are never mutated, so
// the caller may keep it.
func (m *Match) State() models.GameState {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.state
}

// Snapshot returns the match as seen by viewerID.
func (m *Match) Snapshot(viewerID string) MatchView {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.view(viewerID)
}

// IsParticipant reports whether playerID holds one of the seats.
func (m *Match) IsParticipant(playerID string) bool {
	return m.Seats[0].ID == playerID || m.Seats[1].ID == playerID
}

// Connect marks a participant as connected and sends them the current view.
func (m *Match) Connect(playerID string) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	m.connected[playerID] = true
	m.log.WithField("player_id", playerID).Info("participant connected")
	m.logAction(playerID, "player_connect", nil)
	if m.started {
		m.fireEventToPlayer(playerID, MatchEvent{Type: EventMatchState, State: ptr(m.view(playerID))})
	}
}

// Disconnect marks a participant as gone. The match keeps running; the
// participant can reconnect and resync.
func (m *Match) Disconnect(playerID string) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	delete(m.connected, playerID)
	m.log.WithField("player_id", playerID).Info("participant disconnected")
	m.logAction(playerID, "player_disconnect", nil)
}

// Stop cancels any pending timer. Used when a match is discarded.
func (m *Match) Stop() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.stopTimer()
}

// apply runs the reducer and publishes the result. Lock must be held.
func (m *Match) apply(actorID string, a Action) error {
	next, err := Apply(m.Env, m.state, a)
	entry := m.log.WithFields(logrus.Fields{
		"player_id": actorID,
		"action":    a.Kind().String(),
		"phase":     m.state.Phase.String(),
		"turn":      m.state.TurnCount,
	})
	if err != nil {
		entry.WithError(err).Debug("action rejected")
		return err
	}
	entry.Debug("action applied")
	if next.Phase != m.state.Phase {
		m.log.WithFields(logrus.Fields{
			"from": m.state.Phase.String(),
			"to":   next.Phase.String(),
			"turn": next.TurnCount,
		}).Info("phase changed")
	}

	m.state = next
	m.token++
	m.logAction(actorID, a.Kind().String(), actionPayload(a))
	m.broadcastState()
	return nil
}

// afterTransition arms the collaborator that the current phase waits on.
// Lock must be held.
func (m *Match) afterTransition() {
	m.stopTimer()

	switch m.state.Phase {
	case models.PhaseBattle:
		m.schedule(m.Timing.BattleDelay, func() {
			m.advance(ResolveBattle{})
		})
	case models.PhaseCleanup:
		m.schedule(m.Timing.CleanupDelay, func() {
			m.advance(Cleanup{})
		})
	case models.PhaseGameOver:
		m.endMatch()
	case models.PhaseMain:
		active := m.state.ActivePlayer()
		if active == nil || !active.IsCPU || m.Driver == nil {
			return
		}
		cpuID := active.ID
		m.schedule(m.Timing.CPUThinkDelay, func() {
			m.cpuTurn(cpuID)
		})
	}
}

// advance applies a system action and re-arms. Lock must be held.
func (m *Match) advance(a Action) {
	if err := m.apply("", a); err != nil {
		m.log.WithError(err).Warn("scheduled transition failed")
		return
	}
	m.afterTransition()
}

// cpuTurn asks the driver for one move. A move the reducer rejects is
// replaced by a pass so the match cannot stall. Lock must be held.
func (m *Match) cpuTurn(cpuID string) {
	active := m.state.ActivePlayer()
	if active == nil || active.ID != cpuID {
		return
	}
	a, ok := m.Driver(m.state)
	if !ok {
		return
	}
	if err := m.apply(cpuID, a); err != nil {
		m.log.WithError(err).WithField("player_id", cpuID).Warn("cpu move rejected, passing")
		if err := m.apply(cpuID, PassPhase{PlayerID: cpuID}); err != nil {
			m.log.WithError(err).Error("cpu pass rejected")
			return
		}
	}
	m.afterTransition()
}

// schedule runs fn after d unless another transition happens first.
// Lock must be held.
func (m *Match) schedule(d time.Duration, fn func()) {
	token := m.token
	m.timer = time.AfterFunc(d, func() {
		m.Mu.Lock()
		defer m.Mu.Unlock()

		// A stale timer means the state moved on after it was armed.
		if m.token != token || m.state.IsOver() {
			m.log.WithFields(logrus.Fields{
				"armed": token,
				"now":   m.token,
			}).Debug("stale timer ignored")
			return
		}
		fn()
	})
}

func (m *Match) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// endMatch announces the result. Lock must be held.
func (m *Match) endMatch() {
	m.stopTimer()
	winner := m.state.WinnerID
	m.log.WithFields(logrus.Fields{
		"winner_id": winner,
		"turn":      m.state.TurnCount,
	}).Info("match ended")
	m.logAction("", string(EventMatchEnd), map[string]interface{}{
		"winnerId": winner,
		"turns":    m.state.TurnCount,
	})
	m.fireEvent(MatchEvent{Type: EventMatchEnd, WinnerID: winner})

	if m.OnGameEnd != nil {
		m.OnGameEnd(m.ID, winner, m.state)
	}
}

// broadcastState sends every seated participant their own view.
// Lock must be held.
func (m *Match) broadcastState() {
	if m.BroadcastToPlayerFn == nil {
		return
	}
	for _, p := range m.state.Players {
		if p.IsCPU {
			continue
		}
		m.BroadcastToPlayerFn(p.ID, MatchEvent{Type: EventMatchState, State: ptr(m.view(p.ID))})
	}
}

func (m *Match) fireEvent(ev MatchEvent) {
	if m.BroadcastFn == nil {
		return
	}
	m.BroadcastFn(ev)
}

func (m *Match) fireEventToPlayer(playerID string, ev MatchEvent) {
	if m.BroadcastToPlayerFn == nil {
		return
	}
	m.BroadcastToPlayerFn(playerID, ev)
}

// logAction sends the action to the historian queue via Redis.
// Lock must be held.
func (m *Match) logAction(actorID, actionType string, payload map[string]interface{}) {
	m.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.MatchActionRecord{
		MatchID:       m.ID,
		ActionIndex:   m.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	if cache.Rdb == nil {
		return
	}
	go func(rec cache.MatchActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := cache.PublishMatchAction(ctx, rec); err != nil {
			m.log.WithError(err).WithField("action_index", rec.ActionIndex).Warn("failed to publish match action")
		}
	}(record)
}

func actionPayload(a Action) map[string]interface{} {
	switch v := a.(type) {
	case PlayCard:
		return map[string]interface{}{"cardId": v.CardID}
	case BuyCard:
		return map[string]interface{}{"cardIndex": v.CardIndex}
	case Log:
		return map[string]interface{}{"message": v.Message}
	case Initialize:
		return map[string]interface{}{"seats": v.Seats}
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
