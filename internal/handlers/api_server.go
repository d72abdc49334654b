// internal/handlers/api_server.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jason-s-yu/bloodrecall/internal/bot"
	"github.com/jason-s-yu/bloodrecall/internal/config"
	"github.com/jason-s-yu/bloodrecall/internal/database"
	"github.com/jason-s-yu/bloodrecall/internal/game"
	"github.com/jason-s-yu/bloodrecall/internal/middleware"
	"github.com/jason-s-yu/bloodrecall/internal/models"
	"github.com/jason-s-yu/bloodrecall/internal/rating"
	"github.com/sirupsen/logrus"
)

// finishedRetention is how long a finished match stays readable before it is
// dropped from the store.
const finishedRetention = 5 * time.Minute

// Persistence is the durable side of the match server.
type Persistence interface {
	LookupUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	MatchStarted(ctx context.Context, matchID uuid.UUID, ranked bool, initial models.GameState) error
	MatchEnded(ctx context.Context, matchID uuid.UUID, winnerID string, final models.GameState, ranked bool) error
}

// postgres persists through the shared database pool.
type postgres struct{}

// PostgresPersistence returns the database-backed Persistence.
func PostgresPersistence() Persistence { return postgres{} }

func (postgres) LookupUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return database.GetUserByID(ctx, id)
}

func (postgres) MatchStarted(ctx context.Context, matchID uuid.UUID, ranked bool, initial models.GameState) error {
	return database.UpsertMatchStart(ctx, matchID, ranked, initial)
}

func (postgres) MatchEnded(ctx context.Context, matchID uuid.UUID, winnerID string, final models.GameState, ranked bool) error {
	results := make([]database.MatchResult, 0, len(final.Players))
	for _, p := range final.Players {
		results = append(results, database.MatchResult{
			PlayerID: p.ID,
			Relic:    p.Jinki.Name,
			LifeLeft: len(p.Life),
			DidWin:   p.ID == winnerID,
		})
	}
	if err := database.RecordMatchResult(ctx, matchID, winnerID, final.TurnCount, final, results); err != nil {
		return err
	}
	if !ranked {
		return nil
	}
	return commitRating(ctx, matchID, winnerID, final)
}

func commitRating(ctx context.Context, matchID uuid.UUID, winnerID string, final models.GameState) error {
	var users [2]models.User // winner, loser
	for _, p := range final.Players {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return fmt.Errorf("ranked seat %q is not a user id: %w", p.ID, err)
		}
		u, err := database.GetUserByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load user %s: %w", id, err)
		}
		if p.ID == winnerID {
			users[0] = *u
		} else {
			users[1] = *u
		}
	}
	w, l := rating.UpdateMatch(users[0], users[1])
	return database.CommitRatedResult(ctx, matchID, users, [2]models.User{w, l})
}

// Server holds the live matches and serves the HTTP and WebSocket API.
type Server struct {
	Store   *game.Store
	Config  config.Config
	Persist Persistence
	Log     logrus.FieldLogger

	// NewEnv supplies the randomness and id providers of each new match.
	NewEnv func() game.Env

	hubs *hubRegistry
}

func NewServer(store *game.Store, cfg config.Config, persist Persistence, logger logrus.FieldLogger) *Server {
	return &Server{
		Store:   store,
		Config:  cfg,
		Persist: persist,
		Log:     logger,
		NewEnv:  game.DefaultEnv,
		hubs:    newHubRegistry(),
	}
}

// Routes returns the server's router with logging, recovery and CORS applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LogMiddleware(s.Log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// user endpoints
	r.Post("/user/create", s.CreateUserHandler)
	r.Post("/user/login", s.LoginHandler)

	// match endpoints
	r.Post("/match/create", s.CreateMatchHandler)
	r.Get("/match/state/{id}", s.MatchStateHandler)
	r.Get("/match/ws/{id}", s.MatchWSHandler)

	return r
}

func (s *Server) allowedOrigins() []string {
	if len(s.Config.AllowedOrigins) > 0 {
		return s.Config.AllowedOrigins
	}
	return []string{"https://*", "http://*"}
}

func (s *Server) timing() game.Timing {
	t := game.DefaultTiming
	if s.Config.BattleDelay > 0 {
		t.BattleDelay = s.Config.BattleDelay
	}
	if s.Config.CleanupDelay > 0 {
		t.CleanupDelay = s.Config.CleanupDelay
	}
	if s.Config.CPUThinkDelay > 0 {
		t.CPUThinkDelay = s.Config.CPUThinkDelay
	}
	return t
}

// NewMatch seats the two participants, wires the CPU driver, the
// broadcaster and persistence, then starts the match.
func (s *Server) NewMatch(seats [2]game.Seat, ranked bool) (*game.Match, error) {
	m := game.NewMatch(seats, s.NewEnv(), s.Log)
	m.Timing = s.timing()
	m.Driver = bot.Decide

	h := newHub(m.ID, s.Log)
	m.BroadcastFn = h.broadcast
	m.BroadcastToPlayerFn = h.sendTo
	s.hubs.put(m.ID, h)

	m.OnGameEnd = func(matchID uuid.UUID, winnerID string, final models.GameState) {
		// Called with the match lock held.
		go s.finish(matchID, winnerID, final, ranked)
	}

	s.Store.Add(m)
	if err := m.Start(); err != nil {
		s.Store.Delete(m.ID)
		s.hubs.remove(m.ID)
		return nil, err
	}

	if s.Persist != nil {
		initial := m.State()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.Persist.MatchStarted(ctx, m.ID, ranked, initial); err != nil {
				s.Log.WithError(err).WithField("match_id", m.ID).Warn("failed to record match start")
			}
		}()
	}
	return m, nil
}

func (s *Server) finish(matchID uuid.UUID, winnerID string, final models.GameState, ranked bool) {
	if s.Persist != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.Persist.MatchEnded(ctx, matchID, winnerID, final, ranked)
		cancel()
		if err != nil {
			s.Log.WithError(err).WithField("match_id", matchID).Error("failed to record match result")
		}
	}
	time.AfterFunc(finishedRetention, func() {
		s.Store.Delete(matchID)
		s.hubs.remove(matchID)
	})
}
