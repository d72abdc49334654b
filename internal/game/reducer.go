// internal/game/reducer.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/bloodrecall/internal/models"
)

// transition is one entry of the dispatch table. An empty from list means the
// action is legal in every phase.
type transition struct {
	from  []models.Phase
	apply func(env Env, s models.GameState, a Action) (models.GameState, error)
}

var transitions = map[ActionKind]transition{
	KindInitialize:    {apply: initialize},
	KindPlayCard:      {from: []models.Phase{models.PhaseMain}, apply: playCard},
	KindSelfInflict:   {from: []models.Phase{models.PhaseMain}, apply: selfInflict},
	KindBuyCard:       {from: []models.Phase{models.PhaseMain}, apply: buyCard},
	KindPassPhase:     {from: []models.Phase{models.PhaseMain}, apply: passPhase},
	KindResolveBattle: {from: []models.Phase{models.PhaseBattle}, apply: resolveBattle},
	KindCleanup:       {from: []models.Phase{models.PhaseCleanup}, apply: cleanup},
	KindLog:           {apply: appendLog},
}

// Apply computes the state that follows s under a. On rejection it returns s
// untouched together with a *RejectionError; s is never mutated either way.
func Apply(env Env, s models.GameState, a Action) (models.GameState, error) {
	if a == nil {
		return s, &RejectionError{Kind: -1, Err: ErrUnknownAction}
	}
	t, ok := transitions[a.Kind()]
	if !ok {
		return s, &RejectionError{Kind: a.Kind(), Err: ErrUnknownAction}
	}
	if len(t.from) > 0 && !phaseIn(s.Phase, t.from) {
		return s, &RejectionError{
			Kind: a.Kind(),
			Err:  fmt.Errorf("%w: %s during %s", ErrWrongPhase, a.Kind(), s.Phase),
		}
	}
	next, err := t.apply(env.orDefault(), s, a)
	if err != nil {
		return s, &RejectionError{Kind: a.Kind(), Err: err}
	}
	return next, nil
}

// Reduce is Apply with the rejection discarded: illegal actions return s.
func Reduce(env Env, s models.GameState, a Action) models.GameState {
	next, _ := Apply(env, s, a)
	return next
}

func phaseIn(p models.Phase, set []models.Phase) bool {
	for _, q := range set {
		if p == q {
			return true
		}
	}
	return false
}

// withPlayer returns a copy of players with seat i replaced.
func withPlayer(players []*models.Player, i int, p *models.Player) []*models.Player {
	out := make([]*models.Player, len(players))
	copy(out, players)
	out[i] = p
	return out
}

func clonePlayer(p *models.Player) *models.Player {
	c := *p
	return &c
}

func seat(s models.GameState, playerID string) (int, error) {
	idx := s.PlayerIndex(playerID)
	if idx < 0 || len(s.Players) != 2 {
		return -1, fmt.Errorf("%w: %q", ErrUnknownPlayer, playerID)
	}
	return idx, nil
}

func initialize(env Env, s models.GameState, a Action) (models.GameState, error) {
	act := a.(Initialize)
	seats := DefaultSeats
	for i := 0; i < len(act.Seats) && i < 2; i++ {
		st := act.Seats[i]
		if st.ID == "" {
			st.ID = DefaultSeats[i].ID
		}
		if st.Name == "" {
			st.Name = DefaultSeats[i].Name
		}
		seats[i] = st
	}
	if seats[0].ID == seats[1].ID {
		return s, fmt.Errorf("%w: %q", ErrDuplicateSeat, seats[0].ID)
	}

	// Distinct random relics for seats that did not pick one.
	relics := make([]string, len(env.Catalog.Relics))
	for i, j := range env.Catalog.Relics {
		relics[i] = j.Name
	}
	env.Rand.Shuffle(len(relics), func(i, j int) { relics[i], relics[j] = relics[j], relics[i] })
	pick := 0
	players := make([]*models.Player, 2)
	for i, st := range seats {
		name := st.Relic
		if name == "" {
			for pick < len(relics) && (relics[pick] == seats[0].Relic || relics[pick] == seats[1].Relic) {
				pick++
			}
			name = relics[pick%len(relics)]
			pick++
		}
		jinki, err := NewJinki(env.Catalog, name)
		if err != nil {
			return s, err
		}
		p := NewPlayer(st, jinki, env)
		p.Hand, p.Discard = split(p.Discard, jinki.Stats().HandSize)
		players[i] = p
	}

	deck := MarketDeck(env.Catalog, env.Rand, env.NewID)
	market, rest := split(deck, env.Catalog.Rules.MarketSize)

	return models.GameState{
		Phase:             models.PhaseMain,
		TurnCount:         1,
		Players:           players,
		Market:            market,
		MarketDeck:        rest,
		Log:               []string{"Game Started. Main Phase."},
		FirstPlayerIndex:  0,
		ActivePlayerIndex: 0,
	}, nil
}

func playCard(_ Env, s models.GameState, a Action) (models.GameState, error) {
	act := a.(PlayCard)
	idx, err := seat(s, act.PlayerID)
	if err != nil {
		return s, err
	}
	p := s.Players[idx]
	ci := p.HandCard(act.CardID)
	if ci < 0 {
		return s, fmt.Errorf("%w: %q", ErrCardNotInHand, act.CardID)
	}
	card := p.Hand[ci]

	np := clonePlayer(p)
	np.Hand = removedAt(p.Hand, ci)
	np.Field = appended(p.Field, card)
	if card.Type == models.CardBlood && len(p.Discard) > 0 {
		np.Hand = appended(np.Hand, p.Discard[0])
		np.Discard = removedAt(p.Discard, 0)
	}

	next := s
	next.Players = withPlayer(s.Players, idx, np)
	next.Log = appended(s.Log, fmt.Sprintf("%s played %s.", p.Name, card.Name))
	return next, nil
}

func selfInflict(_ Env, s models.GameState, a Action) (models.GameState, error) {
	act := a.(SelfInflict)
	idx, err := seat(s, act.PlayerID)
	if err != nil {
		return s, err
	}
	p := s.Players[idx]
	switch {
	case p.Jinki.IsTapped:
		return s, ErrRelicTapped
	case len(p.Life) == 0:
		return s, ErrNoLife
	}

	taken := min(p.Jinki.Stats().SelfInfliction, len(p.Life))
	moved, rest := split(p.Life, taken)

	np := clonePlayer(p)
	np.Life = rest
	np.BloodPool = appended(p.BloodPool, moved...)
	np.Jinki.IsTapped = true

	next := s
	next.Players = withPlayer(s.Players, idx, np)
	next.Log = appended(s.Log, fmt.Sprintf("%s self-inflicted %d damage for Blood.", p.Name, taken))
	return next, nil
}

func buyCard(_ Env, s models.GameState, a Action) (models.GameState, error) {
	act := a.(BuyCard)
	idx, err := seat(s, act.PlayerID)
	if err != nil {
		return s, err
	}
	p := s.Players[idx]
	if p.ActionsTaken >= p.Jinki.Stats().BloodSuccession {
		return s, ErrNoActionsLeft
	}
	if act.CardIndex < 0 || act.CardIndex >= len(s.Market) {
		return s, fmt.Errorf("%w: %d", ErrNoMarketSlot, act.CardIndex)
	}
	card := s.Market[act.CardIndex]
	if len(p.BloodPool) < card.Cost {
		return s, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBlood, len(p.BloodPool), card.Cost)
	}

	np := clonePlayer(p)
	np.BloodPool, _ = split(p.BloodPool, len(p.BloodPool)-card.Cost)
	np.Field = appended(p.Field, card)
	np.ActionsTaken++

	next := s
	next.Players = withPlayer(s.Players, idx, np)
	next.Market = removedAt(s.Market, act.CardIndex)
	if len(s.MarketDeck) > 0 {
		next.Market = append(next.Market, s.MarketDeck[0])
		next.MarketDeck = removedAt(s.MarketDeck, 0)
	}
	next.Log = appended(s.Log, fmt.Sprintf("%s bought %s.", p.Name, card.Name))
	return next, nil
}

func passPhase(_ Env, s models.GameState, a Action) (models.GameState, error) {
	act := a.(PassPhase)
	idx, err := seat(s, act.PlayerID)
	if err != nil {
		return s, err
	}
	p := s.Players[idx]
	np := clonePlayer(p)
	np.HasPassed = true

	next := s
	next.Players = withPlayer(s.Players, idx, np)
	other := (idx + 1) % 2
	if s.Players[other].HasPassed {
		if err := advance(&next, models.PhaseBattle); err != nil {
			return s, err
		}
		next.Log = appended(s.Log, fmt.Sprintf("%s passed. Entering Blood Battle.", p.Name))
		return next, nil
	}
	next.ActivePlayerIndex = other
	next.Log = appended(s.Log, fmt.Sprintf("%s passed. Turn switches.", p.Name))
	return next, nil
}

// AttackTotal is the battle strength of p's field including the low-life
// shield bonus.
func AttackTotal(env Env, p *models.Player) int {
	rules := env.orDefault().Catalog.Rules
	total, shield := 0, false
	for _, c := range p.Field {
		total += c.Attack
		if c.Name == rules.ShieldCard {
			shield = true
		}
	}
	if shield && len(p.Life) <= rules.ShieldLife {
		total += rules.ShieldBonus
	}
	return total
}

func resolveBattle(env Env, s models.GameState, _ Action) (models.GameState, error) {
	if len(s.Players) != 2 {
		return s, ErrUnknownPlayer
	}
	players := make([]*models.Player, 2)
	for i, p := range s.Players {
		np := clonePlayer(p)
		np.TotalAttack = AttackTotal(env, p)
		players[i] = np
	}

	next := s
	a0, a1 := players[0].TotalAttack, players[1].TotalAttack
	msg := fmt.Sprintf("Battle! P1: %d vs P2: %d. ", a0, a1)
	if a0 == a1 {
		msg += "Draw. No damage."
	} else {
		winner, loser := 0, 1
		if a1 > a0 {
			winner, loser = 1, 0
		}
		lp := players[loser]
		taken := min(abs(a0-a1), len(lp.Life))
		moved, rest := split(lp.Life, taken)
		lp.Life = rest
		lp.BloodPool = appended(lp.BloodPool, moved...)
		next.FirstPlayerIndex = winner
		msg += fmt.Sprintf("Player %d takes %d damage.", loser+1, taken)
	}

	threshold := env.Catalog.Rules.AwakenThreshold
	for _, p := range players {
		if !p.Jinki.IsAwakened && len(p.Life) <= threshold {
			p.Jinki.IsAwakened = true
		}
	}

	next.Players = players
	next.Log = appended(s.Log, msg)

	to := models.PhaseCleanup
	switch {
	case len(players[0].Life) == 0:
		next.WinnerID = players[1].ID
		to = models.PhaseGameOver
	case len(players[1].Life) == 0:
		next.WinnerID = players[0].ID
		to = models.PhaseGameOver
	}
	if err := advance(&next, to); err != nil {
		return s, err
	}
	return next, nil
}

func cleanup(env Env, s models.GameState, _ Action) (models.GameState, error) {
	players := make([]*models.Player, len(s.Players))
	for i, p := range s.Players {
		pool := make([]models.Card, 0, len(p.Discard)+len(p.Field)+len(p.Hand))
		pool = append(pool, p.Discard...)
		pool = append(pool, p.Field...)
		pool = append(pool, p.Hand...)
		env.Rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

		np := clonePlayer(p)
		np.Hand, np.Discard = split(pool, p.Jinki.Stats().HandSize)
		np.Field = []models.Card{}
		np.ActionsTaken = 0
		np.HasPassed = false
		np.Jinki.IsTapped = false
		players[i] = np
	}

	next := s
	if err := advance(&next, models.PhaseMain); err != nil {
		return s, err
	}
	next.Players = players
	next.TurnCount = s.TurnCount + 1
	next.ActivePlayerIndex = s.FirstPlayerIndex
	next.Log = appended(s.Log, fmt.Sprintf("Cleanup complete. Turn %d starts.", next.TurnCount))
	return next, nil
}

func appendLog(_ Env, s models.GameState, a Action) (models.GameState, error) {
	next := s
	next.Log = appended(s.Log, a.(Log).Message)
	return next, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
