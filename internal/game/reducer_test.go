// internal/game/reducer_test.go
package game

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/jason-s-yu/bloodrecall/internal/catalog"
	"github.com/jason-s-yu/bloodrecall/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityRand always picks index 0 and leaves shuffled slices in order.
type identityRand struct{}

func (identityRand) Intn(int) int                { return 0 }
func (identityRand) Shuffle(int, func(i, j int)) {}

// reverseRand reverses every slice it shuffles.
type reverseRand struct{ identityRand }

func (reverseRand) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func testEnv() Env {
	return Env{Rand: identityRand{}, NewID: SequentialIDs("t"), Catalog: catalog.Default()}
}

func newTestState(t *testing.T) models.GameState {
	t.Helper()
	s, err := Apply(testEnv(), models.GameState{}, Initialize{})
	require.NoError(t, err)
	return s
}

func card(name string, attack int) models.Card {
	return models.Card{ID: name, Name: name, Type: models.CardAssault, Attack: attack}
}

// battleState puts two participants with the given field attacks and life
// counts into the Battle phase.
func battleState(t *testing.T, atk0, atk1 []int, life0, life1 int) models.GameState {
	t.Helper()
	s := newTestState(t)
	for i, atks := range [][]int{atk0, atk1} {
		p := s.Players[i]
		p.Field = nil
		for j, a := range atks {
			p.Field = append(p.Field, card(p.ID+"-f"+string(rune('a'+j)), a))
		}
	}
	s.Players[0].Life = s.Players[0].Life[:life0]
	s.Players[1].Life = s.Players[1].Life[:life1]
	s.Phase = models.PhaseBattle
	return s
}

func lifeAndBlood(p *models.Player) int {
	return len(p.Life) + len(p.BloodPool)
}

func TestInitialize(t *testing.T) {
	s := newTestState(t)

	assert.Equal(t, models.PhaseMain, s.Phase)
	assert.Equal(t, 1, s.TurnCount)
	assert.Equal(t, 0, s.ActivePlayerIndex)
	assert.Equal(t, 0, s.FirstPlayerIndex)
	assert.Empty(t, s.WinnerID)
	assert.Equal(t, []string{"Game Started. Main Phase."}, s.Log)
	require.Len(t, s.Players, 2)

	p1, cpu := s.Players[0], s.Players[1]
	assert.Equal(t, "p1", p1.ID)
	assert.Equal(t, "Player", p1.Name)
	assert.False(t, p1.IsCPU)
	assert.Equal(t, "cpu", cpu.ID)
	assert.Equal(t, "Rival", cpu.Name)
	assert.True(t, cpu.IsCPU)

	assert.Equal(t, "Shiragane", p1.Jinki.Name)
	assert.Equal(t, "Hihiirogane", cpu.Jinki.Name)
	for _, p := range s.Players {
		assert.Len(t, p.Hand, 3)
		assert.Len(t, p.Discard, 7)
		assert.Empty(t, p.Field)
		assert.Empty(t, p.BloodPool)
		assert.Len(t, p.Life, 20)
		assert.False(t, p.Jinki.IsTapped)
		assert.False(t, p.Jinki.IsAwakened)
		for _, c := range p.Hand {
			assert.Equal(t, "Weak Slash", c.Name)
			assert.NotEmpty(t, c.ID)
		}
	}

	assert.Len(t, s.Market, 5)
	assert.Len(t, s.MarketDeck, 25)
	for _, c := range s.Market {
		assert.Equal(t, "Heavy Slash", c.Name)
	}
}

func TestInitializeIDsAreUnique(t *testing.T) {
	s, err := Apply(SeededEnv(7), models.GameState{}, Initialize{})
	require.NoError(t, err)

	seen := map[string]bool{}
	check := func(id string) {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	for _, p := range s.Players {
		for _, c := range append(append(p.Hand, p.Discard...), p.Field...) {
			check(c.ID)
		}
		for _, tok := range p.Life {
			check(tok)
		}
	}
	for _, c := range append(s.Market, s.MarketDeck...) {
		check(c.ID)
	}
	assert.NotEqual(t, s.Players[0].Jinki.Name, s.Players[1].Jinki.Name)
}

func TestInitializeSeats(t *testing.T) {
	s, err := Apply(testEnv(), models.GameState{}, Initialize{Seats: []Seat{
		{ID: "alice", Name: "Alice", Relic: "Kutoneshirika"},
	}})
	require.NoError(t, err)

	assert.Equal(t, "alice", s.Players[0].ID)
	assert.Equal(t, "Kutoneshirika", s.Players[0].Jinki.Name)
	assert.Len(t, s.Players[0].Hand, 5, "Kutoneshirika draws five")
	assert.Equal(t, "cpu", s.Players[1].ID)
	assert.Equal(t, "Shiragane", s.Players[1].Jinki.Name)

	// A seat whose relic was reserved by the other seat gets a different one.
	s, err = Apply(testEnv(), models.GameState{}, Initialize{Seats: []Seat{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B", Relic: "Shiragane"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "Hihiirogane", s.Players[0].Jinki.Name)
	assert.Equal(t, "Shiragane", s.Players[1].Jinki.Name)
}

func TestInitializeFillsBlankSeatFields(t *testing.T) {
	s, err := Apply(testEnv(), models.GameState{}, Initialize{Seats: []Seat{
		{Relic: "Kutoneshirika"},
		{ID: "bob", IsCPU: true},
	}})
	require.NoError(t, err)

	assert.Equal(t, "p1", s.Players[0].ID)
	assert.Equal(t, "Player", s.Players[0].Name)
	assert.Equal(t, "Kutoneshirika", s.Players[0].Jinki.Name)
	assert.Equal(t, "bob", s.Players[1].ID)
	assert.Equal(t, "Rival", s.Players[1].Name)
}

func TestInitializeRejectsDuplicateSeats(t *testing.T) {
	before := models.GameState{Log: []string{"x"}}
	s, err := Apply(testEnv(), before, Initialize{Seats: []Seat{{ID: "x"}, {ID: "x"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateSeat)
	assert.Equal(t, before, s)

	// a blank seat defaulting onto the other seat's id is a duplicate too
	_, err = Apply(testEnv(), models.GameState{}, Initialize{Seats: []Seat{{ID: "cpu"}}})
	assert.ErrorIs(t, err, ErrDuplicateSeat)
}

func TestInitializeUnknownRelic(t *testing.T) {
	before := models.GameState{Log: []string{"x"}}
	s, err := Apply(testEnv(), before, Initialize{Seats: []Seat{{ID: "a", Relic: "Excalibur"}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownRelic))
	assert.Equal(t, before, s)
}

func TestInitializeResetsFinishedMatch(t *testing.T) {
	s := battleState(t, []int{5}, nil, 20, 3)
	s = Reduce(testEnv(), s, ResolveBattle{})
	require.Equal(t, models.PhaseGameOver, s.Phase)

	s = Reduce(testEnv(), s, Initialize{})
	assert.Equal(t, models.PhaseMain, s.Phase)
	assert.Empty(t, s.WinnerID)
	assert.Len(t, s.Log, 1)
}

func TestDispatchTableCoversEveryKind(t *testing.T) {
	for _, k := range AllKinds() {
		_, ok := transitions[k]
		assert.True(t, ok, "no transition for %s", k)
		assert.NotEqual(t, "unknown", k.String())
	}
	assert.Len(t, transitions, len(AllKinds()))
}

func TestNilActionIsRejected(t *testing.T) {
	s := newTestState(t)
	next, err := Apply(testEnv(), s, nil)
	assert.True(t, errors.Is(err, ErrUnknownAction))
	assert.Equal(t, s, next)
}

func TestPlayCard(t *testing.T) {
	s := newTestState(t)
	p := s.Players[0]
	played := p.Hand[1]

	next, err := Apply(testEnv(), s, PlayCard{PlayerID: "p1", CardID: played.ID})
	require.NoError(t, err)

	np := next.Players[0]
	assert.Len(t, np.Hand, 2)
	assert.Equal(t, []models.Card{played}, np.Field)
	assert.Equal(t, -1, np.HandCard(played.ID))
	assert.Equal(t, p.Discard, np.Discard)
	assert.Equal(t, p.CardCount(), np.CardCount())
	assert.Equal(t, "Player played Weak Slash.", next.Log[len(next.Log)-1])
}

func TestPlayBloodCardDrawsFromDiscard(t *testing.T) {
	s := newTestState(t)
	p := s.Players[0]
	rite := p.Discard[3]
	require.Equal(t, models.CardBlood, rite.Type)
	p.Hand = append(p.Hand, rite)
	p.Discard = removedAt(p.Discard, 3)
	top := p.Discard[0]

	next := Reduce(testEnv(), s, PlayCard{PlayerID: "p1", CardID: rite.ID})

	np := next.Players[0]
	assert.Equal(t, []models.Card{rite}, np.Field)
	assert.Len(t, np.Hand, 4)
	assert.Equal(t, top, np.Hand[len(np.Hand)-1])
	assert.Len(t, np.Discard, len(p.Discard)-1)
	assert.Equal(t, p.CardCount(), np.CardCount())
}

func TestPlayBloodCardWithEmptyDiscard(t *testing.T) {
	s := newTestState(t)
	p := s.Players[0]
	rite := p.Discard[3]
	p.Hand = []models.Card{rite}
	p.Discard = nil

	next := Reduce(testEnv(), s, PlayCard{PlayerID: "p1", CardID: rite.ID})

	assert.Empty(t, next.Players[0].Hand)
	assert.Equal(t, []models.Card{rite}, next.Players[0].Field)
}

func TestRejectedActionsLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   error
	}{
		{"unknown card", PlayCard{PlayerID: "p1", CardID: "nope"}, ErrCardNotInHand},
		{"unknown player", PlayCard{PlayerID: "ghost", CardID: "t-1"}, ErrUnknownPlayer},
		{"market index past end", BuyCard{PlayerID: "p1", CardIndex: 9}, ErrNoMarketSlot},
		{"negative market index", BuyCard{PlayerID: "p1", CardIndex: -1}, ErrNoMarketSlot},
		{"unaffordable", BuyCard{PlayerID: "p1", CardIndex: 0}, ErrInsufficientBlood},
		{"self inflict unknown player", SelfInflict{PlayerID: "ghost"}, ErrUnknownPlayer},
		{"pass unknown player", PassPhase{PlayerID: "ghost"}, ErrUnknownPlayer},
		{"battle during main", ResolveBattle{}, ErrWrongPhase},
		{"cleanup during main", Cleanup{}, ErrWrongPhase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(t)
			next, err := Apply(testEnv(), s, tt.action)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var rej *RejectionError
			require.True(t, errors.As(err, &rej))
			assert.Equal(t, tt.action.Kind(), rej.Kind)

			assert.Equal(t, s, next)
			assert.Equal(t, s, Reduce(testEnv(), s, tt.action))
		})
	}
}

func TestSelfInflict(t *testing.T) {
	s := newTestState(t)
	p := s.Players[0]
	taken := p.Life[:2]

	next, err := Apply(testEnv(), s, SelfInflict{PlayerID: "p1"})
	require.NoError(t, err)

	np := next.Players[0]
	assert.Len(t, np.Life, 18)
	assert.Equal(t, taken, np.BloodPool)
	assert.True(t, np.Jinki.IsTapped)
	assert.False(t, p.Jinki.IsTapped, "input state untouched")
	assert.Equal(t, lifeAndBlood(p), lifeAndBlood(np))
	assert.Equal(t, "Player self-inflicted 2 damage for Blood.", next.Log[len(next.Log)-1])

	_, err = Apply(testEnv(), next, SelfInflict{PlayerID: "p1"})
	assert.True(t, errors.Is(err, ErrRelicTapped))
}

func TestSelfInflictBound(t *testing.T) {
	for _, life := range []int{0, 1, 3, 4, 20} {
		s := newTestState(t)
		p := s.Players[1] // Hihiirogane inflicts 4
		p.Life = p.Life[:life]

		next, err := Apply(testEnv(), s, SelfInflict{PlayerID: "cpu"})
		if life == 0 {
			assert.True(t, errors.Is(err, ErrNoLife))
			continue
		}
		require.NoError(t, err)
		np := next.Players[1]
		assert.Len(t, np.Life, max(0, life-4))
		assert.Len(t, np.BloodPool, life-len(np.Life))
	}
}

func TestSelfInflictDoesNotAwaken(t *testing.T) {
	s := newTestState(t)
	s.Players[1].Life = s.Players[1].Life[:12]

	next := Reduce(testEnv(), s, SelfInflict{PlayerID: "cpu"})

	assert.Len(t, next.Players[1].Life, 8)
	assert.False(t, next.Players[1].Jinki.IsAwakened)
}

func TestBuyCardRefillsMarket(t *testing.T) {
	s := newTestState(t)
	p := s.Players[0]
	p.BloodPool = []string{"b1", "b2", "b3", "b4", "b5"}
	bought := s.Market[2]
	refill := s.MarketDeck[0]

	next, err := Apply(testEnv(), s, BuyCard{PlayerID: "p1", CardIndex: 2})
	require.NoError(t, err)

	np := next.Players[0]
	assert.Equal(t, []string{"b1", "b2"}, np.BloodPool, "cost is paid from the end")
	assert.Equal(t, []models.Card{bought}, np.Field)
	assert.Equal(t, 1, np.ActionsTaken)

	assert.Len(t, next.Market, 5)
	assert.Equal(t, refill, next.Market[4])
	assert.Len(t, next.MarketDeck, len(s.MarketDeck)-1)
	for _, c := range next.Market {
		assert.NotEqual(t, bought.ID, c.ID)
	}
	assert.Len(t, s.Market, 5)
	assert.Equal(t, bought, s.Market[2], "input market untouched")
	assert.Equal(t, "Player bought Heavy Slash.", next.Log[len(next.Log)-1])
}

func TestBuyCardWithExhaustedMarketDeck(t *testing.T) {
	s := newTestState(t)
	s.Players[0].BloodPool = []string{"b1", "b2", "b3"}
	s.MarketDeck = nil

	next := Reduce(testEnv(), s, BuyCard{PlayerID: "p1", CardIndex: 0})

	assert.Len(t, next.Market, 4)
	assert.Empty(t, next.MarketDeck)
	assert.Empty(t, next.Players[0].BloodPool)
}

func TestBuyCardSuccessionLimit(t *testing.T) {
	s := newTestState(t)
	p := s.Players[0]
	for i := 0; i < 9; i++ {
		p.BloodPool = append(p.BloodPool, "b")
	}

	s = Reduce(testEnv(), s, BuyCard{PlayerID: "p1", CardIndex: 0})
	s = Reduce(testEnv(), s, BuyCard{PlayerID: "p1", CardIndex: 0})
	require.Equal(t, 2, s.Players[0].ActionsTaken)

	next, err := Apply(testEnv(), s, BuyCard{PlayerID: "p1", CardIndex: 0})
	assert.True(t, errors.Is(err, ErrNoActionsLeft))
	assert.Equal(t, s, next)
	assert.Len(t, s.Players[0].BloodPool, 3)
}

func TestPassPhase(t *testing.T) {
	s := newTestState(t)

	s1, err := Apply(testEnv(), s, PassPhase{PlayerID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseMain, s1.Phase)
	assert.Equal(t, 1, s1.ActivePlayerIndex)
	assert.True(t, s1.Players[0].HasPassed)
	assert.Equal(t, "Player passed. Turn switches.", s1.Log[len(s1.Log)-1])

	s2, err := Apply(testEnv(), s1, PassPhase{PlayerID: "cpu"})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseBattle, s2.Phase)
	assert.Equal(t, 1, s2.ActivePlayerIndex)
	assert.Equal(t, "Rival passed. Entering Blood Battle.", s2.Log[len(s2.Log)-1])

	_, err = Apply(testEnv(), s2, PassPhase{PlayerID: "p1"})
	assert.True(t, errors.Is(err, ErrWrongPhase))
	_, err = Apply(testEnv(), s2, PlayCard{PlayerID: "p1", CardID: s2.Players[0].Hand[0].ID})
	assert.True(t, errors.Is(err, ErrWrongPhase))
}

func TestResolveBattle(t *testing.T) {
	tests := []struct {
		name       string
		atk0, atk1 []int
		life0      int
		life1      int
		wantLife0  int
		wantLife1  int
		wantFirst  int
		wantLog    string
	}{
		{"higher attack wins", []int{5, 5}, []int{7}, 20, 20, 20, 17, 0, "Battle! P1: 10 vs P2: 7. Player 2 takes 3 damage."},
		{"second seat wins", []int{9}, []int{6, 6}, 15, 20, 12, 20, 1, "Battle! P1: 9 vs P2: 12. Player 1 takes 3 damage."},
		{"tie", []int{10}, []int{4, 6}, 20, 20, 20, 20, 0, "Battle! P1: 10 vs P2: 10. Draw. No damage."},
		{"empty fields", nil, nil, 20, 20, 20, 20, 0, "Battle! P1: 0 vs P2: 0. Draw. No damage."},
		{"six point margin", []int{2}, []int{8}, 20, 20, 14, 20, 1, "Battle! P1: 2 vs P2: 8. Player 1 takes 6 damage."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := battleState(t, tt.atk0, tt.atk1, tt.life0, tt.life1)
			next, err := Apply(testEnv(), s, ResolveBattle{})
			require.NoError(t, err)

			assert.Equal(t, models.PhaseCleanup, next.Phase)
			assert.Len(t, next.Players[0].Life, tt.wantLife0)
			assert.Len(t, next.Players[1].Life, tt.wantLife1)
			assert.Equal(t, tt.wantFirst, next.FirstPlayerIndex)
			assert.Equal(t, tt.wantLog, next.Log[len(next.Log)-1])
			for i := range next.Players {
				assert.Equal(t, lifeAndBlood(s.Players[i]), lifeAndBlood(next.Players[i]))
			}
		})
	}
}

func TestResolveBattleTieKeepsInitiative(t *testing.T) {
	s := battleState(t, []int{3}, []int{3}, 20, 20)
	s.FirstPlayerIndex = 1

	next := Reduce(testEnv(), s, ResolveBattle{})

	assert.Equal(t, 1, next.FirstPlayerIndex)
}

func TestResolveBattleExampleScenario(t *testing.T) {
	// A sits in seat 1 with 12 attack, B in seat 0 with 9 and 15 life.
	s := battleState(t, []int{4, 5}, []int{6, 6}, 15, 20)
	b := s.Players[0]
	moved := b.Life[:3]

	next := Reduce(testEnv(), s, ResolveBattle{})

	assert.Equal(t, 9, next.Players[0].TotalAttack)
	assert.Equal(t, 12, next.Players[1].TotalAttack)
	assert.Len(t, next.Players[0].Life, 12)
	assert.Len(t, next.Players[1].Life, 20)
	assert.Equal(t, 1, next.FirstPlayerIndex)
	assert.Equal(t, moved, next.Players[0].BloodPool)
}

func TestShieldBonus(t *testing.T) {
	shield := models.Card{ID: "cs", Name: "Crimson Shield", Type: models.CardRecall, Attack: 3}

	for _, tc := range []struct {
		life int
		want int
	}{{10, 5}, {4, 5}, {11, 3}} {
		s := battleState(t, nil, nil, tc.life, 20)
		s.Players[0].Field = []models.Card{shield}
		next := Reduce(testEnv(), s, ResolveBattle{})
		assert.Equal(t, tc.want, next.Players[0].TotalAttack, "life %d", tc.life)
	}
}

func TestAwakening(t *testing.T) {
	s := battleState(t, []int{4}, []int{1}, 20, 13)

	next := Reduce(testEnv(), s, ResolveBattle{})

	cpu := next.Players[1]
	assert.Len(t, cpu.Life, 10)
	assert.True(t, cpu.Jinki.IsAwakened)
	assert.False(t, next.Players[0].Jinki.IsAwakened)
	assert.False(t, s.Players[1].Jinki.IsAwakened, "input state untouched")

	// Hihiirogane draws four once awakened, and stays awakened.
	next = Reduce(testEnv(), next, Cleanup{})
	assert.True(t, next.Players[1].Jinki.IsAwakened)
	assert.Len(t, next.Players[1].Hand, 4)
	assert.Len(t, next.Players[0].Hand, 3)
}

func TestAwakeningAtBattleAfterSelfInflict(t *testing.T) {
	s := battleState(t, nil, nil, 20, 9)

	next := Reduce(testEnv(), s, ResolveBattle{})

	assert.Len(t, next.Players[1].Life, 9)
	assert.True(t, next.Players[1].Jinki.IsAwakened)
}

func TestWinDetection(t *testing.T) {
	s := battleState(t, []int{5}, []int{1}, 20, 2)
	loser := s.Players[1]

	next, err := Apply(testEnv(), s, ResolveBattle{})
	require.NoError(t, err)

	assert.Equal(t, models.PhaseGameOver, next.Phase)
	assert.Equal(t, "p1", next.WinnerID)
	assert.Empty(t, next.Players[1].Life)
	assert.Len(t, next.Players[1].BloodPool, len(loser.BloodPool)+2)
	assert.True(t, next.IsOver())

	for _, a := range []Action{
		Cleanup{}, ResolveBattle{}, PassPhase{PlayerID: "p1"}, SelfInflict{PlayerID: "p1"},
	} {
		after, err := Apply(testEnv(), next, a)
		assert.True(t, errors.Is(err, ErrWrongPhase), "%s", a.Kind())
		assert.Equal(t, next, after)
	}

	logged := Reduce(testEnv(), next, Log{Message: "gg"})
	assert.Equal(t, "gg", logged.Log[len(logged.Log)-1])
	assert.Equal(t, "p1", logged.WinnerID)
}

func TestWinDetectionBothEmpty(t *testing.T) {
	s := battleState(t, nil, nil, 0, 0)

	next := Reduce(testEnv(), s, ResolveBattle{})

	assert.Equal(t, "cpu", next.WinnerID)
	assert.Equal(t, models.PhaseGameOver, next.Phase)
}

func TestCleanup(t *testing.T) {
	s := newTestState(t)
	p := s.Players[0]
	p.Field = []models.Card{card("f1", 1), card("f2", 1)}
	p.ActionsTaken = 2
	p.HasPassed = true
	p.Jinki.IsTapped = true
	s.Players[1].HasPassed = true
	s.FirstPlayerIndex = 1
	s.ActivePlayerIndex = 0
	s.Phase = models.PhaseCleanup

	pool := append(append(append([]models.Card{}, p.Discard...), p.Field...), p.Hand...)

	env := testEnv()
	env.Rand = reverseRand{}
	next, err := Apply(env, s, Cleanup{})
	require.NoError(t, err)

	np := next.Players[0]
	assert.Equal(t, []models.Card{pool[11], pool[10], pool[9]}, np.Hand)
	assert.Len(t, np.Discard, len(pool)-3)
	assert.Equal(t, pool[0], np.Discard[len(np.Discard)-1])
	assert.Empty(t, np.Field)
	assert.Zero(t, np.ActionsTaken)
	assert.False(t, np.HasPassed)
	assert.False(t, np.Jinki.IsTapped)
	assert.Equal(t, p.CardCount(), np.CardCount())

	assert.Equal(t, models.PhaseMain, next.Phase)
	assert.Equal(t, 2, next.TurnCount)
	assert.Equal(t, 1, next.ActivePlayerIndex)
	assert.False(t, next.Players[1].HasPassed)
	assert.Equal(t, "Cleanup complete. Turn 2 starts.", next.Log[len(next.Log)-1])

	assert.Len(t, p.Field, 2, "input state untouched")
	assert.True(t, p.Jinki.IsTapped)
}

func TestLog(t *testing.T) {
	next := Reduce(testEnv(), models.GameState{}, Log{Message: "hello"})
	assert.Equal(t, []string{"hello"}, next.Log)
	assert.Equal(t, models.PhaseSetup, next.Phase)
}

func TestStructuralSharing(t *testing.T) {
	s := newTestState(t)
	p0 := *s.Players[0]
	log := append([]string(nil), s.Log...)

	next := Reduce(testEnv(), s, PlayCard{PlayerID: "p1", CardID: s.Players[0].Hand[0].ID})

	assert.NotSame(t, s.Players[0], next.Players[0])
	assert.Same(t, s.Players[1], next.Players[1], "untouched participant is shared")
	assert.Same(t, &s.Market[0], &next.Market[0], "untouched market is shared")
	assert.Same(t, &s.MarketDeck[0], &next.MarketDeck[0])
	assert.Same(t, &s.Players[0].Discard[0], &next.Players[0].Discard[0], "untouched container is shared")

	assert.Equal(t, p0, *s.Players[0], "input participant untouched")
	assert.Equal(t, log, s.Log)
}

func TestPhaseTable(t *testing.T) {
	assert.True(t, CanAdvance(models.PhaseMain, models.PhaseBattle))
	assert.True(t, CanAdvance(models.PhaseBattle, models.PhaseCleanup))
	assert.True(t, CanAdvance(models.PhaseBattle, models.PhaseGameOver))
	assert.True(t, CanAdvance(models.PhaseCleanup, models.PhaseMain))

	assert.False(t, CanAdvance(models.PhaseMain, models.PhaseCleanup))
	assert.False(t, CanAdvance(models.PhaseCleanup, models.PhaseBattle))
	assert.False(t, CanAdvance(models.PhaseSetup, models.PhaseMain))
	for _, to := range []models.Phase{models.PhaseSetup, models.PhaseMain, models.PhaseBattle, models.PhaseCleanup} {
		assert.False(t, CanAdvance(models.PhaseGameOver, to))
	}
}

// TestRandomPlayInvariants drives the reducer with random actions and checks
// the invariants that must hold after every transition.
func TestRandomPlayInvariants(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		env := SeededEnv(seed)
		pick := rand.New(rand.NewSource(seed))
		s := Reduce(env, models.GameState{}, Initialize{})
		var spent [2]int

		for step := 0; step < 400 && !s.IsOver(); step++ {
			var a Action
			active := s.ActivePlayer()
			switch s.Phase {
			case models.PhaseBattle:
				a = ResolveBattle{}
			case models.PhaseCleanup:
				a = Cleanup{}
			default:
				switch pick.Intn(4) {
				case 0:
					a = SelfInflict{PlayerID: active.ID}
				case 1:
					id := "missing"
					if len(active.Hand) > 0 {
						id = active.Hand[pick.Intn(len(active.Hand))].ID
					}
					a = PlayCard{PlayerID: active.ID, CardID: id}
				case 2:
					a = BuyCard{PlayerID: active.ID, CardIndex: pick.Intn(6)}
				default:
					a = PassPhase{PlayerID: active.ID}
				}
			}

			next, err := Apply(env, s, a)
			if err != nil {
				assert.Equal(t, s, next)
				continue
			}

			if buy, ok := a.(BuyCard); ok {
				spent[s.ActivePlayerIndex] += s.Market[buy.CardIndex].Cost
			}
			require.Len(t, next.Players, 2)
			for i, np := range next.Players {
				op := s.Players[i]
				assert.Equal(t, 20, lifeAndBlood(np)+spent[i], "seed %d step %d", seed, step)
				assert.LessOrEqual(t, len(np.Life), len(op.Life))
				if op.Jinki.IsAwakened {
					assert.True(t, np.Jinki.IsAwakened)
				}
				assert.LessOrEqual(t, np.ActionsTaken, np.Jinki.Stats().BloodSuccession)
				assert.Equal(t, op.ID, np.ID)
			}
			assert.GreaterOrEqual(t, len(next.Log), len(s.Log))
			assert.LessOrEqual(t, len(next.Market), 5)
			if len(next.MarketDeck) > 0 {
				assert.Len(t, next.Market, 5)
			}
			s = next
		}
	}
}
