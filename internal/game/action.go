// internal/game/action.go
package game

// ActionKind tags each variant of the action vocabulary.
type ActionKind int

const (
	KindInitialize ActionKind = iota
	KindPlayCard
	KindSelfInflict
	KindBuyCard
	KindPassPhase
	KindResolveBattle
	KindCleanup
	KindLog
)

var kindNames = map[ActionKind]string{
	KindInitialize:    "initialize",
	KindPlayCard:      "play_card",
	KindSelfInflict:   "self_inflict",
	KindBuyCard:       "buy_card",
	KindPassPhase:     "pass_phase",
	KindResolveBattle: "resolve_battle",
	KindCleanup:       "cleanup",
	KindLog:           "log",
}

func (k ActionKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// AllKinds lists every action kind in declaration order.
func AllKinds() []ActionKind {
	return []ActionKind{
		KindInitialize, KindPlayCard, KindSelfInflict, KindBuyCard,
		KindPassPhase, KindResolveBattle, KindCleanup, KindLog,
	}
}

// Action is the closed set of inputs Reduce accepts. Only the types in this
// file implement it.
type Action interface {
	Kind() ActionKind
	sealed()
}

// Seat describes a participant for Initialize. An empty Relic means one is
// drawn at random.
type Seat struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	IsCPU bool   `json:"isCpu"`
	Relic string `json:"relic,omitempty"`
}

// DefaultSeats are used when Initialize carries no seats.
var DefaultSeats = [2]Seat{
	{ID: "p1", Name: "Player"},
	{ID: "cpu", Name: "Rival", IsCPU: true},
}

type Initialize struct {
	Seats []Seat // zero, one or two; missing seats fall back to DefaultSeats
}

type PlayCard struct {
	PlayerID string
	CardID   string
}

type SelfInflict struct {
	PlayerID string
}

type BuyCard struct {
	PlayerID  string
	CardIndex int
}

type PassPhase struct {
	PlayerID string
}

type ResolveBattle struct{}

type Cleanup struct{}

type Log struct {
	Message string
}

func (Initialize) Kind() ActionKind    { return KindInitialize }
func (PlayCard) Kind() ActionKind      { return KindPlayCard }
func (SelfInflict) Kind() ActionKind   { return KindSelfInflict }
func (BuyCard) Kind() ActionKind       { return KindBuyCard }
func (PassPhase) Kind() ActionKind     { return KindPassPhase }
func (ResolveBattle) Kind() ActionKind { return KindResolveBattle }
func (Cleanup) Kind() ActionKind       { return KindCleanup }
func (Log) Kind() ActionKind           { return KindLog }

func (Initialize) sealed()    {}
func (PlayCard) sealed()      {}
func (SelfInflict) sealed()   {}
func (BuyCard) sealed()       {}
func (PassPhase) sealed()     {}
func (ResolveBattle) sealed() {}
func (Cleanup) sealed()       {}
func (Log) sealed()           {}

// ActorID returns the participant an action is issued on behalf of, or ""
// for system actions.
func ActorID(a Action) string {
	switch v := a.(type) {
	case PlayCard:
		return v.PlayerID
	case SelfInflict:
		return v.PlayerID
	case BuyCard:
		return v.PlayerID
	case PassPhase:
		return v.PlayerID
	}
	return ""
}
