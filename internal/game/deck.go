// internal/game/deck.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/bloodrecall/internal/catalog"
	"github.com/jason-s-yu/bloodrecall/internal/models"
)

// NewCardInstance copies a template's card and gives it a fresh id.
func NewCardInstance(t catalog.Template, newID IDGenerator) models.Card {
	c := t.Card
	c.ID = newID()
	return c
}

// StartingDeck builds the starter recipe in catalog order.
func StartingDeck(cat *catalog.Catalog, newID IDGenerator) []models.Card {
	deck := make([]models.Card, 0, cat.StarterDeckSize())
	for _, e := range cat.Starter {
		t, _ := cat.Template(e.Template)
		for i := 0; i < e.Count; i++ {
			deck = append(deck, NewCardInstance(t, newID))
		}
	}
	return deck
}

// NewJinki returns the named relic with its tap and awaken flags cleared.
func NewJinki(cat *catalog.Catalog, name string) (models.Jinki, error) {
	j, ok := cat.Relic(name)
	if !ok {
		return models.Jinki{}, fmt.Errorf("%w: %q", ErrUnknownRelic, name)
	}
	j.IsAwakened = false
	j.IsTapped = false
	return j, nil
}

// LifeTokens creates n opaque life tokens.
func LifeTokens(n int, newID IDGenerator) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = newID()
	}
	return out
}

// MarketDeck samples the configured number of market cards, with
// replacement, from the catalog's market templates.
func MarketDeck(cat *catalog.Catalog, rnd Randomizer, newID IDGenerator) []models.Card {
	templates := cat.MarketTemplates()
	deck := make([]models.Card, cat.Rules.MarketDeckSize)
	for i := range deck {
		deck[i] = NewCardInstance(templates[rnd.Intn(len(templates))], newID)
	}
	return deck
}

// NewPlayer seats a participant: starter deck in discard, full life, empty
// hand. The opening draw happens in Initialize.
func NewPlayer(seat Seat, jinki models.Jinki, env Env) *models.Player {
	return &models.Player{
		ID:        seat.ID,
		Name:      seat.Name,
		IsCPU:     seat.IsCPU,
		Hand:      []models.Card{},
		Field:     []models.Card{},
		Discard:   StartingDeck(env.Catalog, env.NewID),
		Life:      LifeTokens(env.Catalog.Rules.StartingLife, env.NewID),
		BloodPool: []string{},
		Jinki:     jinki,
	}
}

// appended returns a new slice holding s followed by v. It never writes into
// s's backing array.
func appended[T any](s []T, v ...T) []T {
	out := make([]T, 0, len(s)+len(v))
	out = append(out, s...)
	return append(out, v...)
}

// removedAt returns a new slice without the element at i.
func removedAt[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

// split copies s into its first n elements and the rest.
func split[T any](s []T, n int) (head, tail []T) {
	if n > len(s) {
		n = len(s)
	}
	head = append(make([]T, 0, n), s[:n]...)
	tail = append(make([]T, 0, len(s)-n), s[n:]...)
	return head, tail
}
