// internal/game/env.go
package game

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bloodrecall/internal/catalog"
)

// Randomizer is the source of every random choice a transition makes.
// *rand.Rand satisfies it.
type Randomizer interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// IDGenerator returns a fresh unique identifier for card instances and
// life tokens.
type IDGenerator func() string

// Env carries the collaborators a transition may consult. Passing it in
// explicitly keeps Reduce a function of its arguments, so tests can supply
// deterministic stand-ins.
type Env struct {
	Rand    Randomizer
	NewID   IDGenerator
	Catalog *catalog.Catalog
}

// DefaultEnv wires a time-seeded random source, uuid identifiers and the
// embedded catalog.
func DefaultEnv() Env {
	return Env{
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		NewID:   uuid.NewString,
		Catalog: catalog.Default(),
	}
}

// SeededEnv is DefaultEnv with a fixed seed and sequential ids, for replays
// and simulations.
func SeededEnv(seed int64) Env {
	return Env{
		Rand:    rand.New(rand.NewSource(seed)),
		NewID:   SequentialIDs("id"),
		Catalog: catalog.Default(),
	}
}

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) IDGenerator {
	n := 0
	return func() string {
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

func (e Env) orDefault() Env {
	if e.Rand != nil && e.NewID != nil && e.Catalog != nil {
		return e
	}
	def := DefaultEnv()
	if e.Rand == nil {
		e.Rand = def.Rand
	}
	if e.NewID == nil {
		e.NewID = def.NewID
	}
	if e.Catalog == nil {
		e.Catalog = def.Catalog
	}
	return e
}
