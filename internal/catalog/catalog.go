// Package catalog holds the card templates, starter deck recipe, relic table
// and rules constants the game reads at setup. The data ships embedded as YAML.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/jason-s-yu/bloodrecall/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultData []byte

// ErrInvalidCatalog wraps every validation failure returned by Parse.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Rules are the numeric constants of a match.
type Rules struct {
	StartingLife    int    `yaml:"starting_life"`
	AwakenThreshold int    `yaml:"awaken_threshold"`
	MarketSize      int    `yaml:"market_size"`
	MarketDeckSize  int    `yaml:"market_deck_size"`
	ShieldCard      string `yaml:"shield_card"` // card granting the low-life attack bonus
	ShieldLife      int    `yaml:"shield_life"` // bonus applies at or below this life
	ShieldBonus     int    `yaml:"shield_bonus"`
}

// Template is a card blueprint. Its Card has no ID; instances get one when
// dealt.
type Template struct {
	Key    string
	Card   models.Card
	Market bool // sampled into the market deck
}

// StarterEntry is one line of the starting deck recipe.
type StarterEntry struct {
	Template string `yaml:"template"`
	Count    int    `yaml:"count"`
}

// Catalog is the parsed, validated data set.
type Catalog struct {
	Rules   Rules
	Cards   []Template
	Starter []StarterEntry
	Relics  []models.Jinki

	byKey map[string]int
}

type rawCard struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Attack      int    `yaml:"attack"`
	Cost        int    `yaml:"cost"`
	Level       int    `yaml:"level"`
	Description string `yaml:"description"`
	Market      bool   `yaml:"market"`
}

type rawStats struct {
	HandSize        int    `yaml:"hand_size"`
	SelfInfliction  int    `yaml:"self_infliction"`
	BloodSuccession int    `yaml:"blood_succession"`
	PassiveEffect   string `yaml:"passive_effect"`
}

type rawCost struct {
	BaseAmount      int    `yaml:"base_amount"`
	HasVariableCost bool   `yaml:"has_variable_cost"`
	VariableSource  string `yaml:"variable_source"`
	Description     string `yaml:"description"`
}

type rawMove struct {
	ID               string  `yaml:"id"`
	Name             string  `yaml:"name"`
	Description      string  `yaml:"description"`
	Trigger          string  `yaml:"trigger"`
	Cost             rawCost `yaml:"cost"`
	BaseAttackBonus  int     `yaml:"base_attack_bonus"`
	IsAttackVariable bool    `yaml:"is_attack_variable"`
	EffectType       string  `yaml:"effect_type"`
	EffectValue      int     `yaml:"effect_value"`
}

type rawRelic struct {
	Name     string    `yaml:"name"`
	Era      int       `yaml:"era"`
	Normal   rawStats  `yaml:"normal"`
	Awakened rawStats  `yaml:"awakened"`
	Recalls  []rawMove `yaml:"recalls"`
}

type rawCatalog struct {
	Rules       Rules          `yaml:"rules"`
	StarterDeck []StarterEntry `yaml:"starter_deck"`
	Cards       []rawCard      `yaml:"cards"`
	Relics      []rawRelic     `yaml:"relics"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It panics if the embedded data is
// malformed, which the package tests rule out.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultData)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	c := &Catalog{
		Rules:   raw.Rules,
		Starter: raw.StarterDeck,
		byKey:   make(map[string]int, len(raw.Cards)),
	}
	if err := c.Rules.validate(); err != nil {
		return nil, err
	}

	for _, rc := range raw.Cards {
		if rc.Key == "" {
			return nil, fmt.Errorf("%w: card %q has no key", ErrInvalidCatalog, rc.Name)
		}
		if _, dup := c.byKey[rc.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate card key %q", ErrInvalidCatalog, rc.Key)
		}
		ct, err := models.ParseCardType(rc.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: card %q: %v", ErrInvalidCatalog, rc.Key, err)
		}
		if rc.Attack < 0 || rc.Cost < 0 {
			return nil, fmt.Errorf("%w: card %q has negative attack or cost", ErrInvalidCatalog, rc.Key)
		}
		c.byKey[rc.Key] = len(c.Cards)
		c.Cards = append(c.Cards, Template{
			Key: rc.Key,
			Card: models.Card{
				Name:        rc.Name,
				Type:        ct,
				Attack:      rc.Attack,
				Cost:        rc.Cost,
				Level:       rc.Level,
				Description: rc.Description,
			},
			Market: rc.Market,
		})
	}

	if len(c.Starter) == 0 {
		return nil, fmt.Errorf("%w: empty starter deck", ErrInvalidCatalog)
	}
	for _, e := range c.Starter {
		if _, ok := c.byKey[e.Template]; !ok {
			return nil, fmt.Errorf("%w: starter deck references unknown card %q", ErrInvalidCatalog, e.Template)
		}
		if e.Count <= 0 {
			return nil, fmt.Errorf("%w: starter entry %q has count %d", ErrInvalidCatalog, e.Template, e.Count)
		}
	}
	if len(c.MarketTemplates()) == 0 {
		return nil, fmt.Errorf("%w: no market cards", ErrInvalidCatalog)
	}

	for _, rr := range raw.Relics {
		j, err := rr.toJinki()
		if err != nil {
			return nil, err
		}
		c.Relics = append(c.Relics, j)
	}
	if len(c.Relics) < 2 {
		return nil, fmt.Errorf("%w: need at least two relics, got %d", ErrInvalidCatalog, len(c.Relics))
	}

	return c, nil
}

func (r Rules) validate() error {
	switch {
	case r.StartingLife <= 0:
		return fmt.Errorf("%w: starting_life must be positive", ErrInvalidCatalog)
	case r.MarketSize <= 0:
		return fmt.Errorf("%w: market_size must be positive", ErrInvalidCatalog)
	case r.MarketDeckSize < r.MarketSize:
		return fmt.Errorf("%w: market_deck_size %d smaller than market_size %d", ErrInvalidCatalog, r.MarketDeckSize, r.MarketSize)
	}
	return nil
}

func (rr rawRelic) toJinki() (models.Jinki, error) {
	if len(rr.Recalls) != 2 {
		return models.Jinki{}, fmt.Errorf("%w: relic %q must define exactly two recalls", ErrInvalidCatalog, rr.Name)
	}
	if rr.Normal.HandSize <= 0 || rr.Awakened.HandSize <= 0 {
		return models.Jinki{}, fmt.Errorf("%w: relic %q has no hand size", ErrInvalidCatalog, rr.Name)
	}
	j := models.Jinki{
		Name:     rr.Name,
		Era:      rr.Era,
		Normal:   models.JinkiStats(rr.Normal),
		Awakened: models.JinkiStats(rr.Awakened),
	}
	for i, m := range rr.Recalls {
		trigger, err := models.ParsePhase(m.Trigger)
		if err != nil {
			return models.Jinki{}, fmt.Errorf("%w: recall %q: %v", ErrInvalidCatalog, m.ID, err)
		}
		j.Recalls[i] = models.SpecialMove{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Trigger:     trigger,
			Cost: models.SpecialCost{
				BaseAmount:      m.Cost.BaseAmount,
				HasVariableCost: m.Cost.HasVariableCost,
				VariableSource:  models.VariableCostSource(m.Cost.VariableSource),
				Description:     m.Cost.Description,
			},
			BaseAttackBonus:  m.BaseAttackBonus,
			IsAttackVariable: m.IsAttackVariable,
			EffectType:       models.EffectType(m.EffectType),
			EffectValue:      m.EffectValue,
		}
	}
	return j, nil
}

// Template looks a card blueprint up by key.
func (c *Catalog) Template(key string) (Template, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Template{}, false
	}
	return c.Cards[i], true
}

// MarketTemplates returns the blueprints eligible for the market deck, in
// catalog order.
func (c *Catalog) MarketTemplates() []Template {
	var out []Template
	for _, t := range c.Cards {
		if t.Market {
			out = append(out, t)
		}
	}
	return out
}

// Relic returns a fresh copy of the named relic definition.
func (c *Catalog) Relic(name string) (models.Jinki, bool) {
	for _, j := range c.Relics {
		if j.Name == name {
			return j, true
		}
	}
	return models.Jinki{}, false
}

// StarterDeckSize is the number of cards each participant starts with.
func (c *Catalog) StarterDeckSize() int {
	n := 0
	for _, e := range c.Starter {
		n += e.Count
	}
	return n
}
