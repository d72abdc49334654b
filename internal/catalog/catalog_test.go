package catalog

import (
	"errors"
	"testing"

	"github.com/jason-s-yu/bloodrecall/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.NotNil(t, c)

	assert.Equal(t, 20, c.Rules.StartingLife)
	assert.Equal(t, 10, c.Rules.AwakenThreshold)
	assert.Equal(t, 5, c.Rules.MarketSize)
	assert.Equal(t, 30, c.Rules.MarketDeckSize)
	assert.Equal(t, "Crimson Shield", c.Rules.ShieldCard)
	assert.Equal(t, 10, c.Rules.ShieldLife)
	assert.Equal(t, 2, c.Rules.ShieldBonus)

	assert.Equal(t, 10, c.StarterDeckSize())
	assert.Len(t, c.MarketTemplates(), 5)
	assert.Len(t, c.Relics, 7)

	slash, ok := c.Template("c_slash_1")
	require.True(t, ok)
	assert.Equal(t, models.CardAssault, slash.Card.Type)
	assert.Equal(t, 2, slash.Card.Attack)
	assert.Empty(t, slash.Card.ID, "templates carry no instance id")

	rite, ok := c.Template("c_blood_1")
	require.True(t, ok)
	assert.Equal(t, models.CardBlood, rite.Card.Type)
	assert.False(t, rite.Market)
}

func TestDefaultRelics(t *testing.T) {
	c := Default()

	kutone, ok := c.Relic("Kutoneshirika")
	require.True(t, ok)
	assert.Equal(t, 5, kutone.Normal.SelfInfliction)
	assert.Equal(t, 3, kutone.Awakened.SelfInfliction)
	assert.Equal(t, 1, kutone.Normal.BloodSuccession)
	assert.False(t, kutone.IsAwakened)
	assert.False(t, kutone.IsTapped)
	assert.Equal(t, 6, kutone.Recalls[1].BaseAttackBonus)
	assert.Equal(t, models.PhaseBattle, kutone.Recalls[1].Trigger)

	shira, ok := c.Relic("Shiragane")
	require.True(t, ok)
	assert.True(t, shira.Recalls[1].Cost.HasVariableCost)
	assert.Equal(t, models.CostFromBloodSpent, shira.Recalls[1].Cost.VariableSource)
	assert.Equal(t, models.EffectMill, shira.Recalls[0].EffectType)
	assert.Equal(t, 4, shira.Recalls[0].EffectValue)

	_, ok = c.Relic("Totsukamadachi")
	assert.False(t, ok)
}

func TestRelicCopiesAreIndependent(t *testing.T) {
	c := Default()
	a, _ := c.Relic("Apoitakara")
	a.IsAwakened = true

	b, _ := c.Relic("Apoitakara")
	assert.False(t, b.IsAwakened)
}

func TestParseRejectsBadData(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown card type", `
rules: {starting_life: 20, market_size: 1, market_deck_size: 1}
starter_deck: [{template: a, count: 1}]
cards: [{key: a, name: A, type: SPELL}]
`},
		{"missing starter template", `
rules: {starting_life: 20, market_size: 1, market_deck_size: 1}
starter_deck: [{template: nope, count: 1}]
cards: [{key: a, name: A, type: ASSAULT, market: true}]
`},
		{"no market cards", `
rules: {starting_life: 20, market_size: 1, market_deck_size: 1}
starter_deck: [{template: a, count: 1}]
cards: [{key: a, name: A, type: ASSAULT}]
`},
		{"market deck smaller than market", `
rules: {starting_life: 20, market_size: 5, market_deck_size: 2}
starter_deck: [{template: a, count: 1}]
cards: [{key: a, name: A, type: ASSAULT, market: true}]
`},
		{"too few relics", `
rules: {starting_life: 20, market_size: 1, market_deck_size: 1}
starter_deck: [{template: a, count: 1}]
cards: [{key: a, name: A, type: ASSAULT, market: true}]
relics: []
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog), "got %v", err)
		})
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("rules: [unterminated"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCatalog))
}
