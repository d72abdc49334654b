// internal/models/jinki.go
package models

// JinkiStats is one fixed stat block of a relic.
type JinkiStats struct {
	HandSize        int    `json:"handSize"`
	SelfInfliction  int    `json:"selfInfliction"`
	BloodSuccession int    `json:"bloodSuccession"` // max buys per turn
	PassiveEffect   string `json:"passiveEffect"`
}

// VariableCostSource names what the X in a variable Recall cost refers to.
type VariableCostSource string

const (
	CostFromBloodSpent  VariableCostSource = "BLOOD_SPENT"
	CostFromHandDiscard VariableCostSource = "HAND_DISCARD"
)

// EffectType tags what a Recall move would do if activated.
type EffectType string

const (
	EffectDraw         EffectType = "DRAW"
	EffectMill         EffectType = "MILL"
	EffectRecover      EffectType = "RECOVER"
	EffectBuff         EffectType = "BUFF"
	EffectReturnToHand EffectType = "RETURN_TO_HAND"
	EffectOther        EffectType = "OTHER"
)

type SpecialCost struct {
	BaseAmount      int                `json:"baseAmount"`
	HasVariableCost bool               `json:"hasVariableCost"`
	VariableSource  VariableCostSource `json:"variableSource,omitempty"`
	Description     string             `json:"description"`
}

// SpecialMove is a relic's Recall ability. No transition activates these yet;
// they are carried as data so clients can display them.
type SpecialMove struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	Trigger          Phase       `json:"trigger"`
	Cost             SpecialCost `json:"cost"`
	BaseAttackBonus  int         `json:"baseAttackBonus"`
	IsAttackVariable bool        `json:"isAttackVariable"`
	EffectType       EffectType  `json:"effectType"`
	EffectValue      int         `json:"effectValue,omitempty"`
}

// Jinki is a participant's relic.
type Jinki struct {
	Name       string         `json:"name"`
	Era        int            `json:"era"`
	Normal     JinkiStats     `json:"normal"`
	Awakened   JinkiStats     `json:"awakened"`
	IsAwakened bool           `json:"isAwakened"`
	IsTapped   bool           `json:"isTapped"`
	Recalls    [2]SpecialMove `json:"recalls"`
}

// Stats returns the stat block currently in effect.
func (j Jinki) Stats() JinkiStats {
	if j.IsAwakened {
		return j.Awakened
	}
	return j.Normal
}
