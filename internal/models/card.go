// internal/models/card.go
package models

import "fmt"

// CardType classifies a card. It encodes as its upper-case name on the wire.
type CardType int

const (
	CardAssault  CardType = iota // basic attack
	CardBlood                    // resource/utility
	CardRecall                   // market cards
	CardCalamity                 // boss cards, not dealt yet
)

var cardTypeNames = map[CardType]string{
	CardAssault:  "ASSAULT",
	CardBlood:    "BLOOD",
	CardRecall:   "RECALL",
	CardCalamity: "CALAMITY",
}

func (t CardType) String() string {
	if s, ok := cardTypeNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseCardType maps a wire name back to a CardType.
func ParseCardType(s string) (CardType, error) {
	for t, name := range cardTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown card type %q", s)
}

func (t CardType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *CardType) UnmarshalText(b []byte) error {
	parsed, err := ParseCardType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Card is a single card instance. Instances are values: once created only the
// container holding them changes.
type Card struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        CardType `json:"type"`
	Attack      int      `json:"attack"`
	Cost        int      `json:"cost"` // in Blood tokens
	Level       int      `json:"level"`
	Description string   `json:"description"`
}
