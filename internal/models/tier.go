package models

import (
	"fmt"
	"strings"
)

// Tier is an ordered seller performance tier. Higher values rank higher.
type Tier int

const (
	TierBasic Tier = iota
	TierBronze
	TierSilver
	TierGold
	TierPlatinum
)

// NumTiers is the number of defined tiers.
const NumTiers = 5

var tierNames = [NumTiers]string{"Basic", "Bronze", "Silver", "Gold", "Platinum"}

// AllTiers returns the tiers in ascending rank order.
func AllTiers() []Tier {
	return []Tier{TierBasic, TierBronze, TierSilver, TierGold, TierPlatinum}
}

// String returns the tier name.
func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

// Valid reports whether t is one of the defined tiers.
func (t Tier) Valid() bool {
	return t >= TierBasic && t <= TierPlatinum
}

// Ordinal returns the rank of the tier, 0 for Basic.
func (t Tier) Ordinal() int {
	return int(t)
}

// ParseTier resolves a tier by name, case-insensitively.
func ParseTier(name string) (Tier, error) {
	for i, n := range tierNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Tier(i), nil
		}
	}
	return TierBasic, fmt.Errorf("unknown tier %q", name)
}

// MarshalText encodes the tier by name so JSON maps keyed by Tier stay readable.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
