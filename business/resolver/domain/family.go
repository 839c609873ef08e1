// Package domain contains the core domain types for the price resolution context.
package domain

import (
	"fmt"
	"strings"
)

// VenueFamily tags a liquidity-venue family. Families form a closed set: the
// resolver dispatches over an explicit, configured priority slice instead of
// a polymorphic venue list, so the tie-break order stays visible control flow.
type VenueFamily string

const (
	FamilyStableSwap      VenueFamily = "stableswap"
	FamilySynthetic       VenueFamily = "synthetic"
	FamilyConstantProduct VenueFamily = "constantproduct"
)

// DefaultFamilyPriority quotes correlated-asset venues before constant-product
// pairs, reflecting lower slippage for correlated assets.
var DefaultFamilyPriority = []VenueFamily{
	FamilyStableSwap,
	FamilySynthetic,
	FamilyConstantProduct,
}

// ParseFamily parses a configured family name.
func ParseFamily(s string) (VenueFamily, error) {
	switch VenueFamily(strings.ToLower(strings.TrimSpace(s))) {
	case FamilyStableSwap:
		return FamilyStableSwap, nil
	case FamilySynthetic:
		return FamilySynthetic, nil
	case FamilyConstantProduct:
		return FamilyConstantProduct, nil
	default:
		return "", fmt.Errorf("unknown venue family: %q", s)
	}
}

// ParseFamilyPriority parses a configured priority list, rejecting duplicates.
func ParseFamilyPriority(names []string) ([]VenueFamily, error) {
	priority := make([]VenueFamily, 0, len(names))
	seen := make(map[VenueFamily]bool, len(names))

	for _, name := range names {
		family, err := ParseFamily(name)
		if err != nil {
			return nil, err
		}
		if seen[family] {
			return nil, fmt.Errorf("duplicate venue family in priority list: %q", name)
		}
		seen[family] = true
		priority = append(priority, family)
	}

	return priority, nil
}
