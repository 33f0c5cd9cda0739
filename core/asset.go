package core

import "fmt"

// DerivativeSide is the direction of a derivative contract leg.
// Plain currencies carry SideNone; contract legs carry LONG, SHORT or BOTH.
type DerivativeSide string

const (
	SideNone  DerivativeSide = ""
	SideLong  DerivativeSide = "LONG"
	SideShort DerivativeSide = "SHORT"
	SideBoth  DerivativeSide = "BOTH"
)

// Opposite returns the mirrored contract side.
// BOTH and NONE are their own opposites.
func (s DerivativeSide) Opposite() DerivativeSide {
	switch s {
	case SideLong:
		return SideShort
	case SideShort:
		return SideLong
	default:
		return s
	}
}

// Asset is the identity of a holdable balance entry: a currency on a
// platform, or a derivative contract leg when Side is set.
// It is immutable, compared by value and used as a map key throughout.
type Asset struct {
	Platform   Platform
	Identifier string
	Side       DerivativeSide
}

// IsContract reports whether the asset is a derivative contract leg
// rather than a plain currency.
func (a Asset) IsContract() bool {
	return a.Side != SideNone
}

func (a Asset) String() string {
	if a.IsContract() {
		return fmt.Sprintf("%s:%s[%s]", a.Platform.Identifier, a.Identifier, a.Side)
	}
	return fmt.Sprintf("%s:%s", a.Platform.Identifier, a.Identifier)
}
