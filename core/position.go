package core

import "github.com/shopspring/decimal"

// Position is an open derivative position. Asset must be a contract leg
// (Side LONG or SHORT); Amount is the position size in contracts.
type Position struct {
	Asset            Asset
	Amount           decimal.Decimal
	Leverage         decimal.Decimal
	EntryPrice       decimal.Decimal
	Margin           decimal.Decimal
	UnrealizedPnL    decimal.Decimal
	LiquidationPrice decimal.Decimal
}

// NewPosition validates and builds a position.
// A non-positive liquidation price is clamped to zero (no liquidation level).
func NewPosition(
	asset Asset,
	amount, leverage, entryPrice, margin, unrealizedPnL, liquidationPrice decimal.Decimal,
) (Position, error) {
	if !asset.IsContract() {
		return Position{}, ErrAssetEmpty
	}
	if !amount.IsPositive() || !leverage.IsPositive() || !entryPrice.IsPositive() {
		return Position{}, ErrNegativeValue
	}
	if margin.IsNegative() {
		return Position{}, ErrNegativeValue
	}
	if liquidationPrice.IsNegative() {
		liquidationPrice = decimal.Zero
	}
	return Position{
		Asset:            asset,
		Amount:           amount,
		Leverage:         leverage,
		EntryPrice:       entryPrice,
		Margin:           margin,
		UnrealizedPnL:    unrealizedPnL,
		LiquidationPrice: liquidationPrice,
	}, nil
}

// Value returns the entry value of the position.
func (p Position) Value() decimal.Decimal {
	return p.EntryPrice.Mul(p.Amount)
}

// Side returns the contract leg direction.
func (p Position) Side() DerivativeSide { return p.Asset.Side }

// IsLong reports whether the position is a long leg.
func (p Position) IsLong() bool { return p.Side() == SideLong }

// IsShort reports whether the position is a short leg.
func (p Position) IsShort() bool { return p.Side() == SideShort }

// UnrealizedPnLPercent returns the unrealized PnL as a percentage of margin.
func (p Position) UnrealizedPnLPercent() decimal.Decimal {
	if p.Margin.IsZero() {
		return decimal.Zero
	}
	return p.UnrealizedPnL.Div(p.Margin).Mul(decimal.NewFromInt(100))
}

// DistanceFromLiquidation returns how far the given price sits from the
// liquidation level, positive while the position is safe.
func (p Position) DistanceFromLiquidation(price decimal.Decimal) decimal.Decimal {
	distance := price.Sub(p.LiquidationPrice)
	if p.IsShort() {
		distance = distance.Neg()
	}
	return distance
}

// RemainingMargin returns the margin left after unrealized PnL.
func (p Position) RemainingMargin() decimal.Decimal {
	return p.Margin.Add(p.UnrealizedPnL)
}

// MarginRatioFromLiquidation returns the remaining margin as a fraction of
// the initial margin.
func (p Position) MarginRatioFromLiquidation() decimal.Decimal {
	if p.Margin.IsZero() {
		return decimal.Zero
	}
	return p.RemainingMargin().Div(p.Margin)
}

// IsAtLiquidationRisk reports whether the remaining margin percentage has
// fallen to or below maxPercent.
func (p Position) IsAtLiquidationRisk(maxPercent decimal.Decimal) bool {
	percent := p.MarginRatioFromLiquidation().Mul(decimal.NewFromInt(100))
	return percent.LessThanOrEqual(maxPercent)
}
