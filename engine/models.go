package engine

import (
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/raykavin/finsim/core"
)

// ---------------------
// Cashflow classification
// ---------------------

// CashflowReason is the semantic category of a cashflow.
type CashflowReason string

const (
	// ReasonOperation is the direct cost or return of the trade itself.
	ReasonOperation CashflowReason = "operation"
	// ReasonFee is a trading fee or commission.
	ReasonFee CashflowReason = "fee"
	// ReasonPnL is realized profit or loss.
	ReasonPnL CashflowReason = "pnl"
)

// InvolvementType is the phase a cashflow occurs in.
type InvolvementType string

const (
	Opening InvolvementType = "opening"
	Closing InvolvementType = "closing"
)

// CashflowType is the direction of a cashflow.
type CashflowType string

const (
	Outflow CashflowType = "outflow"
	Inflow  CashflowType = "inflow"
)

// AssetCashflow is one asset movement of a simulated operation.
// Amount is a magnitude; the sign is derived from the cashflow type.
type AssetCashflow struct {
	Asset           core.Asset
	InvolvementType InvolvementType
	CashflowType    CashflowType
	Reason          CashflowReason
	Amount          decimal.Decimal
}

// IsOutflow reports whether the asset leaves the account.
func (c AssetCashflow) IsOutflow() bool { return c.CashflowType == Outflow }

// IsInflow reports whether the asset enters the account.
func (c AssetCashflow) IsInflow() bool { return c.CashflowType == Inflow }

// SignedAmount returns the amount signed by direction, negative for outflows.
func (c AssetCashflow) SignedAmount() decimal.Decimal {
	if c.IsOutflow() {
		return c.Amount.Neg()
	}
	return c.Amount
}

// ---------------------
// Order details
// ---------------------

// OrderDetails is the complete specification of a prospective order.
// Engines treat it as read-only and never mutate it.
type OrderDetails struct {
	TradingPair    core.TradingPair
	TradingRule    *core.TradingRule
	Platform       core.Platform
	TradeType      core.TradeType
	OrderType      core.OrderType
	Modifiers      []core.OrderModifier
	Amount         decimal.Decimal
	Price          decimal.Decimal
	Leverage       int64
	PositionAction core.PositionAction

	// Margin overrides the engine's margin calculation when set.
	Margin *decimal.Decimal

	EntryIndexPrice decimal.Decimal
	EntryPrice      *decimal.Decimal
	ExitPrice       *decimal.Decimal

	Fee core.OperationFee
}

// Validate checks the order against its trading rule the way a venue
// would before accepting it: order type and modifier support, rule
// expiry, order size limits and notional limits.
func (o OrderDetails) Validate(now time.Time) error {
	rule := o.TradingRule
	if rule == nil {
		return ErrMissingTradingRule
	}

	if !rule.SupportsOrderType(o.OrderType) {
		return errors.Wrapf(ErrOrderTypeNotSupported, "%s", o.OrderType)
	}
	for _, modifier := range o.Modifiers {
		if !rule.SupportsModifier(modifier) {
			return errors.Wrapf(ErrModifierNotSupported, "%s", modifier)
		}
	}

	if rule.IsExpired(now) {
		return errors.Wrapf(ErrTradingRuleExpired, "pair %s", o.TradingPair.Name())
	}

	if o.Amount.LessThan(rule.MinOrderSize()) {
		return errors.Wrapf(ErrOrderSizeBelowMinimum, "amount %s < %s", o.Amount, rule.MinOrderSize())
	}
	if o.Amount.GreaterThan(rule.MaxOrderSize()) {
		return errors.Wrapf(ErrOrderSizeAboveMaximum, "amount %s > %s", o.Amount, rule.MaxOrderSize())
	}

	if o.Price.IsPositive() {
		notional := o.Amount.Mul(o.Price)
		if notional.LessThan(rule.MinNotionalSize()) {
			return errors.Wrapf(ErrNotionalBelowMinimum, "notional %s < %s", notional, rule.MinNotionalSize())
		}
		if notional.GreaterThan(rule.MaxNotionalSize()) {
			return errors.Wrapf(ErrNotionalAboveMaximum, "notional %s > %s", notional, rule.MaxNotionalSize())
		}
	}

	return nil
}

// ---------------------
// Simulation result
// ---------------------

// SimulationResult is the complete set of cashflows an operation would
// cause, in phase order: opening outflows, opening inflows, closing
// outflows, closing inflows.
type SimulationResult struct {
	Order     OrderDetails
	Cashflows []AssetCashflow
}

func (r SimulationResult) sum(involvement InvolvementType, direction *CashflowType) map[core.Asset]decimal.Decimal {
	flows := lo.Filter(r.Cashflows, func(c AssetCashflow, _ int) bool {
		if c.InvolvementType != involvement {
			return false
		}
		return direction == nil || c.CashflowType == *direction
	})
	totals := make(map[core.Asset]decimal.Decimal, len(flows))
	for _, flow := range flows {
		totals[flow.Asset] = totals[flow.Asset].Add(flow.SignedAmount())
	}
	return totals
}

// OpeningCashflow returns the net signed flow per asset at opening.
func (r SimulationResult) OpeningCashflow() map[core.Asset]decimal.Decimal {
	return r.sum(Opening, nil)
}

// OpeningOutflows returns the signed opening outflows per asset.
func (r SimulationResult) OpeningOutflows() map[core.Asset]decimal.Decimal {
	direction := Outflow
	return r.sum(Opening, &direction)
}

// OpeningInflows returns the signed opening inflows per asset.
func (r SimulationResult) OpeningInflows() map[core.Asset]decimal.Decimal {
	direction := Inflow
	return r.sum(Opening, &direction)
}

// ClosingCashflow returns the net signed flow per asset at closing.
func (r SimulationResult) ClosingCashflow() map[core.Asset]decimal.Decimal {
	return r.sum(Closing, nil)
}

// ClosingOutflows returns the signed closing outflows per asset.
func (r SimulationResult) ClosingOutflows() map[core.Asset]decimal.Decimal {
	direction := Outflow
	return r.sum(Closing, &direction)
}

// ClosingInflows returns the signed closing inflows per asset.
func (r SimulationResult) ClosingInflows() map[core.Asset]decimal.Decimal {
	direction := Inflow
	return r.sum(Closing, &direction)
}
