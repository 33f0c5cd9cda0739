package engine

import (
	"github.com/shopspring/decimal"

	"github.com/raykavin/finsim/core"
)

// perpetualFamily captures what distinguishes linear from inverse
// perpetuals: collateral asset, margin formula, PnL formula and the
// notional basis percentage fees are taken on.
type perpetualFamily interface {
	outflowAsset(order OrderDetails) (core.Asset, error)
	margin(order OrderDetails) (decimal.Decimal, error)
	pnl(order OrderDetails) (decimal.Decimal, error)
	feeBasis(order OrderDetails) (decimal.Decimal, error)
}

// basePerpetualEngine implements the cashflow pattern shared by both
// perpetual families: margin out at open, PnL in at close, fee on the
// collateral asset in the phase its impact type selects.
type basePerpetualEngine struct {
	family perpetualFamily
	assets *core.AssetRegistry
}

// marginAmount honors the caller's margin override before falling back
// to the family formula.
func (e *basePerpetualEngine) marginAmount(order OrderDetails) (decimal.Decimal, error) {
	if order.Margin != nil {
		return *order.Margin, nil
	}
	return e.family.margin(order)
}

// expectedFeeAsset is the collateral asset for both fee impact types.
func (e *basePerpetualEngine) expectedFeeAsset(order OrderDetails) (core.Asset, error) {
	switch order.Fee.ImpactType {
	case core.AddedToCosts, core.DeductedFromReturns:
		return e.family.outflowAsset(order)
	default:
		return core.Asset{}, ErrUnsupportedFeeImpact
	}
}

func (e *basePerpetualEngine) feeAmount(order OrderDetails) (decimal.Decimal, error) {
	expected, err := e.expectedFeeAsset(order)
	if err != nil {
		return decimal.Zero, err
	}
	if order.Fee.Asset != nil && *order.Fee.Asset != expected {
		return decimal.Zero, ErrFeeAssetMismatch
	}

	switch order.Fee.FeeType {
	case core.FeeAbsolute:
		if order.Fee.Asset == nil {
			return decimal.Zero, ErrFeeAssetRequired
		}
		return order.Fee.Amount, nil
	case core.FeePercentage:
		basis, err := e.family.feeBasis(order)
		if err != nil {
			return decimal.Zero, err
		}
		return basis.Mul(order.Fee.Amount).Div(oneHundred), nil
	default:
		return decimal.Zero, ErrUnsupportedFeeType
	}
}

// InvolvedAssets lists the collateral and contract legs the order would
// touch, without amounts.
func (e *basePerpetualEngine) InvolvedAssets(order OrderDetails) ([]AssetCashflow, error) {
	collateral, err := e.family.outflowAsset(order)
	if err != nil {
		return nil, err
	}
	openingLeg, closingLeg, err := contractLegs(e.assets, order)
	if err != nil {
		return nil, err
	}

	var result []AssetCashflow
	switch order.PositionAction {
	case core.PositionFlip:
		// close the existing position, then open the mirrored one
		result = []AssetCashflow{
			{Asset: openingLeg, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonOperation},
			{Asset: collateral, InvolvementType: Closing, CashflowType: Inflow, Reason: ReasonPnL},
			{Asset: collateral, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonOperation},
			{Asset: closingLeg, InvolvementType: Closing, CashflowType: Inflow, Reason: ReasonOperation},
		}
	case core.PositionClose:
		result = []AssetCashflow{
			{Asset: closingLeg, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonOperation},
			{Asset: collateral, InvolvementType: Closing, CashflowType: Inflow, Reason: ReasonPnL},
		}
	case core.PositionOpen:
		result = []AssetCashflow{
			{Asset: collateral, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonOperation},
			{Asset: closingLeg, InvolvementType: Closing, CashflowType: Inflow, Reason: ReasonOperation},
		}
	default:
		return nil, ErrUnsupportedPositionAction
	}

	if order.Fee.ImpactType == core.AddedToCosts {
		feeAsset, err := e.expectedFeeAsset(order)
		if err != nil {
			return nil, err
		}
		result = append(result, AssetCashflow{
			Asset:           feeAsset,
			InvolvementType: Opening,
			CashflowType:    Outflow,
			Reason:          ReasonFee,
		})
	}

	return result, nil
}

// OpeningOutflows returns the initial margin and, for upfront fees, the fee.
func (e *basePerpetualEngine) OpeningOutflows(order OrderDetails) ([]AssetCashflow, error) {
	collateral, err := e.family.outflowAsset(order)
	if err != nil {
		return nil, err
	}
	margin, err := e.marginAmount(order)
	if err != nil {
		return nil, err
	}

	result := []AssetCashflow{{
		Asset:           collateral,
		InvolvementType: Opening,
		CashflowType:    Outflow,
		Reason:          ReasonOperation,
		Amount:          margin,
	}}

	if order.Fee.ImpactType == core.AddedToCosts {
		feeAsset, err := e.expectedFeeAsset(order)
		if err != nil {
			return nil, err
		}
		feeAmount, err := e.feeAmount(order)
		if err != nil {
			return nil, err
		}
		result = append(result, AssetCashflow{
			Asset:           feeAsset,
			InvolvementType: Opening,
			CashflowType:    Outflow,
			Reason:          ReasonFee,
			Amount:          feeAmount,
		})
	}

	return result, nil
}

// OpeningInflows is always empty for perpetuals.
func (e *basePerpetualEngine) OpeningInflows(order OrderDetails) ([]AssetCashflow, error) {
	return nil, nil
}

// ClosingOutflows returns the fee when it is deducted from returns.
func (e *basePerpetualEngine) ClosingOutflows(order OrderDetails) ([]AssetCashflow, error) {
	if order.Fee.ImpactType != core.DeductedFromReturns {
		return nil, nil
	}
	feeAsset, err := e.expectedFeeAsset(order)
	if err != nil {
		return nil, err
	}
	feeAmount, err := e.feeAmount(order)
	if err != nil {
		return nil, err
	}
	return []AssetCashflow{{
		Asset:           feeAsset,
		InvolvementType: Closing,
		CashflowType:    Outflow,
		Reason:          ReasonFee,
		Amount:          feeAmount,
	}}, nil
}

// ClosingInflows returns the settlement entering the account at close.
// CLOSE and FLIP emit the PnL magnitude alone; OPEN emits margin return
// plus PnL magnitude as a single inflow.
func (e *basePerpetualEngine) ClosingInflows(order OrderDetails) ([]AssetCashflow, error) {
	collateral, err := e.family.outflowAsset(order)
	if err != nil {
		return nil, err
	}

	switch order.PositionAction {
	case core.PositionClose, core.PositionFlip:
		pnl, err := e.family.pnl(order)
		if err != nil {
			return nil, err
		}
		return []AssetCashflow{{
			Asset:           collateral,
			InvolvementType: Closing,
			CashflowType:    Inflow,
			Reason:          ReasonPnL,
			Amount:          pnl.Abs(),
		}}, nil
	case core.PositionOpen:
		margin, err := e.marginAmount(order)
		if err != nil {
			return nil, err
		}
		pnl, err := e.family.pnl(order)
		if err != nil {
			return nil, err
		}
		return []AssetCashflow{{
			Asset:           collateral,
			InvolvementType: Closing,
			CashflowType:    Inflow,
			Reason:          ReasonPnL,
			Amount:          margin.Add(pnl.Abs()),
		}}, nil
	default:
		return nil, nil
	}
}

// ---------------------
// Linear perpetual
// ---------------------

// PerpetualEngine simulates linear perpetual futures: margin, PnL and
// fees in quote currency, position size in base currency.
type PerpetualEngine struct {
	basePerpetualEngine
}

// NewPerpetualEngine creates a linear perpetual engine.
func NewPerpetualEngine(assets *core.AssetRegistry) *PerpetualEngine {
	e := &PerpetualEngine{}
	e.assets = assets
	e.family = e
	return e
}

// outflowAsset resolves the collateral per the trading rule, typically
// the quote currency.
func (e *PerpetualEngine) outflowAsset(order OrderDetails) (core.Asset, error) {
	symbol, err := order.TradingRule.CollateralToken(order.TradeType)
	if err != nil {
		return core.Asset{}, err
	}
	return e.assets.Asset(order.Platform, symbol), nil
}

// margin = amount * price / leverage, in quote currency.
func (e *PerpetualEngine) margin(order OrderDetails) (decimal.Decimal, error) {
	if order.Leverage <= 0 {
		return decimal.Zero, ErrInvalidLeverage
	}
	return order.Amount.Mul(order.Price).Div(decimal.NewFromInt(order.Leverage)), nil
}

// pnl in quote currency: (exit - entry) * size for longs, mirrored for
// shorts. Zero when entry or exit is unknown.
func (e *PerpetualEngine) pnl(order OrderDetails) (decimal.Decimal, error) {
	if order.EntryPrice == nil || order.ExitPrice == nil {
		return decimal.Zero, nil
	}
	diff := order.ExitPrice.Sub(*order.EntryPrice)
	if order.TradeType == core.TradeSell {
		diff = diff.Neg()
	}
	return diff.Mul(order.Amount), nil
}

// feeBasis is the notional value amount * price.
func (e *PerpetualEngine) feeBasis(order OrderDetails) (decimal.Decimal, error) {
	return order.Amount.Mul(order.Price), nil
}

// ---------------------
// Inverse perpetual
// ---------------------

// InversePerpetualEngine simulates inverse perpetual futures: margin,
// PnL and fees in base currency, position size in contract value (USD),
// PnL per the reciprocal-price formula.
type InversePerpetualEngine struct {
	basePerpetualEngine
}

// NewInversePerpetualEngine creates an inverse perpetual engine.
func NewInversePerpetualEngine(assets *core.AssetRegistry) *InversePerpetualEngine {
	e := &InversePerpetualEngine{}
	e.assets = assets
	e.family = e
	return e
}

// outflowAsset is always the base currency for inverse contracts.
func (e *InversePerpetualEngine) outflowAsset(order OrderDetails) (core.Asset, error) {
	return e.assets.Asset(order.Platform, order.TradingPair.Base()), nil
}

// margin = contract_value / (leverage * entry index price), in base currency.
func (e *InversePerpetualEngine) margin(order OrderDetails) (decimal.Decimal, error) {
	if order.Leverage <= 0 {
		return decimal.Zero, ErrInvalidLeverage
	}
	if !order.EntryIndexPrice.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	return order.Amount.Div(decimal.NewFromInt(order.Leverage).Mul(order.EntryIndexPrice)), nil
}

// pnl in base currency: (1/entry - 1/exit) * contract value for longs,
// mirrored for shorts. Zero when entry or exit is unknown.
func (e *InversePerpetualEngine) pnl(order OrderDetails) (decimal.Decimal, error) {
	if order.EntryPrice == nil || order.ExitPrice == nil {
		return decimal.Zero, nil
	}
	if !order.EntryPrice.IsPositive() || !order.ExitPrice.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	one := decimal.NewFromInt(1)
	diff := one.Div(*order.EntryPrice).Sub(one.Div(*order.ExitPrice))
	if order.TradeType == core.TradeSell {
		diff = diff.Neg()
	}
	return diff.Mul(order.Amount), nil
}

// feeBasis is the inverse-denominated notional contract_value / price,
// in base currency.
func (e *InversePerpetualEngine) feeBasis(order OrderDetails) (decimal.Decimal, error) {
	if !order.Price.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	return order.Amount.Div(order.Price), nil
}
