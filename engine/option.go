package engine

import (
	"github.com/shopspring/decimal"

	"github.com/raykavin/finsim/core"
)

// optionMarginRatioKey names the trading-rule parameter that overrides
// the default short-option margin ratio.
const optionMarginRatioKey = "option_margin_ratio"

var defaultOptionMarginRatio = decimal.RequireFromString("0.1")

// optionFamily captures what distinguishes regular from inverse options:
// collateral asset, premium, short margin and settlement formulas.
type optionFamily interface {
	outflowAsset(order OrderDetails) (core.Asset, error)
	premium(order OrderDetails) (decimal.Decimal, error)
	margin(order OrderDetails) (decimal.Decimal, error)
	settlement(order OrderDetails) (decimal.Decimal, error)
}

// baseOptionEngine implements the cashflow pattern shared by both option
// families. A long leg pays premium at open and may collect settlement at
// close; a short leg locks margin and collects premium at open, may owe
// settlement and recovers its margin at close.
type baseOptionEngine struct {
	family optionFamily
	assets *core.AssetRegistry
}

func marginRatio(rule *core.TradingRule) decimal.Decimal {
	return rule.DecimalParameter(optionMarginRatioKey, defaultOptionMarginRatio)
}

func strikePrice(order OrderDetails) (decimal.Decimal, error) {
	strike := order.TradingPair.Market().Strike
	if strike == nil {
		return decimal.Zero, core.ErrStrikeRequired
	}
	return *strike, nil
}

// feeImpact resolves the fee asset and amount. Fees are charged in the
// collateral asset; percentage fees are taken on the computed premium.
func (e *baseOptionEngine) feeImpact(order OrderDetails) (core.Asset, decimal.Decimal, error) {
	collateral, err := e.family.outflowAsset(order)
	if err != nil {
		return core.Asset{}, decimal.Zero, err
	}
	if order.Fee.Asset != nil && *order.Fee.Asset != collateral {
		return core.Asset{}, decimal.Zero, ErrFeeAssetMismatch
	}

	switch order.Fee.FeeType {
	case core.FeeAbsolute:
		return collateral, order.Fee.Amount, nil
	case core.FeePercentage:
		premium, err := e.family.premium(order)
		if err != nil {
			return core.Asset{}, decimal.Zero, err
		}
		return collateral, premium.Mul(order.Fee.Amount).Div(oneHundred), nil
	default:
		return core.Asset{}, decimal.Zero, ErrUnsupportedFeeType
	}
}

// InvolvedAssets lists the collateral and contract legs the order would
// touch, without amounts.
func (e *baseOptionEngine) InvolvedAssets(order OrderDetails) ([]AssetCashflow, error) {
	if order.TradeType != core.TradeBuy && order.TradeType != core.TradeSell {
		return nil, ErrUnsupportedTradeType
	}
	collateral, err := e.family.outflowAsset(order)
	if err != nil {
		return nil, err
	}
	openingLeg, closingLeg, err := contractLegs(e.assets, order)
	if err != nil {
		return nil, err
	}

	buy := order.TradeType == core.TradeBuy

	var result []AssetCashflow
	switch order.PositionAction {
	case core.PositionFlip:
		if buy {
			// close the short: settle and recover margin, then open long
			result = []AssetCashflow{
				{Asset: collateral, InvolvementType: Closing, CashflowType: Outflow, Reason: ReasonOperation},
				{Asset: collateral, InvolvementType: Closing, CashflowType: Inflow, Reason: ReasonOperation},
				{Asset: collateral, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonOperation},
				{Asset: openingLeg, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonOperation},
				{Asset: closingLeg, InvolvementType: Closing, CashflowType: Inflow, Reason: ReasonOperation},
			}
		} else {
			// close the long: collect settlement, then open short
			result = []AssetCashflow{
				{Asset: collateral, InvolvementType: Closing, CashflowType: Inflow, Reason: ReasonPnL},
				{Asset: collateral, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonOperation},
				{Asset: collateral, InvolvementType: Opening, CashflowType: Inflow, Reason: ReasonOperation},
				{Asset: openingLeg, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonOperation},
				{Asset: closingLeg, InvolvementType: Closing, CashflowType: Inflow, Reason: ReasonOperation},
			}
		}
	case core.PositionOpen:
		if buy {
			result = []AssetCashflow{
				{Asset: collateral, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonOperation},
				{Asset: openingLeg, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonOperation},
			}
		} else {
			result = []AssetCashflow{
				{Asset: collateral, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonOperation},
				{Asset: collateral, InvolvementType: Opening, CashflowType: Inflow, Reason: ReasonOperation},
				{Asset: openingLeg, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonOperation},
			}
		}
	case core.PositionClose:
		if buy {
			result = []AssetCashflow{
				{Asset: collateral, InvolvementType: Closing, CashflowType: Outflow, Reason: ReasonOperation},
				{Asset: collateral, InvolvementType: Closing, CashflowType: Inflow, Reason: ReasonOperation},
				{Asset: closingLeg, InvolvementType: Closing, CashflowType: Inflow, Reason: ReasonOperation},
			}
		} else {
			result = []AssetCashflow{
				{Asset: collateral, InvolvementType: Closing, CashflowType: Inflow, Reason: ReasonPnL},
				{Asset: closingLeg, InvolvementType: Closing, CashflowType: Inflow, Reason: ReasonOperation},
			}
		}
	default:
		return nil, ErrUnsupportedPositionAction
	}

	if order.Fee.ImpactType == core.AddedToCosts {
		feeAsset, _, err := e.feeImpact(order)
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

// OpeningOutflows returns the premium paid by a long open, the margin
// locked by a short open and, for upfront fees, the fee.
func (e *baseOptionEngine) OpeningOutflows(order OrderDetails) ([]AssetCashflow, error) {
	var result []AssetCashflow

	if order.PositionAction == core.PositionOpen {
		collateral, err := e.family.outflowAsset(order)
		if err != nil {
			return nil, err
		}
		var amount decimal.Decimal
		if order.TradeType == core.TradeBuy {
			amount, err = e.family.premium(order)
		} else {
			amount, err = e.family.margin(order)
		}
		if err != nil {
			return nil, err
		}
		result = append(result, AssetCashflow{
			Asset:           collateral,
			InvolvementType: Opening,
			CashflowType:    Outflow,
			Reason:          ReasonOperation,
			Amount:          amount,
		})
	}

	if order.Fee.ImpactType == core.AddedToCosts {
		feeAsset, feeAmount, err := e.feeImpact(order)
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

// OpeningInflows returns the premium collected by a short open.
func (e *baseOptionEngine) OpeningInflows(order OrderDetails) ([]AssetCashflow, error) {
	if order.PositionAction != core.PositionOpen || order.TradeType != core.TradeSell {
		return nil, nil
	}
	collateral, err := e.family.outflowAsset(order)
	if err != nil {
		return nil, err
	}
	premium, err := e.family.premium(order)
	if err != nil {
		return nil, err
	}
	return []AssetCashflow{{
		Asset:           collateral,
		InvolvementType: Opening,
		CashflowType:    Inflow,
		Reason:          ReasonOperation,
		Amount:          premium,
	}}, nil
}

// ClosingOutflows returns the settlement an assigned short owes and the
// fee when it is deducted from returns.
func (e *baseOptionEngine) ClosingOutflows(order OrderDetails) ([]AssetCashflow, error) {
	var result []AssetCashflow

	if order.PositionAction == core.PositionClose && order.TradeType == core.TradeBuy {
		collateral, err := e.family.outflowAsset(order)
		if err != nil {
			return nil, err
		}
		settlement, err := e.family.settlement(order)
		if err != nil {
			return nil, err
		}
		if settlement.IsPositive() {
			result = append(result, AssetCashflow{
				Asset:           collateral,
				InvolvementType: Closing,
				CashflowType:    Outflow,
				Reason:          ReasonOperation,
				Amount:          settlement,
			})
		}
	}

	if order.Fee.ImpactType == core.DeductedFromReturns {
		feeAsset, feeAmount, err := e.feeImpact(order)
		if err != nil {
			return nil, err
		}
		result = append(result, AssetCashflow{
			Asset:           feeAsset,
			InvolvementType: Closing,
			CashflowType:    Outflow,
			Reason:          ReasonFee,
			Amount:          feeAmount,
		})
	}

	return result, nil
}

// ClosingInflows returns the margin a closing short recovers, or the
// settlement an exercised long collects.
func (e *baseOptionEngine) ClosingInflows(order OrderDetails) ([]AssetCashflow, error) {
	if order.PositionAction != core.PositionClose {
		return nil, nil
	}
	collateral, err := e.family.outflowAsset(order)
	if err != nil {
		return nil, err
	}

	if order.TradeType == core.TradeBuy {
		margin, err := e.family.margin(order)
		if err != nil {
			return nil, err
		}
		return []AssetCashflow{{
			Asset:           collateral,
			InvolvementType: Closing,
			CashflowType:    Inflow,
			Reason:          ReasonOperation,
			Amount:          margin,
		}}, nil
	}

	settlement, err := e.family.settlement(order)
	if err != nil {
		return nil, err
	}
	if !settlement.IsPositive() {
		return nil, nil
	}
	return []AssetCashflow{{
		Asset:           collateral,
		InvolvementType: Closing,
		CashflowType:    Inflow,
		Reason:          ReasonPnL,
		Amount:          settlement,
	}}, nil
}

// ---------------------
// Regular option
// ---------------------

// OptionEngine simulates regular options: premium, margin and settlement
// in quote currency, contract size in base currency.
type OptionEngine struct {
	baseOptionEngine
}

// NewOptionEngine creates a regular option engine.
func NewOptionEngine(assets *core.AssetRegistry) *OptionEngine {
	e := &OptionEngine{}
	e.assets = assets
	e.family = e
	return e
}

// outflowAsset resolves the collateral per the trading rule, typically
// the quote currency.
func (e *OptionEngine) outflowAsset(order OrderDetails) (core.Asset, error) {
	symbol, err := order.TradingRule.CollateralToken(order.TradeType)
	if err != nil {
		return core.Asset{}, err
	}
	return e.assets.Asset(order.Platform, symbol), nil
}

// premium = option price * contract size, in quote currency.
func (e *OptionEngine) premium(order OrderDetails) (decimal.Decimal, error) {
	return order.Amount.Mul(order.Price), nil
}

// margin for a short leg: the premium floors it; an out-of-the-money
// strike adds its distance from the index, scaled by contract size and
// the margin ratio.
func (e *OptionEngine) margin(order OrderDetails) (decimal.Decimal, error) {
	strike, err := strikePrice(order)
	if err != nil {
		return decimal.Zero, err
	}
	premium, err := e.premium(order)
	if err != nil {
		return decimal.Zero, err
	}

	current := order.EntryIndexPrice
	ratio := marginRatio(order.TradingRule)

	distance := decimal.Zero
	if order.TradingPair.InstrumentType().IsCall() {
		if strike.GreaterThan(current) {
			distance = strike.Sub(current).Mul(order.Amount).Mul(ratio)
		}
	} else {
		if current.GreaterThan(strike) {
			distance = current.Sub(strike).Mul(order.Amount).Mul(ratio)
		}
	}

	if distance.GreaterThan(premium) {
		return distance, nil
	}
	return premium, nil
}

// settlement = intrinsic value scaled by contract size, floored at zero.
func (e *OptionEngine) settlement(order OrderDetails) (decimal.Decimal, error) {
	strike, err := strikePrice(order)
	if err != nil {
		return decimal.Zero, err
	}

	var intrinsic decimal.Decimal
	if order.TradingPair.InstrumentType().IsCall() {
		intrinsic = order.Price.Sub(strike)
	} else {
		intrinsic = strike.Sub(order.Price)
	}
	if intrinsic.IsNegative() {
		return decimal.Zero, nil
	}
	return intrinsic.Mul(order.Amount), nil
}

// ---------------------
// Inverse option
// ---------------------

// InverseOptionEngine simulates inverse options: premium, margin and
// settlement in base currency, contract value in USD, settlement per the
// reciprocal-price formula.
type InverseOptionEngine struct {
	baseOptionEngine
}

// NewInverseOptionEngine creates an inverse option engine.
func NewInverseOptionEngine(assets *core.AssetRegistry) *InverseOptionEngine {
	e := &InverseOptionEngine{}
	e.assets = assets
	e.family = e
	return e
}

// outflowAsset is always the base currency for inverse contracts.
func (e *InverseOptionEngine) outflowAsset(order OrderDetails) (core.Asset, error) {
	return e.assets.Asset(order.Platform, order.TradingPair.Base()), nil
}

// premium = (option price * contract value) / entry index price, in base
// currency.
func (e *InverseOptionEngine) premium(order OrderDetails) (decimal.Decimal, error) {
	if !order.EntryIndexPrice.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	return order.Amount.Mul(order.Price).Div(order.EntryIndexPrice), nil
}

// margin for a short leg: the premium floors it; an out-of-the-money
// strike adds contract_value * ratio / index price.
func (e *InverseOptionEngine) margin(order OrderDetails) (decimal.Decimal, error) {
	strike, err := strikePrice(order)
	if err != nil {
		return decimal.Zero, err
	}
	premium, err := e.premium(order)
	if err != nil {
		return decimal.Zero, err
	}

	current := order.EntryIndexPrice
	if !current.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	ratio := marginRatio(order.TradingRule)

	outOfTheMoney := false
	if order.TradingPair.InstrumentType().IsCall() {
		outOfTheMoney = strike.GreaterThan(current)
	} else {
		outOfTheMoney = current.GreaterThan(strike)
	}

	distance := decimal.Zero
	if outOfTheMoney {
		distance = order.Amount.Mul(ratio).Div(current)
	}

	if distance.GreaterThan(premium) {
		return distance, nil
	}
	return premium, nil
}

// settlement per the reciprocal-price intrinsic, scaled by contract
// value and floored at zero.
func (e *InverseOptionEngine) settlement(order OrderDetails) (decimal.Decimal, error) {
	strike, err := strikePrice(order)
	if err != nil {
		return decimal.Zero, err
	}
	if !strike.IsPositive() || !order.Price.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}

	one := decimal.NewFromInt(1)
	var intrinsic decimal.Decimal
	if order.TradingPair.InstrumentType().IsCall() {
		intrinsic = one.Div(strike).Sub(one.Div(order.Price))
	} else {
		intrinsic = one.Div(order.Price).Sub(one.Div(strike))
	}
	if intrinsic.IsNegative() {
		return decimal.Zero, nil
	}
	return intrinsic.Mul(order.Amount), nil
}
