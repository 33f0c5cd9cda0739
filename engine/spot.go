package engine

import (
	"github.com/shopspring/decimal"

	"github.com/raykavin/finsim/core"
)

var oneHundred = decimal.NewFromInt(100)

// SpotEngine simulates plain spot trades: a buy spends quote and earns
// base, a sell spends base and earns quote. There is no margin and no
// PnL; fees are charged on the leg they attach to.
type SpotEngine struct {
	assets *core.AssetRegistry
}

// NewSpotEngine creates a spot engine backed by the given asset registry.
func NewSpotEngine(assets *core.AssetRegistry) *SpotEngine {
	return &SpotEngine{assets: assets}
}

// outflowAsset resolves the asset spent at opening, per the trading
// rule's collateral convention: quote for buys, base for sells.
func (e *SpotEngine) outflowAsset(order OrderDetails) (core.Asset, error) {
	symbol, err := order.TradingRule.CollateralToken(order.TradeType)
	if err != nil {
		return core.Asset{}, err
	}
	return e.assets.Asset(order.Platform, symbol), nil
}

// inflowAsset resolves the asset received at closing: base for buys,
// quote for sells.
func (e *SpotEngine) inflowAsset(order OrderDetails) (core.Asset, error) {
	switch order.TradeType {
	case core.TradeBuy:
		return e.assets.Asset(order.Platform, order.TradingPair.Base()), nil
	case core.TradeSell:
		return e.assets.Asset(order.Platform, order.TradingPair.Quote()), nil
	default:
		return core.Asset{}, ErrUnsupportedTradeType
	}
}

func (e *SpotEngine) outflowAmount(order OrderDetails) (decimal.Decimal, error) {
	switch order.TradeType {
	case core.TradeBuy:
		return order.Amount.Mul(order.Price), nil
	case core.TradeSell:
		return order.Amount, nil
	default:
		return decimal.Zero, ErrUnsupportedTradeType
	}
}

func (e *SpotEngine) inflowAmount(order OrderDetails) (decimal.Decimal, error) {
	switch order.TradeType {
	case core.TradeBuy:
		return order.Amount, nil
	case core.TradeSell:
		return order.Amount.Mul(order.Price), nil
	default:
		return decimal.Zero, ErrUnsupportedTradeType
	}
}

// feeImpact resolves the fee asset and amount. An upfront fee is charged
// in the opening outflow asset on the opening amount; a fee deducted
// from returns is charged in the closing inflow asset on the closing
// amount. A percentage fee in any other asset is a capability boundary.
func (e *SpotEngine) feeImpact(order OrderDetails) (core.Asset, decimal.Decimal, error) {
	var (
		expected core.Asset
		basis    decimal.Decimal
		err      error
	)
	switch order.Fee.ImpactType {
	case core.AddedToCosts:
		expected, err = e.outflowAsset(order)
		if err != nil {
			return core.Asset{}, decimal.Zero, err
		}
		basis, err = e.outflowAmount(order)
	case core.DeductedFromReturns:
		expected, err = e.inflowAsset(order)
		if err != nil {
			return core.Asset{}, decimal.Zero, err
		}
		basis, err = e.inflowAmount(order)
	default:
		return core.Asset{}, decimal.Zero, ErrUnsupportedFeeImpact
	}
	if err != nil {
		return core.Asset{}, decimal.Zero, err
	}

	switch order.Fee.FeeType {
	case core.FeeAbsolute:
		asset := expected
		if order.Fee.Asset != nil {
			asset = *order.Fee.Asset
		}
		return asset, order.Fee.Amount, nil
	case core.FeePercentage:
		if order.Fee.Asset != nil && *order.Fee.Asset != expected {
			return core.Asset{}, decimal.Zero, ErrFeeAssetMismatch
		}
		return expected, basis.Mul(order.Fee.Amount).Div(oneHundred), nil
	default:
		return core.Asset{}, decimal.Zero, ErrUnsupportedFeeType
	}
}

// InvolvedAssets lists the operation legs plus the potential fee flow of
// each phase, without amounts.
func (e *SpotEngine) InvolvedAssets(order OrderDetails) ([]AssetCashflow, error) {
	outAsset, err := e.outflowAsset(order)
	if err != nil {
		return nil, err
	}
	inAsset, err := e.inflowAsset(order)
	if err != nil {
		return nil, err
	}

	return []AssetCashflow{
		{Asset: outAsset, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonOperation},
		{Asset: inAsset, InvolvementType: Closing, CashflowType: Inflow, Reason: ReasonOperation},
		{Asset: outAsset, InvolvementType: Opening, CashflowType: Outflow, Reason: ReasonFee},
		{Asset: inAsset, InvolvementType: Closing, CashflowType: Outflow, Reason: ReasonFee},
	}, nil
}

// OpeningOutflows returns the trade cost and, for upfront fees, the fee.
func (e *SpotEngine) OpeningOutflows(order OrderDetails) ([]AssetCashflow, error) {
	outAsset, err := e.outflowAsset(order)
	if err != nil {
		return nil, err
	}
	amount, err := e.outflowAmount(order)
	if err != nil {
		return nil, err
	}

	result := []AssetCashflow{{
		Asset:           outAsset,
		InvolvementType: Opening,
		CashflowType:    Outflow,
		Reason:          ReasonOperation,
		Amount:          amount,
	}}

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

// OpeningInflows is always empty for spot trades.
func (e *SpotEngine) OpeningInflows(order OrderDetails) ([]AssetCashflow, error) {
	return nil, nil
}

// ClosingOutflows returns the fee when it is deducted from returns.
func (e *SpotEngine) ClosingOutflows(order OrderDetails) ([]AssetCashflow, error) {
	if order.Fee.ImpactType != core.DeductedFromReturns {
		return nil, nil
	}
	feeAsset, feeAmount, err := e.feeImpact(order)
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

// ClosingInflows returns the trade return.
func (e *SpotEngine) ClosingInflows(order OrderDetails) ([]AssetCashflow, error) {
	inAsset, err := e.inflowAsset(order)
	if err != nil {
		return nil, err
	}
	amount, err := e.inflowAmount(order)
	if err != nil {
		return nil, err
	}
	return []AssetCashflow{{
		Asset:           inAsset,
		InvolvementType: Closing,
		CashflowType:    Inflow,
		Reason:          ReasonOperation,
		Amount:          amount,
	}}, nil
}
