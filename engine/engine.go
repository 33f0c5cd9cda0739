// Package engine simulates, without side effects, the asset movements a
// prospective trade would cause. One engine exists per instrument family
// (spot, linear and inverse perpetual, regular and inverse option) plus a
// dispatching MultiEngine.
//
// A simulation covers a 2x2 matrix of phases: {opening, closing} x
// {outflow, inflow}. Each phase method returns an ordered list of
// cashflows; the order within a list is part of the contract. Engines are
// pure and stateless: they never mutate the order, never touch a ledger
// and are safe to call concurrently.
package engine

import "github.com/raykavin/finsim/core"

// BalanceEngine computes the cashflows of one instrument family.
type BalanceEngine interface {
	// InvolvedAssets lists every asset the order would touch, with phase,
	// direction and reason but without amounts. Used for pre-trade checks.
	InvolvedAssets(order OrderDetails) ([]AssetCashflow, error)

	// OpeningOutflows returns the assets leaving the account when the
	// order is placed: trade cost, initial margin, upfront fee.
	OpeningOutflows(order OrderDetails) ([]AssetCashflow, error)

	// OpeningInflows returns the assets entering the account at placement.
	// Empty for most instrument families.
	OpeningInflows(order OrderDetails) ([]AssetCashflow, error)

	// ClosingOutflows returns the assets leaving the account at close:
	// settlement owed or fee deducted from returns.
	ClosingOutflows(order OrderDetails) ([]AssetCashflow, error)

	// ClosingInflows returns the assets entering the account at close:
	// proceeds, margin return, realized PnL.
	ClosingInflows(order OrderDetails) ([]AssetCashflow, error)
}

// CompleteSimulation concatenates the four phases in their fixed order:
// opening outflows, opening inflows, closing outflows, closing inflows.
func CompleteSimulation(e BalanceEngine, order OrderDetails) (SimulationResult, error) {
	var cashflows []AssetCashflow
	phases := []func(OrderDetails) ([]AssetCashflow, error){
		e.OpeningOutflows,
		e.OpeningInflows,
		e.ClosingOutflows,
		e.ClosingInflows,
	}
	for _, phase := range phases {
		flows, err := phase(order)
		if err != nil {
			return SimulationResult{}, err
		}
		cashflows = append(cashflows, flows...)
	}
	return SimulationResult{Order: order, Cashflows: cashflows}, nil
}

// contractLegs resolves the contract legs the order side would open and close.
func contractLegs(assets *core.AssetRegistry, order OrderDetails) (opening, closing core.Asset, err error) {
	opposite, err := order.TradeType.Opposite()
	if err != nil {
		return core.Asset{}, core.Asset{}, ErrUnsupportedTradeType
	}
	opening = assets.Contract(order.Platform, order.TradingPair.Name(), order.TradeType.ToPositionSide())
	closing = assets.Contract(order.Platform, order.TradingPair.Name(), opposite.ToPositionSide())
	return opening, closing, nil
}
