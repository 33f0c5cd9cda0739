package engine

import "github.com/raykavin/finsim/core"

// MultiEngine routes each order to the engine of its instrument family.
// It implements BalanceEngine itself, so callers can simulate mixed
// portfolios without dispatching by hand.
type MultiEngine struct {
	engines map[core.InstrumentType]BalanceEngine
}

// NewMultiEngine creates a multi engine with one sub-engine per
// supported instrument family, all sharing the given asset registry.
func NewMultiEngine(assets *core.AssetRegistry) *MultiEngine {
	spot := NewSpotEngine(assets)
	perpetual := NewPerpetualEngine(assets)
	inversePerpetual := NewInversePerpetualEngine(assets)
	option := NewOptionEngine(assets)
	inverseOption := NewInverseOptionEngine(assets)

	return &MultiEngine{
		engines: map[core.InstrumentType]BalanceEngine{
			core.InstrumentSpot:              spot,
			core.InstrumentPerpetual:         perpetual,
			core.InstrumentInversePerpetual:  inversePerpetual,
			core.InstrumentCallOption:        option,
			core.InstrumentPutOption:         option,
			core.InstrumentInverseCallOption: inverseOption,
			core.InstrumentInversePutOption:  inverseOption,
		},
	}
}

// Engine returns the sub-engine handling the pair's instrument type.
func (m *MultiEngine) Engine(pair core.TradingPair) (BalanceEngine, error) {
	engine, ok := m.engines[pair.InstrumentType()]
	if !ok {
		return nil, ErrUnsupportedInstrument
	}
	return engine, nil
}

func (m *MultiEngine) InvolvedAssets(order OrderDetails) ([]AssetCashflow, error) {
	engine, err := m.Engine(order.TradingPair)
	if err != nil {
		return nil, err
	}
	return engine.InvolvedAssets(order)
}

func (m *MultiEngine) OpeningOutflows(order OrderDetails) ([]AssetCashflow, error) {
	engine, err := m.Engine(order.TradingPair)
	if err != nil {
		return nil, err
	}
	return engine.OpeningOutflows(order)
}

func (m *MultiEngine) OpeningInflows(order OrderDetails) ([]AssetCashflow, error) {
	engine, err := m.Engine(order.TradingPair)
	if err != nil {
		return nil, err
	}
	return engine.OpeningInflows(order)
}

func (m *MultiEngine) ClosingOutflows(order OrderDetails) ([]AssetCashflow, error) {
	engine, err := m.Engine(order.TradingPair)
	if err != nil {
		return nil, err
	}
	return engine.ClosingOutflows(order)
}

func (m *MultiEngine) ClosingInflows(order OrderDetails) ([]AssetCashflow, error) {
	engine, err := m.Engine(order.TradingPair)
	if err != nil {
		return nil, err
	}
	return engine.ClosingInflows(order)
}
