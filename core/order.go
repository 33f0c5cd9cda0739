package core

// ---------------------
// Trade side
// ---------------------

// TradeType is the side of an order.
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// Opposite returns the mirrored trade side.
func (t TradeType) Opposite() (TradeType, error) {
	switch t {
	case TradeBuy:
		return TradeSell, nil
	case TradeSell:
		return TradeBuy, nil
	default:
		return "", ErrUnsupportedSide
	}
}

// ToPositionSide maps the trade side to the contract leg it would open.
func (t TradeType) ToPositionSide() DerivativeSide {
	switch t {
	case TradeBuy:
		return SideLong
	case TradeSell:
		return SideShort
	default:
		return SideBoth
	}
}

// ---------------------
// Order type and modifiers
// ---------------------

// OrderType is the execution style of an order.
type OrderType string

const (
	OrderMarket OrderType = "MARKET"
	OrderLimit  OrderType = "LIMIT"
)

// OrderModifier is an additional execution constraint on an order.
type OrderModifier string

const (
	ModifierPostOnly          OrderModifier = "POST_ONLY"
	ModifierReduceOnly        OrderModifier = "REDUCE_ONLY"
	ModifierImmediateOrCancel OrderModifier = "IMMEDIATE_OR_CANCEL"
	ModifierFillOrKill        OrderModifier = "FILL_OR_KILL"
	ModifierDay               OrderModifier = "DAY"
	ModifierAtTheOpen         OrderModifier = "AT_THE_OPEN"
)

// ---------------------
// Position action
// ---------------------

// PositionAction describes what an order does to an existing position.
type PositionAction string

const (
	PositionOpen  PositionAction = "OPEN"
	PositionClose PositionAction = "CLOSE"
	PositionFlip  PositionAction = "FLIP"
	PositionNil   PositionAction = "NIL"
)
