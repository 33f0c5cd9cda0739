package engine

import "errors"

var (
	ErrUnsupportedInstrument     = errors.New("unsupported instrument type")
	ErrUnsupportedTradeType      = errors.New("unsupported trade type")
	ErrUnsupportedPositionAction = errors.New("unsupported position action")
	ErrUnsupportedFeeType        = errors.New("unsupported fee type")
	ErrUnsupportedFeeImpact      = errors.New("unsupported fee impact type")
	ErrFeeAssetMismatch          = errors.New("fee on not involved asset not supported")
	ErrFeeAssetRequired          = errors.New("fee asset is required for absolute fees")
	ErrOrderTypeNotSupported     = errors.New("order type not supported by trading rule")
	ErrModifierNotSupported      = errors.New("order modifier not supported by trading rule")
	ErrTradingRuleExpired        = errors.New("trading rule is expired")
	ErrOrderSizeBelowMinimum     = errors.New("order amount below minimum order size")
	ErrOrderSizeAboveMaximum     = errors.New("order amount above maximum order size")
	ErrNotionalBelowMinimum      = errors.New("order notional below minimum notional size")
	ErrNotionalAboveMaximum      = errors.New("order notional above maximum notional size")
	ErrMissingTradingRule        = errors.New("missing trading rule")
	ErrInvalidLeverage           = errors.New("leverage must be positive")
	ErrInvalidPrice              = errors.New("price must be positive")
)
