package core

import (
	"time"

	"github.com/StudioSol/set"
	"github.com/shopspring/decimal"
)

var (
	decimalMax = decimal.New(1, 30)
	decimalMin = decimal.New(1, -30)
)

// TradingRule holds the constraints a venue imposes on orders for one
// trading pair: size and notional limits, price/amount increments,
// supported order types and modifiers, collateral conventions and a
// free-form parameter bag for venue-specific extras.
type TradingRule struct {
	pair                 TradingPair
	minOrderSize         decimal.Decimal
	maxOrderSize         decimal.Decimal
	minPriceIncrement    decimal.Decimal
	minPriceSignificance int
	minBaseIncrement     decimal.Decimal
	minQuoteIncrement    decimal.Decimal
	minNotionalSize      decimal.Decimal
	maxNotionalSize      decimal.Decimal
	orderTypes           *set.LinkedHashSetString
	orderModifiers       *set.LinkedHashSetString
	buyCollateralToken   string
	sellCollateralToken  string
	productID            string
	isLive               bool
	startTimestamp       int64
	expiryTimestamp      int64
	other                map[string]string
}

// TradingRuleOption configures a trading rule.
type TradingRuleOption func(*TradingRule)

// WithOrderSizeLimits sets the minimum and maximum order size in base currency.
func WithOrderSizeLimits(min, max decimal.Decimal) TradingRuleOption {
	return func(r *TradingRule) {
		r.minOrderSize = min
		r.maxOrderSize = max
	}
}

// WithPriceIncrement sets the tick size and the number of significant price digits.
func WithPriceIncrement(increment decimal.Decimal, significance int) TradingRuleOption {
	return func(r *TradingRule) {
		r.minPriceIncrement = increment
		r.minPriceSignificance = significance
	}
}

// WithAmountIncrements sets the base and quote amount increments.
func WithAmountIncrements(base, quote decimal.Decimal) TradingRuleOption {
	return func(r *TradingRule) {
		r.minBaseIncrement = base
		r.minQuoteIncrement = quote
	}
}

// WithNotionalLimits sets the minimum and maximum order value in quote currency.
func WithNotionalLimits(min, max decimal.Decimal) TradingRuleOption {
	return func(r *TradingRule) {
		r.minNotionalSize = min
		r.maxNotionalSize = max
	}
}

// WithOrderTypes replaces the supported order types.
func WithOrderTypes(types ...OrderType) TradingRuleOption {
	return func(r *TradingRule) {
		r.orderTypes = set.NewLinkedHashSetString()
		for _, t := range types {
			r.orderTypes.Add(string(t))
		}
	}
}

// WithOrderModifiers replaces the supported order modifiers.
func WithOrderModifiers(modifiers ...OrderModifier) TradingRuleOption {
	return func(r *TradingRule) {
		r.orderModifiers = set.NewLinkedHashSetString()
		for _, m := range modifiers {
			r.orderModifiers.Add(string(m))
		}
	}
}

// WithCollateralTokens overrides the default collateral tokens per side.
func WithCollateralTokens(buy, sell string) TradingRuleOption {
	return func(r *TradingRule) {
		r.buyCollateralToken = buy
		r.sellCollateralToken = sell
	}
}

// WithLifetime sets the trading window. An expiry of -1 marks a perpetual rule.
func WithLifetime(start, expiry int64) TradingRuleOption {
	return func(r *TradingRule) {
		r.startTimestamp = start
		r.expiryTimestamp = expiry
	}
}

// WithProductID sets the venue-specific product identifier.
func WithProductID(id string) TradingRuleOption {
	return func(r *TradingRule) { r.productID = id }
}

// WithLive toggles whether the rule currently allows trading.
func WithLive(live bool) TradingRuleOption {
	return func(r *TradingRule) { r.isLive = live }
}

// WithParameter adds a venue-specific key/value parameter,
// e.g. "option_margin_ratio".
func WithParameter(key, value string) TradingRuleOption {
	return func(r *TradingRule) { r.other[key] = value }
}

// NewTradingRule creates a trading rule for a pair with venue defaults:
// limit and market orders, post-only modifier, collateral per the
// instrument convention (spot buys in quote and sells in base, linear
// derivatives in quote, inverse derivatives in base). Dated instruments
// default their trading window to the market expiry, listed one timeframe
// span before it; WithLifetime overrides both ends.
func NewTradingRule(pair TradingPair, opts ...TradingRuleOption) *TradingRule {
	rule := &TradingRule{
		pair:              pair,
		minOrderSize:      decimal.Zero,
		maxOrderSize:      decimalMax,
		minPriceIncrement: decimalMin,
		minBaseIncrement:  decimalMin,
		minQuoteIncrement: decimalMin,
		minNotionalSize:   decimal.Zero,
		maxNotionalSize:   decimalMax,
		orderTypes: set.NewLinkedHashSetString(
			string(OrderLimit), string(OrderMarket),
		),
		orderModifiers: set.NewLinkedHashSetString(
			string(ModifierPostOnly),
		),
		isLive:          true,
		expiryTimestamp: -1,
		other:           make(map[string]string),
	}

	if expiry := pair.Market().Expiry; !expiry.IsZero() {
		rule.expiryTimestamp = expiry.Unix()
		if span, err := pair.Market().Timeframe.Duration(); err == nil {
			rule.startTimestamp = expiry.Add(-span).Unix()
		}
	}

	for _, opt := range opts {
		opt(rule)
	}

	if rule.buyCollateralToken == "" || rule.sellCollateralToken == "" {
		buy, sell := defaultCollateral(pair)
		if rule.buyCollateralToken == "" {
			rule.buyCollateralToken = buy
		}
		if rule.sellCollateralToken == "" {
			rule.sellCollateralToken = sell
		}
	}

	return rule
}

func defaultCollateral(pair TradingPair) (buy, sell string) {
	instrument := pair.InstrumentType()
	switch {
	case instrument.IsSpot():
		return pair.Quote(), pair.Base()
	case instrument.IsInverse():
		return pair.Base(), pair.Base()
	default:
		return pair.Quote(), pair.Quote()
	}
}

// ---------------------
// Accessors
// ---------------------

func (r *TradingRule) TradingPair() TradingPair            { return r.pair }
func (r *TradingRule) MinOrderSize() decimal.Decimal       { return r.minOrderSize }
func (r *TradingRule) MaxOrderSize() decimal.Decimal       { return r.maxOrderSize }
func (r *TradingRule) MinPriceIncrement() decimal.Decimal  { return r.minPriceIncrement }
func (r *TradingRule) MinPriceSignificance() int           { return r.minPriceSignificance }
func (r *TradingRule) MinBaseIncrement() decimal.Decimal   { return r.minBaseIncrement }
func (r *TradingRule) MinQuoteIncrement() decimal.Decimal  { return r.minQuoteIncrement }
func (r *TradingRule) MinNotionalSize() decimal.Decimal    { return r.minNotionalSize }
func (r *TradingRule) MaxNotionalSize() decimal.Decimal    { return r.maxNotionalSize }
func (r *TradingRule) ProductID() string                   { return r.productID }
func (r *TradingRule) IsLive() bool                        { return r.isLive }
func (r *TradingRule) BuyCollateralToken() string          { return r.buyCollateralToken }
func (r *TradingRule) SellCollateralToken() string         { return r.sellCollateralToken }

// CollateralToken returns the collateral symbol for the given trade side.
func (r *TradingRule) CollateralToken(tradeType TradeType) (string, error) {
	var symbol string
	switch tradeType {
	case TradeBuy:
		symbol = r.buyCollateralToken
	case TradeSell:
		symbol = r.sellCollateralToken
	default:
		return "", ErrUnsupportedSide
	}
	if symbol == "" {
		return "", ErrCollateralNotSet
	}
	return symbol, nil
}

// SupportsOrderType reports whether the venue accepts the order type.
func (r *TradingRule) SupportsOrderType(orderType OrderType) bool {
	return r.orderTypes.InArray(string(orderType))
}

// SupportsModifier reports whether the venue accepts the order modifier.
func (r *TradingRule) SupportsModifier(modifier OrderModifier) bool {
	return r.orderModifiers.InArray(string(modifier))
}

// OrderTypes returns the supported order types in declaration order.
func (r *TradingRule) OrderTypes() []OrderType {
	types := make([]OrderType, 0, r.orderTypes.Length())
	for t := range r.orderTypes.Iter() {
		types = append(types, OrderType(t))
	}
	return types
}

// OrderModifiers returns the supported modifiers in declaration order.
func (r *TradingRule) OrderModifiers() []OrderModifier {
	modifiers := make([]OrderModifier, 0, r.orderModifiers.Length())
	for m := range r.orderModifiers.Iter() {
		modifiers = append(modifiers, OrderModifier(m))
	}
	return modifiers
}

// Parameter reads a venue-specific parameter by key.
func (r *TradingRule) Parameter(key string) (string, bool) {
	value, ok := r.other[key]
	return value, ok
}

// DecimalParameter reads a venue-specific parameter as a decimal,
// falling back to the given default when absent or malformed.
func (r *TradingRule) DecimalParameter(key string, fallback decimal.Decimal) decimal.Decimal {
	raw, ok := r.other[key]
	if !ok {
		return fallback
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return fallback
	}
	return value
}

// ---------------------
// Lifetime
// ---------------------

// IsPerpetual reports whether the rule never expires.
func (r *TradingRule) IsPerpetual() bool { return r.expiryTimestamp == -1 }

// IsExpired reports whether trading has ended at the given time.
func (r *TradingRule) IsExpired(at time.Time) bool {
	if r.IsPerpetual() {
		return false
	}
	return at.Unix() >= r.expiryTimestamp
}

// IsStarted reports whether trading has begun at the given time.
func (r *TradingRule) IsStarted(at time.Time) bool {
	return at.Unix() >= r.startTimestamp
}

// IsActive reports whether trading is open at the given time.
func (r *TradingRule) IsActive(at time.Time) bool {
	return r.isLive && r.IsStarted(at) && !r.IsExpired(at)
}

// ---------------------
// Quantization
// ---------------------

// floor-division quantization; all rule-bound rounding goes through here.
// QuoRem keeps the quotient exact: Div rounds at DivisionPrecision, which
// can lift a quotient just below an integer onto the wrong tick.
func quantize(value, quantum decimal.Decimal) decimal.Decimal {
	if quantum.IsZero() {
		return value
	}
	ticks, _ := value.QuoRem(quantum, 0)
	return ticks.Mul(quantum)
}

// PriceQuantum returns the effective price step at the given price level.
// When the rule carries a significance constraint the step grows with the
// magnitude of the price so that only the leading digits remain.
func (r *TradingRule) PriceQuantum(price decimal.Decimal) decimal.Decimal {
	if r.minPriceSignificance <= 0 {
		return r.minPriceIncrement
	}

	var significanceQuantum decimal.Decimal
	integral := price.Truncate(0)
	if integral.IsZero() {
		// sub-unit price: count the leading zeros of the fraction
		leadingZeros := 0
		fraction := price.Abs().Sub(integral.Abs())
		for fraction.LessThan(decimal.New(1, -1)) && !fraction.IsZero() {
			leadingZeros++
			fraction = fraction.Shift(1)
		}
		significanceQuantum = decimal.New(1, int32(-leadingZeros-r.minPriceSignificance))
	} else {
		integerDigits := len(integral.Abs().String())
		significanceQuantum = decimal.New(1, int32(integerDigits-r.minPriceSignificance))
	}

	if r.minPriceIncrement.GreaterThan(significanceQuantum) {
		return r.minPriceIncrement
	}
	return significanceQuantum
}

// QuantizePrice floors the price to the effective price step.
func (r *TradingRule) QuantizePrice(price decimal.Decimal) decimal.Decimal {
	return quantize(price, r.PriceQuantum(price))
}

// QuantizeOrderPrice quantizes a price with side- and aggressiveness-aware
// rounding: an aggressive buy and a passive sell step up to the next tick,
// the mirrored cases keep the floored tick.
func (r *TradingRule) QuantizeOrderPrice(price decimal.Decimal, tradeType TradeType, aggressive bool) decimal.Decimal {
	quantized := r.QuantizePrice(price)
	if quantized.Equal(price) {
		return quantized
	}

	stepUp := false
	switch tradeType {
	case TradeBuy:
		stepUp = aggressive
	case TradeSell:
		stepUp = !aggressive
	default:
		return quantized
	}

	if stepUp {
		return quantized.Add(r.PriceQuantum(price))
	}
	return quantized
}

// QuantizeAmount floors the amount to the base amount increment.
func (r *TradingRule) QuantizeAmount(amount decimal.Decimal) decimal.Decimal {
	return quantize(amount, r.minBaseIncrement)
}

// QuantizeOrderAmount quantizes an order amount and zeroes it when the
// result falls below the minimum order size or, with a 1% safety factor,
// below the minimum notional at the given price.
func (r *TradingRule) QuantizeOrderAmount(amount, price decimal.Decimal) decimal.Decimal {
	quantized := r.QuantizeAmount(amount)
	if quantized.LessThan(r.minOrderSize) {
		return decimal.Zero
	}
	if price.IsPositive() {
		notional := price.Mul(quantized)
		safetyFactor := decimal.RequireFromString("1.01")
		if notional.LessThan(r.minNotionalSize.Mul(safetyFactor)) {
			return decimal.Zero
		}
	}
	return quantized
}
