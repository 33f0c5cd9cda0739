package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func perpetualLeg(side DerivativeSide) Asset {
	return Asset{
		Platform:   Platform{Identifier: "simulated"},
		Identifier: "BTC-USDT-PERPETUAL",
		Side:       side,
	}
}

func TestNewPosition_Validation(t *testing.T) {
	currency := Asset{Platform: Platform{Identifier: "simulated"}, Identifier: "BTC"}
	_, err := NewPosition(currency, d("1"), d("10"), d("50000"), d("5000"), decimal.Zero, d("45500"))
	require.ErrorIs(t, err, ErrAssetEmpty)

	_, err = NewPosition(perpetualLeg(SideLong), d("0"), d("10"), d("50000"), d("5000"), decimal.Zero, d("45500"))
	require.ErrorIs(t, err, ErrNegativeValue)

	// a negative liquidation price means no liquidation level
	position, err := NewPosition(perpetualLeg(SideLong), d("1"), d("10"), d("50000"), d("5000"), decimal.Zero, d("-1"))
	require.NoError(t, err)
	require.True(t, position.LiquidationPrice.IsZero())
}

func TestPosition_Metrics(t *testing.T) {
	position, err := NewPosition(perpetualLeg(SideLong), d("2"), d("10"), d("50000"), d("10000"), d("-2500"), d("45500"))
	require.NoError(t, err)

	require.True(t, position.IsLong())
	require.True(t, d("100000").Equal(position.Value()))
	require.True(t, d("-25").Equal(position.UnrealizedPnLPercent()))
	require.True(t, d("7500").Equal(position.RemainingMargin()))
	require.True(t, d("0.75").Equal(position.MarginRatioFromLiquidation()))

	require.True(t, d("2500").Equal(position.DistanceFromLiquidation(d("48000"))))
	require.False(t, position.IsAtLiquidationRisk(d("50")))
	require.True(t, position.IsAtLiquidationRisk(d("80")))
}

func TestPosition_ShortDistance(t *testing.T) {
	position, err := NewPosition(perpetualLeg(SideShort), d("1"), d("10"), d("50000"), d("5000"), decimal.Zero, d("54500"))
	require.NoError(t, err)

	require.True(t, position.IsShort())
	// shorts are safe below the liquidation level
	require.True(t, d("2500").Equal(position.DistanceFromLiquidation(d("52000"))))
	require.True(t, d("-500").Equal(position.DistanceFromLiquidation(d("55000"))))
}
