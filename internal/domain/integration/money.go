package integration

import "github.com/shopspring/decimal"

const minorUnitsPerMajor = 100

// FromMinorUnits converts an amount in integer subunits (cents, fen) into
// currency rounded to two decimals.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(minorUnitsPerMajor)).Round(2)
}

// ToMinorUnits converts a currency amount into integer subunits
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(minorUnitsPerMajor)).Round(0).IntPart()
}
