// Package money provides integer-cents arithmetic for the settlement core.
// All monetary computation inside the engine happens on int64 cent values;
// floating-point euro amounts are accepted only at API boundaries and
// converted here before any arithmetic runs.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ToCents converts a euro amount to integer cents, rounding to the nearest
// cent. The multiplication runs on decimal values, never on binary floats,
// so ToCents(19.99) yields exactly 1999.
func ToCents(eur float64) int64 {
	return decimal.NewFromFloat(eur).Mul(hundred).Round(0).IntPart()
}

// EuroFloor rounds a cent amount down to the nearest whole euro (multiple
// of 100 cents). Amounts in the settlement core are never negative, so
// integer division is a true floor here.
func EuroFloor(cents int64) int64 {
	return cents / 100 * 100
}
