package entity

import "github.com/shopspring/decimal"

// ToMinorUnits converts a decimal price to integer minor currency units,
// rounding half up. Going through decimal keeps 19.995 at 2000 where plain
// float64 arithmetic lands on 1999.
func ToMinorUnits(price float64) int64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
