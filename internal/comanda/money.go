package comanda

import "github.com/shopspring/decimal"

// Prices and totals are kept in decimal form end to end. Rounding happens
// once, when a derived amount is produced, never on stored unit prices.

const moneyScale = 2

func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyScale)
}

// LineSubtotal is quantity times unit price, rounded to money scale.
func LineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return RoundMoney(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// SafeAverage divides total by count, returning zero for an empty count
// instead of an error.
func SafeAverage(total decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(int64(count)), moneyScale)
}
