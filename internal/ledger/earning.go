package ledger

import "github.com/shopspring/decimal"

var (
	commissionRate = decimal.RequireFromString("0.00015")
	taxRate        = decimal.RequireFromString("0.003")
	ten            = decimal.NewFromInt(10)
	hundred        = decimal.NewFromInt(100)
)

// floor10 отбрасывает разряд единиц: trunc(x/10)*10
func floor10(x decimal.Decimal) decimal.Decimal {
	return x.Div(ten).Truncate(0).Mul(ten)
}

// EarningRate считает доходность позиции в процентах с учетом комиссий на покупку
// и продажу и налога на продажу. При нулевой цене покупки или количестве возвращает 0.
func EarningRate(curPrice, buyPrice, qty int) float64 {
	if buyPrice == 0 || qty == 0 {
		return 0
	}

	q := decimal.NewFromInt(int64(qty))
	buyAmount := decimal.NewFromInt(int64(buyPrice)).Mul(q)
	curAmount := decimal.NewFromInt(int64(curPrice)).Mul(q)

	buyCommission := floor10(buyAmount.Mul(commissionRate))
	sellCommission := floor10(curAmount.Mul(commissionRate))
	tax := curAmount.Mul(taxRate).Floor()

	valuation := curAmount.Sub(buyCommission).Sub(sellCommission).Sub(tax)
	pnl := valuation.Sub(buyAmount)

	rate, _ := pnl.Div(buyAmount).Mul(hundred).Float64()
	return rate
}
