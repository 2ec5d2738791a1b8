package core

import "math"

// Summary is the aggregated result for one requested window. The four
// category sums partition by (payment, channel); an order lands in at
// most one of them but always counts toward TotalOrders and
// AverageOrderValue once it passes the time filter.
type Summary struct {
	CashSalesInStore       Money
	CashSalesDelivery      Money
	CreditCardTipsInStore  Money
	CreditCardTipsDelivery Money
	TotalOrders            int
	AverageOrderValue      float64 // rounded to 2 decimals, 0 when no orders

	// SkippedRows counts rows dropped because their time-of-day could
	// not be parsed. Diagnostics only; skipped rows never abort a batch.
	SkippedRows int
}

// Aggregate filters records by the window's time-of-day comparison and
// folds them into a Summary. It is pure and deterministic: same inputs,
// same output. Amounts are summed in cents; the average is the only
// value that needs rounding, applied once at the end.
func Aggregate(records []OrderRecord, window TimeWindow) Summary {
	var s Summary
	var grandTotal Money

	for _, r := range records {
		if !r.TimeValid {
			s.SkippedRows++
			continue
		}
		if !window.Contains(r.TimeOfDay) {
			continue
		}

		s.TotalOrders++
		grandTotal = grandTotal.Add(r.Total)

		channel := ClassifyChannel(r.Channel)
		payment := ClassifyPayment(r.Payment)

		switch {
		case payment == PaymentCash && channel == ChannelInStore:
			s.CashSalesInStore = s.CashSalesInStore.Add(r.Total)
		case payment == PaymentCash && channel == ChannelDelivery:
			s.CashSalesDelivery = s.CashSalesDelivery.Add(r.Total)
		case payment == PaymentCreditCard && channel == ChannelInStore:
			s.CreditCardTipsInStore = s.CreditCardTipsInStore.Add(r.Tip)
		case payment == PaymentCreditCard && channel == ChannelDelivery:
			s.CreditCardTipsDelivery = s.CreditCardTipsDelivery.Add(r.Tip)
		}
	}

	if s.TotalOrders > 0 {
		s.AverageOrderValue = Round2(grandTotal.Dollars() / float64(s.TotalOrders))
	}
	return s
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
