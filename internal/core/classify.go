package core

import "strings"

type (
	// Channel is the logical fulfillment category of an order.
	Channel string

	// Payment is the logical payment category of an order.
	Payment string
)

const (
	ChannelInStore  Channel = "in_store"
	ChannelDelivery Channel = "delivery"
	ChannelOther    Channel = "other"

	PaymentCash       Payment = "cash"
	PaymentCreditCard Payment = "credit_card"
	PaymentOther      Payment = "other"
)

// The portal's vocabulary for "picked up in person" has varied across
// export versions; every spelling we have seen is listed here. Keep this
// the single place such synonyms live.
var inStoreSynonyms = []string{
	"pick up",
	"pickup",
	"to go",
	"web pickup",
	"web pick up",
}

var creditCardSynonyms = []string{
	"visa",
	"mc",
	"mastercard",
	"amex",
	"discover",
}

// ClassifyChannel maps a free-text order type label onto a Channel.
// Matching is case-insensitive containment.
func ClassifyChannel(label string) Channel {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return ChannelOther
	}
	if strings.Contains(l, "delivery") {
		return ChannelDelivery
	}
	for _, syn := range inStoreSynonyms {
		if strings.Contains(l, syn) {
			return ChannelInStore
		}
	}
	return ChannelOther
}

// ClassifyPayment maps a free-text payment method label onto a Payment.
func ClassifyPayment(label string) Payment {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return PaymentOther
	}
	if strings.Contains(l, "cash") {
		return PaymentCash
	}
	for _, syn := range creditCardSynonyms {
		if strings.Contains(l, syn) {
			return PaymentCreditCard
		}
	}
	return PaymentOther
}
