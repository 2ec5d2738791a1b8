package core

import "testing"

func TestClassifyChannel(t *testing.T) {
	cases := []struct {
		label string
		want  Channel
	}{
		{"Pickup", ChannelInStore},
		{"Pick Up", ChannelInStore},
		{"To Go", ChannelInStore},
		{"Web Pickup", ChannelInStore},
		{"Web Pick Up", ChannelInStore},
		{"PICKUP", ChannelInStore},
		{"Delivery", ChannelDelivery},
		{"DELIVERY", ChannelDelivery},
		{"delivery", ChannelDelivery},
		{"Web Delivery", ChannelDelivery},
		{"Dine In", ChannelOther},
		{"", ChannelOther},
	}
	for i, tc := range cases {
		if got := ClassifyChannel(tc.label); got != tc.want {
			t.Fatalf("case %d (%q): got %v, want %v", i, tc.label, got, tc.want)
		}
	}
}

func TestClassifyPayment(t *testing.T) {
	cases := []struct {
		label string
		want  Payment
	}{
		{"Cash", PaymentCash},
		{"CASH", PaymentCash},
		{"Visa", PaymentCreditCard},
		{"MC", PaymentCreditCard},
		{"mastercard", PaymentCreditCard},
		{"AMEX", PaymentCreditCard},
		{"Discover", PaymentCreditCard},
		{"Gift Card", PaymentOther},
		{"", PaymentOther},
	}
	for i, tc := range cases {
		if got := ClassifyPayment(tc.label); got != tc.want {
			t.Fatalf("case %d (%q): got %v, want %v", i, tc.label, got, tc.want)
		}
	}
}
