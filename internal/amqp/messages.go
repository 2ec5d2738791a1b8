package amqp

import (
	"encoding/json"
	"time"

	"github.com/eocp2024/hungerrush-report/internal/services"
	"github.com/eocp2024/hungerrush-report/internal/source"
)

// ReportCompletedMessage announces one finished report run. It carries
// the full summary so consumers do not need to re-run the aggregation.
type ReportCompletedMessage struct {
	StoreID     string    `json:"store_id"`
	WindowStart string    `json:"window_start"`
	WindowEnd   string    `json:"window_end"`

	CashSalesInStore       float64 `json:"cash_sales_in_store"`
	CashSalesDelivery      float64 `json:"cash_sales_delivery"`
	CreditCardTipsInStore  float64 `json:"credit_card_tips_in_store"`
	CreditCardTipsDelivery float64 `json:"credit_card_tips_delivery"`
	TotalOrders            int     `json:"total_orders"`
	AverageOrderValue      float64 `json:"average_order_value"`

	Fallback    bool      `json:"fallback"`
	Note        string    `json:"note,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewReportCompletedMessage builds a message from a completed result.
func NewReportCompletedMessage(req source.ReportRequest, res services.Result) *ReportCompletedMessage {
	s := res.Summary
	return &ReportCompletedMessage{
		StoreID:                req.StoreID,
		WindowStart:            res.Window.Start.String(),
		WindowEnd:              res.Window.End.String(),
		CashSalesInStore:       s.CashSalesInStore.Dollars(),
		CashSalesDelivery:      s.CashSalesDelivery.Dollars(),
		CreditCardTipsInStore:  s.CreditCardTipsInStore.Dollars(),
		CreditCardTipsDelivery: s.CreditCardTipsDelivery.Dollars(),
		TotalOrders:            s.TotalOrders,
		AverageOrderValue:      s.AverageOrderValue,
		Fallback:               res.Fallback,
		Note:                   res.Note,
		GeneratedAt:            res.GeneratedAt,
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ReportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportCompletedMessageFromJSON decodes a message from JSON bytes.
func ReportCompletedMessageFromJSON(data []byte) (*ReportCompletedMessage, error) {
	var msg ReportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
