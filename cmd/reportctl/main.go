// reportctl aggregates a local order export without the server: point it
// at a .csv or .xlsx file and a time window, get the summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/eocp2024/hungerrush-report/internal/core"
	"github.com/eocp2024/hungerrush-report/internal/source"
	"github.com/eocp2024/hungerrush-report/internal/source/file"
)

type output struct {
	CashSalesInStore       float64 `json:"cashSalesInStore"`
	CashSalesDelivery      float64 `json:"cashSalesDelivery"`
	CreditCardTipsInStore  float64 `json:"creditCardTipsInStore"`
	CreditCardTipsDelivery float64 `json:"creditCardTipsDelivery"`
	TotalOrders            int     `json:"totalOrders"`
	AverageOrderValue      float64 `json:"averageOrderValue"`
	SkippedRows            int     `json:"skippedRows"`
	Window                 string  `json:"window"`
}

func main() {
	var (
		path  = flag.String("file", "", "order export to read (.csv or .xlsx)")
		start = flag.String("start", "", "window start, clock time such as '11:00' or '10:30 AM'")
		end   = flag.String("end", "", "window end, same formats as -start")
	)
	flag.Parse()

	if *path == "" || *start == "" || *end == "" {
		fmt.Fprintln(os.Stderr, "usage: reportctl -file orders.csv -start 11:00 -end 14:00")
		flag.PrintDefaults()
		os.Exit(2)
	}

	startTime, err := core.ParseClockTime(*start)
	if err != nil {
		fatal("invalid -start: %v", err)
	}
	endTime, err := core.ParseClockTime(*end)
	if err != nil {
		fatal("invalid -end: %v", err)
	}
	window := core.TimeWindow{Start: startTime, End: endTime}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := file.New(*path).FetchOrders(ctx, source.ReportRequest{})
	if err != nil {
		fatal("read %s: %v", *path, err)
	}

	s := core.Aggregate(records, window)
	out := output{
		CashSalesInStore:       core.Round2(s.CashSalesInStore.Dollars()),
		CashSalesDelivery:      core.Round2(s.CashSalesDelivery.Dollars()),
		CreditCardTipsInStore:  core.Round2(s.CreditCardTipsInStore.Dollars()),
		CreditCardTipsDelivery: core.Round2(s.CreditCardTipsDelivery.Dollars()),
		TotalOrders:            s.TotalOrders,
		AverageOrderValue:      s.AverageOrderValue,
		SkippedRows:            s.SkippedRows,
		Window:                 window.String(),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fatal("encode output: %v", err)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
