package domain

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DateRange bounds a report query, both ends inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days is the inclusive length of the range.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// RevenuePoint is one day of revenue.
type RevenuePoint struct {
	Date    Timestamp       `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

// RevenueReport aggregates revenue over a range.
type RevenueReport struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalOrders   int             `json:"total_orders"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
	Points        []RevenuePoint  `json:"daily"`
}

// UnmarshalJSON accepts either the summary object or a bare list of points.
func (r *RevenueReport) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var points []RevenuePoint
		if err := json.Unmarshal(trimmed, &points); err != nil {
			return err
		}
		*r = RevenueReport{Points: points}
		r.fillTotals()
		return nil
	}
	type plain RevenueReport
	var out plain
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return err
	}
	*r = RevenueReport(out)
	if r.TotalRevenue.IsZero() && r.TotalOrders == 0 {
		r.fillTotals()
	}
	return nil
}

func (r *RevenueReport) fillTotals() {
	total := decimal.Zero
	orders := 0
	for _, p := range r.Points {
		total = total.Add(p.Revenue)
		orders += p.Orders
	}
	r.TotalRevenue = total
	r.TotalOrders = orders
	if orders > 0 {
		r.AverageTicket = total.Div(decimal.NewFromInt(int64(orders))).Round(2)
	}
}

// TopProduct is a product ranking row.
type TopProduct struct {
	ProductID   int64           `json:"product_id"`
	Name        string          `json:"name"`
	ProductType ProductType     `json:"product_type,omitempty"`
	Quantity    int             `json:"quantity_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// TopCustomer is a customer ranking row.
type TopCustomer struct {
	UserID     int64           `json:"user_id"`
	FullName   string          `json:"full_name"`
	Email      string          `json:"email"`
	Orders     int             `json:"order_count"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}
