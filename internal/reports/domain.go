// Package reports aggregates read-only views over the movement ledger, sales
// and returnable ledgers. It owns no state of its own; every number here is
// re-derived from the lifecycle tables and cached behind a versioned key.
package reports

import "time"

// ValuationRow is one product's derived stock value.
type ValuationRow struct {
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	CurrentStock float64 `json:"current_stock"`
	CostUnit     float64 `json:"cost_unit"`
	Value        float64 `json:"value"`
}

// Valuation is the whole-inventory value snapshot.
type Valuation struct {
	Items         []ValuationRow `json:"items"`
	TotalValue    float64        `json:"total_value"`
	TotalValueBRL string         `json:"total_value_brl"`
}

// Profit summarises revenue against cost of goods for a period.
type Profit struct {
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Revenue     float64   `json:"revenue"`
	CostOfGoods float64   `json:"cost_of_goods"`
	Profit      float64   `json:"profit"`
	MarginPct   float64   `json:"margin_pct"`
	RevenueBRL  string    `json:"revenue_brl"`
	ProfitBRL   string    `json:"profit_brl"`
}

// BestSeller is one product ranked by quantity sold.
type BestSeller struct {
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	QuantitySold float64 `json:"quantity_sold"`
	Revenue      float64 `json:"revenue"`
}

// DailySummary is the dashboard view for one day.
type DailySummary struct {
	Date            time.Time `json:"date"`
	SalesCount      int       `json:"sales_count"`
	Revenue         float64   `json:"revenue"`
	DepositsCharged float64   `json:"deposits_charged"`
	AverageTicket   float64   `json:"average_ticket"`
	RevenueBRL      string    `json:"revenue_brl"`
}

// DepositsOutstanding totals the deposit money currently held.
type DepositsOutstanding struct {
	Total    float64 `json:"total"`
	TotalBRL string  `json:"total_brl"`
}
