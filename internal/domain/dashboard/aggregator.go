// Package dashboard provides the read-side reporting aggregation.
// Everything here is a pure function of projected state: no mutation, no side
// effects, safe to call arbitrarily often.
package dashboard

import (
	"context"
	"sort"
	"time"

	"stockbook/internal/core/types"
	"stockbook/internal/domain/alert"
	"stockbook/internal/domain/movement"
	"stockbook/internal/domain/product"
)

// DefaultTopProducts is the default size of the top-products widget.
const DefaultTopProducts = 5

// ProductValue is one row of the top-products ranking.
type ProductValue struct {
	Product product.Product `json:"product"`
	Stock   types.Quantity  `json:"stock"`
	Value   types.Money     `json:"value"`
}

// AlertCounts carries the alert engine's summary counts for the dashboard.
type AlertCounts struct {
	Expired    int `json:"expired"`
	Expiring7  int `json:"expiring7"`
	Expiring30 int `json:"expiring30"`
	OutOfStock int `json:"outOfStock"`
	LowStock   int `json:"lowStock"`
}

// PeriodReport aggregates one reporting period.
type PeriodReport struct {
	Period types.Period `json:"period"`

	EntriesQuantity types.Quantity `json:"entriesQuantity"`
	EntriesValue    types.Money    `json:"entriesValue"`
	ExitsQuantity   types.Quantity `json:"exitsQuantity"`
	ExitsValue      types.Money    `json:"exitsValue"`

	// Net flow = entries - exits, quantity and value independently.
	NetQuantity types.Quantity `json:"netQuantity"`
	NetValue    types.Money    `json:"netValue"`

	TotalStockValue types.Money    `json:"totalStockValue"`
	TopProducts     []ProductValue `json:"topProducts"`

	Alerts AlertCounts `json:"alerts"`
}

// Aggregator combines ledger sums, stock values and alert counts.
type Aggregator struct {
	movements movement.Repository
	products  product.Repository
	alerts    *alert.Engine
	topN      int
}

// NewAggregator creates the dashboard aggregator. topN <= 0 uses the default.
func NewAggregator(movements movement.Repository, products product.Repository, alerts *alert.Engine, topN int) *Aggregator {
	if topN <= 0 {
		topN = DefaultTopProducts
	}
	return &Aggregator{movements: movements, products: products, alerts: alerts, topN: topN}
}

// PeriodReport builds the aggregate for one period as seen at now.
func (a *Aggregator) PeriodReport(ctx context.Context, period types.Period, now time.Time) (*PeriodReport, error) {
	report := &PeriodReport{Period: period}

	kinds, err := a.movements.AggregateKinds(ctx, period)
	if err != nil {
		return nil, err
	}
	entries := kinds[movement.KindEntry]
	exits := kinds[movement.KindExit]

	report.EntriesQuantity = entries.Quantity
	report.EntriesValue = entries.Value
	report.ExitsQuantity = exits.Quantity
	report.ExitsValue = exits.Value
	report.NetQuantity = entries.Quantity - exits.Quantity
	report.NetValue = entries.Value.Sub(exits.Value)

	products, err := a.products.List(ctx, product.Filter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	stocks, err := a.movements.SumSignedQuantityByProduct(ctx, nil)
	if err != nil {
		return nil, err
	}

	report.TotalStockValue = types.ZeroMoney()
	ranked := make([]ProductValue, 0, len(products))
	for _, p := range products {
		stock := stocks[p.ID]
		value := stock.Decimal().Mul(p.UnitPrice)
		report.TotalStockValue = report.TotalStockValue.Add(value)
		if value.IsPositive() {
			ranked = append(ranked, ProductValue{Product: p, Stock: stock, Value: value})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].Value.Equal(ranked[j].Value) {
			return ranked[i].Value.GreaterThan(ranked[j].Value)
		}
		return ranked[i].Product.Code < ranked[j].Product.Code
	})
	if len(ranked) > a.topN {
		ranked = ranked[:a.topN]
	}
	report.TopProducts = ranked

	if a.alerts != nil {
		summary, err := a.alerts.Summary(ctx, now)
		if err != nil {
			return nil, err
		}
		report.Alerts = AlertCounts{
			Expired:    summary.ExpiredCount,
			Expiring7:  summary.Expiring7Count,
			Expiring30: summary.Expiring30Count,
			OutOfStock: summary.OutOfStockCount,
			LowStock:   summary.LowStockCount,
		}
	}

	return report, nil
}
