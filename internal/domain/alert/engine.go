// Package alert partitions lots and products into alert categories.
package alert

import (
	"context"
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/lot"
	"stockbook/internal/domain/movement"
	"stockbook/internal/domain/product"
)

// ExpiryBucket classifies an available lot's distance to expiry.
// Boundaries are half-open so every eligible lot lands in exactly one bucket.
type ExpiryBucket string

const (
	BucketExpired    ExpiryBucket = "expired"    // days < 0
	BucketExpiring7  ExpiryBucket = "expiring7"  // 0 <= days <= 7
	BucketExpiring30 ExpiryBucket = "expiring30" // 7 < days <= 30
	BucketOK         ExpiryBucket = "ok"         // days > 30
)

// StockStatus classifies an active product's current stock.
type StockStatus string

const (
	StatusOutOfStock StockStatus = "outOfStock" // stock = 0
	StatusLowStock   StockStatus = "lowStock"   // 0 < stock <= threshold, threshold > 0
	StatusOK         StockStatus = "ok"
)

// DaysUntil counts whole calendar days from now's date to expiry's date.
// Negative means already expired.
func DaysUntil(now, expiry time.Time) int {
	nowDate := now.UTC().Truncate(24 * time.Hour)
	expDate := expiry.UTC().Truncate(24 * time.Hour)
	return int(expDate.Sub(nowDate).Hours() / 24)
}

// ClassifyExpiry buckets a days-until-expiry figure.
func ClassifyExpiry(days int) ExpiryBucket {
	switch {
	case days < 0:
		return BucketExpired
	case days <= 7:
		return BucketExpiring7
	case days <= 30:
		return BucketExpiring30
	default:
		return BucketOK
	}
}

// ClassifyStock buckets a product's current stock against its threshold.
// outOfStock and lowStock are mutually exclusive.
func ClassifyStock(stock, threshold types.Quantity) StockStatus {
	switch {
	case stock.IsZero():
		return StatusOutOfStock
	case threshold.IsPositive() && stock > 0 && stock <= threshold:
		return StatusLowStock
	default:
		return StatusOK
	}
}

// LotAlert is an available lot annotated with its expiry bucket.
type LotAlert struct {
	lot.Lot
	DaysUntilExpiry int          `json:"daysUntilExpiry"`
	Bucket          ExpiryBucket `json:"bucket"`
}

// ProductAlert is an active product annotated with its stock status.
type ProductAlert struct {
	Product product.Product `json:"product"`
	Stock   types.Quantity  `json:"stock"`
	Status  StockStatus     `json:"status"`
}

// RuleMatch lists the products matched by one custom rule.
type RuleMatch struct {
	Rule     string         `json:"rule"`
	Products []ProductAlert `json:"products"`
}

// Summary carries both counts and the full underlying lists; truncation for
// display is the caller's concern.
type Summary struct {
	Now time.Time `json:"now"`

	ExpiredCount    int `json:"expiredCount"`
	Expiring7Count  int `json:"expiring7Count"`
	Expiring30Count int `json:"expiring30Count"`
	ExpiryOKCount   int `json:"expiryOkCount"`

	Expired    []LotAlert `json:"expired"`
	Expiring7  []LotAlert `json:"expiring7"`
	Expiring30 []LotAlert `json:"expiring30"`
	ExpiryOK   []LotAlert `json:"expiryOk"`

	OutOfStockCount int `json:"outOfStockCount"`
	LowStockCount   int `json:"lowStockCount"`

	OutOfStock []ProductAlert `json:"outOfStock"`
	LowStock   []ProductAlert `json:"lowStock"`

	CustomMatches []RuleMatch `json:"customMatches,omitempty"`
}

// Engine reads the projected state on demand; it never mutates anything.
type Engine struct {
	products  product.Repository
	lots      *lot.Tracker
	movements movement.Repository
	rules     *RuleSet
}

// NewEngine creates the alert engine. rules may be nil.
func NewEngine(products product.Repository, lots *lot.Tracker, movements movement.Repository, rules *RuleSet) *Engine {
	return &Engine{products: products, lots: lots, movements: movements, rules: rules}
}

// Summary partitions all available lots with an expiry date into exactly one
// expiry bucket, and every active product into at most one stock bucket.
func (e *Engine) Summary(ctx context.Context, now time.Time) (*Summary, error) {
	summary := &Summary{Now: now}

	available, err := e.lots.AllAvailable(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range available {
		if l.ExpiryDate == nil {
			continue
		}
		days := DaysUntil(now, *l.ExpiryDate)
		entry := LotAlert{Lot: l, DaysUntilExpiry: days, Bucket: ClassifyExpiry(days)}
		switch entry.Bucket {
		case BucketExpired:
			summary.Expired = append(summary.Expired, entry)
		case BucketExpiring7:
			summary.Expiring7 = append(summary.Expiring7, entry)
		case BucketExpiring30:
			summary.Expiring30 = append(summary.Expiring30, entry)
		case BucketOK:
			summary.ExpiryOK = append(summary.ExpiryOK, entry)
		}
	}
	summary.ExpiredCount = len(summary.Expired)
	summary.Expiring7Count = len(summary.Expiring7)
	summary.Expiring30Count = len(summary.Expiring30)
	summary.ExpiryOKCount = len(summary.ExpiryOK)

	products, err := e.products.List(ctx, product.Filter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	stocks, err := e.movements.SumSignedQuantityByProduct(ctx, nil)
	if err != nil {
		return nil, err
	}

	nearestExpiry := nearestExpiryDays(now, available)

	matched := map[string][]ProductAlert{}
	for _, p := range products {
		stock := stocks[p.ID]
		entry := ProductAlert{Product: p, Stock: stock, Status: ClassifyStock(stock, p.AlertThreshold)}
		switch entry.Status {
		case StatusOutOfStock:
			summary.OutOfStock = append(summary.OutOfStock, entry)
		case StatusLowStock:
			summary.LowStock = append(summary.LowStock, entry)
		}

		if e.rules != nil {
			days, ok := nearestExpiry[p.ID]
			names, err := e.rules.Evaluate(RuleInput{
				Stock:        stock.Float64(),
				Threshold:    p.AlertThreshold.Float64(),
				StockValue:   stock.Decimal().Mul(p.UnitPrice).InexactFloat64(),
				Active:       p.Active,
				HasExpiry:    ok,
				DaysToExpiry: days,
			})
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				matched[name] = append(matched[name], entry)
			}
		}
	}
	summary.OutOfStockCount = len(summary.OutOfStock)
	summary.LowStockCount = len(summary.LowStock)

	if e.rules != nil {
		for _, name := range e.rules.Names() {
			if products, ok := matched[name]; ok {
				summary.CustomMatches = append(summary.CustomMatches, RuleMatch{Rule: name, Products: products})
			}
		}
	}

	return summary, nil
}

// nearestExpiryDays maps each product to the days-until-expiry of its
// soonest-expiring available lot.
func nearestExpiryDays(now time.Time, available []lot.Lot) map[id.ID]int {
	out := make(map[id.ID]int)
	for _, l := range available {
		if l.ExpiryDate == nil {
			continue
		}
		days := DaysUntil(now, *l.ExpiryDate)
		if existing, ok := out[l.ProductID]; !ok || days < existing {
			out[l.ProductID] = days
		}
	}
	return out
}
