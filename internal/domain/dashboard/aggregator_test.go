package dashboard

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/alert"
	"stockbook/internal/domain/lot"
	"stockbook/internal/domain/movement"
	"stockbook/internal/domain/product"
)

type fakeLedger struct {
	movement.Repository
	items []movement.Movement
}

func (r *fakeLedger) SumSignedQuantityByProduct(_ context.Context, until *time.Time) (map[id.ID]types.Quantity, error) {
	out := make(map[id.ID]types.Quantity)
	for i := range r.items {
		m := &r.items[i]
		if until != nil && m.MovementDate.After(*until) {
			continue
		}
		out[m.ProductID] += m.SignedQuantity()
	}
	return out, nil
}

func (r *fakeLedger) ListLotMovements(_ context.Context, productID id.ID) ([]movement.Movement, error) {
	var out []movement.Movement
	for i := range r.items {
		m := r.items[i]
		if !m.HasLot() {
			continue
		}
		if !id.IsNil(productID) && m.ProductID != productID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeLedger) AggregateKinds(_ context.Context, period types.Period) (map[movement.Kind]movement.KindTotal, error) {
	out := make(map[movement.Kind]movement.KindTotal)
	for i := range r.items {
		m := &r.items[i]
		if m.Period != period {
			continue
		}
		t := out[m.Kind]
		t.Quantity += m.Quantity
		t.Value = t.Value.Add(m.TotalValue)
		out[m.Kind] = t
	}
	return out, nil
}

type fakeCatalog struct {
	product.Repository
	products []product.Product
}

func (r *fakeCatalog) List(_ context.Context, f product.Filter) ([]product.Product, error) {
	out := make([]product.Product, 0, len(r.products))
	for _, p := range r.products {
		if f.ActiveOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type fixture struct {
	ledger  *fakeLedger
	catalog *fakeCatalog
}

func newFixture() *fixture {
	return &fixture{ledger: &fakeLedger{}, catalog: &fakeCatalog{}}
}

func (f *fixture) addProduct(code string, price string, threshold int64) product.Product {
	p := product.Product{
		ID:             id.New(),
		Code:           code,
		Name:           code,
		Active:         true,
		AlertThreshold: types.NewQuantityFromInt(threshold),
		UnitPrice:      types.MustMoney(price),
	}
	f.catalog.products = append(f.catalog.products, p)
	return p
}

func (f *fixture) add(productID id.ID, kind movement.Kind, qty int64, date, price string) movement.Movement {
	d, _ := time.Parse("2006-01-02", date)
	m := movement.Movement{
		ID:           id.New(),
		ProductID:    productID,
		Kind:         kind,
		Quantity:     types.NewQuantityFromInt(qty),
		MovementDate: d,
		CreatedAt:    d,
		UnitPrice:    types.MustMoney(price),
	}
	m.Normalize()
	f.ledger.items = append(f.ledger.items, m)
	return m
}

func TestPeriodReport_Flows(t *testing.T) {
	f := newFixture()
	july := types.MustParsePeriod("2025-07")
	p := f.addProduct("AMX-500", "2.00", 0)

	f.add(p.ID, movement.KindEntry, 100, "2025-07-01", "2.00")
	f.add(p.ID, movement.KindEntry, 50, "2025-07-10", "2.00")
	f.add(p.ID, movement.KindExit, 30, "2025-07-20", "2.00")
	// Other kinds and other periods stay out of the flow figures.
	f.add(p.ID, movement.KindAdjustment, -5, "2025-07-25", "2.00")
	f.add(p.ID, movement.KindEntry, 999, "2025-08-01", "2.00")

	agg := NewAggregator(f.ledger, f.catalog, nil, 0)
	report, err := agg.PeriodReport(context.Background(), july, time.Now())
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantityFromInt(150), report.EntriesQuantity)
	assert.True(t, report.EntriesValue.Equal(types.MustMoney("300")), "got %s", report.EntriesValue)
	assert.Equal(t, types.NewQuantityFromInt(30), report.ExitsQuantity)
	assert.True(t, report.ExitsValue.Equal(types.MustMoney("60")))
	assert.Equal(t, types.NewQuantityFromInt(120), report.NetQuantity)
	assert.True(t, report.NetValue.Equal(types.MustMoney("240")))
}

func TestPeriodReport_TopProducts(t *testing.T) {
	f := newFixture()
	july := types.MustParsePeriod("2025-07")

	// Stock x unit price: cheap 100x1=100, rich 10x50=500, tied both 20x5=100.
	cheap := f.addProduct("CHEAP", "1.00", 0)
	rich := f.addProduct("RICH", "50.00", 0)
	tieA := f.addProduct("TIE-A", "5.00", 0)
	tieB := f.addProduct("TIE-B", "5.00", 0)
	f.addProduct("EMPTY", "9.00", 0) // zero stock never ranks

	f.add(cheap.ID, movement.KindEntry, 100, "2025-07-01", "1.00")
	f.add(rich.ID, movement.KindEntry, 10, "2025-07-01", "50.00")
	f.add(tieA.ID, movement.KindEntry, 20, "2025-07-01", "5.00")
	f.add(tieB.ID, movement.KindEntry, 20, "2025-07-01", "5.00")

	agg := NewAggregator(f.ledger, f.catalog, nil, 3)
	report, err := agg.PeriodReport(context.Background(), july, time.Now())
	require.NoError(t, err)

	assert.True(t, report.TotalStockValue.Equal(types.MustMoney("700")), "got %s", report.TotalStockValue)

	require.Len(t, report.TopProducts, 3, "truncated to topN")
	assert.Equal(t, "RICH", report.TopProducts[0].Product.Code)
	// Value tie broken by code.
	assert.Equal(t, "CHEAP", report.TopProducts[1].Product.Code)
	assert.Equal(t, "TIE-A", report.TopProducts[2].Product.Code)
}

func TestPeriodReport_AlertCounts(t *testing.T) {
	f := newFixture()
	july := types.MustParsePeriod("2025-07")
	now := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	f.addProduct("GONE", "1.00", 0) // never stocked
	low := f.addProduct("LOW", "1.00", 10)
	f.add(low.ID, movement.KindEntry, 5, "2025-07-01", "1.00")

	expiring := f.addProduct("EXP", "1.00", 0)
	in3days := now.AddDate(0, 0, 3)
	f.add(expiring.ID, movement.KindEntry, 10, "2025-07-01", "1.00")
	entry := &f.ledger.items[len(f.ledger.items)-1]
	entry.LotNumber = "LOT-1"
	entry.ExpiryDate = &in3days

	tracker := lot.NewTracker(f.ledger)
	engine := alert.NewEngine(f.catalog, tracker, f.ledger, nil)

	agg := NewAggregator(f.ledger, f.catalog, engine, 0)
	report, err := agg.PeriodReport(context.Background(), july, now)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Alerts.Expiring7)
	assert.Equal(t, 0, report.Alerts.Expired)
	assert.Equal(t, 1, report.Alerts.OutOfStock)
	assert.Equal(t, 1, report.Alerts.LowStock)
}
