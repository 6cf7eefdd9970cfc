package movement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/product"
)

// --- in-memory fakes ---

type fakeMovementRepo struct {
	items []Movement
}

func (r *fakeMovementRepo) Insert(_ context.Context, m *Movement) error {
	r.items = append(r.items, *m)
	return nil
}

func (r *fakeMovementRepo) InsertBatch(_ context.Context, movements []Movement) error {
	r.items = append(r.items, movements...)
	return nil
}

func (r *fakeMovementRepo) Update(_ context.Context, m *Movement) error {
	for i := range r.items {
		if r.items[i].ID == m.ID {
			r.items[i] = *m
			return nil
		}
	}
	return apperror.NewNotFound("movement", m.ID)
}

func (r *fakeMovementRepo) Delete(_ context.Context, movementID id.ID) error {
	for i := range r.items {
		if r.items[i].ID == movementID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return apperror.NewNotFound("movement", movementID)
}

func (r *fakeMovementRepo) GetByID(_ context.Context, movementID id.ID) (*Movement, error) {
	for i := range r.items {
		if r.items[i].ID == movementID {
			m := r.items[i]
			return &m, nil
		}
	}
	return nil, apperror.NewNotFound("movement", movementID)
}

func (r *fakeMovementRepo) List(_ context.Context, _ Filter) ([]Movement, error) {
	out := make([]Movement, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *fakeMovementRepo) Count(_ context.Context, _ Filter) (int64, error) {
	return int64(len(r.items)), nil
}

func (r *fakeMovementRepo) SumSignedQuantity(_ context.Context, productID id.ID, until *time.Time) (types.Quantity, error) {
	var total types.Quantity
	for i := range r.items {
		m := &r.items[i]
		if m.ProductID != productID {
			continue
		}
		if until != nil && m.MovementDate.After(*until) {
			continue
		}
		total += m.SignedQuantity()
	}
	return total, nil
}

func (r *fakeMovementRepo) SumSignedQuantityByProduct(_ context.Context, until *time.Time) (map[id.ID]types.Quantity, error) {
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

func (r *fakeMovementRepo) ListLotMovements(_ context.Context, productID id.ID) ([]Movement, error) {
	var out []Movement
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

func (r *fakeMovementRepo) LotRemaining(_ context.Context, productID id.ID, lotNumber string) (types.Quantity, error) {
	var total types.Quantity
	for i := range r.items {
		m := &r.items[i]
		if m.ProductID != productID || m.LotNumber != lotNumber {
			continue
		}
		switch m.Kind {
		case KindEntry:
			total += m.Quantity
		case KindExit:
			total -= m.Quantity
		}
	}
	return total, nil
}

func (r *fakeMovementRepo) AggregateKinds(_ context.Context, period types.Period) (map[Kind]KindTotal, error) {
	out := make(map[Kind]KindTotal)
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

type fakeProductRepo struct {
	byID map[id.ID]product.Product
}

func (r *fakeProductRepo) Create(_ context.Context, p *product.Product) error {
	r.byID[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *product.Product) error {
	r.byID[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	if p, ok := r.byID[productID]; ok {
		return &p, nil
	}
	return nil, apperror.NewNotFound("product", productID)
}

func (r *fakeProductRepo) GetByCode(_ context.Context, code string) (*product.Product, error) {
	for _, p := range r.byID {
		if p.Code == code {
			cp := p
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("product", code)
}

func (r *fakeProductRepo) List(_ context.Context, _ product.Filter) ([]product.Product, error) {
	out := make([]product.Product, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProductRepo) Count(_ context.Context, _ product.Filter) (int64, error) {
	return int64(len(r.byID)), nil
}

func (r *fakeProductRepo) GetForUpdate(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.GetByID(ctx, productID)
}

type fakePeriodGuard struct {
	closed map[types.Period]bool
}

func (g *fakePeriodGuard) SourceClosed(_ context.Context, p types.Period) (bool, error) {
	return g.closed[p], nil
}

// fakeTxManager runs fn directly but restores the ledger snapshot on error,
// mirroring the rollback guarantee the service relies on.
type fakeTxManager struct {
	repo *fakeMovementRepo
}

func (m fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := make([]Movement, len(m.repo.items))
	copy(snapshot, m.repo.items)
	if err := fn(ctx); err != nil {
		m.repo.items = snapshot
		return err
	}
	return nil
}

type auditCall struct {
	movementID id.ID
	action     string
	actor      string
}

type fakeAuditor struct {
	calls []auditCall
}

func (a *fakeAuditor) Record(_ context.Context, movementID id.ID, action, actor string, _ map[string]any) error {
	a.calls = append(a.calls, auditCall{movementID: movementID, action: action, actor: actor})
	return nil
}

// --- fixture ---

type fixture struct {
	svc      *Service
	repo     *fakeMovementRepo
	products *fakeProductRepo
	guard    *fakePeriodGuard
	audit    *fakeAuditor
	product  product.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	p := product.Product{
		ID:        id.New(),
		Code:      "AMX-500",
		Name:      "Amoxicillin 500mg",
		Active:    true,
		UnitPrice: types.MustMoney("1.20"),
	}

	f := &fixture{
		repo:     &fakeMovementRepo{},
		products: &fakeProductRepo{byID: map[id.ID]product.Product{p.ID: p}},
		guard:    &fakePeriodGuard{closed: map[types.Period]bool{}},
		audit:    &fakeAuditor{},
		product:  p,
	}
	f.svc = NewService(f.repo, f.products, f.guard, f.audit, fakeTxManager{repo: f.repo})
	return f
}

func (f *fixture) append(t *testing.T, m Movement) Movement {
	t.Helper()
	require.NoError(t, f.svc.Append(context.Background(), &m))
	return m
}

func newMovement(productID id.ID, kind Kind, qty int64, date string) Movement {
	d, _ := time.Parse("2006-01-02", date)
	return Movement{
		ProductID:    productID,
		Kind:         kind,
		Quantity:     types.NewQuantityFromInt(qty),
		MovementDate: d,
		UnitPrice:    types.MustMoney("1.20"),
	}
}

// --- tests ---

func TestService_Append(t *testing.T) {
	f := newFixture(t)

	m := f.append(t, newMovement(f.product.ID, KindEntry, 100, "2025-07-01"))

	assert.False(t, id.IsNil(m.ID))
	assert.Equal(t, types.MustParsePeriod("2025-07"), m.Period)
	assert.True(t, m.TotalValue.Equal(types.MustMoney("120")))
	assert.Equal(t, "anonymous", m.Actor)

	require.Len(t, f.audit.calls, 1)
	assert.Equal(t, AuditAppend, f.audit.calls[0].action)
}

func TestService_Append_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	m := newMovement(id.New(), KindEntry, 10, "2025-07-01")
	err := f.svc.Append(context.Background(), &m)
	assert.True(t, apperror.IsNotFound(err), "got %v", err)
	assert.Empty(t, f.repo.items, "nothing committed")
}

func TestService_Append_ExitInsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.append(t, newMovement(f.product.ID, KindEntry, 10, "2025-07-01"))

	m := newMovement(f.product.ID, KindExit, 11, "2025-07-02")
	err := f.svc.Append(context.Background(), &m)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock), "got %v", err)
	assert.Len(t, f.repo.items, 1, "the EXIT must not be committed")
}

func TestService_Append_WriteOffChecksStock(t *testing.T) {
	f := newFixture(t)
	f.append(t, newMovement(f.product.ID, KindEntry, 5, "2025-07-01"))

	m := newMovement(f.product.ID, KindWriteOff, 6, "2025-07-02")
	err := f.svc.Append(context.Background(), &m)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock), "got %v", err)
}

func TestService_Append_ExitLotShortage(t *testing.T) {
	f := newFixture(t)

	in := newMovement(f.product.ID, KindEntry, 10, "2025-07-01")
	in.LotNumber = "LOT-A"
	f.append(t, in)
	// Lot-less stock on top; product stock is plentiful but the lot is not.
	f.append(t, newMovement(f.product.ID, KindEntry, 100, "2025-07-01"))

	out := newMovement(f.product.ID, KindExit, 11, "2025-07-02")
	out.LotNumber = "LOT-A"
	err := f.svc.Append(context.Background(), &out)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock), "got %v", err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "LOT-A", appErr.Details["lot_number"])
}

func TestService_Append_AdjustmentMayGoNegative(t *testing.T) {
	// ADJUSTMENT records a raw signed delta and skips the availability check:
	// it is the correction mechanism of last resort.
	f := newFixture(t)

	m := newMovement(f.product.ID, KindAdjustment, -3, "2025-07-01")
	require.NoError(t, f.svc.Append(context.Background(), &m))

	stock, err := f.repo.SumSignedQuantity(context.Background(), f.product.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(-3), stock)
}

func TestService_Append_ClosedPeriod(t *testing.T) {
	f := newFixture(t)
	f.guard.closed[types.MustParsePeriod("2025-06")] = true

	m := newMovement(f.product.ID, KindEntry, 10, "2025-06-15")
	err := f.svc.Append(context.Background(), &m)

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodePeriodClosed), "got %v", err)
}

func TestService_Edit(t *testing.T) {
	f := newFixture(t)
	m := f.append(t, newMovement(f.product.ID, KindEntry, 10, "2025-07-01"))

	newQty := types.NewQuantityFromInt(25)
	updated, err := f.svc.Edit(context.Background(), m.ID, Changes{Quantity: &newQty})
	require.NoError(t, err)

	assert.Equal(t, newQty, updated.Quantity)
	assert.True(t, updated.TotalValue.Equal(types.MustMoney("30")), "total value recomputed, got %s", updated.TotalValue)

	stored, err := f.repo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, newQty, stored.Quantity)

	require.Len(t, f.audit.calls, 2)
	assert.Equal(t, AuditEdit, f.audit.calls[1].action)
}

func TestService_Edit_RejectsNegativeStock(t *testing.T) {
	f := newFixture(t)
	entry := f.append(t, newMovement(f.product.ID, KindEntry, 10, "2025-07-01"))
	f.append(t, newMovement(f.product.ID, KindExit, 8, "2025-07-02"))

	// Shrinking the entry below the already-exited quantity must fail.
	newQty := types.NewQuantityFromInt(5)
	_, err := f.svc.Edit(context.Background(), entry.ID, Changes{Quantity: &newQty})

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNegativeStock), "got %v", err)

	stored, err := f.repo.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), stored.Quantity, "rolled back")
}

func TestService_Edit_RejectsNegativeLot(t *testing.T) {
	f := newFixture(t)

	in := newMovement(f.product.ID, KindEntry, 10, "2025-07-01")
	in.LotNumber = "LOT-A"
	in = f.append(t, in)

	out := newMovement(f.product.ID, KindExit, 8, "2025-07-02")
	out.LotNumber = "LOT-A"
	f.append(t, out)

	// Plenty of lot-less stock, so only the lot projection can catch this.
	f.append(t, newMovement(f.product.ID, KindEntry, 100, "2025-07-01"))

	newQty := types.NewQuantityFromInt(5)
	_, err := f.svc.Edit(context.Background(), in.ID, Changes{Quantity: &newQty})

	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNegativeStock), "got %v", err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "LOT-A", appErr.Details["lot_number"])
}

func TestService_Edit_ClosedPeriod(t *testing.T) {
	f := newFixture(t)
	m := f.append(t, newMovement(f.product.ID, KindEntry, 10, "2025-06-15"))
	f.guard.closed[types.MustParsePeriod("2025-06")] = true

	newQty := types.NewQuantityFromInt(5)
	_, err := f.svc.Edit(context.Background(), m.ID, Changes{Quantity: &newQty})
	assert.True(t, apperror.IsCode(err, apperror.CodePeriodClosed), "got %v", err)
}

func TestService_Edit_MoveIntoClosedPeriod(t *testing.T) {
	f := newFixture(t)
	m := f.append(t, newMovement(f.product.ID, KindEntry, 10, "2025-07-15"))
	f.guard.closed[types.MustParsePeriod("2025-06")] = true

	back := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	_, err := f.svc.Edit(context.Background(), m.ID, Changes{MovementDate: &back})
	assert.True(t, apperror.IsCode(err, apperror.CodePeriodClosed), "got %v", err)
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	m := f.append(t, newMovement(f.product.ID, KindEntry, 10, "2025-07-01"))

	require.NoError(t, f.svc.Delete(context.Background(), m.ID))

	_, err := f.repo.GetByID(context.Background(), m.ID)
	assert.True(t, apperror.IsNotFound(err))

	require.Len(t, f.audit.calls, 2)
	assert.Equal(t, AuditDelete, f.audit.calls[1].action)
}

func TestService_Delete_RejectsNegativeStock(t *testing.T) {
	f := newFixture(t)
	entry := f.append(t, newMovement(f.product.ID, KindEntry, 10, "2025-07-01"))
	f.append(t, newMovement(f.product.ID, KindExit, 8, "2025-07-02"))

	err := f.svc.Delete(context.Background(), entry.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNegativeStock), "got %v", err)
}

func TestService_Delete_ClosedPeriod(t *testing.T) {
	f := newFixture(t)
	m := f.append(t, newMovement(f.product.ID, KindEntry, 10, "2025-06-15"))
	f.guard.closed[types.MustParsePeriod("2025-06")] = true

	err := f.svc.Delete(context.Background(), m.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodePeriodClosed), "got %v", err)
}
