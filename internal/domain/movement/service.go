package movement

import (
	"bytes"
	"context"
	"time"

	"stockbook/internal/core/apperror"
	appctx "stockbook/internal/core/context"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/product"
	"stockbook/pkg/logger"
)

// Audit actions recorded for ledger mutations.
const (
	AuditAppend = "append"
	AuditEdit   = "edit"
	AuditDelete = "delete"
)

// Auditor records the ledger's mutation trail. Implementations must join the
// caller's transaction so the trail never references a rolled-back change.
type Auditor interface {
	Record(ctx context.Context, movementID id.ID, action string, actor string, changes map[string]any) error
}

// PeriodGuard reports whether a period has already been carried forward.
// Movements dated inside such a period are frozen: the committed transfer
// snapshot must not be invalidated by later edits.
type PeriodGuard interface {
	SourceClosed(ctx context.Context, p types.Period) (bool, error)
}

// Service is the movement ledger. Every mutation is one atomic unit scoped to
// the affected product(s): the product row lock serializes concurrent writers
// and all derived quantities are re-validated before commit.
type Service struct {
	movements Repository
	products  product.Repository
	periods   PeriodGuard
	audit     Auditor
	txm       tx.Manager
}

// NewService creates the ledger service. audit may be nil to disable the trail.
func NewService(
	movements Repository,
	products product.Repository,
	periods PeriodGuard,
	audit Auditor,
	txm tx.Manager,
) *Service {
	return &Service{
		movements: movements,
		products:  products,
		periods:   periods,
		audit:     audit,
		txm:       txm,
	}
}

// Append validates and commits a new movement. For EXIT movements the
// availability checks run at commit time inside the transaction, after the
// product row lock is held - an earlier advisory check by a form does not
// count.
func (s *Service) Append(ctx context.Context, m *Movement) error {
	if id.IsNil(m.ID) {
		m.ID = id.New()
	}
	if m.Actor == "" {
		m.Actor = appctx.GetActor(ctx)
	}
	m.CreatedAt = time.Now().UTC()
	m.Normalize()

	if err := m.Validate(); err != nil {
		return err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.guardPeriodOpen(ctx, m.Period); err != nil {
			return err
		}

		if _, err := s.products.GetForUpdate(ctx, m.ProductID); err != nil {
			return err
		}

		if m.Kind == KindExit || m.Kind == KindWriteOff {
			available, err := s.movements.SumSignedQuantity(ctx, m.ProductID, nil)
			if err != nil {
				return err
			}
			if available < m.Quantity {
				return apperror.NewInsufficientStock(m.ProductID.String(),
					m.Quantity.Float64(), available.Float64())
			}
		}

		if m.Kind == KindExit && m.LotNumber != "" {
			remaining, err := s.movements.LotRemaining(ctx, m.ProductID, m.LotNumber)
			if err != nil {
				return err
			}
			if remaining < m.Quantity {
				return apperror.NewInsufficientStock(m.ProductID.String(),
					m.Quantity.Float64(), remaining.Float64()).
					WithDetail("lot_number", m.LotNumber)
			}
		}

		if err := s.movements.Insert(ctx, m); err != nil {
			return err
		}

		return s.recordAudit(ctx, m.ID, AuditAppend, m.Actor, map[string]any{
			"kind":     string(m.Kind),
			"product":  m.ProductID.String(),
			"quantity": m.Quantity.String(),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "movement appended",
		"id", m.ID, "kind", m.Kind, "product_id", m.ProductID, "quantity", m.Quantity)
	return nil
}

// Edit applies changes to a committed movement and re-validates every derived
// quantity for the affected product(s) within the same transaction. A caller
// never observes the edited movement without the corresponding balance state.
func (s *Service) Edit(ctx context.Context, movementID id.ID, changes Changes) (*Movement, error) {
	var updated Movement

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		orig, err := s.movements.GetByID(ctx, movementID)
		if err != nil {
			return err
		}

		updated = changes.Apply(*orig)
		updated.Normalize()
		if err := updated.Validate(); err != nil {
			return err
		}

		if err := s.guardPeriodOpen(ctx, orig.Period); err != nil {
			return err
		}
		if updated.Period != orig.Period {
			if err := s.guardPeriodOpen(ctx, updated.Period); err != nil {
				return err
			}
		}

		affected := affectedProducts(orig.ProductID, updated.ProductID)
		for _, pid := range affected {
			if _, err := s.products.GetForUpdate(ctx, pid); err != nil {
				return err
			}
		}

		if err := s.movements.Update(ctx, &updated); err != nil {
			return err
		}

		if err := s.validateProjections(ctx, affected, lotKeys(orig, &updated)); err != nil {
			return err
		}

		return s.recordAudit(ctx, movementID, AuditEdit, appctx.GetActor(ctx), map[string]any{
			"old": snapshot(orig),
			"new": snapshot(&updated),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "movement edited", "id", movementID)
	return &updated, nil
}

// Delete removes a movement after proving, inside the same transaction, that
// neither the product's stock nor any lot's remaining quantity goes negative.
func (s *Service) Delete(ctx context.Context, movementID id.ID) error {
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		orig, err := s.movements.GetByID(ctx, movementID)
		if err != nil {
			return err
		}

		if err := s.guardPeriodOpen(ctx, orig.Period); err != nil {
			return err
		}

		if _, err := s.products.GetForUpdate(ctx, orig.ProductID); err != nil {
			return err
		}

		if err := s.movements.Delete(ctx, movementID); err != nil {
			return err
		}

		if err := s.validateProjections(ctx, []id.ID{orig.ProductID}, lotKeys(orig, nil)); err != nil {
			return err
		}

		return s.recordAudit(ctx, movementID, AuditDelete, appctx.GetActor(ctx), map[string]any{
			"deleted": snapshot(orig),
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "movement deleted", "id", movementID)
	return nil
}

// GetByID retrieves a single movement.
func (s *Service) GetByID(ctx context.Context, movementID id.ID) (*Movement, error) {
	return s.movements.GetByID(ctx, movementID)
}

// List returns ledger entries matching the filter plus the total count.
func (s *Service) List(ctx context.Context, f Filter) ([]Movement, int64, error) {
	items, err := s.movements.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.movements.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// guardPeriodOpen rejects mutations in a period whose stock has already been
// carried forward by a committed transfer.
func (s *Service) guardPeriodOpen(ctx context.Context, p types.Period) error {
	if s.periods == nil {
		return nil
	}
	closed, err := s.periods.SourceClosed(ctx, p)
	if err != nil {
		return err
	}
	if closed {
		return apperror.NewPeriodClosed(p.String())
	}
	return nil
}

// validateProjections re-folds the derived quantities touched by a mutation
// and rejects the transaction when any of them went negative.
func (s *Service) validateProjections(ctx context.Context, products []id.ID, lots []lotKey) error {
	for _, pid := range products {
		stock, err := s.movements.SumSignedQuantity(ctx, pid, nil)
		if err != nil {
			return err
		}
		if stock.IsNegative() {
			return apperror.NewNegativeStock(pid.String(), stock.Float64())
		}
	}
	for _, key := range lots {
		remaining, err := s.movements.LotRemaining(ctx, key.productID, key.lotNumber)
		if err != nil {
			return err
		}
		if remaining.IsNegative() {
			return apperror.NewNegativeStock(key.productID.String(), remaining.Float64()).
				WithDetail("lot_number", key.lotNumber)
		}
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, movementID id.ID, action, actor string, changes map[string]any) error {
	if s.audit == nil {
		return nil
	}
	return s.audit.Record(ctx, movementID, action, actor, changes)
}

type lotKey struct {
	productID id.ID
	lotNumber string
}

// lotKeys collects the distinct (product, lot) keys touched by a mutation.
func lotKeys(orig, updated *Movement) []lotKey {
	var keys []lotKey
	add := func(m *Movement) {
		if m == nil || !m.HasLot() {
			return
		}
		k := lotKey{productID: m.ProductID, lotNumber: m.LotNumber}
		for _, existing := range keys {
			if existing == k {
				return
			}
		}
		keys = append(keys, k)
	}
	add(orig)
	add(updated)
	return keys
}

// affectedProducts returns the distinct product IDs in a stable order, so
// concurrent edits lock product rows in the same sequence.
func affectedProducts(a, b id.ID) []id.ID {
	if a == b {
		return []id.ID{a}
	}
	if bytes.Compare(a[:], b[:]) < 0 {
		return []id.ID{a, b}
	}
	return []id.ID{b, a}
}

func snapshot(m *Movement) map[string]any {
	snap := map[string]any{
		"product_id":    m.ProductID.String(),
		"kind":          string(m.Kind),
		"quantity":      m.Quantity.String(),
		"movement_date": m.MovementDate.Format("2006-01-02"),
		"period":        m.Period.String(),
		"unit_price":    m.UnitPrice.String(),
		"total_value":   m.TotalValue.String(),
	}
	if m.LotNumber != "" {
		snap["lot_number"] = m.LotNumber
	}
	if m.ExpiryDate != nil {
		snap["expiry_date"] = m.ExpiryDate.Format("2006-01-02")
	}
	if m.Reference != "" {
		snap["reference"] = m.Reference
	}
	return snap
}
