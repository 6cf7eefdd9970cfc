package transfer

import (
	"context"
	"sort"
	"time"

	"stockbook/internal/core/apperror"
	appctx "stockbook/internal/core/context"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/movement"
	"stockbook/internal/domain/product"
	"stockbook/pkg/logger"
)

// Service computes end-of-period stock and commits it as opening movements
// for the next period, exactly once per period pair.
type Service struct {
	products  product.Repository
	movements movement.Repository
	transfers Repository
	txm       tx.Manager
}

// NewService creates the period transfer service.
func NewService(
	products product.Repository,
	movements movement.Repository,
	transfers Repository,
	txm tx.Manager,
) *Service {
	return &Service{
		products:  products,
		movements: movements,
		transfers: transfers,
		txm:       txm,
	}
}

// Preview returns the (product, quantity) pairs a transfer of source would
// carry forward: stock as of the source period's last day, positive only.
// Pure read, no side effects.
//
// Caveat: a preview shown to an operator can go stale; Transfer always
// recomputes the candidate set inside its own transaction, so the committed
// result may diverge from a preview taken earlier.
func (s *Service) Preview(ctx context.Context, source types.Period) ([]Candidate, error) {
	if source.IsZero() {
		return nil, apperror.NewValidation("source period is required")
	}
	return s.candidates(ctx, source)
}

// Transfer carries the source period's closing stock into destination as
// OPENING movements dated the destination's first day, all committed together
// with the summary row in one transaction. Either everything is committed or
// nothing is; there is no retry-in-place.
func (s *Service) Transfer(ctx context.Context, source, destination types.Period, actor string) (*Transfer, error) {
	if source.IsZero() || destination.IsZero() {
		return nil, apperror.NewValidation("source and destination periods are required")
	}
	if !source.Before(destination) {
		return nil, apperror.NewValidation("destination period must follow source period").
			WithDetail("source", source.String()).
			WithDetail("destination", destination.String())
	}
	if actor == "" {
		actor = appctx.GetActor(ctx)
	}

	now := time.Now().UTC()
	result := &Transfer{
		ID:                id.New(),
		SourcePeriod:      source,
		DestinationPeriod: destination,
		Actor:             actor,
		CreatedAt:         now,
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		// A destination that was itself carried forward is frozen: an OPENING
		// inserted there would change the snapshot its own transfer committed.
		destClosed, err := s.transfers.SourceClosed(ctx, destination)
		if err != nil {
			return err
		}
		if destClosed {
			return apperror.NewPeriodClosed(destination.String())
		}

		candidates, err := s.candidates(ctx, source)
		if err != nil {
			return err
		}
		result.ProductCount = len(candidates)

		// Insert the summary first: the uniqueness constraint on the period
		// pair is what actually serializes a double-submitted transfer.
		if err := s.transfers.Insert(ctx, result); err != nil {
			return err
		}

		if len(candidates) == 0 {
			return nil
		}

		openings := make([]movement.Movement, 0, len(candidates))
		openingDate := destination.FirstDay()
		for _, c := range candidates {
			m := movement.Movement{
				ID:           id.New(),
				ProductID:    c.Product.ID,
				Kind:         movement.KindOpening,
				Quantity:     c.Quantity,
				MovementDate: openingDate,
				UnitPrice:    c.Product.UnitPrice,
				Reference:    source.String(),
				Actor:        actor,
				CreatedAt:    now,
			}
			m.Normalize()
			openings = append(openings, m)
		}

		return s.movements.InsertBatch(ctx, openings)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "period transfer committed",
		"source", source, "destination", destination,
		"products", result.ProductCount, "actor", actor)
	return result, nil
}

// List returns committed transfers, newest first.
func (s *Service) List(ctx context.Context) ([]Transfer, error) {
	return s.transfers.List(ctx)
}

// candidates computes stock as of the source period's last day for every
// active product and keeps the strictly positive ones.
func (s *Service) candidates(ctx context.Context, source types.Period) ([]Candidate, error) {
	products, err := s.products.List(ctx, product.Filter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	asOf := source.LastDay()
	stocks, err := s.movements.SumSignedQuantityByProduct(ctx, &asOf)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(products))
	for _, p := range products {
		qty := stocks[p.ID]
		if qty.IsPositive() {
			candidates = append(candidates, Candidate{Product: p, Quantity: qty})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Product.Code < candidates[j].Product.Code
	})
	return candidates, nil
}
