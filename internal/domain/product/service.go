package product

import (
	"context"
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
	"stockbook/pkg/logger"
)

// Service provides catalog operations for products.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new product service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Create registers a new product. Code uniqueness is enforced by the storage
// layer; a collision surfaces as a duplicate-entry error.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	// New products start active; deactivation is an explicit lifecycle step.
	p.Active = true

	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}

	logger.Info(ctx, "product created", "id", p.ID, "code", p.Code)
	return nil
}

// Update changes a product's configuration fields.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}

		existing.Code = p.Code
		existing.Name = p.Name
		existing.AlertThreshold = p.AlertThreshold
		existing.UnitPrice = p.UnitPrice
		existing.UpdatedAt = time.Now().UTC()

		if err := s.repo.Update(ctx, existing); err != nil {
			return err
		}
		*p = *existing
		return nil
	})
}

// SetActive toggles the active flag of a product's lifecycle.
func (s *Service) SetActive(ctx context.Context, productID id.ID, active bool) error {
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if p.Active == active {
			return nil
		}
		p.Active = active
		p.UpdatedAt = time.Now().UTC()
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "product lifecycle toggled", "id", productID, "active", active)
	return nil
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List returns products matching the filter plus the total count.
func (s *Service) List(ctx context.Context, f Filter) ([]Product, int64, error) {
	items, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
