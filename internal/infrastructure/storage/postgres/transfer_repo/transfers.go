// Package transfer_repo provides the PostgreSQL implementation of the period
// transfer summary repository.
package transfer_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/movement"
	"stockbook/internal/domain/transfer"
	"stockbook/internal/infrastructure/storage/postgres"
)

const transfersTable = "transfers"

var transferColumns = []string{
	"id", "source_period", "destination_period",
	"product_count", "actor", "created_at",
}

// TransferRepo implements transfer.Repository. It doubles as the ledger's
// period guard: a period that appears as a committed source is closed.
type TransferRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewTransferRepo creates a new transfer repository.
func NewTransferRepo(txManager *postgres.TxManager) *TransferRepo {
	return &TransferRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert commits the summary row. The UNIQUE(source_period, destination_period)
// constraint is the serialization point for concurrent duplicate submissions.
func (r *TransferRepo) Insert(ctx context.Context, t *transfer.Transfer) error {
	q := r.builder.Insert(transfersTable).
		Columns(transferColumns...).
		Values(
			t.ID, t.SourcePeriod, t.DestinationPeriod,
			t.ProductCount, t.Actor, t.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicateTransfer(t.SourcePeriod.String(), t.DestinationPeriod.String())
		}
		return fmt.Errorf("insert transfer: %w", err)
	}

	return nil
}

// SourceClosed reports whether any committed transfer carried p forward.
func (r *TransferRepo) SourceClosed(ctx context.Context, p types.Period) (bool, error) {
	sql := `SELECT EXISTS(SELECT 1 FROM transfers WHERE source_period = $1)`

	var closed bool
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, p).Scan(&closed); err != nil {
		return false, fmt.Errorf("check source closed: %w", err)
	}

	return closed, nil
}

// List returns all committed transfers, newest first.
func (r *TransferRepo) List(ctx context.Context) ([]transfer.Transfer, error) {
	q := r.builder.Select(transferColumns...).
		From(transfersTable).
		OrderBy("created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var transfers []transfer.Transfer
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &transfers, sql, args...); err != nil {
		return nil, fmt.Errorf("select transfers: %w", err)
	}

	return transfers, nil
}

// Ensure interface compliance.
var (
	_ transfer.Repository  = (*TransferRepo)(nil)
	_ movement.PeriodGuard = (*TransferRepo)(nil)
)
