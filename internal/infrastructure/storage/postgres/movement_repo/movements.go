// Package movement_repo provides the PostgreSQL implementation of the
// movement ledger repository.
package movement_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/movement"
	"stockbook/internal/infrastructure/storage/postgres"
)

const movementsTable = "movements"

// signedQuantityExpr mirrors the canonical kind effect table in SQL. Keep in
// sync with movement.Kind.Effect.
const signedQuantityExpr = "CASE WHEN kind IN ('EXIT','WRITE_OFF') THEN -quantity ELSE quantity END"

var movementColumns = []string{
	"id", "product_id", "kind", "quantity",
	"movement_date", "period", "lot_number", "expiry_date",
	"unit_price", "total_value", "reference", "actor", "created_at",
}

// MovementRepo implements movement.Repository.
type MovementRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewMovementRepo creates a new ledger repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func movementValues(m *movement.Movement) []any {
	return []any{
		m.ID, m.ProductID, m.Kind, m.Quantity,
		m.MovementDate, m.Period, m.LotNumber, m.ExpiryDate,
		m.UnitPrice, m.TotalValue, m.Reference, m.Actor, m.CreatedAt,
	}
}

// Insert appends one movement to the ledger.
func (r *MovementRepo) Insert(ctx context.Context, m *movement.Movement) error {
	q := r.builder.Insert(movementsTable).
		Columns(movementColumns...).
		Values(movementValues(m)...)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("movement", "id", m.ID.String())
		}
		return fmt.Errorf("insert movement: %w", err)
	}

	return nil
}

// InsertBatch appends many movements in one shot. Inside a transaction it
// uses the COPY protocol, otherwise a multi-row INSERT.
func (r *MovementRepo) InsertBatch(ctx context.Context, movements []movement.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(movements))
		for i := range movements {
			rows = append(rows, movementValues(&movements[i]))
		}
		if _, err := inserter.CopyFromSlice(ctx, movementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(movementsTable).Columns(movementColumns...)
	for i := range movements {
		q = q.Values(movementValues(&movements[i])...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// Update rewrites one ledger row in place.
func (r *MovementRepo) Update(ctx context.Context, m *movement.Movement) error {
	q := r.builder.Update(movementsTable).
		Set("product_id", m.ProductID).
		Set("kind", m.Kind).
		Set("quantity", m.Quantity).
		Set("movement_date", m.MovementDate).
		Set("period", m.Period).
		Set("lot_number", m.LotNumber).
		Set("expiry_date", m.ExpiryDate).
		Set("unit_price", m.UnitPrice).
		Set("total_value", m.TotalValue).
		Set("reference", m.Reference).
		Where(squirrel.Eq{"id": m.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("movement", m.ID.String())
	}

	return nil
}

// Delete removes one ledger row.
func (r *MovementRepo) Delete(ctx context.Context, movementID id.ID) error {
	q := r.builder.Delete(movementsTable).
		Where(squirrel.Eq{"id": movementID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("movement", movementID.String())
	}

	return nil
}

// GetByID retrieves one movement.
func (r *MovementRepo) GetByID(ctx context.Context, movementID id.ID) (*movement.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"id": movementID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m movement.Movement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("movement", movementID.String())
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}

	return &m, nil
}

func (r *MovementRepo) applyFilter(q squirrel.SelectBuilder, f movement.Filter) squirrel.SelectBuilder {
	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if f.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *f.Kind})
	}
	if f.Period != nil {
		q = q.Where(squirrel.Eq{"period": *f.Period})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"movement_date": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"movement_date": *f.DateTo})
	}
	if f.LotOnly {
		q = q.Where(squirrel.NotEq{"lot_number": ""})
	}
	return q
}

// List returns movements matching the filter, newest first.
func (r *MovementRepo) List(ctx context.Context, f movement.Filter) ([]movement.Movement, error) {
	q := r.applyFilter(r.builder.Select(movementColumns...).From(movementsTable), f).
		OrderBy("movement_date DESC", "created_at DESC")

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []movement.Movement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// Count returns the number of movements matching the filter.
func (r *MovementRepo) Count(ctx context.Context, f movement.Filter) (int64, error) {
	q := r.applyFilter(r.builder.Select("COUNT(*)").From(movementsTable), f)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int64
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}

	return count, nil
}

// SumSignedQuantity folds the signed effect table over one product's ledger.
func (r *MovementRepo) SumSignedQuantity(ctx context.Context, productID id.ID, until *time.Time) (types.Quantity, error) {
	sql := fmt.Sprintf(`
		SELECT COALESCE(SUM(%s), 0)::bigint
		FROM movements
		WHERE product_id = $1
	`, signedQuantityExpr)
	args := []any{productID}

	if until != nil {
		sql += " AND movement_date <= $2"
		args = append(args, *until)
	}

	var sumScaled int64
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, args...).Scan(&sumScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum signed quantity: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(sumScaled), nil
}

// SumSignedQuantityByProduct folds the signed effect table per product.
func (r *MovementRepo) SumSignedQuantityByProduct(ctx context.Context, until *time.Time) (map[id.ID]types.Quantity, error) {
	sql := fmt.Sprintf(`
		SELECT product_id, COALESCE(SUM(%s), 0)::bigint
		FROM movements
	`, signedQuantityExpr)
	var args []any

	if until != nil {
		sql += " WHERE movement_date <= $1"
		args = append(args, *until)
	}
	sql += " GROUP BY product_id"

	querier := r.txManager.GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by product: %w", err)
	}
	defer rows.Close()

	sums := make(map[id.ID]types.Quantity)
	for rows.Next() {
		var productID id.ID
		var sumScaled int64
		if err := rows.Scan(&productID, &sumScaled); err != nil {
			return nil, fmt.Errorf("scan sum: %w", err)
		}
		sums[productID] = types.NewQuantityFromInt64Scaled(sumScaled)
	}

	return sums, rows.Err()
}

// ListLotMovements returns lot-tagged ENTRY/EXIT movements in chronological
// order. Pass id.Nil() to cover all products.
func (r *MovementRepo) ListLotMovements(ctx context.Context, productID id.ID) ([]movement.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.NotEq{"lot_number": ""}).
		Where(squirrel.Eq{"kind": []movement.Kind{movement.KindEntry, movement.KindExit}}).
		OrderBy("movement_date", "created_at")

	if !id.IsNil(productID) {
		q = q.Where(squirrel.Eq{"product_id": productID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []movement.Movement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select lot movements: %w", err)
	}

	return movements, nil
}

// LotRemaining folds ENTRY minus EXIT for one (product, lot) key.
func (r *MovementRepo) LotRemaining(ctx context.Context, productID id.ID, lotNumber string) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN kind = 'ENTRY' THEN quantity ELSE -quantity END),
			0
		)::bigint
		FROM movements
		WHERE product_id = $1
		  AND lot_number = $2
		  AND kind IN ('ENTRY', 'EXIT')
	`

	var remainingScaled int64
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, productID, lotNumber).Scan(&remainingScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("lot remaining: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(remainingScaled), nil
}

// AggregateKinds sums quantity and total value per kind for a period.
func (r *MovementRepo) AggregateKinds(ctx context.Context, period types.Period) (map[movement.Kind]movement.KindTotal, error) {
	sql := `
		SELECT kind,
			   COALESCE(SUM(quantity), 0)::bigint,
			   COALESCE(SUM(total_value), 0)
		FROM movements
		WHERE period = $1
		GROUP BY kind
	`

	querier := r.txManager.GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, period)
	if err != nil {
		return nil, fmt.Errorf("aggregate kinds: %w", err)
	}
	defer rows.Close()

	totals := make(map[movement.Kind]movement.KindTotal)
	for rows.Next() {
		var kind movement.Kind
		var quantityScaled int64
		var value types.Money
		if err := rows.Scan(&kind, &quantityScaled, &value); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		totals[kind] = movement.KindTotal{
			Quantity: types.NewQuantityFromInt64Scaled(quantityScaled),
			Value:    value,
		}
	}

	return totals, rows.Err()
}

// Ensure interface compliance.
var _ movement.Repository = (*MovementRepo)(nil)
