package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/movement"
)

func mv(kind movement.Kind, qty int64, date string) movement.Movement {
	d, _ := time.Parse("2006-01-02", date)
	return movement.Movement{
		ID:           id.New(),
		ProductID:    id.New(),
		Kind:         kind,
		Quantity:     types.NewQuantityFromInt(qty),
		MovementDate: d,
	}
}

func TestFold(t *testing.T) {
	ms := []movement.Movement{
		mv(movement.KindOpening, 100, "2025-07-01"),
		mv(movement.KindEntry, 50, "2025-07-03"),
		mv(movement.KindExit, 30, "2025-07-05"),
		mv(movement.KindWriteOff, 5, "2025-07-10"),
		mv(movement.KindAdjustment, -2, "2025-07-12"),
	}

	// 100 + 50 - 30 - 5 - 2 = 113
	assert.Equal(t, types.NewQuantityFromInt(113), Fold(ms))

	// The final fold does not depend on storage order.
	reversed := make([]movement.Movement, len(ms))
	for i := range ms {
		reversed[len(ms)-1-i] = ms[i]
	}
	assert.Equal(t, Fold(ms), Fold(reversed))
}

func TestFold_Empty(t *testing.T) {
	assert.Equal(t, types.Quantity(0), Fold(nil))
}

func TestFoldAsOf(t *testing.T) {
	ms := []movement.Movement{
		mv(movement.KindOpening, 100, "2025-07-01"),
		mv(movement.KindExit, 30, "2025-07-05"),
		mv(movement.KindEntry, 50, "2025-08-01"),
	}

	cutoff, _ := time.Parse("2006-01-02", "2025-07-31")
	assert.Equal(t, types.NewQuantityFromInt(70), FoldAsOf(ms, cutoff))

	// The bound is inclusive.
	onDate, _ := time.Parse("2006-01-02", "2025-07-05")
	assert.Equal(t, types.NewQuantityFromInt(70), FoldAsOf(ms, onDate))

	before, _ := time.Parse("2006-01-02", "2025-06-30")
	assert.Equal(t, types.Quantity(0), FoldAsOf(ms, before))
}

func TestRunning_OrderDependent(t *testing.T) {
	entry := mv(movement.KindEntry, 10, "2025-07-05")
	exit := mv(movement.KindExit, 4, "2025-07-05")

	balances := Running([]movement.Movement{exit, entry})
	assert.Equal(t, []types.Quantity{
		types.NewQuantityFromInt(-4),
		types.NewQuantityFromInt(6),
	}, balances, "an EXIT stored before its same-day ENTRY dips negative")

	balances = Running([]movement.Movement{entry, exit})
	assert.Equal(t, []types.Quantity{
		types.NewQuantityFromInt(10),
		types.NewQuantityFromInt(6),
	}, balances)
}
