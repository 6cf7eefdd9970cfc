package lot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/movement"
)

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func entry(productID id.ID, lot string, qty int64, movedAt string, expiry *time.Time) movement.Movement {
	return movement.Movement{
		ID:           id.New(),
		ProductID:    productID,
		Kind:         movement.KindEntry,
		Quantity:     types.NewQuantityFromInt(qty),
		MovementDate: date(movedAt),
		CreatedAt:    date(movedAt),
		LotNumber:    lot,
		ExpiryDate:   expiry,
	}
}

func exit(productID id.ID, lot string, qty int64, movedAt string) movement.Movement {
	return movement.Movement{
		ID:           id.New(),
		ProductID:    productID,
		Kind:         movement.KindExit,
		Quantity:     types.NewQuantityFromInt(qty),
		MovementDate: date(movedAt),
		CreatedAt:    date(movedAt),
		LotNumber:    lot,
	}
}

func TestDerive_MergesSameLotNumber(t *testing.T) {
	pid := id.New()
	exp1 := date("2026-01-01")
	exp2 := date("2026-06-01")

	lots := Derive([]movement.Movement{
		entry(pid, "LOT-A", 100, "2025-07-01", &exp1),
		exit(pid, "LOT-A", 30, "2025-07-10"),
		entry(pid, "LOT-A", 50, "2025-07-15", &exp2),
	})

	require.Len(t, lots, 1)
	got := lots[0]
	assert.Equal(t, "LOT-A", got.LotNumber)
	assert.Equal(t, types.NewQuantityFromInt(120), got.Remaining)
	// The latest ENTRY wins the expiry.
	require.NotNil(t, got.ExpiryDate)
	assert.True(t, got.ExpiryDate.Equal(exp2))
}

func TestDerive_LatestEntryTieBreakByCreatedAt(t *testing.T) {
	pid := id.New()
	expOld := date("2026-01-01")
	expNew := date("2026-03-01")

	first := entry(pid, "LOT-A", 10, "2025-07-01", &expOld)
	second := entry(pid, "LOT-A", 10, "2025-07-01", &expNew)
	second.CreatedAt = first.CreatedAt.Add(time.Minute)

	lots := Derive([]movement.Movement{first, second})
	require.Len(t, lots, 1)
	require.NotNil(t, lots[0].ExpiryDate)
	assert.True(t, lots[0].ExpiryDate.Equal(expNew))
}

func TestDerive_LatestEntryClearsExpiry(t *testing.T) {
	pid := id.New()
	exp := date("2026-01-01")

	lots := Derive([]movement.Movement{
		entry(pid, "LOT-A", 10, "2025-07-01", &exp),
		entry(pid, "LOT-A", 10, "2025-07-02", nil),
	})

	require.Len(t, lots, 1)
	assert.Nil(t, lots[0].ExpiryDate, "an ENTRY without expiry resets the lot's expiry")
}

func TestDerive_SkipsLotlessAndIneligible(t *testing.T) {
	pid := id.New()
	adj := movement.Movement{
		ProductID:    pid,
		Kind:         movement.KindAdjustment,
		Quantity:     types.NewQuantityFromInt(5),
		MovementDate: date("2025-07-01"),
	}
	lotless := exit(pid, "", 3, "2025-07-02")

	lots := Derive([]movement.Movement{adj, lotless, entry(pid, "LOT-A", 10, "2025-07-03", nil)})
	require.Len(t, lots, 1)
	assert.Equal(t, types.NewQuantityFromInt(10), lots[0].Remaining)
}

func TestDerive_FirstSeenOrder(t *testing.T) {
	pid := id.New()
	lots := Derive([]movement.Movement{
		entry(pid, "LOT-B", 10, "2025-07-01", nil),
		entry(pid, "LOT-A", 10, "2025-07-02", nil),
	})

	require.Len(t, lots, 2)
	assert.Equal(t, "LOT-B", lots[0].LotNumber)
	assert.Equal(t, "LOT-A", lots[1].LotNumber)
}

func TestAvailable_FEFO(t *testing.T) {
	pid := id.New()
	soon := date("2025-09-01")
	later := date("2026-01-01")

	lots := []Lot{
		{ProductID: pid, LotNumber: "NO-EXP", Remaining: types.NewQuantityFromInt(5)},
		{ProductID: pid, LotNumber: "LATER", Remaining: types.NewQuantityFromInt(5), ExpiryDate: &later},
		{ProductID: pid, LotNumber: "EMPTY", Remaining: 0, ExpiryDate: &soon},
		{ProductID: pid, LotNumber: "SOON-B", Remaining: types.NewQuantityFromInt(5), ExpiryDate: &soon},
		{ProductID: pid, LotNumber: "SOON-A", Remaining: types.NewQuantityFromInt(5), ExpiryDate: &soon},
		{ProductID: pid, LotNumber: "DRAINED", Remaining: types.NewQuantityFromInt(-2)},
	}

	got := Available(lots)
	names := make([]string, len(got))
	for i, l := range got {
		names[i] = l.LotNumber
	}

	// Earliest expiry first, same-day ties by lot number, no-expiry lots last.
	assert.Equal(t, []string{"SOON-A", "SOON-B", "LATER", "NO-EXP"}, names)
}
