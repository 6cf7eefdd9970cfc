package movement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

func validEntry() Movement {
	return Movement{
		ProductID:    id.New(),
		Kind:         KindEntry,
		Quantity:     types.NewQuantityFromInt(10),
		MovementDate: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
		UnitPrice:    types.MustMoney("2.50"),
	}
}

func TestMovement_Normalize(t *testing.T) {
	m := validEntry()
	m.Normalize()

	assert.Equal(t, types.MustParsePeriod("2025-07"), m.Period)
	assert.True(t, m.TotalValue.Equal(types.MustMoney("25")), "10 x 2.50 = 25, got %s", m.TotalValue)
}

func TestMovement_Validate(t *testing.T) {
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		mutate   func(m *Movement)
		wantCode string
	}{
		{"valid entry", func(m *Movement) {}, ""},
		{"missing product", func(m *Movement) { m.ProductID = id.Nil() }, apperror.CodeValidation},
		{"unknown kind", func(m *Movement) { m.Kind = "BOGUS" }, apperror.CodeValidation},
		{"missing date", func(m *Movement) { m.MovementDate = time.Time{} }, apperror.CodeValidation},
		{"zero quantity", func(m *Movement) { m.Quantity = 0 }, apperror.CodeValidation},
		{"negative entry quantity", func(m *Movement) { m.Quantity = types.NewQuantityFromInt(-5) }, apperror.CodeValidation},
		{"negative adjustment is fine", func(m *Movement) {
			m.Kind = KindAdjustment
			m.Quantity = types.NewQuantityFromInt(-5)
		}, ""},
		{"lot on adjustment", func(m *Movement) {
			m.Kind = KindAdjustment
			m.LotNumber = "LOT-1"
		}, apperror.CodeValidation},
		{"lot on entry is fine", func(m *Movement) { m.LotNumber = "LOT-1" }, ""},
		{"expiry without lot", func(m *Movement) { m.ExpiryDate = &expiry }, apperror.CodeValidation},
		{"expiry on exit", func(m *Movement) {
			m.Kind = KindExit
			m.LotNumber = "LOT-1"
			m.ExpiryDate = &expiry
		}, apperror.CodeValidation},
		{"expiry on entry with lot is fine", func(m *Movement) {
			m.LotNumber = "LOT-1"
			m.ExpiryDate = &expiry
		}, ""},
		{"negative price", func(m *Movement) { m.UnitPrice = types.MustMoney("-1") }, apperror.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validEntry()
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantCode == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, apperror.IsCode(err, tt.wantCode), "got %v", err)
			}
		})
	}
}

func TestMovement_SignedQuantity(t *testing.T) {
	m := validEntry()
	assert.Equal(t, types.NewQuantityFromInt(10), m.SignedQuantity())

	m.Kind = KindExit
	assert.Equal(t, types.NewQuantityFromInt(-10), m.SignedQuantity())

	m.Kind = KindAdjustment
	m.Quantity = types.NewQuantityFromInt(-3)
	assert.Equal(t, types.NewQuantityFromInt(-3), m.SignedQuantity())
}

func TestChanges_Apply(t *testing.T) {
	orig := validEntry()
	orig.LotNumber = "LOT-1"
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	orig.ExpiryDate = &expiry

	newQty := types.NewQuantityFromInt(7)
	newDate := time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC)

	updated := Changes{Quantity: &newQty, MovementDate: &newDate}.Apply(orig)

	assert.Equal(t, newQty, updated.Quantity)
	assert.Equal(t, newDate, updated.MovementDate)
	// Untouched fields keep current values.
	assert.Equal(t, orig.ProductID, updated.ProductID)
	assert.Equal(t, "LOT-1", updated.LotNumber)
	require.NotNil(t, updated.ExpiryDate)

	cleared := Changes{ClearExpiry: true}.Apply(orig)
	assert.Nil(t, cleared.ExpiryDate)
}
