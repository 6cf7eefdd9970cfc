package movement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_Effect(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindEntry, 1},
		{KindOpening, 1},
		{KindAdjustment, 1},
		{KindExit, -1},
		{KindWriteOff, -1},
		{Kind("BOGUS"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Effect())
		})
	}
}

func TestKind_Valid(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.Valid(), string(k))
	}
	assert.False(t, Kind("").Valid())
	assert.False(t, Kind("entry").Valid(), "kinds are case sensitive")
}

func TestKind_AllowsSignedQuantity(t *testing.T) {
	for _, k := range Kinds() {
		assert.Equal(t, k == KindAdjustment, k.AllowsSignedQuantity(), string(k))
	}
}

func TestKind_LotEligible(t *testing.T) {
	for _, k := range Kinds() {
		want := k == KindEntry || k == KindExit
		assert.Equal(t, want, k.LotEligible(), string(k))
	}
}
