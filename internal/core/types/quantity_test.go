package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_String(t *testing.T) {
	tests := []struct {
		name string
		q    Quantity
		want string
	}{
		{"zero", 0, "0.0000"},
		{"whole units", NewQuantityFromInt(5), "5.0000"},
		{"fractional", NewQuantityFromInt64Scaled(12345), "1.2345"},
		{"negative", NewQuantityFromInt64Scaled(-12345), "-1.2345"},
		{"sub-unit", NewQuantityFromInt64Scaled(1), "0.0001"},
		{"negative sub-unit", NewQuantityFromInt64Scaled(-1), "-0.0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.String())
		})
	}
}

func TestQuantity_JSONRoundtrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Quantity
	}{
		{"number", `3.5`, NewQuantityFromInt64Scaled(35000)},
		{"string", `"3.5"`, NewQuantityFromInt64Scaled(35000)},
		{"integer", `42`, NewQuantityFromInt(42)},
		{"negative", `-0.25`, NewQuantityFromInt64Scaled(-2500)},
		{"extra digits truncated", `1.23456`, NewQuantityFromInt64Scaled(12345)},
		{"null", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tt.input), &q))
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestQuantity_MarshalJSONIsNumber(t *testing.T) {
	out, err := json.Marshal(NewQuantityFromInt64Scaled(12345))
	require.NoError(t, err)
	assert.Equal(t, "1.2345", string(out))
}

func TestQuantity_SignHelpers(t *testing.T) {
	assert.True(t, Quantity(0).IsZero())
	assert.True(t, Quantity(1).IsPositive())
	assert.True(t, Quantity(-1).IsNegative())
	assert.Equal(t, Quantity(5), Quantity(-5).Abs())
	assert.Equal(t, Quantity(-5), Quantity(5).Neg())
}

func TestQuantity_Decimal(t *testing.T) {
	d := NewQuantityFromInt64Scaled(25000).Decimal() // 2.5
	assert.Equal(t, "2.5", d.String())
}
