package predicate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderInput() map[string]any {
	return map[string]any{
		"country":    "US",
		"currency":   "USD",
		"totalPrice": 120.5,
		"email":      "buyer@example.com",
		"lineItems": []any{
			map[string]any{"productId": "p1", "variantId": "v1", "quantity": 2},
			map[string]any{"productId": "p2", "variantId": "v2", "quantity": 1},
		},
	}
}

func TestCELEvaluator_Evaluate(t *testing.T) {
	eval, err := NewCELEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		expr    string
		want    bool
		wantErr error
	}{
		{name: "empty matches all", expr: "  ", want: true},
		{name: "literal true", expr: "true", want: true},
		{name: "string equality", expr: `order.country == "US"`, want: true},
		{name: "string inequality", expr: `order.country == "CA"`, want: false},
		{name: "numeric comparison", expr: `order.totalPrice > 100.0`, want: true},
		{name: "conjunction", expr: `order.country == "US" && order.totalPrice < 100.0`, want: false},
		{name: "list macro", expr: `order.lineItems.exists(i, i.productId == "p2")`, want: true},
		{name: "string function", expr: `order.email.endsWith("@example.com")`, want: true},
		{name: "key presence", expr: `has(order.notes)`, want: false},
		{name: "missing key", expr: `order.notes == "x"`, wantErr: ErrEvaluate},
		{name: "non boolean dyn", expr: `order.country`, wantErr: ErrNotBoolean},
		{name: "non boolean literal", expr: `1 + 2`, wantErr: ErrNotBoolean},
		{name: "syntax error", expr: `order.country ==`, wantErr: ErrCompile},
		{name: "unknown variable", expr: `shop.name == "x"`, wantErr: ErrCompile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eval.Evaluate(context.Background(), tt.expr, orderInput())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCELEvaluator_Compile(t *testing.T) {
	eval, err := NewCELEvaluator()
	require.NoError(t, err)

	assert.NoError(t, eval.Compile(""))
	assert.NoError(t, eval.Compile(`order.country == "US"`))
	assert.ErrorIs(t, eval.Compile(`order.country ==`), ErrCompile)
	assert.ErrorIs(t, eval.Compile(`"text"`), ErrNotBoolean)
}

func TestCELEvaluator_ProgramCache(t *testing.T) {
	eval, err := NewCELEvaluator()
	require.NoError(t, err)
	eval.maxCache = 2

	for i := 0; i < 3; i++ {
		_, err := eval.Evaluate(context.Background(), `order.country == "US"`, orderInput())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, eval.CacheSize())

	require.NoError(t, eval.Compile(`order.currency == "USD"`))
	assert.Equal(t, 2, eval.CacheSize())

	// a full cache is reset before inserting
	require.NoError(t, eval.Compile(`order.totalPrice > 1.0`))
	assert.Equal(t, 1, eval.CacheSize())
}
