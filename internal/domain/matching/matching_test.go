package matching

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature_IsOrderIndependent(t *testing.T) {
	a := ItemTuple{ProductID: "p1", VariantID: "v1", Quantity: 1}
	b := ItemTuple{ProductID: "p2", VariantID: "v2", Quantity: 3}

	assert.Equal(t, Signature([]ItemTuple{a, b}), Signature([]ItemTuple{b, a}))
	assert.NotEqual(t, Signature([]ItemTuple{a}), Signature([]ItemTuple{a, b}))
	assert.NotEqual(t, Signature([]ItemTuple{a}), Signature([]ItemTuple{{ProductID: "p1", VariantID: "v1", Quantity: 2}}))
	assert.NotEqual(t, Signature([]ItemTuple{a, a}), Signature([]ItemTuple{a}), "multiset, not set")
}

func TestSignature_SeparatorsInIDs(t *testing.T) {
	tests := []struct {
		name string
		a, b []ItemTuple
	}{
		{
			name: "separator moved between product and variant",
			a:    []ItemTuple{{ProductID: "a|b", VariantID: "", Quantity: 1}},
			b:    []ItemTuple{{ProductID: "a", VariantID: "b|", Quantity: 1}},
		},
		{
			name: "separator inside variant",
			a:    []ItemTuple{{ProductID: "a", VariantID: "b|1", Quantity: 1}},
			b:    []ItemTuple{{ProductID: "a", VariantID: "b", Quantity: 1}, {ProductID: "1", Quantity: 1}},
		},
		{
			name: "tuple separator inside product",
			a:    []ItemTuple{{ProductID: "p;q", VariantID: "v", Quantity: 2}},
			b:    []ItemTuple{{ProductID: "p", Quantity: 2}, {ProductID: "q", VariantID: "v", Quantity: 2}},
		},
		{
			name: "length prefix lookalike",
			a:    []ItemTuple{{ProductID: "1:a", VariantID: "", Quantity: 1}},
			b:    []ItemTuple{{ProductID: "", VariantID: "1:a", Quantity: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, Signature(tt.a), Signature(tt.b))
		})
	}
}

func TestItemTuple_Validate(t *testing.T) {
	assert.NoError(t, ItemTuple{ProductID: "p", Quantity: 1}.Validate())
	assert.ErrorIs(t, ItemTuple{ProductID: " ", Quantity: 1}.Validate(), ErrInvalidTuple)
	assert.ErrorIs(t, ItemTuple{ProductID: "p", Quantity: 0}.Validate(), ErrInvalidTuple)
}

func TestNewMatch(t *testing.T) {
	owner := uuid.New()
	si, err := NewShopItem(owner, uuid.New(), ItemTuple{ProductID: "p1", VariantID: "v1", Quantity: 1})
	require.NoError(t, err)
	ci, err := NewChannelItem(owner, uuid.New(), ItemTuple{ProductID: "c1", VariantID: "cv1", Quantity: 2}, decimal.NewFromInt(4))
	require.NoError(t, err)

	m, err := NewMatch(owner, []ShopItem{*si}, []ChannelItem{*ci})
	require.NoError(t, err)
	assert.Equal(t, "2:p1|2:v1|1", m.Signature)

	_, err = NewMatch(owner, nil, []ChannelItem{*ci})
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = NewMatch(owner, []ShopItem{*si}, nil)
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestPartialMatchError(t *testing.T) {
	err := &PartialMatchError{Unmatched: []ItemTuple{{ProductID: "p2", VariantID: "v2", Quantity: 1}}}
	assert.Contains(t, err.Error(), "(p2,v2,1)")
}

func TestPriceChangeWarning(t *testing.T) {
	assert.Equal(t, "PRICE_CHANGE: price changed from 10.00 to 12.50",
		PriceChangeWarning(decimal.NewFromInt(10), decimal.RequireFromString("12.5")))
}
