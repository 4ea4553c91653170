// Package matching holds the reusable item-set mappings that translate what a
// storefront sold into what fulfillment channels must purchase.
package matching

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Rafcin/openship/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNoMatch       = errors.New("matching: no match found")
	ErrEmptyInput    = errors.New("matching: match input is empty")
	ErrEmptyOutput   = errors.New("matching: match output is empty")
	ErrInvalidTuple  = errors.New("matching: invalid item tuple")
	ErrMatchNotFound = errors.New("matching: match not found")
)

// ItemTuple identifies a quantity of one product variant
type ItemTuple struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// Validate checks the tuple is usable as a fingerprint
func (t ItemTuple) Validate() error {
	if strings.TrimSpace(t.ProductID) == "" || t.Quantity <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTuple, t)
	}
	return nil
}

// Key is the canonical string form of the tuple. Ids are length-prefixed so
// that no id content can be mistaken for a separator.
func (t ItemTuple) Key() string {
	return strconv.Itoa(len(t.ProductID)) + ":" + t.ProductID + "|" +
		strconv.Itoa(len(t.VariantID)) + ":" + t.VariantID + "|" +
		strconv.Itoa(t.Quantity)
}

func (t ItemTuple) String() string {
	return fmt.Sprintf("(%s,%s,%d)", t.ProductID, t.VariantID, t.Quantity)
}

// Signature returns an order-independent key for a multiset of tuples. Two
// inputs have the same signature exactly when they contain the same tuples
// with the same quantities.
func Signature(tuples []ItemTuple) string {
	keys := make([]string, len(tuples))
	for i, t := range tuples {
		keys[i] = t.Key()
	}
	sort.Strings(keys)
	return strings.Join(keys, ";")
}

// ShopItem is a deduplicated fingerprint of a storefront item tuple
type ShopItem struct {
	shared.BaseEntity
	OwnerID   uuid.UUID
	ShopID    uuid.UUID
	ProductID string
	VariantID string
	Quantity  int
}

// Tuple returns the item's tuple
func (s ShopItem) Tuple() ItemTuple {
	return ItemTuple{ProductID: s.ProductID, VariantID: s.VariantID, Quantity: s.Quantity}
}

// NewShopItem creates a shop item fingerprint
func NewShopItem(ownerID, shopID uuid.UUID, t ItemTuple) (*ShopItem, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &ShopItem{
		BaseEntity: shared.NewBaseEntity(),
		OwnerID:    ownerID,
		ShopID:     shopID,
		ProductID:  t.ProductID,
		VariantID:  t.VariantID,
		Quantity:   t.Quantity,
	}, nil
}

// ChannelItem is a deduplicated fingerprint of a fulfillment item tuple with
// the price recorded when the match was saved
type ChannelItem struct {
	shared.BaseEntity
	OwnerID   uuid.UUID
	ChannelID uuid.UUID
	ProductID string
	VariantID string
	Quantity  int
	Price     decimal.Decimal
	Name      string
	Image     string
}

// Tuple returns the item's tuple
func (c ChannelItem) Tuple() ItemTuple {
	return ItemTuple{ProductID: c.ProductID, VariantID: c.VariantID, Quantity: c.Quantity}
}

// NewChannelItem creates a channel item fingerprint
func NewChannelItem(ownerID, channelID uuid.UUID, t ItemTuple, price decimal.Decimal) (*ChannelItem, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if channelID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CHANNEL", "Channel ID cannot be empty")
	}
	return &ChannelItem{
		BaseEntity: shared.NewBaseEntity(),
		OwnerID:    ownerID,
		ChannelID:  channelID,
		ProductID:  t.ProductID,
		VariantID:  t.VariantID,
		Quantity:   t.Quantity,
		Price:      price,
	}, nil
}

// Match maps a set of shop items to the channel items that fulfil them
type Match struct {
	shared.OwnedAggregateRoot
	Input     []ShopItem
	Output    []ChannelItem
	Signature string
}

// NewMatch creates a match from its input and output sets
func NewMatch(ownerID uuid.UUID, input []ShopItem, output []ChannelItem) (*Match, error) {
	m := &Match{OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID)}
	if err := m.SetItems(input, output); err != nil {
		return nil, err
	}
	return m, nil
}

// SetItems replaces both sides of the match and recomputes its signature
func (m *Match) SetItems(input []ShopItem, output []ChannelItem) error {
	if len(input) == 0 {
		return ErrEmptyInput
	}
	if len(output) == 0 {
		return ErrEmptyOutput
	}
	m.Input = input
	m.Output = output
	m.Signature = Signature(m.InputTuples())
	m.Touch()
	return nil
}

// InputTuples returns the tuples of the input side
func (m *Match) InputTuples() []ItemTuple {
	tuples := make([]ItemTuple, len(m.Input))
	for i, si := range m.Input {
		tuples[i] = si.Tuple()
	}
	return tuples
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// DuplicateMatchError is returned when an owner already has a match with the
// same input tuple set
type DuplicateMatchError struct {
	Signature  string
	ExistingID uuid.UUID
}

func (e *DuplicateMatchError) Error() string {
	return fmt.Sprintf("matching: a match with the same input already exists (%s)", e.ExistingID)
}

// PartialMatchError is returned when per-tuple fallback could not match
// every tuple. No cart items are produced.
type PartialMatchError struct {
	Unmatched []ItemTuple
}

func (e *PartialMatchError) Error() string {
	parts := make([]string, len(e.Unmatched))
	for i, t := range e.Unmatched {
		parts[i] = t.String()
	}
	return "matching: no match for " + strings.Join(parts, ", ")
}

// ResolvedItem is one output tuple of a resolution, ready to become a cart
// item. Warning carries a non-fatal PRICE_CHANGE note.
type ResolvedItem struct {
	MatchID uuid.UUID
	Item    ChannelItem
	Warning string
}

// PriceChangeWarning formats the warning attached when a live price differs
// from the price stored on the match
func PriceChangeWarning(stored, live decimal.Decimal) string {
	return fmt.Sprintf("PRICE_CHANGE: price changed from %s to %s", stored.StringFixed(2), live.StringFixed(2))
}
