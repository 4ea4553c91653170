package matching

import (
	"time"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/Rafcin/openship/internal/domain/matching"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShopItemInput is one storefront tuple on the input side of a match
type ShopItemInput struct {
	ShopID    uuid.UUID `json:"shop_id" binding:"required"`
	ProductID string    `json:"product_id" binding:"required,max=255"`
	VariantID string    `json:"variant_id" binding:"max=255"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// Tuple returns the fingerprint tuple of the input
func (i ShopItemInput) Tuple() matching.ItemTuple {
	return matching.ItemTuple{ProductID: i.ProductID, VariantID: i.VariantID, Quantity: i.Quantity}
}

// ChannelItemInput is one fulfillment tuple on the output side of a match
type ChannelItemInput struct {
	ChannelID uuid.UUID       `json:"channel_id" binding:"required"`
	ProductID string          `json:"product_id" binding:"required,max=255"`
	VariantID string          `json:"variant_id" binding:"max=255"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name" binding:"max=500"`
	Image     string          `json:"image" binding:"max=2000"`
}

// Tuple returns the fingerprint tuple of the output
func (i ChannelItemInput) Tuple() matching.ItemTuple {
	return matching.ItemTuple{ProductID: i.ProductID, VariantID: i.VariantID, Quantity: i.Quantity}
}

// CreateMatchRequest creates a match
type CreateMatchRequest struct {
	Input  []ShopItemInput    `json:"input" binding:"required,min=1,dive"`
	Output []ChannelItemInput `json:"output" binding:"required,min=1,dive"`
}

// UpdateMatchRequest replaces both sides of a match
type UpdateMatchRequest struct {
	Input  []ShopItemInput    `json:"input" binding:"required,min=1,dive"`
	Output []ChannelItemInput `json:"output" binding:"required,min=1,dive"`
}

// ShopItemResponse is the API view of a shop item
type ShopItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ShopID    uuid.UUID `json:"shop_id"`
	ProductID string    `json:"product_id"`
	VariantID string    `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}

// ChannelItemResponse is the API view of a channel item
type ChannelItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ChannelID uuid.UUID       `json:"channel_id"`
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name,omitempty"`
	Image     string          `json:"image,omitempty"`
}

// MatchResponse is the API view of a match
type MatchResponse struct {
	ID        uuid.UUID             `json:"id"`
	Signature string                `json:"signature"`
	Input     []ShopItemResponse    `json:"input"`
	Output    []ChannelItemResponse `json:"output"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// ToMatchResponse converts a match to its API view
func ToMatchResponse(m *matching.Match) MatchResponse {
	resp := MatchResponse{
		ID:        m.ID,
		Signature: m.Signature,
		Input:     make([]ShopItemResponse, len(m.Input)),
		Output:    make([]ChannelItemResponse, len(m.Output)),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	for i, si := range m.Input {
		resp.Input[i] = ShopItemResponse{
			ID:        si.ID,
			ShopID:    si.ShopID,
			ProductID: si.ProductID,
			VariantID: si.VariantID,
			Quantity:  si.Quantity,
		}
	}
	for i, ci := range m.Output {
		resp.Output[i] = ChannelItemResponse{
			ID:        ci.ID,
			ChannelID: ci.ChannelID,
			ProductID: ci.ProductID,
			VariantID: ci.VariantID,
			Quantity:  ci.Quantity,
			Price:     ci.Price,
			Name:      ci.Name,
			Image:     ci.Image,
		}
	}
	return resp
}

// LiveItemDetail is the live platform view of one channel item of a match.
// Product is nil and Error is set when the platform lookup failed.
type LiveItemDetail struct {
	ChannelItemID uuid.UUID            `json:"channel_item_id"`
	ChannelID     uuid.UUID            `json:"channel_id"`
	StoredPrice   decimal.Decimal      `json:"stored_price"`
	Product       *integration.Product `json:"product,omitempty"`
	Warning       string               `json:"warning,omitempty"`
	Error         string               `json:"error,omitempty"`
}
