package persistence

import (
	"strings"

	"github.com/Rafcin/openship/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes a requested direction to ASC or DESC,
// defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "ASC") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is one of allowed, else
// defaultField. Column names go into ORDER BY verbatim, so only whitelisted
// names pass.
func ValidateSortField(sortField string, allowed map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowed[trimmed] {
		return trimmed
	}
	return defaultField
}

// applyPage applies whitelisted ordering and pagination
func applyPage(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, "created_at")
	dir := ValidateSortOrder(filter.OrderDir)
	return query.Order(field + " " + dir).Offset(filter.Offset()).Limit(filter.Limit())
}

// OrderSortFields are the sortable order columns
var OrderSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"external_order_id": true,
	"order_name":        true,
	"status":            true,
	"total_price":       true,
	"email":             true,
}

// ShopSortFields are the sortable shop and channel columns
var ShopSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"domain":     true,
}

// MatchSortFields are the sortable match columns
var MatchSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"signature":  true,
}
