package order

// Status represents the lifecycle status of an order
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAwaiting  Status = "AWAITING"
	StatusComplete  Status = "COMPLETE"
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAwaiting, StatusComplete, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// AWAITING may fall back to PENDING when a placed item is re-opened by a
// cancelled purchase.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusAwaiting || target == StatusCancelled
	case StatusAwaiting:
		return target == StatusComplete || target == StatusPending || target == StatusCancelled
	case StatusComplete:
		return target == StatusCancelled
	case StatusCancelled:
		return false
	}
	return false
}

// CartItemStatus represents the status of a single cart item
type CartItemStatus string

const (
	CartItemPending    CartItemStatus = "PENDING"
	CartItemProcessing CartItemStatus = "PROCESSING"
	CartItemCancelled  CartItemStatus = "CANCELLED"
)

// IsValid checks if the status is a valid CartItemStatus
func (s CartItemStatus) IsValid() bool {
	switch s {
	case CartItemPending, CartItemProcessing, CartItemCancelled:
		return true
	}
	return false
}
