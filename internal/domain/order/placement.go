package order

import "github.com/google/uuid"

// PlacementOutcome is the result of one placement attempt for a cart item
type PlacementOutcome struct {
	CartItemID uuid.UUID
	ChannelID  uuid.UUID
	PurchaseID string
	URL        string
	Error      string
}

// Placed reports whether the attempt produced a purchase
func (p PlacementOutcome) Placed() bool {
	return p.PurchaseID != "" || p.URL != ""
}

// PlacementResult summarises one run of the placement pipeline. Outcomes
// only cover the items attempted by that run.
type PlacementResult struct {
	OrderID  uuid.UUID
	Status   Status
	Outcomes []PlacementOutcome
}

// Placed returns the number of items placed by the run
func (r *PlacementResult) Placed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Placed() {
			n++
		}
	}
	return n
}

// Failed returns the number of items the run could not place
func (r *PlacementResult) Failed() int {
	return len(r.Outcomes) - r.Placed()
}

// Attempted reports whether the run tried to place anything
func (r *PlacementResult) Attempted() bool {
	return len(r.Outcomes) > 0
}
