package workorder

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item is a part or service line of an order.
type Item struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Price       int64  `json:"price"`          // Price in cents
	Cost        *int64 `json:"cost,omitempty"` // Cost in cents
}

// Tires records which tires were in good condition at check-in.
type Tires struct {
	FL bool `json:"fl"`
	FR bool `json:"fr"`
	BL bool `json:"bl"`
	BR bool `json:"br"`
}

// Checklist is the vehicle inspection taken when the car arrives.
type Checklist struct {
	FuelLevel int    `json:"fuelLevel"` // Percentage, 0-100
	Tires     Tires  `json:"tires"`
	Notes     string `json:"notes"`
}

// DefaultChecklist is the checklist a new inspection starts from.
func DefaultChecklist() Checklist {
	return Checklist{Tires: Tires{FL: true, FR: true, BL: true, BR: true}}
}

// Order is a work order (OS). Total is derived from Parts and Services and
// must be refreshed with Recalculate after any item edit.
type Order struct {
	ID             string     `json:"id"`
	OSNumber       int        `json:"osNumber"`
	Status         Status     `json:"status"`
	PreviousStatus Status     `json:"previousStatus,omitempty"`
	ClientName     string     `json:"clientName"`
	ClientPhone    string     `json:"clientPhone"`
	Vehicle        string     `json:"vehicle"`
	Mileage        int        `json:"mileage"`
	Parts          []Item     `json:"parts"`
	Services       []Item     `json:"services"`
	Total          int64      `json:"total"` // Total in cents
	FinancialID    string     `json:"financialId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	Checklist      *Checklist `json:"checklist,omitempty"`
	PublicNotes    string     `json:"publicNotes,omitempty"`
}

// ComputeTotal sums every part and service price.
func (o Order) ComputeTotal() int64 {
	var total int64
	for _, it := range o.Parts {
		total += it.Price
	}

	for _, it := range o.Services {
		total += it.Price
	}

	return total
}

// Recalculate refreshes Total and gives every item without an id a fresh
// one. Item slices are copied so the caller's order is left intact.
func (o Order) Recalculate() Order {
	o.Parts = normalizeItems(o.Parts)
	o.Services = normalizeItems(o.Services)
	o.Total = o.ComputeTotal()

	return o
}

// Margin is the total minus the known cost of every item.
func (o Order) Margin() int64 {
	margin := o.Total

	for _, items := range [][]Item{o.Parts, o.Services} {
		for _, it := range items {
			if it.Cost != nil {
				margin -= *it.Cost
			}
		}
	}

	return margin
}

func normalizeItems(items []Item) []Item {
	if items == nil {
		return nil
	}

	out := make([]Item, 0, len(items))

	for _, it := range items {
		it.Description = strings.TrimSpace(it.Description)
		if it.ID == "" {
			it.ID = uuid.NewString()
		}

		out = append(out, it)
	}

	return out
}

// Find returns the index of the order with the given id, or -1.
func Find(orders []Order, id string) int {
	for i, o := range orders {
		if o.ID == id {
			return i
		}
	}

	return -1
}

// NextOSNumber returns one past the highest order number in use.
func NextOSNumber(orders []Order) int {
	highest := 0
	for _, o := range orders {
		if o.OSNumber > highest {
			highest = o.OSNumber
		}
	}

	return highest + 1
}

// NumberTaken reports whether another order already uses number.
func NumberTaken(orders []Order, number int, exceptID string) bool {
	for _, o := range orders {
		if o.OSNumber == number && o.ID != exceptID {
			return true
		}
	}

	return false
}
