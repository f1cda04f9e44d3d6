package cart

import (
	"github.com/example/babyshop/internal/catalog"
)

// Item is one cart line. The product is a snapshot taken at add time:
// later price changes upstream do not retroactively update the line.
type Item struct {
	ID       string          `json:"id"`
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Color    string          `json:"color,omitempty"`
	Size     string          `json:"size,omitempty"`
}

// State is the full cart. Total and ItemCount are derived and
// recomputed from scratch after every action so they can never drift
// from the lines.
type State struct {
	Items     []Item `json:"items"`
	Total     int    `json:"total"`
	ItemCount int    `json:"itemCount"`
}

// Empty returns the zero cart.
func Empty() State {
	return State{Items: []Item{}}
}

// LineID builds the composite key that keeps distinct variant
// selections of the same product on distinct lines.
func LineID(productID, color, size string) string {
	id := productID
	if color != "" {
		id += "-" + color
	}
	if size != "" {
		id += "-" + size
	}
	return id
}

// Action is a cart mutation. Reduce is the only way state changes.
type Action interface {
	isAction()
}

// AddItem merges into an existing line with the same composite key or
// appends a new one. A non-positive quantity counts as 1. Stock is
// deliberately not consulted here.
type AddItem struct {
	Product  catalog.Product
	Quantity int
	Color    string
	Size     string
}

// RemoveItem drops the line with the given composite key. Absent keys
// are a no-op, not an error.
type RemoveItem struct {
	LineID string
}

// UpdateQuantity sets a line's quantity, clamped to at least 1. It
// can never drop a line; callers wanting removal must use RemoveItem.
type UpdateQuantity struct {
	LineID   string
	Quantity int
}

// Clear resets to the empty cart.
type Clear struct{}

// SetState replaces the state wholesale. Used only for rehydration;
// the incoming shape is trusted as-is.
type SetState struct {
	State State
}

func (AddItem) isAction()        {}
func (RemoveItem) isAction()     {}
func (UpdateQuantity) isAction() {}
func (Clear) isAction()          {}
func (SetState) isAction()       {}

// Reduce applies one action and returns the next state. It is pure:
// no I/O, and the input state is never mutated.
func Reduce(s State, action Action) State {
	switch a := action.(type) {
	case AddItem:
		qty := a.Quantity
		if qty < 1 {
			qty = 1
		}
		id := LineID(a.Product.ID, a.Color, a.Size)

		items := make([]Item, len(s.Items))
		copy(items, s.Items)

		merged := false
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity += qty
				merged = true
				break
			}
		}
		if !merged {
			items = append(items, Item{
				ID:       id,
				Product:  a.Product,
				Quantity: qty,
				Color:    a.Color,
				Size:     a.Size,
			})
		}
		return withTotals(items)

	case RemoveItem:
		items := make([]Item, 0, len(s.Items))
		for _, item := range s.Items {
			if item.ID != a.LineID {
				items = append(items, item)
			}
		}
		return withTotals(items)

	case UpdateQuantity:
		qty := a.Quantity
		if qty < 1 {
			qty = 1
		}
		items := make([]Item, len(s.Items))
		copy(items, s.Items)
		for i := range items {
			if items[i].ID == a.LineID {
				items[i].Quantity = qty
			}
		}
		return withTotals(items)

	case Clear:
		return Empty()

	case SetState:
		return a.State

	default:
		return s
	}
}

func withTotals(items []Item) State {
	total, count := 0, 0
	for _, item := range items {
		total += item.Product.SpecialPrice * item.Quantity
		count += item.Quantity
	}
	return State{Items: items, Total: total, ItemCount: count}
}
