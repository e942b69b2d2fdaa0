package ops

import (
	"github.com/hpungsan/clipz/internal/history"
)

// InventoryInput contains parameters for the Inventory operation.
type InventoryInput struct {
	Pinned *bool // optional filter
	Limit  int   // default: 50, max: 500
	Offset int   // default: 0
}

// InventoryOutput contains the result of the Inventory operation.
type InventoryOutput struct {
	Items      []Item     `json:"items"`
	Pagination Pagination `json:"pagination"`
	Sort       string     `json:"sort"`
}

// Inventory lists entries in stored (first-seen) order with pagination.
func Inventory(store *history.Store, input InventoryInput) *InventoryOutput {
	limit := clampLimit(input.Limit, DefaultHistoryLimit, MaxHistoryLimit)

	var items []Item
	for _, e := range store.Snapshot() {
		if input.Pinned != nil && e.Pinned != *input.Pinned {
			continue
		}
		items = append(items, ToItem(e))
	}

	start, end, p := page(len(items), limit, input.Offset)

	// Ensure we return an empty array rather than nil
	out := make([]Item, 0, end-start)
	out = append(out, items[start:end]...)

	return &InventoryOutput{
		Items:      out,
		Pagination: p,
		Sort:       "stored",
	}
}
