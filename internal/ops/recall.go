package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/clipz/internal/errors"
	"github.com/hpungsan/clipz/internal/paste"
	"github.com/hpungsan/clipz/internal/rank"
)

// Recall pastes the entry at a 1-based slot (0 means slot 10). An empty slot
// is a benign Found=false result; a slot outside 0..10 is an invalid request.
func Recall(ctx context.Context, d *paste.Dispatcher, slot int) (*paste.Result, error) {
	if slot < 0 || slot > rank.RecallSlots {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("slot must be between 1 and %d (0 for %d)", rank.RecallSlots, rank.RecallSlots))
	}
	res := d.Recall(ctx, slot)
	return &res, nil
}
