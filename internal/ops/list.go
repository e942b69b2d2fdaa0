package ops

import (
	"github.com/hpungsan/clipz/internal/history"
	"github.com/hpungsan/clipz/internal/rank"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Limit int // default: 10 (the recall surface), max: 100
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
	Sort  string `json:"sort"`
}

// List returns the ranked history: pinned entries first, then the active
// policy. The first ten items carry their recall slot and hotkey.
func List(store *history.Store, ranker *rank.Ranker, input ListInput) *ListOutput {
	limit := clampLimit(input.Limit, DefaultListLimit, MaxListLimit)
	now := ranker.Clock()

	snapshot := store.Snapshot()
	ranked := rank.Rank(snapshot, rank.Options{
		Policy:  ranker.Policy,
		Weights: ranker.Weights,
		Limit:   limit,
		Now:     now,
	})

	items := make([]Item, len(ranked))
	for i, e := range ranked {
		it := ToItem(e)
		if slot := i + 1; slot <= rank.RecallSlots {
			it.Slot = slot
			it.Hotkey = rank.Hotkey(slot)
		}
		if ranker.Policy != rank.PolicyLastCopied && !e.Pinned {
			score := rank.Score(e, ranker.Weights.OrDefault(), now)
			it.Score = &score
		}
		items[i] = it
	}

	return &ListOutput{
		Items: items,
		Total: len(snapshot),
		Sort:  "pinned,then_" + string(policyOrDefault(ranker.Policy)),
	}
}

func policyOrDefault(p rank.Policy) rank.Policy {
	if p == "" {
		return rank.PolicySmart
	}
	return p
}
