// Package rank orders the history for recall: pinned entries first in pin
// order, then the rest by the active policy.
package rank

import (
	"math"
	"slices"
	"time"

	"github.com/hpungsan/clipz/internal/config"
	"github.com/hpungsan/clipz/internal/entry"
)

// Policy selects how unpinned entries are ordered.
type Policy string

const (
	// PolicySmart orders by a recency-and-frequency score (default)
	PolicySmart Policy = config.SortModeSmart

	// PolicyLastCopied orders by most recent copy
	PolicyLastCopied Policy = config.SortModeLastCopied
)

// RecallSlots is the size of the recall surface (hotkeys 1..9, 0).
const RecallSlots = 10

// Weights are the smart-score constants:
//
//	score = recency*Recency + log(paste_count+1)*Frequency*recency
//	recency = exp(-hours_since_last_activity/DecayHours)
type Weights struct {
	Recency    float64
	Frequency  float64
	DecayHours float64
}

// DefaultWeights returns 10, 2 and a 24-hour time constant.
func DefaultWeights() Weights {
	return Weights{Recency: 10, Frequency: 2, DecayHours: 24}
}

// OrDefault returns w, or DefaultWeights when w is the zero value.
func (w Weights) OrDefault() Weights {
	if w == (Weights{}) {
		return DefaultWeights()
	}
	return w
}

// WeightsFromConfig reads the smart_* settings.
func WeightsFromConfig(cfg *config.Config) Weights {
	return Weights{
		Recency:    cfg.SmartRecencyWeight,
		Frequency:  cfg.SmartFrequencyWeight,
		DecayHours: cfg.SmartDecayHours,
	}
}

// Score returns the smart score of e at now. Entries with no resolvable
// activity timestamp score 0. Activity in the future counts as happening now.
func Score(e entry.Entry, w Weights, now time.Time) float64 {
	last := e.LastActivity()
	if last.IsZero() {
		return 0
	}
	hours := now.Sub(last).Hours()
	if hours < 0 {
		hours = 0
	}
	decay := w.DecayHours
	if decay <= 0 {
		decay = DefaultWeights().DecayHours
	}
	recency := math.Exp(-hours / decay)
	return recency*w.Recency + math.Log(float64(e.PasteCount)+1)*w.Frequency*recency
}

// Options controls a single Rank call.
type Options struct {
	Policy Policy

	// Weights for the smart policy; the zero value means DefaultWeights
	Weights Weights

	// Limit truncates the result; <= 0 means no truncation
	Limit int

	// Now is the instant smart scores are computed at
	Now time.Time
}

// Rank returns entries in presentation order. The input is not modified.
// Both partitions are sorted stably, so stored order breaks every tie and the
// result is deterministic for a given snapshot and instant.
func Rank(entries []entry.Entry, opts Options) []entry.Entry {
	var pinned, rest []entry.Entry
	for _, e := range entries {
		if e.Pinned {
			pinned = append(pinned, e)
		} else {
			rest = append(rest, e)
		}
	}

	slices.SortStableFunc(pinned, func(a, b entry.Entry) int {
		return pinKey(a) - pinKey(b)
	})

	switch opts.Policy {
	case PolicyLastCopied:
		slices.SortStableFunc(rest, func(a, b entry.Entry) int {
			return b.CopiedAt().Compare(a.CopiedAt())
		})
	default:
		w := opts.Weights.OrDefault()
		scores := make(map[string]float64, len(rest))
		for _, e := range rest {
			scores[e.ID] = Score(e, w, opts.Now)
		}
		slices.SortStableFunc(rest, func(a, b entry.Entry) int {
			sa, sb := scores[a.ID], scores[b.ID]
			switch {
			case sa > sb:
				return -1
			case sa < sb:
				return 1
			}
			return 0
		})
	}

	out := append(pinned, rest...)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// pinKey sorts pinned entries without an order after those with one.
func pinKey(e entry.Entry) int {
	if e.PinOrder == nil {
		return math.MaxInt32
	}
	return *e.PinOrder
}

// Ranker binds a policy, weights and clock for repeated ranking.
type Ranker struct {
	Policy  Policy
	Weights Weights
	Clock   func() time.Time
}

// NewRanker builds a Ranker from config.
func NewRanker(cfg *config.Config, clock func() time.Time) *Ranker {
	if clock == nil {
		clock = time.Now
	}
	return &Ranker{
		Policy:  Policy(cfg.SortMode),
		Weights: WeightsFromConfig(cfg),
		Clock:   clock,
	}
}

// Rank orders entries at the ranker's current time.
func (r *Ranker) Rank(entries []entry.Entry, limit int) []entry.Entry {
	return Rank(entries, Options{
		Policy:  r.Policy,
		Weights: r.Weights,
		Limit:   limit,
		Now:     r.Clock(),
	})
}

// Recall returns the recall surface: the first RecallSlots ranked entries.
func (r *Ranker) Recall(entries []entry.Entry) []entry.Entry {
	return r.Rank(entries, RecallSlots)
}

// Hotkey returns the key bound to a 1-based slot: "ctrl+1".."ctrl+9", "ctrl+0".
func Hotkey(slot int) string {
	if slot < 1 || slot > RecallSlots {
		return ""
	}
	return "ctrl+" + string(rune('0'+slot%10))
}
