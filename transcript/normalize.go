// Package transcript turns raw imported chat records into per-speaker message
// groups for profiling.
package transcript

import (
	"log/slog"
	"sort"
)

// Raw is one imported message record as produced by the upstream screenshot
// extraction step. Order is 1-based chronological position; 0 means absent,
// in which case slice position is the order.
type Raw struct {
	Speaker string `json:"Person"`
	Text    string `json:"Message"`
	Order   int    `json:"Order,omitempty"`
}

// Group is all messages one speaker sent, in chronological order.
type Group struct {
	Speaker  string   `json:"Person"`
	Messages []string `json:"Messages"`
}

// Normalize sorts raw records chronologically and groups them by speaker.
// Records missing a speaker or text are dropped (logged, not fatal). Groups
// appear in the order their speaker first appears chronologically. An empty
// input yields an empty, non-nil result.
func Normalize(raw []Raw, logger *slog.Logger) []Group {
	if logger == nil {
		logger = slog.Default()
	}

	type indexed struct {
		rec   Raw
		order int
	}
	recs := make([]indexed, 0, len(raw))
	for i, r := range raw {
		if r.Speaker == "" || r.Text == "" {
			logger.Debug("dropping invalid transcript record", "position", i, "speaker", r.Speaker)
			continue
		}
		order := r.Order
		if order <= 0 {
			order = i + 1
		}
		recs = append(recs, indexed{rec: r, order: order})
	}

	// Stable: ties keep original relative order.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].order < recs[j].order
	})

	groups := make([]Group, 0)
	byName := make(map[string]int)
	for _, r := range recs {
		idx, ok := byName[r.rec.Speaker]
		if !ok {
			idx = len(groups)
			byName[r.rec.Speaker] = idx
			groups = append(groups, Group{Speaker: r.rec.Speaker})
		}
		groups[idx].Messages = append(groups[idx].Messages, r.rec.Text)
	}
	return groups
}
