package search

import (
	"slices"

	"github.com/tomasz-trela/backend-thread-weaver/core"
)

// FuseRRF merges ranked result lists with reciprocal rank fusion. Each
// utterance receives score sum(1/(k+rank)) over the lists that contain it,
// with rank counted from 0 inside each list. An utterance on several lists
// accumulates contributions and outranks single-list hits of similar depth.
//
// The output is ordered by fused score descending. Utterances with equal
// fused scores keep the order in which they were first encountered, scanning
// the lists in argument order, so fusion is deterministic for fixed inputs.
func FuseRRF(k int, lists ...[]*core.SearchResult) []*core.SearchResult {
	if k <= 0 {
		k = DefaultRRFK
	}

	scores := make(map[core.ID]float32)
	// first-appearance ordering for the tie-break
	var order []core.ID
	utterances := make(map[core.ID]*core.Utterance)

	for _, list := range lists {
		for rank, result := range list {
			if result == nil || result.Utterance == nil {
				continue
			}
			id := result.Utterance.Id
			if _, seen := scores[id]; !seen {
				order = append(order, id)
				utterances[id] = result.Utterance
			}
			scores[id] += 1.0 / float32(k+rank)
		}
	}

	fused := make([]*core.SearchResult, 0, len(order))
	for _, id := range order {
		fused = append(fused, &core.SearchResult{
			Utterance: utterances[id],
			Score:     scores[id],
		})
	}

	slices.SortStableFunc(fused, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	return fused
}
