// Copyright 2025 Tomasz Trela
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package search provides lexical, semantic and hybrid search over stored
// utterances.
//
// Lexical search ranks utterances by query term frequency, semantic search by
// cosine similarity between the query embedding and stored utterance vectors.
// Hybrid search runs both strategies against a deeper candidate pool and
// merges the two rankings with reciprocal rank fusion, so an utterance that
// ranks well on both lists beats one that dominates a single list.
//
// Usage:
//
//	searcher, err := search.NewSearcher(utteranceRepo, aiProvider)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := searcher.Hybrid(ctx, search.Query{Text: "deployment rollback", Limit: 10})
//
// All strategies accept the same Query filters: speaker and conversation date
// range. HybridWithMonitor exposes per-stage callbacks for diagnostics.
package search
