// Copyright 2025 Tomasz Trela
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package align

import (
	"slices"
	"strings"

	"github.com/tomasz-trela/backend-thread-weaver/core"
)

const (
	// DefaultWordsPerMinute is the speaking-rate assumption behind the
	// duration sanity filter.
	DefaultWordsPerMinute = 150.0

	// DefaultMinOverlapRatio is the confidence floor below which a
	// multi-candidate attribution is rejected as UNKNOWN.
	DefaultMinOverlapRatio = 0.05
)

// Config holds the aligner tunables.
type Config struct {
	// WordsPerMinute is the assumed speaking rate used to estimate how long
	// a transcript segment plausibly took to speak.
	WordsPerMinute float64

	// MinOverlapRatio is the minimum normalized overlap score a winning turn
	// must reach when several turns overlap a segment. Typical values range
	// from 0.05 (bulk import) to 0.25 (precision-sensitive callers).
	MinOverlapRatio float64
}

// DefaultConfig returns a Config with the default tunables.
func DefaultConfig() Config {
	return Config{
		WordsPerMinute:  DefaultWordsPerMinute,
		MinOverlapRatio: DefaultMinOverlapRatio,
	}
}

// Aligner attributes transcript segments to diarization speaker turns.
// The zero value is not usable; construct with New.
type Aligner struct {
	config Config
}

// New creates an Aligner. Non-positive tunables fall back to defaults.
func New(config Config) Aligner {
	if config.WordsPerMinute <= 0 {
		config.WordsPerMinute = DefaultWordsPerMinute
	}
	if config.MinOverlapRatio <= 0 {
		config.MinOverlapRatio = DefaultMinOverlapRatio
	}
	return Aligner{config: config}
}

// Align combines speaker turns with a transcription into speaker-attributed
// segments. Segments with empty or whitespace-only text are dropped. The
// second return value is the number of segments whose final attribution is
// UnknownSpeaker.
//
// For each transcript segment:
//   - turns shorter than half the segment's estimated spoken duration are
//     excluded as implausible carriers,
//   - remaining turns with zero temporal overlap are discarded,
//   - no candidate left: method "none", speaker UNKNOWN,
//   - one candidate: method "exact", that turn's label,
//   - several candidates: method "multiple", the highest-scoring turn wins
//     unless its normalized score is below MinOverlapRatio.
//
// Align is a pure function of its inputs: the same turns and transcription
// always yield the same output.
func (a Aligner) Align(turns []core.SpeakerTurn, transcription *core.Transcription) ([]core.AlignedSegment, int) {
	if transcription == nil {
		return nil, 0
	}

	// Diarization output order is not guaranteed to be stable across runs.
	// Sorting by start time makes the "first candidate wins" tie-break
	// reproducible.
	sorted := slices.Clone(turns)
	slices.SortStableFunc(sorted, func(x, y core.SpeakerTurn) int {
		switch {
		case x.Start < y.Start:
			return -1
		case x.Start > y.Start:
			return 1
		default:
			return 0
		}
	})

	aligned := make([]core.AlignedSegment, 0, len(transcription.Segments))
	unknown := 0

	for _, segment := range transcription.Segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}

		result := a.alignSegment(sorted, segment.Start, segment.End, text)
		if result.SpeakerLabel == core.UnknownSpeaker {
			unknown++
		}
		aligned = append(aligned, result)
	}

	return aligned, unknown
}

func (a Aligner) alignSegment(turns []core.SpeakerTurn, start, end float64, text string) core.AlignedSegment {
	segment := core.AlignedSegment{
		Start: start,
		End:   end,
		Text:  text,
	}

	estimated := EstimateDuration(text, a.config.WordsPerMinute)

	var candidates []core.SpeakerTurn
	for _, turn := range turns {
		// Turns too short to plausibly contain the segment's speech are not
		// credible attribution candidates.
		if estimated/2 > turn.End-turn.Start {
			continue
		}
		if Overlap(start, end, turn.Start, turn.End) > 0 {
			candidates = append(candidates, turn)
		}
	}

	switch len(candidates) {
	case 0:
		segment.Method = core.MethodNone
		segment.SpeakerLabel = core.UnknownSpeaker
	case 1:
		segment.Method = core.MethodExact
		segment.SpeakerLabel = candidates[0].Label
	default:
		segment.Method = core.MethodMultiple
		segment.SpeakerLabel = a.bestLabel(candidates, start, end)
	}

	return segment
}

// bestLabel picks the candidate with the highest overlap score normalized by
// segment duration, or UnknownSpeaker when even the best score sits below the
// confidence floor. Ties keep the earliest-starting candidate.
func (a Aligner) bestLabel(candidates []core.SpeakerTurn, start, end float64) string {
	duration := end - start
	if duration <= 0 {
		return core.UnknownSpeaker
	}

	bestRatio := 0.0
	bestLabel := core.UnknownSpeaker

	for _, turn := range candidates {
		score := OverlapScore(start, end, turn.Start, turn.End)
		ratio := score / duration
		if ratio > bestRatio {
			bestRatio = ratio
			bestLabel = turn.Label
		}
	}

	if bestRatio < a.config.MinOverlapRatio {
		return core.UnknownSpeaker
	}
	return bestLabel
}
