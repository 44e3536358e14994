package align

import "github.com/tomasz-trela/backend-thread-weaver/core"

// UnknownIndex is the speaker index assigned to segments with no attribution.
const UnknownIndex = -1

// Index maps diarization labels to stable zero-based indices in order of
// first appearance in the aligned segments. The indices line up with the
// caller-supplied ordered list of speaker identities.
type Index struct {
	labels  []string
	byLabel map[string]int
}

// BuildIndex assigns each distinct non-UNKNOWN speaker label a zero-based
// index in order of first appearance. The assignment is deterministic for a
// given segment slice.
func BuildIndex(segments []core.AlignedSegment) *Index {
	ix := &Index{byLabel: make(map[string]int)}
	for _, segment := range segments {
		if segment.SpeakerLabel == core.UnknownSpeaker {
			continue
		}
		if _, seen := ix.byLabel[segment.SpeakerLabel]; !seen {
			ix.byLabel[segment.SpeakerLabel] = len(ix.labels)
			ix.labels = append(ix.labels, segment.SpeakerLabel)
		}
	}
	return ix
}

// Of returns the index of a label, or UnknownIndex for UnknownSpeaker and
// labels that never appeared.
func (ix *Index) Of(label string) int {
	if label == core.UnknownSpeaker {
		return UnknownIndex
	}
	idx, ok := ix.byLabel[label]
	if !ok {
		return UnknownIndex
	}
	return idx
}

// Labels returns the distinct labels in index order.
func (ix *Index) Labels() []string {
	return ix.labels
}

// Len returns the number of distinct labels.
func (ix *Index) Len() int {
	return len(ix.labels)
}

// Resolve maps a speaker index to a caller-supplied identity. An index of
// UnknownIndex or one beyond the supplied list means "no mapping" and yields
// 0, never an error.
func Resolve(index int, speakerIds []core.ID) core.ID {
	if index < 0 || index >= len(speakerIds) {
		return 0
	}
	return speakerIds[index]
}
