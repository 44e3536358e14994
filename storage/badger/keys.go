package badger

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tomasz-trela/backend-thread-weaver/core"
)

// Key prefixes for different data types
const (
	conversationPrefix       = "convrec"
	conversationStatusPrefix = "convrecs"
	conversationIDSeq        = "convrecseq"
	speakerPrefix            = "spkrec"
	speakerNamePrefix        = "spknam"
	speakerIDSeq             = "spkrecseq"
	utterancePrefix          = "uttrec"
	utteranceConvPrefix      = "uttrecc"
)

// makeConversationKey generates a key for a conversation by ID.
// IDs are encoded BigEndian so lexicographic iteration follows ID order.
func makeConversationKey(id core.ID) []byte {
	prefix := conversationPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeConversationStatusKey generates a composite key for the status index.
// Format: prefix:status:id
func makeConversationStatusKey(status core.ConversationStatus, id core.ID) []byte {
	prefix := conversationStatusPrefix + ":"
	buf := make([]byte, len(prefix)+1+8)
	offset := copy(buf, prefix)
	buf[offset] = byte(status)
	offset++
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialConversationStatusKey generates a partial key for status scans.
// Format: prefix:status
func makePartialConversationStatusKey(status core.ConversationStatus) []byte {
	prefix := conversationStatusPrefix + ":"
	buf := make([]byte, len(prefix)+1)
	offset := copy(buf, prefix)
	buf[offset] = byte(status)
	return buf
}

// makeSpeakerKey generates a key for a speaker by ID.
func makeSpeakerKey(id core.ID) []byte {
	prefix := speakerPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeSpeakerNameKey generates a composite key for speaker lookup by
// (name, surname). The separator cannot appear in either part after
// validation trims whitespace, and a collision would only merge identities
// with pathological names.
func makeSpeakerNameKey(name, surname string) []byte {
	return []byte(fmt.Sprintf("%s:%s\x00%s", speakerNamePrefix, name, surname))
}

// makeUtteranceKey generates a key for an utterance by ID.
func makeUtteranceKey(id core.ID) []byte {
	prefix := utterancePrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeUtteranceConvKey generates a composite key for the per-conversation
// index, ordered by start time.
// Format: prefix:conversationID:startTime:utteranceID
func makeUtteranceConvKey(conversationID core.ID, startTime float64, utteranceID core.ID) []byte {
	prefix := utteranceConvPrefix + ":"
	buf := make([]byte, len(prefix)+24)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(conversationID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], sortableFloat(startTime))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(utteranceID))
	return buf
}

// makePartialUtteranceConvKey generates a partial key for scanning one
// conversation's utterances.
// Format: prefix:conversationID
func makePartialUtteranceConvKey(conversationID core.ID) []byte {
	prefix := utteranceConvPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(conversationID))
	return buf
}

// sortableFloat converts a float64 into a uint64 whose unsigned ordering
// matches the float ordering, including negatives.
func sortableFloat(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		return ^bits
	}
	return bits | (1 << 63)
}
