// Package align reconciles two independently produced time series — speaker
// turns from diarization and text segments from transcription — into
// speaker-attributed segments.
//
// The two processes window audio independently and disagree at boundaries by
// fractions of a second, so attribution uses overlap-ratio scoring with a
// tunable confidence floor instead of exact interval containment. Candidate
// turns are sorted by start time before scoring, which makes tie-breaking
// deterministic regardless of the order the diarizer emitted them in.
package align
