// Package ingestion turns registered conversations into stored, embedded
// utterances.
//
// The Pipeline handles one conversation end to end:
//   - Download the media and extract audio
//   - Diarize and transcribe concurrently
//   - Align transcript segments with speaker turns
//   - Resolve diarization labels to speaker records
//   - Embed segment texts with a bounded worker pool
//   - Upsert the resulting utterances in one batch
//
// The Poller drives the pipeline in the background: it atomically claims
// pending conversations (and stale claims abandoned by crashed workers),
// completes them on success, and releases them back to pending on failure.
// Per-conversation errors never stop the polling loop.
package ingestion
