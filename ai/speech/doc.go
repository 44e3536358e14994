// Package speech implements ai.Transcriber and ai.Diarizer against a
// whisper-style HTTP speech service.
//
// The service is expected to expose two multipart upload endpoints under its
// /v1 prefix: /audio/transcriptions returning a verbose_json transcript, and
// /audio/diarization returning speaker-labelled segments. Both are served by
// common self-hosted whisper + pyannote stacks.
package speech
