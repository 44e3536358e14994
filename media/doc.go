// Package media acquires conversation audio from remote references.
//
// The ExecFetcher shells out to yt-dlp (with ffmpeg mp3 extraction) and
// caches downloads per conversation, so retried pipeline runs reuse the
// already downloaded file.
package media
