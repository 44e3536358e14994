package align

import (
	"fmt"
	"io"

	"github.com/tomasz-trela/backend-thread-weaver/core"
)

// FormatTimestamp renders seconds as an SRT-style "HH:MM:SS,mmm" timestamp.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60
	millis := int((seconds - float64(int(seconds))) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// WriteSRT writes aligned segments as SubRip subtitles, one cue per segment,
// with the speaker label and attribution method prefixed to the text. Useful
// for eyeballing alignment quality against the source recording.
func WriteSRT(w io.Writer, segments []core.AlignedSegment) error {
	for i, segment := range segments {
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s %s - %s\n\n",
			i+1,
			FormatTimestamp(segment.Start),
			FormatTimestamp(segment.End),
			segment.Method,
			segment.SpeakerLabel,
			segment.Text,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
