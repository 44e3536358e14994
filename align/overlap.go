package align

// Overlap returns the length of the intersection of [start1,end1) and
// [start2,end2). Disjoint or merely touching intervals overlap by 0.
// The result is symmetric in the two intervals.
func Overlap(start1, end1, start2, end2 float64) float64 {
	overlap := min(end1, end2) - max(start1, start2)
	if overlap < 0 {
		return 0
	}
	return overlap
}

// minDuration guards the ratio denominators against degenerate zero-length
// intervals.
const minDuration = 1e-6

// OverlapScore scores how well a speaker turn covers a transcript segment as
// the product of both sides' overlap ratios, each capped at 1. The cap keeps
// the score from inflating when one interval is much shorter than the other.
func OverlapScore(segStart, segEnd, turnStart, turnEnd float64) float64 {
	overlap := Overlap(segStart, segEnd, turnStart, turnEnd)

	segDuration := max(segEnd-segStart, minDuration)
	turnDuration := max(turnEnd-turnStart, minDuration)

	segRatio := min(1.0, overlap/segDuration)
	turnRatio := min(1.0, overlap/turnDuration)

	return segRatio * turnRatio
}

// EstimateDuration estimates how long a piece of text plausibly took to speak,
// in seconds, from its word count and a words-per-minute rate.
func EstimateDuration(text string, wordsPerMinute float64) float64 {
	if wordsPerMinute <= 0 {
		return 0
	}
	return float64(wordCount(text)) / (wordsPerMinute / 60)
}

func wordCount(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\r':
			inWord = false
		default:
			if !inWord {
				count++
			}
			inWord = true
		}
	}
	return count
}
