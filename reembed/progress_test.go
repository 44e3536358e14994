package reembed

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReembedMeter_ReportsAtInterval(t *testing.T) {
	var buf bytes.Buffer
	meter := newReembedMeter(&buf, 100, 10)

	meter.Advance(5)
	assert.Empty(t, buf.String(), "below interval, nothing reported")

	meter.Advance(5)
	assert.Contains(t, buf.String(), "10/100")

	meter.Advance(40)
	assert.Contains(t, buf.String(), "50/100")
	assert.Contains(t, buf.String(), "50.0%")
}

func TestReembedMeter_ClampsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	meter := newReembedMeter(&buf, 10, 1)

	meter.Advance(25)
	assert.Contains(t, buf.String(), "10/10")
	assert.Contains(t, buf.String(), "100.0%")
}

func TestReembedMeter_DonePrintsFinalLine(t *testing.T) {
	var buf bytes.Buffer
	meter := newReembedMeter(&buf, 7, 100)

	meter.Advance(3)
	assert.Empty(t, buf.String(), "interval never reached")

	elapsed := meter.Done()

	assert.Contains(t, buf.String(), "Reembedded 7/7 utterances")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.Greater(t, elapsed.Nanoseconds(), int64(0))
}

func TestReembedMeter_EmptyRun(t *testing.T) {
	var buf bytes.Buffer
	meter := newReembedMeter(&buf, 0, 10)

	meter.Done()
	assert.Contains(t, buf.String(), "0/0")
	assert.Contains(t, buf.String(), "0.0%")
}
