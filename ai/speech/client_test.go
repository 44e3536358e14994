package speech

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasz-trela/backend-thread-weaver/ai"
	"github.com/tomasz-trela/backend-thread-weaver/core"
)

func writeTestAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0o644))
	return path
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := newClient(ai.NewConfig(ai.WithSpeechHost(serverURL)))
	require.NoError(t, err)
	return client
}

func TestClient_Transcribe(t *testing.T) {
	var gotModel, gotFormat string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models" {
			return
		}
		require.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")

		_, _, err := r.FormFile("file")
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"language": "en",
			"segments": [
				{"start": 0.0, "end": 2.5, "text": "hello there"},
				{"start": 2.5, "end": 5.0, "text": "general remark"}
			]
		}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	transcription, err := client.Transcribe(context.Background(), writeTestAudio(t))
	require.NoError(t, err)

	assert.Equal(t, "whisper-large-v3", gotModel)
	assert.Equal(t, "verbose_json", gotFormat)
	assert.Equal(t, "en", transcription.Language)
	require.Len(t, transcription.Segments, 2)
	assert.Equal(t, core.TranscriptSegment{Start: 0, End: 2.5, Text: "hello there"}, transcription.Segments[0])
	assert.Equal(t, core.TranscriptSegment{Start: 2.5, End: 5, Text: "general remark"}, transcription.Segments[1])
}

func TestClient_Diarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models" {
			return
		}
		require.Equal(t, "/v1/audio/diarization", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"segments": [
				{"start": 0.0, "end": 4.0, "speaker": "SPEAKER_00"},
				{"start": 4.5, "end": 8.0, "speaker": "SPEAKER_01"}
			]
		}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	turns, err := client.Diarize(context.Background(), writeTestAudio(t))
	require.NoError(t, err)

	require.Len(t, turns, 2)
	assert.Equal(t, core.SpeakerTurn{Start: 0, End: 4, Label: "SPEAKER_00"}, turns[0])
	assert.Equal(t, core.SpeakerTurn{Start: 4.5, End: 8, Label: "SPEAKER_01"}, turns[1])
}

func TestClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	_, err := client.Transcribe(context.Background(), writeTestAudio(t))
	assert.ErrorContains(t, err, "status 500")

	_, err = client.Diarize(context.Background(), writeTestAudio(t))
	assert.ErrorContains(t, err, "status 500")
}

func TestClient_MissingAudioFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	client := testClient(t, server.URL)

	_, err := client.Transcribe(context.Background(), "/no/such/file.mp3")
	assert.ErrorContains(t, err, "open audio file")
}

func TestClient_ReadinessProbe(t *testing.T) {
	t.Run("probes once across calls", func(t *testing.T) {
		var probes atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/v1/models" {
				probes.Add(1)
				return
			}
			_, _ = w.Write([]byte(`{"language": "en", "segments": []}`))
		}))
		defer server.Close()

		client := testClient(t, server.URL)
		audio := writeTestAudio(t)

		// Concurrent first use shares a single probe.
		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := client.Transcribe(context.Background(), audio)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		_, err := client.Transcribe(context.Background(), audio)
		require.NoError(t, err)

		assert.Equal(t, int32(1), probes.Load())
	})

	t.Run("unreachable service fails before upload", func(t *testing.T) {
		client := testClient(t, "http://localhost:1")

		_, err := client.Transcribe(context.Background(), writeTestAudio(t))
		assert.ErrorContains(t, err, "speech service unreachable")
	})
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Diarize(ctx, writeTestAudio(t))
	assert.Error(t, err)
}

func TestClient_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	_, err := client.Transcribe(context.Background(), writeTestAudio(t))
	assert.ErrorContains(t, err, "parse transcription response")
}
