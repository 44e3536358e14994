// Copyright 2025 Tomasz Trela
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/tomasz-trela/backend-thread-weaver/ai"
	"github.com/tomasz-trela/backend-thread-weaver/core"
)

// Client talks to a whisper-style speech service exposing transcription and
// diarization endpoints. It implements both ai.Transcriber and ai.Diarizer.
//
// The service handle is verified lazily: the first upload, from whichever
// goroutine gets there first, probes the service before sending audio.
type Client struct {
	host       string
	model      string
	httpClient *http.Client
	logger     *slog.Logger

	readyOnce sync.Once
	readyErr  error
}

// newClient is an internal constructor that returns the concrete type.
func newClient(config *ai.Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		host:       config.SpeechHost,
		model:      config.TranscriptionModel,
		httpClient: &http.Client{Timeout: config.SpeechTimeout},
		logger:     slog.Default().With("component", "speech-client"),
	}, nil
}

// NewTranscriber creates a transcriber backed by the speech service.
//
// Returns ai.Transcriber interface to enforce abstraction.
func NewTranscriber(config *ai.Config) (ai.Transcriber, error) {
	return newClient(config)
}

// NewDiarizer creates a diarizer backed by the speech service.
//
// Returns ai.Diarizer interface to enforce abstraction.
func NewDiarizer(config *ai.Config) (ai.Diarizer, error) {
	return newClient(config)
}

// transcriptionResponse mirrors the verbose_json payload of
// whisper-compatible /audio/transcriptions endpoints.
type transcriptionResponse struct {
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// diarizationResponse mirrors the payload of the /audio/diarization endpoint.
type diarizationResponse struct {
	Segments []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Speaker string  `json:"speaker"`
	} `json:"segments"`
}

// Transcribe uploads the audio file and returns its timed transcript.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (*core.Transcription, error) {
	c.logger.Debug("transcribing audio", "path", audioPath, "model", c.model)

	fields := map[string]string{
		"model":           c.model,
		"response_format": "verbose_json",
	}
	body, err := c.postAudio(ctx, c.host+"/audio/transcriptions", audioPath, fields)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse transcription response: %w", err)
	}

	transcription := &core.Transcription{
		Language: parsed.Language,
		Segments: make([]core.TranscriptSegment, 0, len(parsed.Segments)),
	}
	for _, segment := range parsed.Segments {
		transcription.Segments = append(transcription.Segments, core.TranscriptSegment{
			Start: segment.Start,
			End:   segment.End,
			Text:  segment.Text,
		})
	}

	c.logger.Debug("transcription complete",
		"language", transcription.Language,
		"segments", len(transcription.Segments))
	return transcription, nil
}

// Diarize uploads the audio file and returns the detected speaker turns.
func (c *Client) Diarize(ctx context.Context, audioPath string) ([]core.SpeakerTurn, error) {
	c.logger.Debug("diarizing audio", "path", audioPath)

	body, err := c.postAudio(ctx, c.host+"/audio/diarization", audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("diarization request: %w", err)
	}

	var parsed diarizationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse diarization response: %w", err)
	}

	turns := make([]core.SpeakerTurn, 0, len(parsed.Segments))
	for _, segment := range parsed.Segments {
		turns = append(turns, core.SpeakerTurn{
			Start: segment.Start,
			End:   segment.End,
			Label: segment.Speaker,
		})
	}

	c.logger.Debug("diarization complete", "turns", len(turns))
	return turns, nil
}

// ensureReady probes the speech service before the first upload. The probe
// runs once per client; concurrent first calls share its outcome. Any HTTP
// response counts as reachable, since per-model errors surface on the upload
// itself.
func (c *Client) ensureReady(ctx context.Context) error {
	c.readyOnce.Do(func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/models", nil)
		if err != nil {
			c.readyErr = fmt.Errorf("create readiness request: %w", err)
			return
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.readyErr = fmt.Errorf("speech service unreachable: %w", err)
			return
		}
		resp.Body.Close()
		c.logger.Debug("speech service ready", "host", c.host, "status", resp.StatusCode)
	})
	return c.readyErr
}

// postAudio uploads the audio file as a multipart form to the given endpoint
// and returns the response body on HTTP 200.
func (c *Client) postAudio(ctx context.Context, url, audioPath string, fields map[string]string) ([]byte, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy audio into form: %w", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("speech service error", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("speech service returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
