// Copyright 2025 Tomasz Trela
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/tomasz-trela/backend-thread-weaver/core"
)

// ErrDownloadDirRequired is returned when a fetcher is created without a
// download directory.
var ErrDownloadDirRequired = errors.New("download directory required")

// Fetcher resolves a conversation's remote media reference to a local audio
// file and returns its path.
type Fetcher interface {
	Fetch(ctx context.Context, mediaURL string, conversationID core.ID) (string, error)
}

// ExecFetcher downloads media with yt-dlp, extracting mp3 audio via ffmpeg.
// Both binaries must be on PATH.
type ExecFetcher struct {
	downloadDir string
	logger      *slog.Logger
}

// Option configures an ExecFetcher.
type Option func(*ExecFetcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *ExecFetcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
		return nil
	}
}

// NewExecFetcher creates a fetcher that stores downloads under downloadDir,
// creating the directory if needed.
func NewExecFetcher(downloadDir string, opts ...Option) (*ExecFetcher, error) {
	if downloadDir == "" {
		return nil, ErrDownloadDirRequired
	}
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download directory: %w", err)
	}

	f := &ExecFetcher{
		downloadDir: downloadDir,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// TargetPath returns the local audio path for a conversation.
func (f *ExecFetcher) TargetPath(conversationID core.ID) string {
	return filepath.Join(f.downloadDir, fmt.Sprintf("conversation_%d.mp3", conversationID))
}

// Fetch downloads the media and extracts mp3 audio. A previously downloaded
// file is reused, so re-processing a conversation skips the download.
func (f *ExecFetcher) Fetch(ctx context.Context, mediaURL string, conversationID core.ID) (string, error) {
	target := f.TargetPath(conversationID)

	if _, err := os.Stat(target); err == nil {
		f.logger.Info("reusing downloaded audio", "path", target)
		return target, nil
	}

	f.logger.Info("downloading media", "url", mediaURL, "path", target)

	// yt-dlp writes conversation_<id>.<ext> and the mp3 postprocessor
	// replaces the extension, landing on the target path.
	template := filepath.Join(f.downloadDir, fmt.Sprintf("conversation_%d.%%(ext)s", conversationID))

	// yt-dlp -f bestaudio/best -x --audio-format mp3 --audio-quality 192K -o template url
	cmd := exec.CommandContext(ctx, "yt-dlp",
		"-f", "bestaudio/best",
		"-x", "--audio-format", "mp3",
		"--audio-quality", "192K",
		"-o", template,
		mediaURL,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("yt-dlp: %w: %s", err, output)
	}

	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("yt-dlp finished but %s is missing: %w", target, err)
	}

	return target, nil
}
