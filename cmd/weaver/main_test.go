package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/tomasz-trela/backend-thread-weaver/core"
	"github.com/tomasz-trela/backend-thread-weaver/ingestion"
	"github.com/tomasz-trela/backend-thread-weaver/storage/badger"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validSpeakerJSON = `[[0.0, 2.0, "SPEAKER_00"], [2.0, 4.0, "SPEAKER_01"]]`

const validWhisperJSON = `{
	"language": "en",
	"segments": [
		{"start": 0.0, "end": 2.0, "text": "hello there"},
		{"start": 2.0, "end": 4.0, "text": "general greeting"}
	]
}`

func TestLoadAlignmentInputs(t *testing.T) {
	t.Run("valid files parse", func(t *testing.T) {
		speakerPath := writeTempFile(t, "speakers.json", validSpeakerJSON)
		whisperPath := writeTempFile(t, "whisper.json", validWhisperJSON)

		turns, transcription, err := loadAlignmentInputs(speakerPath, whisperPath)
		require.NoError(t, err)

		require.Len(t, turns, 2)
		assert.Equal(t, core.SpeakerTurn{Start: 0, End: 2, Label: "SPEAKER_00"}, turns[0])
		assert.Equal(t, core.SpeakerTurn{Start: 2, End: 4, Label: "SPEAKER_01"}, turns[1])

		assert.Equal(t, "en", transcription.Language)
		require.Len(t, transcription.Segments, 2)
		assert.Equal(t, "hello there", transcription.Segments[0].Text)
	})

	t.Run("missing speaker file fails", func(t *testing.T) {
		whisperPath := writeTempFile(t, "whisper.json", validWhisperJSON)

		_, _, err := loadAlignmentInputs("/nonexistent/speakers.json", whisperPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "speaker file")
	})

	t.Run("missing whisper file fails", func(t *testing.T) {
		speakerPath := writeTempFile(t, "speakers.json", validSpeakerJSON)

		_, _, err := loadAlignmentInputs(speakerPath, "/nonexistent/whisper.json")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "whisper file")
	})

	t.Run("speaker entry with wrong arity fails", func(t *testing.T) {
		speakerPath := writeTempFile(t, "speakers.json", `[[0.0, 2.0]]`)
		whisperPath := writeTempFile(t, "whisper.json", validWhisperJSON)

		_, _, err := loadAlignmentInputs(speakerPath, whisperPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected [start, end, label]")
	})

	t.Run("speaker entry with wrong types fails", func(t *testing.T) {
		speakerPath := writeTempFile(t, "speakers.json", `[["zero", 2.0, "SPEAKER_00"]]`)
		whisperPath := writeTempFile(t, "whisper.json", validWhisperJSON)

		_, _, err := loadAlignmentInputs(speakerPath, whisperPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected [number, number, string]")
	})

	t.Run("malformed whisper JSON fails", func(t *testing.T) {
		speakerPath := writeTempFile(t, "speakers.json", validSpeakerJSON)
		whisperPath := writeTempFile(t, "whisper.json", `{"segments": "nope"}`)

		_, _, err := loadAlignmentInputs(speakerPath, whisperPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "whisper file")
	})
}

func TestParseDateFlag(t *testing.T) {
	contextWithDate := func(value string) *cli.Context {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		set.String("date", "", "")
		if value != "" {
			require.NoError(t, set.Set("date", value))
		}
		return cli.NewContext(cli.NewApp(), set, nil)
	}

	t.Run("empty flag yields zero time", func(t *testing.T) {
		date, err := parseDateFlag(contextWithDate(""), "date")
		require.NoError(t, err)
		assert.True(t, date.IsZero())
	})

	t.Run("valid date parses", func(t *testing.T) {
		date, err := parseDateFlag(contextWithDate("2025-03-15"), "date")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), date)
	})

	t.Run("invalid date fails", func(t *testing.T) {
		_, err := parseDateFlag(contextWithDate("15/03/2025"), "date")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "YYYY-MM-DD")
	})
}

func TestExportCommand(t *testing.T) {
	speakerPath := writeTempFile(t, "speakers.json", validSpeakerJSON)
	whisperPath := writeTempFile(t, "whisper.json", validWhisperJSON)
	outputPath := filepath.Join(t.TempDir(), "out.srt")

	app := &cli.App{
		Name: "weaver",
		Commands: []*cli.Command{
			{
				Name:   "export",
				Action: exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "speaker-file", Required: true},
					&cli.StringFlag{Name: "whisper-file", Required: true},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}},
				},
			},
		},
	}

	err := app.Run([]string{"weaver", "export",
		"--speaker-file", speakerPath,
		"--whisper-file", whisperPath,
		"--output", outputPath,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)

	content := string(data)
	assert.True(t, strings.HasPrefix(content, "1\n"))
	assert.Contains(t, content, "00:00:00,000 --> 00:00:02,000")
	assert.Contains(t, content, "SPEAKER_00")
	assert.Contains(t, content, "hello there")
	assert.Contains(t, content, "SPEAKER_01")
	assert.Contains(t, content, "general greeting")
}

func TestResolveImportSpeakers(t *testing.T) {
	ctx := context.Background()

	_, speakerRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		speakerRepo.Close()
		backend.Close()
	})

	segments := []core.AlignedSegment{
		{Start: 0, End: 2, Text: "first", SpeakerLabel: "SPEAKER_00"},
		{Start: 2, End: 4, Text: "second", SpeakerLabel: "SPEAKER_01"},
	}

	t.Run("explicit speaker list maps by index", func(t *testing.T) {
		conversation := &core.Conversation{SpeakerIds: []core.ID{7, 8}}

		resolved, err := resolveImportSpeakers(ctx, speakerRepo, conversation, segments)
		require.NoError(t, err)
		assert.Equal(t, core.ID(7), resolved["SPEAKER_00"])
		assert.Equal(t, core.ID(8), resolved["SPEAKER_01"])
	})

	t.Run("missing mappings create implicit speakers", func(t *testing.T) {
		conversation := &core.Conversation{SpeakerIds: []core.ID{7}}

		resolved, err := resolveImportSpeakers(ctx, speakerRepo, conversation, segments)
		require.NoError(t, err)
		assert.Equal(t, core.ID(7), resolved["SPEAKER_00"])
		require.NotZero(t, resolved["SPEAKER_01"])

		speaker, err := speakerRepo.FindSpeakerByName(ctx, "SPEAKER_01", ingestion.ImplicitSpeakerSurname)
		require.NoError(t, err)
		assert.Equal(t, resolved["SPEAKER_01"], speaker.Id)
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: tc.input,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		testCases := []string{
			"DEBUG",
			"Info",
			"WaRn",
			"ERROR",
		}

		for _, tc := range testCases {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
		assert.Contains(t, err.Error(), "invalid")
	})

	t.Run("default log level is info", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				level := c.String("log-level")
				assert.Equal(t, "info", level)
				return nil
			},
		}

		err := app.Run([]string{"test"})
		require.NoError(t, err)
	})
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
