package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:9000/v1", cfg.SpeechHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "whisper-large-v3", cfg.TranscriptionModel)
	assert.Equal(t, 30*time.Minute, cfg.SpeechTimeout)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:9000/v1", cfg.SpeechHost)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.SpeechHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithSpeechHost("http://speech:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://speech:9090/v1", cfg.SpeechHost)
	})

	t.Run("with custom models", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("text-embedding-3-small"),
			WithTranscriptionModel("whisper-medium"),
		)

		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "whisper-medium", cfg.TranscriptionModel)
	})

	t.Run("with custom timeout", func(t *testing.T) {
		cfg := NewConfig(WithSpeechTimeout(5 * time.Minute))

		assert.Equal(t, 5*time.Minute, cfg.SpeechTimeout)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name           string
		embeddingHost  string
		speechHost     string
		expectedEmbed  string
		expectedSpeech string
	}{
		{
			name:           "already has /v1",
			embeddingHost:  "http://localhost:11434/v1",
			speechHost:     "http://localhost:9000/v1",
			expectedEmbed:  "http://localhost:11434/v1",
			expectedSpeech: "http://localhost:9000/v1",
		},
		{
			name:           "missing /v1",
			embeddingHost:  "http://localhost:11434",
			speechHost:     "http://localhost:9000",
			expectedEmbed:  "http://localhost:11434/v1",
			expectedSpeech: "http://localhost:9000/v1",
		},
		{
			name:           "has trailing slash",
			embeddingHost:  "http://localhost:11434/",
			speechHost:     "http://localhost:9000/",
			expectedEmbed:  "http://localhost:11434/v1",
			expectedSpeech: "http://localhost:9000/v1",
		},
		{
			name:           "empty hosts",
			embeddingHost:  "",
			speechHost:     "",
			expectedEmbed:  "",
			expectedSpeech: "",
		},
		{
			name:           "mixed formats",
			embeddingHost:  "http://embed:8080",
			speechHost:     "http://speech:9090/v1",
			expectedEmbed:  "http://embed:8080/v1",
			expectedSpeech: "http://speech:9090/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				EmbeddingHost: tt.embeddingHost,
				SpeechHost:    tt.speechHost,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expectedEmbed, cfg.EmbeddingHost)
			assert.Equal(t, tt.expectedSpeech, cfg.SpeechHost)
		})
	}
}

func TestConfigNormalize_Timeout(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()

	assert.Equal(t, 30*time.Minute, cfg.SpeechTimeout)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			EmbeddingHost:      "http://localhost:11434",
			SpeechHost:         "http://localhost:9000",
			EmbeddingModel:     "embeddinggemma",
			TranscriptionModel: "whisper-large-v3",
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()

		err := cfg.Validate()
		assert.NoError(t, err)

		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:9000/v1", cfg.SpeechHost)
	})

	t.Run("missing embedding host", func(t *testing.T) {
		cfg := valid()
		cfg.EmbeddingHost = ""

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "EmbeddingHost")
	})

	t.Run("missing speech host", func(t *testing.T) {
		cfg := valid()
		cfg.SpeechHost = ""

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "SpeechHost")
	})

	t.Run("missing embedding model", func(t *testing.T) {
		cfg := valid()
		cfg.EmbeddingModel = ""

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "EmbeddingModel")
	})

	t.Run("missing transcription model", func(t *testing.T) {
		cfg := valid()
		cfg.TranscriptionModel = ""

		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "TranscriptionModel")
	})
}

func TestConfigValidate_Integration(t *testing.T) {
	cfg := NewConfig()
	err := cfg.Validate()
	require.NoError(t, err)

	cfg = DefaultConfig()
	err = cfg.Validate()
	require.NoError(t, err)
}
