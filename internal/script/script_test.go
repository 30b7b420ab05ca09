package script

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autoreel-labs/autoreel/internal/config"
	"github.com/autoreel-labs/autoreel/internal/prompts"
)

// stubLLM implements LLMClient for testing
type stubLLM struct {
	completeFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

func (s *stubLLM) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.completeFunc(ctx, systemPrompt, userPrompt)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())
	outputDir := filepath.Join(t.TempDir(), "run")

	content := "[Intro] Quantum computers use qubits.\n\nQubits hold superpositions."

	var gotSystem, gotUser string
	llm := &stubLLM{
		completeFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			gotSystem = systemPrompt
			gotUser = userPrompt
			return content, nil
		},
	}

	g := NewGenerator(log, llm, config.ScriptConfig{})
	res, err := g.Generate(t.Context(), prompts.Prompt{
		Topic:  "Quantum Computing",
		Style:  "educational",
		Length: "short",
	}, outputDir)
	require.NoError(t, err)

	require.Equal(t, systemPrompt, gotSystem)
	require.Contains(t, gotUser, "Quantum Computing")
	require.Contains(t, gotUser, "educational")
	require.Contains(t, gotUser, "approximately 300 words")

	require.Equal(t, filepath.Join(outputDir, "script.txt"), res.ScriptPath)
	written, err := os.ReadFile(res.ScriptPath)
	require.NoError(t, err)
	require.Equal(t, content, string(written))

	require.Equal(t, filepath.Join(outputDir, "script_metadata.json"), res.MetadataPath)
	metaJSON, err := os.ReadFile(res.MetadataPath)
	require.NoError(t, err)
	var meta Metadata
	require.NoError(t, json.Unmarshal(metaJSON, &meta))
	require.Equal(t, Metadata{
		Topic:                    "Quantum Computing",
		Style:                    "educational",
		TargetLength:             "short",
		WordCount:                8,
		EstimatedDurationSeconds: 3.2,
	}, meta)
	require.Equal(t, meta, res.Metadata)

	require.Equal(t, content, res.Script)
	require.Len(t, res.Scenes, 2)
	require.Equal(t, "Intro", res.Scenes[0].Description)
}

func TestGenerate_EmptyScript(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())

	llm := &stubLLM{
		completeFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "   \n", nil
		},
	}

	g := NewGenerator(log, llm, config.ScriptConfig{})
	res, err := g.Generate(t.Context(), prompts.Prompt{Topic: "Volcanoes"}, t.TempDir())
	require.ErrorIs(t, err, ErrEmptyScript)
	require.Nil(t, res)
}

func TestGenerate_CompletionError(t *testing.T) {
	t.Parallel()

	log := logger.With("test", t.Name())

	llm := &stubLLM{
		completeFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "", errors.New("rate limited")
		},
	}

	g := NewGenerator(log, llm, config.ScriptConfig{})
	res, err := g.Generate(t.Context(), prompts.Prompt{Topic: "Volcanoes"}, t.TempDir())
	require.ErrorContains(t, err, "script completion failed")
	require.Nil(t, res)
}

func TestWordTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		length string
		want   int
	}{
		{name: "Short", length: "short", want: 300},
		{name: "Medium", length: "medium", want: 600},
		{name: "Long", length: "long", want: 1200},
		{name: "Empty defaults to medium", length: "", want: 600},
		{name: "Unknown defaults to medium", length: "feature-film", want: 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, WordTarget(tt.length))
		})
	}
}
