package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/autoreel-labs/autoreel/internal/config"
	"github.com/autoreel-labs/autoreel/internal/prompts"
)

// Narration pacing assumed for duration estimates: 150 words per minute.
const narrationWordsPerSecond = 2.5

// LLMClient is the completion interface every script provider satisfies.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

var ErrEmptyScript = errors.New("model returned an empty script")

// Metadata describes a generated script and is persisted next to it as
// script_metadata.json.
type Metadata struct {
	Topic                    string  `json:"topic"`
	Style                    string  `json:"style"`
	TargetLength             string  `json:"target_length"`
	WordCount                int     `json:"word_count"`
	EstimatedDurationSeconds float64 `json:"estimated_duration_seconds"`
}

// Result carries everything later stages need from script generation.
type Result struct {
	ScriptPath   string
	MetadataPath string
	Script       string
	Metadata     Metadata
	Scenes       []Scene
}

type Generator struct {
	llm LLMClient
	cfg config.ScriptConfig
	log *slog.Logger
}

func NewGenerator(log *slog.Logger, llm LLMClient, cfg config.ScriptConfig) *Generator {
	return &Generator{
		llm: llm,
		cfg: cfg,
		log: log,
	}
}

// Generate produces the narration script for a prompt and writes
// script.txt and script_metadata.json under outputDir.
func (g *Generator) Generate(ctx context.Context, p prompts.Prompt, outputDir string) (*Result, error) {
	target := WordTarget(p.Length)
	g.log.Info("Generating content script",
		slog.String("topic", p.Topic),
		slog.String("style", p.Style),
		slog.Int("target_words", target))

	content, err := g.llm.Complete(ctx, systemPrompt, buildUserPrompt(p.Topic, p.Style, target))
	if err != nil {
		return nil, fmt.Errorf("script completion failed: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyScript
	}

	words := WordCount(content)
	meta := Metadata{
		Topic:                    p.Topic,
		Style:                    p.Style,
		TargetLength:             p.Length,
		WordCount:                words,
		EstimatedDurationSeconds: float64(words) / narrationWordsPerSecond,
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	scriptPath := filepath.Join(outputDir, "script.txt")
	if err := os.WriteFile(scriptPath, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write script: %w", err)
	}

	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal script metadata: %w", err)
	}
	metadataPath := filepath.Join(outputDir, "script_metadata.json")
	if err := os.WriteFile(metadataPath, metaJSON, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write script metadata: %w", err)
	}

	g.log.Info("Script generated",
		slog.String("path", scriptPath),
		slog.Int("word_count", words),
		slog.Float64("estimated_duration_seconds", meta.EstimatedDurationSeconds))

	return &Result{
		ScriptPath:   scriptPath,
		MetadataPath: metadataPath,
		Script:       content,
		Metadata:     meta,
		Scenes:       ExtractScenes(content),
	}, nil
}
