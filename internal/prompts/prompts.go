package prompts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"
)

// Prompt drives one run of the pipeline.
type Prompt struct {
	Topic  string `json:"topic"`
	Style  string `json:"style"`
	Length string `json:"length"`
}

const (
	DefaultStyle  = "educational"
	DefaultLength = "medium"
)

// Default returns the fallback prompt used when the prompt store cannot
// be read.
func Default() Prompt {
	return Prompt{
		Topic:  "Artificial Intelligence",
		Style:  DefaultStyle,
		Length: DefaultLength,
	}
}

// Load reads a prompt store: a JSON array of prompt objects.
func Load(path string) ([]Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var entries []Prompt
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("prompts file must contain a non-empty list of prompt objects")
	}

	return entries, nil
}

// Select picks a prompt by 1-based index. Index 0 means unset: the
// current day of year (1-366) is used instead, so a daily schedule walks
// the store chronologically. Returns the prompt and the effective
// 1-based position within the store.
func Select(entries []Prompt, index int, clock clockwork.Clock) (Prompt, int) {
	if index == 0 {
		index = clock.Now().YearDay()
	}

	// 1-based to 0-based with floored modulo; indexes past the end wrap
	// around and zero or negative indexes wrap back from the end.
	n := len(entries)
	i := ((index-1)%n + n) % n

	p := entries[i]
	if p.Style == "" {
		p.Style = DefaultStyle
	}
	if p.Length == "" {
		p.Length = DefaultLength
	}

	return p, i + 1
}

// Resolve loads the store and selects a prompt, falling back to the
// default prompt when the store cannot be used. A run is never failed
// over a bad prompt store.
func Resolve(log *slog.Logger, path string, index int, clock clockwork.Clock) Prompt {
	entries, err := Load(path)
	if err != nil {
		log.Error("Failed to load prompt store, using default prompt",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return Default()
	}

	p, position := Select(entries, index, clock)
	if p.Topic == "" {
		log.Warn("Selected prompt has no topic, using default prompt",
			slog.Int("prompt_number", position))
		return Default()
	}

	log.Info("Loaded prompt",
		slog.Int("prompt_number", position),
		slog.String("topic", p.Topic),
		slog.String("style", p.Style),
		slog.String("length", p.Length))
	return p
}
