package prompts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func writeStore(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompts.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testStore() []Prompt {
	return []Prompt{
		{Topic: "Artificial Intelligence", Style: "educational", Length: "medium"},
		{Topic: "Quantum Computing", Style: "educational", Length: "short"},
		{Topic: "Deep Sea Exploration", Style: "narrative", Length: "long"},
		{Topic: "Volcanoes"},
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeStore(t, `[
		{"topic": "Artificial Intelligence", "style": "educational", "length": "medium"},
		{"topic": "Quantum Computing"}
	]`)

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Artificial Intelligence", entries[0].Topic)
	require.Equal(t, "Quantum Computing", entries[1].Topic)
	require.Empty(t, entries[1].Style, "unset fields stay empty until selection")
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "empty list", content: `[]`},
		{name: "not an array", content: `{"prompts": []}`},
		{name: "invalid JSON", content: `[{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeStore(t, tt.content)
			_, err := Load(path)
			require.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})
}

func TestSelect_DayOfYear(t *testing.T) {
	t.Parallel()

	// 2026-02-01 is the 32nd day of the year.
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	entries := testStore()

	p, position := Select(entries, 0, clock)

	// 32 wraps to position 4 in a 4-entry store.
	require.Equal(t, 4, position)
	require.Equal(t, "Volcanoes", p.Topic)
}

func TestSelect_DayOfYearFirstOfJanuary(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	entries := testStore()

	p, position := Select(entries, 0, clock)

	require.Equal(t, 1, position)
	require.Equal(t, "Artificial Intelligence", p.Topic)
}

func TestSelect_ExplicitIndexVerbatim(t *testing.T) {
	t.Parallel()

	// The clock would pick day 32; an explicit index must win.
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	entries := testStore()

	p, position := Select(entries, 2, clock)

	require.Equal(t, 2, position)
	require.Equal(t, "Quantum Computing", p.Topic)
}

func TestSelect_Wrapping(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	entries := testStore()

	tests := []struct {
		name     string
		index    int
		position int
		topic    string
	}{
		{name: "past the end wraps", index: 5, position: 1, topic: "Artificial Intelligence"},
		{name: "exactly the length", index: 4, position: 4, topic: "Volcanoes"},
		{name: "two cycles out", index: 10, position: 2, topic: "Quantum Computing"},
		{name: "negative wraps back", index: -1, position: 3, topic: "Deep Sea Exploration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, position := Select(entries, tt.index, clock)
			require.Equal(t, tt.position, position)
			require.Equal(t, tt.topic, p.Topic)
		})
	}
}

func TestSelect_FillsDefaults(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	p, _ := Select(testStore(), 4, clock)

	require.Equal(t, "Volcanoes", p.Topic)
	require.Equal(t, DefaultStyle, p.Style)
	require.Equal(t, DefaultLength, p.Length)
}

func TestResolve_FallsBackOnMissingStore(t *testing.T) {
	clock := clockwork.NewFakeClock()

	p := Resolve(logger, filepath.Join(t.TempDir(), "nope.json"), 0, clock)

	require.Equal(t, Default(), p)
}

func TestResolve_FallsBackOnEmptyTopic(t *testing.T) {
	clock := clockwork.NewFakeClock()
	path := writeStore(t, `[{"style": "educational"}]`)

	p := Resolve(logger, path, 1, clock)

	require.Equal(t, Default(), p)
}

func TestResolve_SelectsFromStore(t *testing.T) {
	clock := clockwork.NewFakeClock()
	path := writeStore(t, `[
		{"topic": "Plate Tectonics"},
		{"topic": "Black Holes", "style": "narrative"}
	]`)

	p := Resolve(logger, path, 2, clock)

	require.Equal(t, "Black Holes", p.Topic)
	require.Equal(t, "narrative", p.Style)
	require.Equal(t, DefaultLength, p.Length)
}
