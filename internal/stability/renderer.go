package stability

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/autoreel-labs/autoreel/internal/script"
)

// Style modifiers appended to every scene prompt. Unknown styles use
// the educational modifiers.
var stylePrompts = map[string]string{
	"educational":  "professional, clean, informative, high quality, detailed illustration",
	"entertaining": "vibrant, dynamic, engaging, colorful, high-energy visuals",
	"narrative":    "cinematic, atmospheric, storytelling, emotional, dramatic lighting",
	"technical":    "detailed, precise, diagrams, blueprints, technical illustrations",
}

// StylePrompt returns the visual style modifier for a content style.
func StylePrompt(style string) string {
	if p, ok := stylePrompts[style]; ok {
		return p
	}
	return stylePrompts["educational"]
}

// ScenePrompt combines a scene's description and visual cues with the
// style modifier into one image prompt.
func ScenePrompt(scene script.Scene, style string) string {
	description := scene.Description
	if len(scene.VisualCues) > 0 {
		description += ". " + strings.Join(scene.VisualCues, ". ")
	}
	return fmt.Sprintf("%s. %s", description, StylePrompt(style))
}

// ImageGenerator is the API surface the renderer needs; satisfied by
// *Client.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

// Renderer turns script scenes into numbered frame images.
type Renderer struct {
	generator ImageGenerator
	clock     clockwork.Clock
	delay     time.Duration
	width     int
	height    int
	log       *slog.Logger
}

func NewRenderer(log *slog.Logger, generator ImageGenerator, clock clockwork.Clock, delay time.Duration, width, height int) *Renderer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}
	return &Renderer{
		generator: generator,
		clock:     clock,
		delay:     delay,
		width:     width,
		height:    height,
		log:       log,
	}
}

// RenderScenes writes one PNG per scene under dir, named scene_000.png
// onward, and returns the paths in scene order. Requests are spaced by
// the configured delay to stay under the API rate limit. A failed
// render degrades to a placeholder frame instead of failing the run.
func (r *Renderer) RenderScenes(ctx context.Context, scenes []script.Scene, style, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create frames directory: %w", err)
	}

	paths := make([]string, 0, len(scenes))
	for i, scene := range scenes {
		prompt := ScenePrompt(scene, style)
		r.log.Info("Generating scene image",
			slog.Int("scene", i+1),
			slog.Int("total", len(scenes)),
			slog.String("prompt", truncate(prompt, 50)))

		path := filepath.Join(dir, fmt.Sprintf("scene_%03d.png", i))

		img, err := r.generator.GenerateImage(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.log.Error("Image generation failed, writing placeholder",
				slog.Int("scene", i+1),
				slog.String("error", err.Error()))
			if err := r.writePlaceholder(path); err != nil {
				return nil, err
			}
		} else if err := os.WriteFile(path, img, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write frame: %w", err)
		}

		paths = append(paths, path)

		// Rate limiting between requests; skipped after the last scene.
		if i < len(scenes)-1 && r.delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-r.clock.After(r.delay):
			}
		}
	}

	return paths, nil
}

// writePlaceholder renders a solid slate-blue frame so the slideshow
// keeps its timing when a scene image cannot be generated.
func (r *Renderer) writePlaceholder(path string) error {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	fill := color.RGBA{R: 73, G: 109, B: 137, A: 255}
	for y := 0; y < r.height; y++ {
		for x := 0; x < r.width; x++ {
			img.Set(x, y, fill)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create placeholder: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
