package script

import (
	"regexp"
	"strings"
)

// Scene is one renderable unit of a script: a paragraph with its
// bracketed scene description, parenthesized visual cues, and the
// narration text left once both are stripped.
type Scene struct {
	Index       int
	Description string
	VisualCues  []string
	Narration   string
}

const DefaultSceneDescription = "General scene"

var (
	sceneDescPattern = regexp.MustCompile(`\[(.*?)\]`)
	visualCuePattern = regexp.MustCompile(`\((.*?)\)`)
)

// ExtractScenes parses a generated script into scenes. Paragraphs are
// separated by blank lines. A paragraph with no narration left after
// stripping markup is dropped. A script yielding no scenes at all
// becomes a single general scene carrying the whole script, so
// downstream stages always have work.
func ExtractScenes(scriptText string) []Scene {
	paragraphs := strings.Split(scriptText, "\n\n")
	var scenes []Scene

	for _, para := range paragraphs {
		if strings.TrimSpace(para) == "" {
			continue
		}

		description := DefaultSceneDescription
		if m := sceneDescPattern.FindStringSubmatch(para); m != nil {
			description = m[1]
		}

		var cues []string
		for _, m := range visualCuePattern.FindAllStringSubmatch(para, -1) {
			cues = append(cues, m[1])
		}

		narration := sceneDescPattern.ReplaceAllString(para, "")
		narration = strings.TrimSpace(visualCuePattern.ReplaceAllString(narration, ""))
		if narration == "" {
			continue
		}

		scenes = append(scenes, Scene{
			Index:       len(scenes),
			Description: description,
			VisualCues:  cues,
			Narration:   narration,
		})
	}

	if len(scenes) == 0 {
		trimmed := strings.TrimSpace(scriptText)
		if trimmed == "" {
			return nil
		}
		scenes = append(scenes, Scene{
			Description: DefaultSceneDescription,
			Narration:   trimmed,
		})
	}

	return scenes
}

// WordCount counts whitespace-separated words, the measure used for
// pacing and duration estimates throughout the pipeline.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
