package script

import "fmt"

const systemPrompt = "You are an expert content creator who specializes in creating engaging scripts."

const userPromptTemplate = `Create a %s script about %s.
The script should be approximately %d words and include:
- An engaging introduction
- Clear sections with appropriate headings
- A conclusion that summarizes key points

Format the script with:
- Scene descriptions in [brackets]
- Narration text as regular paragraphs
- Visual cues or B-roll suggestions in (parentheses)`

// Word targets per requested length. Unknown lengths fall back to the
// medium target.
const (
	wordsShort  = 300
	wordsMedium = 600
	wordsLong   = 1200
)

// WordTarget maps a prompt length to its target word count.
func WordTarget(length string) int {
	switch length {
	case "short":
		return wordsShort
	case "medium":
		return wordsMedium
	case "long":
		return wordsLong
	default:
		return wordsMedium
	}
}

func buildUserPrompt(topic, style string, wordTarget int) string {
	return fmt.Sprintf(userPromptTemplate, style, topic, wordTarget)
}
