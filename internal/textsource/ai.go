package textsource

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// Availability captures which AI providers are usable. It is probed once at
// process start and passed down explicitly instead of being read from
// ambient global state.
type Availability struct {
	MistralKey string
	GeminiKey  string
}

// Probe reads provider credentials from the environment.
func Probe() Availability {
	return Availability{
		MistralKey: strings.TrimSpace(os.Getenv("MISTRAL_API_KEY")),
		GeminiKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
	}
}

func (a Availability) MistralAvailable() bool { return a.MistralKey != "" }
func (a Availability) GeminiAvailable() bool  { return a.GeminiKey != "" }

// Select returns the source for the requested provider, or the random
// source when AI is disabled or the provider's credentials are missing.
func (a Availability) Select(aiEnabled bool, provider string) Source {
	if aiEnabled {
		switch provider {
		case "mistral":
			if a.MistralAvailable() {
				return NewMistralSource(a.MistralKey)
			}
			fmt.Println("[!] Mistral запрошен, но MISTRAL_API_KEY не задан. Используется случайный текст.")
		case "gemini":
			if a.GeminiAvailable() {
				return NewGeminiSource(a.GeminiKey)
			}
			fmt.Println("[!] Gemini запрошен, но GEMINI_API_KEY не задан. Используется случайный текст.")
		}
	}
	return NewRandomSource()
}

func buildPrompt(highlight string, minLines, maxLines int, rng *rand.Rand) string {
	target := minLines + rng.Intn(maxLines-minLines+1)
	return fmt.Sprintf(
		"Generate a text block of approximately %d distinct lines (aim for at least %d). "+
			"One of the lines MUST contain the exact phrase: '%s'. "+
			"The surrounding text should be thematically related to '%s' (e.g. fantasy, power, dragons, leadership). "+
			"Ensure the phrase '%s' fits naturally within its line. "+
			"Format the output ONLY as the text lines, each separated by a single newline character. "+
			"Do not add any extra explanations or formatting.",
		target, minLines, highlight, highlight, highlight,
	)
}

// parseSnippet validates a raw model response against the snippet contract:
// enough non-empty lines and the phrase present verbatim in one of them.
func parseSnippet(source, content, highlight string, minLines int) (*Snippet, error) {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < minLines {
		return nil, &Failure{Source: source, Reason: fmt.Sprintf("returned %d valid lines, minimum is %d", len(lines), minLines)}
	}
	for i, line := range lines {
		if strings.Contains(line, highlight) {
			return &Snippet{Lines: lines, HighlightIndex: i}, nil
		}
	}
	return nil, &Failure{Source: source, Reason: fmt.Sprintf("response does not contain the exact phrase %q", highlight)}
}
