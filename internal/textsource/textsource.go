package textsource

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Snippet is an immutable block of text lines with the index of the line
// carrying the highlight phrase. Shared read-only across frames.
type Snippet struct {
	Lines          []string
	HighlightIndex int
}

// Failure marks an invalid or insufficient response from a text source.
// Recoverable: the caller retries or demotes to the random source.
type Failure struct {
	Source string
	Reason string
	Err    error
}

func (e *Failure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("text source %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("text source %s: %s", e.Source, e.Reason)
}

func (e *Failure) Unwrap() error { return e.Err }

// Source produces snippets guaranteed to contain the highlight phrase as a
// literal substring of Lines[HighlightIndex], with at least minLines lines.
type Source interface {
	Generate(highlight string, minLines, maxLines int) (*Snippet, error)
	Name() string
}

const fallbackChars = "abcdefghijklmnopqrstuvwxyz"

// RandomSource generates filler text locally. It never fails and serves as
// the demotion target when an AI provider keeps misbehaving.
type RandomSource struct {
	rng *rand.Rand
}

func NewRandomSource() *RandomSource {
	return &RandomSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *RandomSource) Name() string { return "random" }

func (s *RandomSource) Generate(highlight string, minLines, maxLines int) (*Snippet, error) {
	if minLines < 1 {
		minLines = 1
	}
	if maxLines < minLines {
		maxLines = minLines
	}
	numLines := minLines + s.rng.Intn(maxLines-minLines+1)
	highlightIndex := s.rng.Intn(numLines)

	lines := make([]string, numLines)
	for i := range lines {
		if i == highlightIndex {
			before := s.randomWords(2 + s.rng.Intn(5)) // 2-6 words
			after := s.randomWords(2 + s.rng.Intn(5))
			lines[i] = before + " " + highlight + " " + after
			continue
		}
		lines[i] = s.randomWords(6 + s.rng.Intn(7)) // 6-12 words
	}
	return &Snippet{Lines: lines, HighlightIndex: highlightIndex}, nil
}

func (s *RandomSource) randomWords(n int) string {
	words := make([]string, n)
	for i := range words {
		length := 3 + s.rng.Intn(6) // 3-8 letters
		var b strings.Builder
		for j := 0; j < length; j++ {
			b.WriteByte(fallbackChars[s.rng.Intn(len(fallbackChars))])
		}
		words[i] = b.String()
	}
	return strings.Join(words, " ")
}
