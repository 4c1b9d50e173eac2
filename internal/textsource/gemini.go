package textsource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash-latest:generateContent"

// GeminiSource asks the Gemini generateContent API for themed snippet text.
// Docs: https://ai.google.dev/api/generate-content
type GeminiSource struct {
	apiKey   string
	endpoint string
	client   *http.Client
	rng      *rand.Rand
}

func NewGeminiSource(apiKey string) *GeminiSource {
	return &GeminiSource{
		apiKey:   apiKey,
		endpoint: geminiEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *GeminiSource) Name() string { return "gemini" }

func (s *GeminiSource) Generate(highlight string, minLines, maxLines int) (*Snippet, error) {
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{
				{"text": buildPrompt(highlight, minLines, maxLines, s.rng)},
			}},
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, &Failure{Source: s.Name(), Reason: "encode request", Err: err}
	}

	req, err := http.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, &Failure{Source: s.Name(), Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &Failure{Source: s.Name(), Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Failure{Source: s.Name(), Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Failure{Source: s.Name(), Reason: "decode response", Err: err}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, &Failure{Source: s.Name(), Reason: "empty candidates"}
	}
	return parseSnippet(s.Name(), parsed.Candidates[0].Content.Parts[0].Text, highlight, minLines)
}
