package textsource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

const (
	mistralEndpoint = "https://api.mistral.ai/v1/chat/completions"
	mistralModel    = "mistral-large-latest"
)

// MistralSource asks the Mistral chat API for themed snippet text.
// Docs: https://docs.mistral.ai/api/#tag/chat
type MistralSource struct {
	apiKey   string
	endpoint string
	client   *http.Client
	rng      *rand.Rand
}

func NewMistralSource(apiKey string) *MistralSource {
	return &MistralSource{
		apiKey:   apiKey,
		endpoint: mistralEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *MistralSource) Name() string { return "mistral" }

func (s *MistralSource) Generate(highlight string, minLines, maxLines int) (*Snippet, error) {
	payload := map[string]interface{}{
		"model": mistralModel,
		"messages": []map[string]string{
			{"role": "user", "content": buildPrompt(highlight, minLines, maxLines, s.rng)},
		},
		"temperature": 0.5,
		"max_tokens":  300,
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
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &Failure{Source: s.Name(), Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Failure{Source: s.Name(), Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Failure{Source: s.Name(), Reason: "decode response", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return nil, &Failure{Source: s.Name(), Reason: "empty choices"}
	}
	return parseSnippet(s.Name(), parsed.Choices[0].Message.Content, highlight, minLines)
}
