package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama3.2"
)

// OllamaService asks a local LLM served by Ollama to name the language of a
// text.
type OllamaService struct {
	model   string
	baseURL string
	client  *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func NewOllamaService(model, baseURL string) *OllamaService {
	if model == "" {
		model = DefaultOllamaModel
	}
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	return &OllamaService{
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (s *OllamaService) Name() string {
	return "ollama"
}

func (s *OllamaService) Detect(ctx context.Context, text string) (*Guess, error) {
	result := &Guess{Service: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	if strings.TrimSpace(text) == "" {
		return result, nil
	}

	jsonData, err := json.Marshal(ollamaRequest{
		Model:  s.model,
		Prompt: buildDetectPrompt(text),
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return result, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return result, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Sprintf("status %d", resp.StatusCode)
		return result, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		result.Error = fmt.Sprintf("invalid response: %v", err)
		return result, fmt.Errorf("failed to decode response: %w", err)
	}

	code, confidence, err := parseDetectResponse(ollamaResp.Response)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Code = code
	result.Confidence = confidence
	return result, nil
}

func buildDetectPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Identify the natural language of the following text.\n\n")
	sb.WriteString(fmt.Sprintf("%q\n\n", text))
	sb.WriteString(`Respond ONLY in JSON:
{
  "language": "<ISO 639-1 code>",
  "confidence": <number between 0 and 1>
}
`)
	return sb.String()
}

// thinkingBlockRe matches reasoning blocks some models emit before the
// answer, including one left open when the output was cut off.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<think>.*?</think>|<thinking>.*?</thinking>|(?:<think>|<thinking>).*$`,
)

// parseDetectResponse extracts a lower-case base language code and a
// confidence clamped to [0, 1].
func parseDetectResponse(response string) (string, float64, error) {
	response = strings.TrimSpace(thinkingBlockRe.ReplaceAllString(response, ""))

	var parsed struct {
		Language   string  `json:"language"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return "", 0, fmt.Errorf("failed to parse response as JSON: %w", err)
	}

	tag, err := language.Parse(strings.TrimSpace(parsed.Language))
	if err != nil {
		return "", 0, fmt.Errorf("invalid language %q: %w", parsed.Language, err)
	}
	base, _ := tag.Base()

	confidence := parsed.Confidence
	switch {
	case confidence < 0:
		confidence = 0
	case confidence > 1:
		confidence = 1
	}
	return base.String(), confidence, nil
}
