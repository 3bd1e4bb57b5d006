package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
	"quizion-service/internal/domain"
)

const (
	defaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel          = "gemini-1.5-flash-latest"
	defaultConnectTimeout = 20 * time.Second
	defaultReadTimeout    = 60 * time.Second
)

// harmCategories all get the same moderate safety threshold; quizzes have no
// business producing anything near the line.
var harmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// Options configures a Client. Zero values fall back to production defaults.
type Options struct {
	APIKey         string
	Model          string
	BaseURL        string // overridable for tests
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// Client issues generateContent calls against the generative-language
// backend. It performs exactly one outbound request per generation and
// never retries; callers decide whether a failed attempt is worth repeating.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	sf         singleflight.Group
}

func NewClient(opts Options) *Client {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	return &Client{
		httpClient: &http.Client{
			// Overall deadline covers the read phase; the dialer bounds the
			// connect phase separately so a dead host fails fast.
			Timeout: opts.ReadTimeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: opts.ConnectTimeout}).DialContext,
				TLSHandshakeTimeout: opts.ConnectTimeout,
			},
		},
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: opts.BaseURL,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopK             int     `json:"topK"`
	TopP             float64 `json:"topP"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMIMEType string  `json:"response_mime_type"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// Generate builds the prompt-driven request, posts it once, and returns the
// raw envelope body for a 2xx response. Non-2xx responses become a
// *BackendError carrying the provider's message; transport failures become a
// *NetworkError.
func (c *Client) Generate(ctx context.Context, topic string, difficulty domain.Difficulty, count int, stats map[string]domain.TopicStats) ([]byte, error) {
	body, err := json.Marshal(buildGenerateRequest(topic, difficulty, count, stats))
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	url := c.baseURL + "/models/" + c.model + ":generateContent?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BackendError{StatusCode: resp.StatusCode, Message: parseErrorMessage(respBody)}
	}
	return respBody, nil
}

// Questions is the composed pipeline: generate, extract the array payload,
// decode and validate the question list. Concurrent calls for the same
// topic/difficulty/count collapse onto a single outbound request.
func (c *Client) Questions(ctx context.Context, topic string, difficulty domain.Difficulty, count int, stats map[string]domain.TopicStats) ([]domain.QuizQuestion, error) {
	key := fmt.Sprintf("%s|%s|%d", topic, difficulty, count)
	result, err, shared := c.sf.Do(key, func() (interface{}, error) {
		envelope, err := c.Generate(ctx, topic, difficulty, count, stats)
		if err != nil {
			return nil, err
		}
		arrayJSON, err := Extract(envelope)
		if err != nil {
			return nil, err
		}
		return DecodeQuestions(arrayJSON)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Printf("genai: coalesced duplicate generation for %q", key)
	}
	return result.([]domain.QuizQuestion), nil
}

func buildGenerateRequest(topic string, difficulty domain.Difficulty, count int, stats map[string]domain.TopicStats) generateRequest {
	settings := make([]safetySetting, 0, len(harmCategories))
	for _, category := range harmCategories {
		settings = append(settings, safetySetting{Category: category, Threshold: "BLOCK_MEDIUM_AND_ABOVE"})
	}
	return generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(topic, difficulty, count, stats)}}}},
		GenerationConfig: generationConfig{
			Temperature:      0.8,
			TopK:             1,
			TopP:             0.95,
			MaxOutputTokens:  4096,
			ResponseMIMEType: "application/json",
		},
		SafetySettings: settings,
	}
}

// parseErrorMessage digs the human-readable message out of the provider's
// error envelope, falling back to the raw body.
func parseErrorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	if len(body) == 0 {
		return "unknown error (empty error body)"
	}
	return string(body)
}
