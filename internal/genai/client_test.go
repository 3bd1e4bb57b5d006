package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizion-service/internal/domain"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		ConnectTimeout: time.Second,
		ReadTimeout:    2 * time.Second,
	})
}

func successEnvelope(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{
				"finishReason": "STOP",
				"content":      map[string]any{"parts": []map[string]any{{"text": text}}},
			},
		},
	})
	return string(body)
}

func TestGenerateBuildsPromptAndParameters(t *testing.T) {
	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.Contains(r.URL.String(), ":generateContent") || r.URL.Query().Get("key") != "test-key" {
			t.Errorf("unexpected URL %s", r.URL.String())
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, successEnvelope(sampleArray))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	stats := map[string]domain.TopicStats{
		"Science": {Correct: 1, Total: 5},
		"History": {Correct: 4, Total: 4},
	}
	if _, err := client.Generate(context.Background(), "Science", domain.DifficultyHard, 7, stats); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(captured.Contents) != 1 || len(captured.Contents[0].Parts) != 1 {
		t.Fatalf("unexpected contents shape: %+v", captured.Contents)
	}
	prompt := captured.Contents[0].Parts[0].Text
	for _, want := range []string{
		"exactly 7 multiple-choice quiz questions",
		"'Science'",
		"'Hard'",
		"Science (1:5)",
		"History (4:4)",
		`"correctAnswerIndex"`,
		"Only output the JSON array",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}

	if captured.GenerationConfig.Temperature != 0.8 || captured.GenerationConfig.TopP != 0.95 {
		t.Fatalf("unexpected generation config: %+v", captured.GenerationConfig)
	}
	if captured.GenerationConfig.MaxOutputTokens != 4096 || captured.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Fatalf("unexpected generation config: %+v", captured.GenerationConfig)
	}
	if len(captured.SafetySettings) != 4 {
		t.Fatalf("expected 4 safety settings, got %d", len(captured.SafetySettings))
	}
	for _, setting := range captured.SafetySettings {
		if setting.Threshold != "BLOCK_MEDIUM_AND_ABOVE" {
			t.Fatalf("unexpected threshold %q", setting.Threshold)
		}
	}
}

func TestPromptContextCapsAtFiveWeakestTopics(t *testing.T) {
	stats := make(map[string]domain.TopicStats)
	for i := 0; i < 8; i++ {
		// Higher i means higher accuracy.
		stats[fmt.Sprintf("Topic%d", i)] = domain.TopicStats{Correct: i, Total: 8}
	}
	prompt := buildPrompt("Science", domain.DifficultyMedium, 5, stats)

	for i := 0; i < 5; i++ {
		if !strings.Contains(prompt, fmt.Sprintf("Topic%d (", i)) {
			t.Fatalf("expected weak Topic%d in context:\n%s", i, prompt)
		}
	}
	for i := 5; i < 8; i++ {
		if strings.Contains(prompt, fmt.Sprintf("Topic%d (", i)) {
			t.Fatalf("strong Topic%d should be dropped from context:\n%s", i, prompt)
		}
	}
}

func TestPromptWithoutStatsOmitsContext(t *testing.T) {
	prompt := buildPrompt("Science", domain.DifficultyEasy, 3, nil)
	if strings.Contains(prompt, "current performance") {
		t.Fatalf("expected no performance context:\n%s", prompt)
	}
}

func TestGenerateBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"quota exceeded"}}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), "Science", domain.DifficultyMedium, 5, nil)
	var backend *BackendError
	if !errors.As(err, &backend) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if backend.StatusCode != http.StatusTooManyRequests || backend.Message != "quota exceeded" {
		t.Fatalf("unexpected backend error: %+v", backend)
	}
}

func TestGenerateBackendErrorFallsBackToRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream exploded")
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), "Science", domain.DifficultyMedium, 5, nil)
	var backend *BackendError
	if !errors.As(err, &backend) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if backend.Message != "upstream exploded" {
		t.Fatalf("expected raw body fallback, got %q", backend.Message)
	}
}

func TestGenerateNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	_, err := newTestClient(server.URL).Generate(context.Background(), "Science", domain.DifficultyMedium, 5, nil)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestQuestionsPipeline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, successEnvelope("```json\n"+sampleArray+"\n```"))
	}))
	defer server.Close()

	questions, err := newTestClient(server.URL).Questions(context.Background(), "Math", domain.DifficultyMedium, 1, nil)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectIndex != 1 {
		t.Fatalf("unexpected questions: %+v", questions)
	}
}
