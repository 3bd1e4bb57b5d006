package genai

import (
	"encoding/json"
	"strings"
)

// envelope mirrors the slice of the generateContent response we care about.
type envelope struct {
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	FinishReason string `json:"finishReason"`
	Content      *struct {
		Parts []part `json:"parts"`
	} `json:"content"`
}

// Extract pulls the generated JSON array out of a response envelope.
// The backend is told to emit a bare array via response_mime_type, but some
// configurations ignore that and wrap the payload in markdown fences, so the
// text is checked as-is first and fence-stripped second.
func Extract(body []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", ErrMalformedEnvelope
	}

	if env.PromptFeedback != nil && env.PromptFeedback.BlockReason != "" {
		return "", &BlockedContentError{Reason: env.PromptFeedback.BlockReason}
	}

	if len(env.Candidates) == 0 {
		return "", ErrMalformedEnvelope
	}
	first := env.Candidates[0]
	// MAX_TOKENS may still carry a complete array, so it is forwarded;
	// everything else abnormal is not worth parsing.
	if first.FinishReason != "" && first.FinishReason != "STOP" && first.FinishReason != "MAX_TOKENS" {
		return "", &IncompleteContentError{Reason: first.FinishReason}
	}
	if first.Content == nil || len(first.Content.Parts) == 0 {
		return "", ErrMalformedEnvelope
	}
	text := first.Content.Parts[0].Text
	if text == "" {
		return "", ErrMalformedEnvelope
	}

	trimmed := strings.TrimSpace(text)
	if arrayShaped(trimmed) {
		return trimmed, nil
	}

	stripped := stripFences(trimmed)
	if arrayShaped(stripped) {
		return stripped, nil
	}
	return "", &UnparsableContentError{RawText: text}
}

func arrayShaped(s string) bool {
	return strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")
}

// stripFences removes leading/trailing triple-backtick markers, tolerating a
// json language tag on the opening fence.
func stripFences(s string) string {
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(s[len("```json"):])
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(s[len("```"):])
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(s[:len(s)-len("```")])
	}
	return s
}
