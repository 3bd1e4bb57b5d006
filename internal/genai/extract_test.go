package genai

import (
	"encoding/json"
	"errors"
	"testing"
)

func envelopeWithText(t *testing.T, text, finishReason string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{
				"finishReason": finishReason,
				"content": map[string]any{
					"parts": []map[string]any{{"text": text}},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return body
}

const sampleArray = `[{"question":"What is 2+2?","options":["3","4","5","6"],"correctAnswerIndex":1}]`

func TestExtractDirectArray(t *testing.T) {
	got, err := Extract(envelopeWithText(t, sampleArray, "STOP"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got != sampleArray {
		t.Fatalf("expected verbatim array, got %q", got)
	}
}

func TestExtractFencedPayloadMatchesUnfenced(t *testing.T) {
	fenced := "```json\n" + sampleArray + "\n```"
	got, err := Extract(envelopeWithText(t, fenced, "STOP"))
	if err != nil {
		t.Fatalf("extract fenced: %v", err)
	}
	if got != sampleArray {
		t.Fatalf("fenced extraction differs: %q", got)
	}

	bare := "```\n" + sampleArray + "\n```"
	got, err = Extract(envelopeWithText(t, bare, "STOP"))
	if err != nil {
		t.Fatalf("extract bare-fenced: %v", err)
	}
	if got != sampleArray {
		t.Fatalf("bare-fenced extraction differs: %q", got)
	}
}

func TestExtractBlockedContent(t *testing.T) {
	body := []byte(`{"promptFeedback":{"blockReason":"SAFETY"},"candidates":[{"finishReason":"STOP","content":{"parts":[{"text":"[]"}]}}]}`)
	_, err := Extract(body)
	var blocked *BlockedContentError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedContentError, got %v", err)
	}
	if blocked.Reason != "SAFETY" {
		t.Fatalf("expected SAFETY reason, got %q", blocked.Reason)
	}
}

func TestExtractAbnormalFinishReason(t *testing.T) {
	_, err := Extract(envelopeWithText(t, sampleArray, "RECITATION"))
	var incomplete *IncompleteContentError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteContentError, got %v", err)
	}
}

func TestExtractMaxTokensForwarded(t *testing.T) {
	got, err := Extract(envelopeWithText(t, sampleArray, "MAX_TOKENS"))
	if err != nil {
		t.Fatalf("MAX_TOKENS should be tolerated: %v", err)
	}
	if got != sampleArray {
		t.Fatalf("unexpected payload %q", got)
	}
}

func TestExtractMalformedEnvelope(t *testing.T) {
	cases := []string{
		`{}`,
		`{"candidates":[]}`,
		`{"candidates":[{"finishReason":"STOP"}]}`,
		`{"candidates":[{"finishReason":"STOP","content":{"parts":[]}}]}`,
		`not json at all`,
	}
	for _, body := range cases {
		if _, err := Extract([]byte(body)); !errors.Is(err, ErrMalformedEnvelope) {
			t.Fatalf("body %q: expected ErrMalformedEnvelope, got %v", body, err)
		}
	}
}

func TestExtractRefusalText(t *testing.T) {
	_, err := Extract(envelopeWithText(t, "Sorry, I cannot help with that.", "STOP"))
	var unparsable *UnparsableContentError
	if !errors.As(err, &unparsable) {
		t.Fatalf("expected UnparsableContentError, got %v", err)
	}
	if unparsable.RawText != "Sorry, I cannot help with that." {
		t.Fatalf("raw text not preserved: %q", unparsable.RawText)
	}
}
