package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizion-service/internal/app"
	"quizion-service/internal/infra/memory"
)

func TestProfileEndpoint(t *testing.T) {
	ctx := context.Background()
	profiles := memory.NewProfileStore()
	if _, err := profiles.AddXP(ctx, "u1", 250); err != nil {
		t.Fatalf("seed xp: %v", err)
	}
	service := app.NewQuizService(memory.NewSessionStore(), fakeSource{}, profiles)
	handler := NewProfileHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/profile?userId=u1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var profile app.Profile
	if err := json.NewDecoder(rec.Body).Decode(&profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.XP != 250 || profile.Level != 3 {
		t.Fatalf("profile = %+v, want xp 250 level 3", profile)
	}
	if profile.Username == "" {
		t.Fatalf("expected generated username")
	}
}

func TestProfileEndpointRequiresUserID(t *testing.T) {
	service := app.NewQuizService(memory.NewSessionStore(), fakeSource{}, memory.NewProfileStore())
	handler := NewProfileHandler(service)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}
