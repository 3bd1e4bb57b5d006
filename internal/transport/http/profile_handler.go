package http

import (
	"encoding/json"
	"log"
	"net/http"

	"quizion-service/internal/app"
)

// ProfileHandler serves the progress read model (username, XP, level,
// streak after the read-time reset, last summary).
type ProfileHandler struct {
	service *app.QuizService
}

func NewProfileHandler(service *app.QuizService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	profile, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		log.Printf("profile read for %s: %v", userID, err)
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(profile); err != nil {
		log.Printf("profile encode for %s: %v", userID, err)
	}
}
