package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"quizion-service/internal/app"
	"quizion-service/internal/domain"
	"quizion-service/internal/genai"
)

type WSHandler struct {
	service           *app.QuizService
	defaultCount      int
	defaultDifficulty domain.Difficulty
	upgrader          websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, defaultCount int, defaultDifficulty domain.Difficulty) *WSHandler {
	if defaultCount <= 0 {
		defaultCount = 10
	}
	return &WSHandler{
		service:           service,
		defaultCount:      defaultCount,
		defaultDifficulty: defaultDifficulty,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS runs one quiz session over a websocket. The connection's read
// loop is the single event-processing context for user actions; countdown
// ticks arrive through the session's event stream.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	topic := r.URL.Query().Get("topic")
	if userID == "" || topic == "" {
		http.Error(w, "missing userId or topic", http.StatusBadRequest)
		return
	}
	difficulty := h.defaultDifficulty
	if raw := r.URL.Query().Get("difficulty"); raw != "" {
		difficulty = domain.ParseDifficulty(raw)
	}
	count := h.defaultCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			count = n
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Generation is bounded by the request context: a dropped socket aborts
	// the outbound call and no session is created.
	session, err := h.service.StartSession(r.Context(), userID, topic, difficulty, count)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: loadErrorMessage(err)}})
		return
	}
	defer h.service.EndSession(session.ID())

	events, cancelEvents := session.Subscribe()
	defer cancelEvents()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(event.Type), Payload: event}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if inbound.Type == "quit" {
			break
		}
		if err := h.apply(session, inbound); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func (h *WSHandler) apply(session *app.Session, inbound inboundMessage) error {
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errors.New("invalid select payload")
		}
		return session.Select(payload.Index)
	case "submit":
		return session.Submit()
	case "next":
		return session.Next()
	default:
		return errors.New("unsupported message type")
	}
}

// loadErrorMessage translates load failures into something a user can act
// on; safety blocks get a distinct message instead of a generic failure.
func loadErrorMessage(err error) string {
	var blocked *genai.BlockedContentError
	if errors.As(err, &blocked) {
		return "This topic was filtered by content safety. Try a different topic."
	}
	var backend *genai.BackendError
	if errors.As(err, &backend) {
		return "The question service is unavailable right now. Please try again later."
	}
	if errors.Is(err, domain.ErrNoValidQuestions) {
		return "Received empty or invalid question data. Please try again."
	}
	return "Error fetching questions: " + err.Error()
}
