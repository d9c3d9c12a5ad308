package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"quizhub-service/internal/app"
	"quizhub-service/internal/logger"
)

const wsWriteTimeout = 10 * time.Second

// ResultsStream pushes live quiz stats to the quiz owner over a websocket.
type ResultsStream struct {
	service  *app.SubmissionService
	errs     errorResponder
	upgrader websocket.Upgrader
}

func NewResultsStream(service *app.SubmissionService, errs errorResponder, origin string) *ResultsStream {
	return &ResultsStream{
		service: service,
		errs:    errs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				o := r.Header.Get("Origin")
				return o == "" || origin == "*" || o == origin
			},
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Serve authorizes before upgrading so a non-owner gets a plain HTTP error.
func (h *ResultsStream) Serve(w http.ResponseWriter, r *http.Request) {
	log := logger.WithContext(r.Context())

	updates, cancel, err := h.service.WatchResults(r.Context(), requesterFrom(r.Context()), chi.URLParam(r, "quizId"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write failed")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case stats, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "stats", Payload: stats}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Clients only listen; anything they send is answered with an error frame.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		select {
		case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}:
		default:
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
