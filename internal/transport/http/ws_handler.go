package http

import (
	"net/http"

	"mcq-contest-service/internal/domain"

	"go.uber.org/zap"
)

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// serveLeaderboardFeed upgrades an admin connection and streams a fresh
// leaderboard every time an attempt of the contest completes. Client frames
// are ignored; reading only detects disconnects.
func (s *Server) serveLeaderboardFeed(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	if identity.Role != domain.RoleAdmin {
		s.writeError(w, r, domain.ErrForbidden)
		return
	}
	contestID := r.PathValue("id")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel, err := s.hub.Subscribe(r.Context(), contestID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				s.log.Debug("ws write error", zap.String("contest", contestID), zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				update.UpdatedAt = update.UpdatedAt.In(s.loc)
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
