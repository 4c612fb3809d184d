package http

import (
	"log"
	"net/http"

	"formbuilder-service/internal/domain"
)

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// serveResponseFeed streams submission events for one form to its owner over
// a websocket. Browsers cannot set headers on the upgrade request, so the
// session token may also ride in the query string.
func (h *Handler) serveResponseFeed(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	userID, err := h.auth.CurrentUser(r.Context(), token)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	formID, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.forms.GetOwnedForm(r.Context(), formID, userID); err != nil {
		h.writeError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := h.feed.Subscribe(formID)
	defer cancel()

	// Reader goroutine only watches for the peer closing the connection.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(outboundMessage[int64]{Type: "watching", Payload: formID}); err != nil {
		return
	}

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.ResponseEvent]{Type: "response", Payload: event}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}
