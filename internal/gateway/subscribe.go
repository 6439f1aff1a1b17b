package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
)

// handleSubscribe upgrades to a WebSocket connection and streams SpaceEvents
// to the caller until the socket closes. The self-filter is controlled by
// the receive_own_messages query parameter (default false).
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r)
	receiveOwn := r.URL.Query().Get("receive_own_messages") == "true"

	ch, unsubscribe, err := s.facade.Subscribe(sess, receiveOwn)
	if err != nil {
		writeError(w, err)
		return
	}
	defer unsubscribe()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		slog.Error("ws accept", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()

	// This handler never expects inbound frames, but a read is still needed
	// to observe the client closing its side of the socket.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				slog.Error("ws marshal event", "error", err)
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}
