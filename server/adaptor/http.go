package adaptor

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

// Frame is one WebSocket message sent to subscribers.
type Frame struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

const (
	FrameRoom      = "room"
	FrameRoomEvent = "room_event"
	FrameChat      = "chat"
	FrameError     = "error"
)

// NewHTTPHandler serves the health probe and the WebSocket subscription
// endpoint /ws?room_id=<uuid>.
func NewHTTPHandler(uc Usecase) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		roomID, err := uuid.Parse(r.URL.Query().Get("room_id"))
		if err != nil {
			http.Error(w, "room_id must be a uuid", http.StatusBadRequest)
			return
		}
		if _, err := uc.RoomByID(r.Context(), roomID); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		websocket.Handler(func(conn *websocket.Conn) {
			handleWSConn(conn, uc, roomID)
		}).ServeHTTP(w, r)
	})
	return mux
}

func handleWSConn(conn *websocket.Conn, uc Usecase, roomID uuid.UUID) {
	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(conn.Request().Context())
	defer cancel()

	// Subscribers never send; a read returning means the peer went away.
	go func() {
		defer cancel()
		_, _ = io.Copy(io.Discard, conn)
	}()

	enc := json.NewEncoder(conn)
	rooms, err := uc.WatchRoom(ctx, roomID)
	if err != nil {
		writeWSError(enc, err)
		return
	}
	events, err := uc.WatchRoomEvents(ctx, roomID)
	if err != nil {
		writeWSError(enc, err)
		return
	}
	chat, err := uc.WatchChat(ctx, roomID)
	if err != nil {
		writeWSError(enc, err)
		return
	}
	log.Printf("ws: subscribed room=%s remote=%s", roomID, conn.Request().RemoteAddr)

	for {
		var frame Frame
		select {
		case <-ctx.Done():
			return
		case r, ok := <-rooms:
			if !ok {
				return
			}
			frame = Frame{Type: FrameRoom, Payload: roomFields(r)}
		case e, ok := <-events:
			if !ok {
				return
			}
			frame = Frame{Type: FrameRoomEvent, Payload: eventFields(e)}
		case m, ok := <-chat:
			if !ok {
				return
			}
			frame = Frame{Type: FrameChat, Payload: chatFields(m)}
		}
		if err := enc.Encode(frame); err != nil {
			log.Printf("ws: room=%s write failed: %v", roomID, err)
			return
		}
	}
}

func writeWSError(enc *json.Encoder, err error) {
	_ = enc.Encode(Frame{Type: FrameError, Payload: map[string]any{"message": err.Error()}})
}
