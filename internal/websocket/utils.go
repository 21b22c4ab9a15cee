package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/teachexamhub/examhub-backend/internal/response"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute

	// MaxMessageSize bounds a client message; long answers dominate it.
	MaxMessageSize = 64 << 10
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func WriteError(conn *websocket.Conn, code response.ErrCode) error {
	return WriteTyped(conn, NewError(code, ""))
}

// NewError builds an error event. An empty detail uses the code's message.
func NewError(code response.ErrCode, detail string) ErrorResponse {
	if detail == "" {
		detail = response.GetMessage(code)
	}
	return ErrorResponse{Event: EventError, Code: code, Error: detail}
}

// ReadMessage reads one text message, resetting the read deadline.
func ReadMessage(conn *websocket.Conn) ([]byte, error) {
	conn.SetReadDeadline(time.Now().Add(readWait))
	_, raw, err := conn.ReadMessage()
	return raw, err
}
