package websocket

import (
	"net/http"
	"time"

	"wellkit/core"
	"wellkit/realtime"

	gorillaws "github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Handler returns an http.Handler that upgrades to WebSocket and streams
// reward events from the hub. A `user` query parameter scopes the stream to
// that user's events; without it the client receives everything.
func Handler(hub *realtime.Hub) http.Handler {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		user := core.UserID(r.URL.Query().Get("user"))
		id, ch := hub.SubscribeUser(user, 256)
		defer hub.Unsubscribe(id)

		// drain client frames so close handshakes are noticed
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					hub.Unsubscribe(id)
					return
				}
			}
		}()

		for ev := range ch {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(gorillaws.TextMessage, realtime.MarshalJSON(ev)); err != nil {
				return
			}
		}
	})
}
