package socket

import (
	"log"

	socketio "github.com/googollee/go-socket.io"
)

// NewSocketServer initializes the Socket.IO server. Clients join a room named
// after their user handle; the engine pushes interest and match changes into
// those rooms.
func NewSocketServer() *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	server.OnEvent("/", "join", func(c socketio.Conn, userHandle string) {
		if userHandle == "" {
			log.Println("❌ Invalid user handle in join request")
			return
		}
		log.Printf("👥 Socket %s joined room %s\n", c.ID(), userHandle)
		c.Join(userHandle)
	})

	server.OnError("/", func(c socketio.Conn, err error) {
		log.Println("❌ Socket error:", err)
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Println("❌ Socket disconnected:", reason)
	})

	return server
}

// Notifier adapts the socket server to the push interface the controllers and
// the stream tailer use.
type Notifier struct {
	Server *socketio.Server
}

// Push broadcasts an event to the user's room.
func (n *Notifier) Push(userHandle, event string, payload interface{}) {
	n.Server.BroadcastToRoom("/", userHandle, event, payload)
}
