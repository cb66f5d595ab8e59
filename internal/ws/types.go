package ws

const (
	// server - client
	MsgReady = "ready"
	MsgEvent = "event"

	// client - server
	MsgPing = "ping"
	MsgPong = "pong"
)

type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
