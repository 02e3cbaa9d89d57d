// Package wsbroadcast implements a WebSocket fan-out for the leak
// detector's Listener API: every new Leak Report is pushed as a JSON
// envelope to connected dashboard clients.
package wsbroadcast

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/heapguard/analyzer/internal/leak"
	"github.com/heapguard/analyzer/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Envelope is the message shape pushed to subscribed clients.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

const sendBufferSize = 16

// Broadcaster upgrades incoming HTTP requests to WebSocket connections and
// fans out Leak Reports to all of them. Each connection has its own
// bounded send buffer; when a slow client's buffer is full, the new
// message is dropped for that client rather than blocking the detector.
type Broadcaster struct {
	logger *zap.Logger

	mu    sync.Mutex
	conns map[*clientConn]struct{}
}

type clientConn struct {
	conn *websocket.Conn
	send chan Envelope
}

// New builds an empty Broadcaster.
func New(logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{logger: logger, conns: make(map[*clientConn]struct{})}
}

// HandleUpgrade upgrades the request to a WebSocket connection and
// registers it for broadcast until the client disconnects.
func (b *Broadcaster) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cc := &clientConn{conn: conn, send: make(chan Envelope, sendBufferSize)}
	b.mu.Lock()
	b.conns[cc] = struct{}{}
	b.mu.Unlock()
	metrics.WebsocketConnections.Inc()

	go b.writeLoop(cc)
	go b.readLoop(cc)
}

func (b *Broadcaster) readLoop(cc *clientConn) {
	defer b.remove(cc)
	_ = cc.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	cc.conn.SetPongHandler(func(string) error {
		_ = cc.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := cc.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Broadcaster) writeLoop(cc *clientConn) {
	defer func() { _ = cc.conn.Close() }()
	for env := range cc.send {
		if err := cc.conn.WriteJSON(env); err != nil {
			return
		}
	}
}

func (b *Broadcaster) remove(cc *clientConn) {
	b.mu.Lock()
	if _, ok := b.conns[cc]; ok {
		delete(b.conns, cc)
		close(cc.send)
		metrics.WebsocketConnections.Dec()
	}
	b.mu.Unlock()
}

// OnLeakDetected satisfies leak.Listener: it fans report out to every
// connected client, dropping the send for any client whose buffer is
// full rather than blocking the caller.
func (b *Broadcaster) OnLeakDetected(report leak.Report) {
	env := Envelope{Type: "leak_report", Payload: report}

	b.mu.Lock()
	defer b.mu.Unlock()
	for cc := range b.conns {
		select {
		case cc.send <- env:
		default:
			b.logger.Warn("dropping leak report for slow websocket client")
		}
	}
}
