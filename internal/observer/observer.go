// Package observer streams build lifecycle events to WebSocket clients, so
// a dashboard can watch constructions grow without polling the editor.
package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"unrealforge.ai/internal/forge"
)

// Version is the observer feed protocol version.
const Version = "0.1"

// SubscribeMsg is the first client message on a feed connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// Event is one feed message.
type Event struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	Time            string         `json:"ts"`
	Build           string         `json:"build,omitempty"`
	Prefix          string         `json:"prefix,omitempty"`
	Spawned         int            `json:"spawned,omitempty"`
	Requested       int            `json:"requested,omitempty"`
	Result          map[string]any `json:"result,omitempty"`
}

// Event types.
const (
	EventHello    = "HELLO"
	EventStarted  = "BUILD_STARTED"
	EventProgress = "BUILD_PROGRESS"
	EventEnded    = "BUILD_ENDED"
)

// Hub fans build events out to every connected observer. It implements
// forge.Progress; notifications are marshaled once and dropped per client
// when a client cannot keep up.
type Hub struct {
	log *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[uint64]chan []byte

	dropped atomic.Int64
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(os.Stdout, "[observer] ", log.LstdFlags|log.Lmicroseconds)
	}
	return &Hub{
		log:     logger,
		clients: map[uint64]chan []byte{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// ClientCount reports currently subscribed observers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped reports events discarded because a client queue was full.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

func (h *Hub) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil || sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != Version {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"),
				time.Now().Add(time.Second))
			return
		}

		id := h.nextID.Add(1)
		out := make(chan []byte, 256)
		hello, _ := json.Marshal(Event{
			Type:            EventHello,
			ProtocolVersion: Version,
			Time:            time.Now().UTC().Format(time.RFC3339Nano),
		})
		out <- hello
		h.mu.Lock()
		h.clients[id] = out
		h.mu.Unlock()

		writeErr := make(chan error, 1)
		go func() {
			for b := range out {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					writeErr <- err
					return
				}
			}
			writeErr <- nil
		}()

		// Reader loop: nothing but keepalives and re-subscribes arrive here;
		// its job is noticing the client going away.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		h.mu.Lock()
		delete(h.clients, id)
		h.mu.Unlock()
		close(out)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (h *Hub) broadcast(ev Event) {
	ev.ProtocolVersion = Version
	ev.Time = time.Now().UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, out := range h.clients {
		select {
		case out <- b:
		default:
			h.dropped.Add(1)
		}
	}
}

// BuildStarted implements forge.Progress.
func (h *Hub) BuildStarted(build, prefix string) {
	h.broadcast(Event{Type: EventStarted, Build: build, Prefix: prefix})
}

// BuildProgress implements forge.Progress.
func (h *Hub) BuildProgress(build, prefix string, spawned, requested int) {
	h.broadcast(Event{Type: EventProgress, Build: build, Prefix: prefix, Spawned: spawned, Requested: requested})
}

// BuildEnded implements forge.Progress.
func (h *Hub) BuildEnded(build, prefix string, res *forge.BuildResult) {
	ev := Event{Type: EventEnded, Build: build, Prefix: prefix}
	if res != nil {
		ev.Spawned = res.Spawned
		ev.Requested = res.Requested
		ev.Result = res.Map()
	}
	h.broadcast(ev)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
