// Package notify pushes breaking news to websocket subscribers.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-pkgz/lgr"

	"github.com/kaitech/newspulse/pkg/domain"
)

// writeTimeout bounds a single message delivery, a stalled client is dropped
const writeTimeout = 5 * time.Second

// History provides the recent breaking alerts replayed to a new subscriber
type History interface {
	RecentBreaking(ctx context.Context) []domain.Article
}

// Message is the envelope sent over the wire
type Message struct {
	Type      string          `json:"type"`
	Data      *domain.Article `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Notifier maintains the set of connected websocket clients and fans breaking
// articles out to them
type Notifier struct {
	history History
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New creates a notifier. History may be nil, new subscribers then start with
// an empty backlog.
func New(history History) *Notifier {
	return &Notifier{history: history, clients: make(map[*websocket.Conn]struct{})}
}

// ServeHTTP upgrades the request to a websocket, replays the recent breaking
// backlog, and keeps the connection registered until the peer goes away
func (n *Notifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		lgr.Printf("[WARN] websocket accept failed: %v", err)
		return
	}

	n.mu.Lock()
	n.clients[conn] = struct{}{}
	count := len(n.clients)
	n.mu.Unlock()
	lgr.Printf("[INFO] websocket client connected, %d active", count)

	ctx := r.Context()
	n.sendBacklog(ctx, conn)

	// drain the connection until the peer closes it, inbound payloads are
	// ignored
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	n.drop(conn, websocket.StatusNormalClosure)
}

// sendBacklog replays the recent breaking alerts to a freshly connected client
func (n *Notifier) sendBacklog(ctx context.Context, conn *websocket.Conn) {
	if n.history == nil {
		return
	}
	for _, a := range n.history.RecentBreaking(ctx) {
		article := a
		if err := n.write(ctx, conn, Message{Type: "breaking-news", Data: &article, Timestamp: time.Now().UTC()}); err != nil {
			return
		}
	}
}

// BroadcastBreaking sends each article to every connected client, dropping
// clients whose writes fail
func (n *Notifier) BroadcastBreaking(articles []domain.Article) {
	if len(articles) == 0 {
		return
	}

	n.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(n.clients))
	for conn := range n.clients {
		conns = append(conns, conn)
	}
	n.mu.Unlock()

	if len(conns) == 0 {
		return
	}
	lgr.Printf("[DEBUG] broadcasting %d breaking articles to %d clients", len(articles), len(conns))

	ctx := context.Background()
	for _, conn := range conns {
		for i := range articles {
			msg := Message{Type: "breaking-news", Data: &articles[i], Timestamp: time.Now().UTC()}
			if err := n.write(ctx, conn, msg); err != nil {
				lgr.Printf("[WARN] dropping websocket client: %v", err)
				n.drop(conn, websocket.StatusAbnormalClosure)
				break
			}
		}
	}
}

// write marshals and delivers one message with a bounded timeout
func (n *Notifier) write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

// drop unregisters and closes a client, safe to call twice for the same conn
func (n *Notifier) drop(conn *websocket.Conn, code websocket.StatusCode) {
	n.mu.Lock()
	_, ok := n.clients[conn]
	delete(n.clients, conn)
	n.mu.Unlock()
	if ok {
		_ = conn.Close(code, "")
	}
}

// Count returns the number of connected clients
func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

// CloseAll disconnects every client, used on shutdown
func (n *Notifier) CloseAll() {
	n.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(n.clients))
	for conn := range n.clients {
		conns = append(conns, conn)
	}
	n.clients = make(map[*websocket.Conn]struct{})
	n.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
	if len(conns) > 0 {
		lgr.Printf("[INFO] closed %d websocket clients", len(conns))
	}
}
