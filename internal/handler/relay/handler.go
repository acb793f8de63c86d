// Package relay forwards a client's WebSocket traffic to an upstream server
// and back, transparently, until either side goes away.
package relay

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Handler serves the proxy endpoint. Each inbound connection gets its own
// upstream connection; nothing is shared between links.
type Handler struct {
	upstreamURL string
	upgrader    websocket.Upgrader
	dialer      *websocket.Dialer
}

// New builds a relay handler forwarding to upstreamURL.
func New(upstreamURL string) *Handler {
	return &Handler{
		upstreamURL: upstreamURL,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// RegisterRoutes mounts the proxy WebSocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/proxy-ws", h.handleProxyWS)
}

func (h *Handler) handleProxyWS(w http.ResponseWriter, r *http.Request) {
	client, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[relay] upgrade failed: %v", err)
		return
	}

	upstream, _, err := h.dialer.DialContext(r.Context(), h.upstreamURL, nil)
	if err != nil {
		log.Printf("[relay] upstream dial failed: %v", err)
		deadline := time.Now().Add(time.Second)
		client.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "upstream unavailable"), deadline)
		client.Close()
		return
	}

	log.Printf("[relay] link established -> %s", h.upstreamURL)
	newLink(client, upstream).run()
}

// link pairs one client connection with one upstream connection. Closing one
// side always closes the other so no socket is orphaned.
type link struct {
	client   *websocket.Conn
	upstream *websocket.Conn
	teardown sync.Once
}

func newLink(client, upstream *websocket.Conn) *link {
	return &link{client: client, upstream: upstream}
}

// run pumps both directions and returns once the link is torn down.
func (l *link) run() {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		l.pump(l.client, l.upstream, "client->upstream")
	}()
	go func() {
		defer wg.Done()
		l.pump(l.upstream, l.client, "upstream->client")
	}()

	wg.Wait()
	log.Printf("[relay] link closed")
}

// pump copies whole messages from src to dst, preserving the message type so
// binary and text frames survive verbatim. The first failure on either side
// tears the link down, which unblocks the opposite pump.
func (l *link) pump(src, dst *websocket.Conn, direction string) {
	defer l.close()

	for {
		messageType, payload, err := src.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[relay] %s read error: %v", direction, err)
			}
			return
		}
		if err := dst.WriteMessage(messageType, payload); err != nil {
			log.Printf("[relay] %s write error: %v", direction, err)
			return
		}
	}
}

func (l *link) close() {
	l.teardown.Do(func() {
		l.client.Close()
		l.upstream.Close()
	})
}
