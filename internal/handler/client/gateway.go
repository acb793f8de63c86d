// Package client serves the primary interactive channel. Every connection
// gets an isolated session: its own identifier, profile snapshot, and
// dispatch goroutine that exclusively owns the socket.
package client

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mikoto-studio/vstage/internal/model/character"
	"github.com/mikoto-studio/vstage/internal/model/profile"
	sessionmodel "github.com/mikoto-studio/vstage/internal/model/session"
	sessionsvc "github.com/mikoto-studio/vstage/internal/service/session"
	synthesissvc "github.com/mikoto-studio/vstage/internal/service/synthesis"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
	historyLimit = 40 // messages kept per session for the conversation engine
)

// ConversationEngine produces a character's reply for one chat turn.
type ConversationEngine interface {
	Reply(ctx context.Context, ch character.Character, history []*schema.Message, userText string) (string, error)
}

// SynthesisRunner runs one synthesis request to its terminal event.
type SynthesisRunner interface {
	Run(ctx context.Context, text string, emit func(synthesissvc.Event) error) error
}

// Gateway owns the per-client session lifecycle on /client-ws.
type Gateway struct {
	registry   *sessionsvc.Registry
	profiles   *profile.Store
	characters character.Store
	convo      ConversationEngine // nil when no model is configured
	pipeline   SynthesisRunner    // nil when no TTS engine is configured
	upgrader   websocket.Upgrader
}

// New wires the gateway to its collaborators. convo and pipeline may be nil;
// the matching message types then answer with an error frame.
func New(registry *sessionsvc.Registry, profiles *profile.Store, characters character.Store, convo ConversationEngine, pipeline SynthesisRunner) *Gateway {
	return &Gateway{
		registry:   registry,
		profiles:   profiles,
		characters: characters,
		convo:      convo,
		pipeline:   pipeline,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the client WebSocket endpoint.
func (g *Gateway) RegisterRoutes(r chi.Router) {
	r.Get("/client-ws", g.handleClientWS)
}

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type outboundMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Text      string `json:"text,omitempty"`
	Status    string `json:"status,omitempty"`
	AudioPath string `json:"audioPath,omitempty"`
	Message   string `json:"message,omitempty"`
}

// clientConn serializes writes: the dispatch loop and the ping loop both
// write, and gorilla connections allow only one writer at a time.
type clientConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *clientConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *clientConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (g *Gateway) handleClientWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[client-ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	cc := &clientConn{conn: conn}

	sess, err := g.accept()
	if err != nil {
		log.Printf("[client-ws] accept failed: %v", err)
		cc.writeJSON(outboundMessage{Type: "error", Message: "server at capacity"})
		return
	}
	defer g.disconnect(sess)

	log.Printf("[client-ws] new session %s", sess.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	go g.pingLoop(ctx, cc)

	// The server assigns the session identifier, never the client.
	if err := cc.writeJSON(outboundMessage{Type: "connected", SessionID: sess.ID}); err != nil {
		return
	}

	g.dispatchLoop(ctx, cc, sess)
}

// accept registers a fresh session carrying a snapshot of the current
// profile. It fails only when the registry is exhausted.
func (g *Gateway) accept() (*sessionmodel.Session, error) {
	sess := sessionmodel.New(uuid.NewString(), g.profiles.Current())
	if err := g.registry.Add(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// disconnect tears the session down. The session's closed flag makes it
// idempotent, so racing close and error paths release exactly once.
func (g *Gateway) disconnect(sess *sessionmodel.Session) {
	if !sess.Close() {
		return
	}
	g.registry.Remove(sess.ID)
	log.Printf("[client-ws] session %s disconnected", sess.ID)
}

// dispatchLoop reads inbound messages one at a time until the transport
// fails. Handler-level errors go back to the client as error frames and never
// terminate the loop.
func (g *Gateway) dispatchLoop(ctx context.Context, cc *clientConn, sess *sessionmodel.Session) {
	var history []*schema.Message

	for {
		var msg inboundMessage
		if err := cc.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[client-ws] session %s read error: %v", sess.ID, err)
			}
			return
		}
		cc.conn.SetReadDeadline(time.Now().Add(readTimeout))

		var err error
		switch msg.Type {
		case "chat":
			err = g.handleChat(ctx, cc, sess, &history, msg.Text)
		case "synthesize":
			err = g.handleSynthesize(ctx, cc, sess, msg.Text)
		case "interrupt":
			// Requests are serialized in this loop, so nothing can be in
			// flight when an interrupt is read; acknowledging it is enough.
			err = cc.writeJSON(outboundMessage{Type: "interrupt-ack", SessionID: sess.ID})
		case "refresh-profile":
			err = g.handleRefreshProfile(cc, sess)
		default:
			err = errors.New("unsupported message type: " + msg.Type)
		}
		if err != nil {
			log.Printf("[client-ws] session %s handler error: %v", sess.ID, err)
			if werr := cc.writeJSON(outboundMessage{Type: "error", Message: err.Error()}); werr != nil {
				return
			}
		}
	}
}

func (g *Gateway) handleChat(ctx context.Context, cc *clientConn, sess *sessionmodel.Session, history *[]*schema.Message, text string) error {
	if g.convo == nil {
		return errors.New("conversation engine unavailable")
	}
	if text == "" {
		return errors.New("chat text is required")
	}

	ch, ok := g.characters.FindByID(sess.Profile.Character)
	if !ok {
		return errors.New("character not found: " + sess.Profile.Character)
	}

	reply, err := g.convo.Reply(ctx, ch, *history, text)
	if err != nil {
		return err
	}

	*history = append(*history, schema.UserMessage(text), schema.AssistantMessage(reply, nil))
	if len(*history) > historyLimit {
		*history = (*history)[len(*history)-historyLimit:]
	}

	return cc.writeJSON(outboundMessage{Type: "chat-response", SessionID: sess.ID, Text: reply})
}

// handleSynthesize runs one synthesis request inline, so requests within a
// session are strictly serialized and events keep sentence order.
func (g *Gateway) handleSynthesize(ctx context.Context, cc *clientConn, sess *sessionmodel.Session, text string) error {
	if g.pipeline == nil {
		return errors.New("synthesis engine unavailable")
	}

	return g.pipeline.Run(ctx, text, func(e synthesissvc.Event) error {
		return cc.writeJSON(outboundMessage{
			Type:      "synthesis",
			SessionID: sess.ID,
			Status:    e.Status,
			AudioPath: e.AudioPath,
			Text:      e.Text,
			Message:   e.Message,
		})
	})
}

// handleRefreshProfile re-snapshots the global profile into the session. This
// is the only way a live session picks up configuration changes.
func (g *Gateway) handleRefreshProfile(cc *clientConn, sess *sessionmodel.Session) error {
	sess.Reload(g.profiles.Current())
	return cc.writeJSON(outboundMessage{
		Type:      "profile",
		SessionID: sess.ID,
		Text:      sess.Profile.Character,
	})
}

func (g *Gateway) pingLoop(ctx context.Context, cc *clientConn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := cc.ping(); err != nil {
				return
			}
		}
	}
}
