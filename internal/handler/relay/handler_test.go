package relay

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// echoUpstream answers every message with "echo:" + payload and exposes the
// accepted connections so tests can kill the upstream side.
func echoUpstream(t *testing.T) (*httptest.Server, chan *websocket.Conn) {
	t.Helper()
	conns := make(chan *websocket.Conn, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
		for {
			mt, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, append([]byte("echo:"), payload...)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, conns
}

func relayServer(t *testing.T, upstreamURL string) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	New(upstreamURL).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(httpURL, path string) string {
	return strings.Replace(httpURL, "http", "ws", 1) + path
}

func TestRelayForwardsBothDirections(t *testing.T) {
	upstream, _ := echoUpstream(t)
	relay := relayServer(t, wsURL(upstream.URL, ""))

	client, _, err := websocket.DefaultDialer.Dial(wsURL(relay.URL, "/proxy-ws"), nil)
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	defer client.Close()

	if err := client.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, payload, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mt != websocket.TextMessage || string(payload) != "echo:hello" {
		t.Fatalf("unexpected reply: type=%d payload=%q", mt, payload)
	}
}

func TestRelayPreservesBinaryFrames(t *testing.T) {
	upstream, _ := echoUpstream(t)
	relay := relayServer(t, wsURL(upstream.URL, ""))

	client, _, err := websocket.DefaultDialer.Dial(wsURL(relay.URL, "/proxy-ws"), nil)
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	defer client.Close()

	raw := []byte{0x00, 0xff, 0x10, 0x80}
	if err := client.WriteMessage(websocket.BinaryMessage, raw); err != nil {
		t.Fatalf("write: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, payload, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if mt != websocket.BinaryMessage {
		t.Fatalf("binary frame arrived as type %d", mt)
	}
	if string(payload) != "echo:"+string(raw) {
		t.Fatalf("payload corrupted: %v", payload)
	}
}

func TestRelayClosesClientWhenUpstreamDies(t *testing.T) {
	upstream, conns := echoUpstream(t)
	relay := relayServer(t, wsURL(upstream.URL, ""))

	client, _, err := websocket.DefaultDialer.Dial(wsURL(relay.URL, "/proxy-ws"), nil)
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	defer client.Close()

	// Round-trip once so the link is fully established.
	if err := client.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatalf("write: %v", err)
	}
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := client.ReadMessage(); err != nil {
		t.Fatalf("read: %v", err)
	}

	upstreamConn := <-conns
	upstreamConn.Close()

	client.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := client.ReadMessage(); err == nil {
		t.Fatalf("expected client connection to close after upstream death")
	}
}

func TestRelayRejectsClientWhenUpstreamUnreachable(t *testing.T) {
	relay := relayServer(t, "ws://127.0.0.1:1/nowhere")

	client, _, err := websocket.DefaultDialer.Dial(wsURL(relay.URL, "/proxy-ws"), nil)
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	defer client.Close()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := client.ReadMessage(); err == nil {
		t.Fatalf("expected immediate close when upstream dial fails")
	}
}
