package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/mikoto-studio/vstage/internal/model/character"
	"github.com/mikoto-studio/vstage/internal/model/profile"
	sessionsvc "github.com/mikoto-studio/vstage/internal/service/session"
	synthesissvc "github.com/mikoto-studio/vstage/internal/service/synthesis"
)

type echoEngine struct{}

func (echoEngine) Reply(_ context.Context, ch character.Character, _ []*schema.Message, userText string) (string, error) {
	return ch.Name + ": " + userText, nil
}

type scriptedRunner struct{}

func (scriptedRunner) Run(_ context.Context, text string, emit func(synthesissvc.Event) error) error {
	for _, unit := range synthesissvc.SplitSentences(text) {
		if err := emit(synthesissvc.Event{Status: synthesissvc.StatusPartial, AudioPath: "cache/a.mp3", Text: unit}); err != nil {
			return err
		}
	}
	return emit(synthesissvc.Event{Status: synthesissvc.StatusComplete})
}

type gatewayFixture struct {
	registry *sessionsvc.Registry
	profiles *profile.Store
	srv      *httptest.Server
}

func newFixture(t *testing.T, maxSessions int) *gatewayFixture {
	t.Helper()
	registry := sessionsvc.NewRegistry(maxSessions)
	profiles := profile.NewStore(profile.Profile{
		Character: "aurora",
		TTS:       profile.TTSSettings{Provider: profile.ProviderEdge, Edge: profile.EdgeSettings{Voice: "en-US-AvaMultilingualNeural"}},
	})
	characters := character.NewMemoryStore(character.Seed())

	r := chi.NewRouter()
	New(registry, profiles, characters, echoEngine{}, scriptedRunner{}).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &gatewayFixture{registry: registry, profiles: profiles, srv: srv}
}

func (f *gatewayFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(strings.Replace(f.srv.URL, "http", "ws", 1)+"/client-ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) outboundMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg outboundMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return msg
}

func waitForSessions(t *testing.T, registry *sessionsvc.Registry, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for registry.Len() != want {
		if time.Now().After(deadline) {
			t.Fatalf("registry never reached %d sessions, at %d", want, registry.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestGatewayAssignsSessionID(t *testing.T) {
	f := newFixture(t, 0)
	conn := f.dial(t)

	hello := readFrame(t, conn)
	if hello.Type != "connected" || hello.SessionID == "" {
		t.Fatalf("unexpected hello frame: %+v", hello)
	}
	if f.registry.Len() != 1 {
		t.Fatalf("expected 1 registered session, got %d", f.registry.Len())
	}
}

func TestGatewayCleansUpOnDisconnect(t *testing.T) {
	f := newFixture(t, 0)
	conn := f.dial(t)
	readFrame(t, conn)

	conn.Close()
	waitForSessions(t, f.registry, 0)
}

func TestGatewayHandlerErrorsKeepLoopAlive(t *testing.T) {
	f := newFixture(t, 0)
	conn := f.dial(t)
	readFrame(t, conn)

	if err := conn.WriteJSON(inboundMessage{Type: "launch-missiles"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, conn)
	if frame.Type != "error" || frame.Message == "" {
		t.Fatalf("expected error frame, got %+v", frame)
	}

	// The loop must still serve valid traffic afterwards.
	if err := conn.WriteJSON(inboundMessage{Type: "chat", Text: "still there?"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame = readFrame(t, conn)
	if frame.Type != "chat-response" || !strings.Contains(frame.Text, "still there?") {
		t.Fatalf("expected chat response, got %+v", frame)
	}
}

func TestGatewayChatUsesSnapshotCharacter(t *testing.T) {
	f := newFixture(t, 0)
	conn := f.dial(t)
	readFrame(t, conn)

	if err := conn.WriteJSON(inboundMessage{Type: "chat", Text: "hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, conn)
	if frame.Type != "chat-response" || !strings.HasPrefix(frame.Text, "Aurora: ") {
		t.Fatalf("expected Aurora's reply, got %+v", frame)
	}
}

func TestGatewaySynthesisEventsOrdered(t *testing.T) {
	f := newFixture(t, 0)
	conn := f.dial(t)
	readFrame(t, conn)

	if err := conn.WriteJSON(inboundMessage{Type: "synthesize", Text: "Hello world. How are you."}); err != nil {
		t.Fatalf("write: %v", err)
	}

	first := readFrame(t, conn)
	second := readFrame(t, conn)
	terminal := readFrame(t, conn)

	if first.Status != "partial" || first.Text != "Hello world." {
		t.Fatalf("unexpected first event: %+v", first)
	}
	if second.Status != "partial" || second.Text != "How are you." {
		t.Fatalf("unexpected second event: %+v", second)
	}
	if terminal.Status != "complete" {
		t.Fatalf("expected complete, got %+v", terminal)
	}
}

func TestGatewayRefreshProfileAdoptsNewSnapshot(t *testing.T) {
	f := newFixture(t, 0)
	conn := f.dial(t)
	readFrame(t, conn)

	f.profiles.Apply(profile.Update{Character: "sage"})

	// The session keeps its original snapshot until it asks for a refresh.
	if err := conn.WriteJSON(inboundMessage{Type: "chat", Text: "hi"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, conn)
	if !strings.HasPrefix(frame.Text, "Aurora: ") {
		t.Fatalf("live session must keep its snapshot, got %+v", frame)
	}

	if err := conn.WriteJSON(inboundMessage{Type: "refresh-profile"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame = readFrame(t, conn)
	if frame.Type != "profile" || frame.Text != "sage" {
		t.Fatalf("expected refreshed profile frame, got %+v", frame)
	}

	if err := conn.WriteJSON(inboundMessage{Type: "chat", Text: "hi again"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame = readFrame(t, conn)
	if !strings.HasPrefix(frame.Text, "Sage: ") {
		t.Fatalf("refreshed session must use the new character, got %+v", frame)
	}
}

func TestGatewayAcknowledgesInterrupt(t *testing.T) {
	f := newFixture(t, 0)
	conn := f.dial(t)
	hello := readFrame(t, conn)

	if err := conn.WriteJSON(inboundMessage{Type: "interrupt"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, conn)
	if frame.Type != "interrupt-ack" || frame.SessionID != hello.SessionID {
		t.Fatalf("expected interrupt ack, got %+v", frame)
	}
}

func TestGatewaySessionsAreIsolated(t *testing.T) {
	f := newFixture(t, 0)

	connA := f.dial(t)
	helloA := readFrame(t, connA)
	connB := f.dial(t)
	helloB := readFrame(t, connB)

	if helloA.SessionID == helloB.SessionID {
		t.Fatalf("sessions must get distinct identifiers")
	}
	waitForSessions(t, f.registry, 2)

	// Kill A; B must keep working and stay registered.
	connA.Close()
	waitForSessions(t, f.registry, 1)

	if err := connB.WriteJSON(inboundMessage{Type: "chat", Text: "unaffected"}); err != nil {
		t.Fatalf("write on B: %v", err)
	}
	frame := readFrame(t, connB)
	if frame.Type != "chat-response" {
		t.Fatalf("session B broken by A's disconnect: %+v", frame)
	}
	if _, ok := f.registry.Get(helloB.SessionID); !ok {
		t.Fatalf("session B vanished from the registry")
	}
}

func TestGatewayRejectsWhenRegistryFull(t *testing.T) {
	f := newFixture(t, 1)

	connA := f.dial(t)
	readFrame(t, connA)

	connB := f.dial(t)
	frame := readFrame(t, connB)
	if frame.Type != "error" {
		t.Fatalf("expected capacity error, got %+v", frame)
	}

	connB.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := connB.ReadMessage(); err == nil {
		t.Fatalf("expected second connection to be closed")
	}
}
