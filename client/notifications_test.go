package client

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"venuepulse/utils"
)

type toast struct {
	severity Severity
	message  string
	duration time.Duration
	id       string
}

// wsTestServer accepts websocket upgrades and lets tests push frames or drop
// connections from the server side.
type wsTestServer struct {
	t        *testing.T
	server   *httptest.Server
	upgrades atomic.Int32

	mu    sync.Mutex
	conns []*websocket.Conn
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	s := &wsTestServer{t: t}
	upgrader := websocket.Upgrader{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.upgrades.Add(1)
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		// Drain inbound until the connection dies.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(s.server.Close)
	return s
}

// latestConn waits for the most recent server-side connection; the handler
// records it concurrently with the client's Connect returning.
func (s *wsTestServer) latestConn() *websocket.Conn {
	s.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		n := len(s.conns)
		var conn *websocket.Conn
		if n > 0 {
			conn = s.conns[n-1]
		}
		s.mu.Unlock()
		if conn != nil {
			return conn
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.t.Fatal("no server-side connection established")
	return nil
}

func (s *wsTestServer) send(frame string) {
	if err := s.latestConn().WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		s.t.Fatalf("server write failed: %v", err)
	}
}

func (s *wsTestServer) dropLatest() {
	s.latestConn().Close()
}

func (s *wsTestServer) waitUpgrades(n int32, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.upgrades.Load() >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func newTestChannel(t *testing.T, serverURL string) (*NotificationChannel, chan toast) {
	t.Helper()
	toasts := make(chan toast, 16)
	sink := NotifierFunc(func(severity Severity, message string, duration time.Duration, id string) {
		toasts <- toast{severity, message, duration, id}
	})
	nc, err := NewNotificationChannel(serverURL, sink, utils.NewLogger("test"))
	if err != nil {
		t.Fatalf("NewNotificationChannel: %v", err)
	}
	nc.SetReconnectDelay(20 * time.Millisecond)
	t.Cleanup(nc.Close)
	return nc, toasts
}

func awaitToast(t *testing.T, toasts chan toast) toast {
	t.Helper()
	select {
	case tt := <-toasts:
		return tt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return toast{}
	}
}

func assertNoToast(t *testing.T, toasts chan toast, wait time.Duration) {
	t.Helper()
	select {
	case tt := <-toasts:
		t.Fatalf("unexpected notification: %+v", tt)
	case <-time.After(wait):
	}
}

func TestEventActivatedRoundTrip(t *testing.T) {
	server := newWSTestServer(t)
	nc, toasts := newTestChannel(t, server.server.URL)
	nc.Connect()

	server.send(`{"type":"EVENT_ACTIVATED","payload":{"eventName":"Fall Classic","activatedBy":"Dana"}}`)

	got := awaitToast(t, toasts)
	if got.message != "Event 'Fall Classic' is now LIVE - activated by Dana" {
		t.Errorf("message = %q", got.message)
	}
	if got.severity != SeveritySuccess {
		t.Errorf("severity = %s, want success", got.severity)
	}
	if got.duration != 6*time.Second {
		t.Errorf("duration = %s, want 6s", got.duration)
	}
	assertNoToast(t, toasts, 50*time.Millisecond)
}

func TestDepartmentNoteAdded(t *testing.T) {
	server := newWSTestServer(t)
	nc, toasts := newTestChannel(t, server.server.URL)
	nc.Connect()

	server.send(`{"type":"DEPARTMENT_NOTE_ADDED","payload":{"department":"Culinary","note":"86 the brisket"}}`)

	got := awaitToast(t, toasts)
	if got.message != "New note for Culinary: 86 the brisket" {
		t.Errorf("message = %q", got.message)
	}
	if got.severity != SeverityInfo {
		t.Errorf("severity = %s, want info", got.severity)
	}
	if got.duration != 5*time.Second {
		t.Errorf("duration = %s, want 5s", got.duration)
	}
}

func TestMissingPayloadFieldsFallBackToUnknown(t *testing.T) {
	server := newWSTestServer(t)
	nc, toasts := newTestChannel(t, server.server.URL)
	nc.Connect()

	server.send(`{"type":"EVENT_ACTIVATED"}`)

	got := awaitToast(t, toasts)
	if got.message != "Event 'Unknown' is now LIVE - activated by Unknown" {
		t.Errorf("message = %q", got.message)
	}
}

func TestUnknownTypeIgnoredWithoutClosingConnection(t *testing.T) {
	server := newWSTestServer(t)
	nc, toasts := newTestChannel(t, server.server.URL)
	nc.Connect()

	server.send(`{"type":"UNKNOWN_TYPE","payload":{}}`)
	server.send(`{"type":"EVENT_ACTIVATED","payload":{"eventName":"Derby","activatedBy":"Sam"}}`)

	got := awaitToast(t, toasts)
	if got.message != "Event 'Derby' is now LIVE - activated by Sam" {
		t.Errorf("first visible toast = %q; unknown type should produce nothing", got.message)
	}
	if server.upgrades.Load() != 1 {
		t.Error("unknown type caused a reconnect")
	}
}

func TestMalformedFrameDroppedConnectionSurvives(t *testing.T) {
	server := newWSTestServer(t)
	nc, toasts := newTestChannel(t, server.server.URL)
	nc.Connect()

	server.send(`this is not json`)
	server.send(`{"type":"DEPARTMENT_NOTE_ADDED","payload":{"department":"Ops","note":"gate 4 open"}}`)

	got := awaitToast(t, toasts)
	if got.message != "New note for Ops: gate 4 open" {
		t.Errorf("toast after malformed frame = %q", got.message)
	}
	if server.upgrades.Load() != 1 {
		t.Error("malformed frame caused a reconnect")
	}
}

func TestRapidRepeatsGetDistinctIDs(t *testing.T) {
	server := newWSTestServer(t)
	nc, toasts := newTestChannel(t, server.server.URL)
	nc.Connect()

	server.send(`{"type":"EVENT_ACTIVATED","payload":{"eventName":"Derby","activatedBy":"Sam"}}`)
	server.send(`{"type":"EVENT_ACTIVATED","payload":{"eventName":"Derby","activatedBy":"Sam"}}`)

	first := awaitToast(t, toasts)
	second := awaitToast(t, toasts)
	if first.id == second.id {
		t.Errorf("repeated events share id %q; every message must get its own toast", first.id)
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	server := newWSTestServer(t)
	nc, _ := newTestChannel(t, server.server.URL)

	nc.Connect()
	nc.Connect()
	nc.Connect()

	time.Sleep(50 * time.Millisecond)
	if got := server.upgrades.Load(); got != 1 {
		t.Fatalf("idempotent Connect opened %d connections, want 1", got)
	}
}

func TestReconnectAfterEachDisconnect(t *testing.T) {
	server := newWSTestServer(t)
	nc, toasts := newTestChannel(t, server.server.URL)
	nc.Connect()

	server.dropLatest()
	if !server.waitUpgrades(2, 2*time.Second) {
		t.Fatal("no reconnect after first disconnect")
	}

	server.dropLatest()
	if !server.waitUpgrades(3, 2*time.Second) {
		t.Fatal("no reconnect after second disconnect")
	}

	// The replacement connection is live.
	server.send(`{"type":"DEPARTMENT_NOTE_ADDED","payload":{"department":"Security","note":"all clear"}}`)
	got := awaitToast(t, toasts)
	if got.message != "New note for Security: all clear" {
		t.Errorf("toast on reconnected channel = %q", got.message)
	}
	if nc.Connected() != true {
		t.Error("channel reports disconnected after successful reconnect")
	}
}

func TestCloseStopsReconnecting(t *testing.T) {
	server := newWSTestServer(t)
	nc, _ := newTestChannel(t, server.server.URL)
	nc.Connect()

	server.dropLatest()
	nc.Close()

	time.Sleep(100 * time.Millisecond)
	if got := server.upgrades.Load(); got != 1 {
		t.Fatalf("channel reconnected after Close: %d upgrades", got)
	}
	if nc.Connected() {
		t.Error("channel reports connected after Close")
	}
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://ops.example.com", "ws://ops.example.com/ws", false},
		{"https://ops.example.com", "wss://ops.example.com/ws", false},
		{"https://ops.example.com/", "wss://ops.example.com/ws", false},
		{"ws://ops.example.com", "ws://ops.example.com/ws", false},
		{"http://ops.example.com?token=abc", "ws://ops.example.com/ws?token=abc", false},
		{"ftp://ops.example.com", "", true},
	}

	for _, tt := range tests {
		got, err := websocketURL(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("websocketURL(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("websocketURL(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("websocketURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
