package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, ts *httptest.Server) (*websocket.Conn, ServerMessage) {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	hello := readUntil(t, conn, MsgHello)
	return conn, hello
}

// readUntil reads messages until one of the wanted type arrives
func readUntil(t *testing.T, conn *websocket.Conn, kind string) ServerMessage {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var msg ServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Waiting for %q: %v", kind, err)
		}
		if msg.Type == kind {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
}

func TestWebSocket_Hello(t *testing.T) {
	srv, ts := newTestServer(t, &Config{})
	_, hello := dial(t, ts)

	if hello.Session == "" {
		t.Error("Expected a session id")
	}
	if len(hello.Settings) == 0 {
		t.Error("Expected the numeric fields in hello")
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.Sessions() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if srv.Sessions() != 1 {
		t.Errorf("Expected 1 session, got %d", srv.Sessions())
	}
}

func TestWebSocket_SessionsHaveDistinctIDs(t *testing.T) {
	_, ts := newTestServer(t, &Config{})
	_, a := dial(t, ts)
	_, b := dial(t, ts)

	if a.Session == b.Session {
		t.Errorf("Expected distinct session ids, both were %q", a.Session)
	}
}

func TestWebSocket_EditIsPrivateCommitIsBroadcast(t *testing.T) {
	srv, ts := newTestServer(t, &Config{})
	a, _ := dial(t, ts)
	b, _ := dial(t, ts)

	send(t, a, ClientMessage{Type: MsgEdit, Name: "BEEP_STRENGTH", Display: "999"})
	pending := readUntil(t, a, MsgPending)
	if pending.Display != "999" || !pending.Pending {
		t.Errorf("Expected pending display 999, got %+v", pending)
	}
	if value, _, _ := srv.store.Common("BEEP_STRENGTH"); value != 40 {
		t.Errorf("Edit must not reach the store, got %d", value)
	}

	send(t, a, ClientMessage{Type: MsgCommit, Name: "BEEP_STRENGTH"})
	committed := readUntil(t, a, MsgCommitted)
	if committed.Applied == nil || committed.Applied.Value != 255 || committed.Applied.Input != "999" {
		t.Errorf("Expected commit of 999 clamped to 255, got %+v", committed.Applied)
	}

	changed := readUntil(t, b, MsgChanged)
	if changed.Name != "BEEP_STRENGTH" || changed.Value == nil || *changed.Value != 255 {
		t.Errorf("Expected BEEP_STRENGTH changed to 255, got %+v", changed)
	}
	if changed.Display != "255" {
		t.Errorf("Expected display 255, got %q", changed.Display)
	}
}

func TestWebSocket_BroadcastKeepsOtherPendingEdits(t *testing.T) {
	_, ts := newTestServer(t, &Config{})
	a, _ := dial(t, ts)
	b, _ := dial(t, ts)

	send(t, b, ClientMessage{Type: MsgEdit, Name: "BEEP_STRENGTH", Display: "7"})
	readUntil(t, b, MsgPending)

	send(t, a, ClientMessage{Type: MsgEdit, Name: "BEEP_STRENGTH", Display: "100"})
	send(t, a, ClientMessage{Type: MsgCommit, Name: "BEEP_STRENGTH"})

	changed := readUntil(t, b, MsgChanged)
	if !changed.Pending || changed.Display != "7" {
		t.Errorf("Expected b to keep its pending 7, got %+v", changed)
	}
	if changed.Value == nil || *changed.Value != 100 {
		t.Errorf("Expected committed value 100, got %+v", changed.Value)
	}

	send(t, b, ClientMessage{Type: MsgCancel, Name: "BEEP_STRENGTH"})
	cancelled := readUntil(t, b, MsgPending)
	if cancelled.Pending || cancelled.Display != "100" {
		t.Errorf("Expected cancel to restore 100, got %+v", cancelled)
	}
}

func TestWebSocket_HTTPCommitIsBroadcast(t *testing.T) {
	_, ts := newTestServer(t, &Config{})
	a, _ := dial(t, ts)

	resp := postSetting(t, ts.URL, "PPM_MIN_THROTTLE", `{"display":"1100"}`)
	if resp.StatusCode != 200 {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	changed := readUntil(t, a, MsgChanged)
	if changed.Name != "PPM_MIN_THROTTLE" || changed.Display != "1100" {
		t.Errorf("Expected PPM_MIN_THROTTLE changed to 1100, got %+v", changed)
	}
}

func TestWebSocket_Errors(t *testing.T) {
	tests := []struct {
		name string
		msg  ClientMessage
	}{
		{"unknown setting", ClientMessage{Type: MsgEdit, Name: "MOTOR_KV", Display: "1"}},
		{"choice setting", ClientMessage{Type: MsgCommit, Name: "TEMPERATURE_PROTECTION"}},
		{"cancel without field", ClientMessage{Type: MsgCancel, Name: "MOTOR_DIRECTION"}},
		{"unknown type", ClientMessage{Type: "shout", Name: "BEEP_STRENGTH"}},
	}

	_, ts := newTestServer(t, &Config{})
	conn, _ := dial(t, ts)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, tt.msg)
			reply := readUntil(t, conn, MsgError)
			if reply.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestWebSocket_ReloadResyncsClients(t *testing.T) {
	srv, ts := newTestServer(t, &Config{})
	conn, _ := dial(t, ts)

	other := testStore(t)
	if err := other.SetCommon("BEACON_STRENGTH", 150); err != nil {
		t.Fatal(err)
	}
	if err := srv.store.Replace(other); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	reload := readUntil(t, conn, MsgReload)
	for _, v := range reload.Settings {
		if v.Name == "BEACON_STRENGTH" {
			if !v.InSync || v.Display != "150" {
				t.Errorf("Expected BEACON_STRENGTH 150 in sync, got %+v", v)
			}
			return
		}
	}
	t.Error("BEACON_STRENGTH missing from reload")
}
