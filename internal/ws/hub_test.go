package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskora/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type staticAuth struct{ token string }

func (a staticAuth) Parse(token string) (string, error) {
	if token != a.token {
		return "", errors.New("bad token")
	}
	return "tester", nil
}

func newFeedServer(t *testing.T, hub *Hub, auth TokenParser) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ws", HandleWS(hub, []string{"*"}, auth))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readType(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(msg, &out); err != nil {
		t.Fatalf("decode %s: %v", msg, err)
	}
	return out
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients=%d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_BroadcastsTaskEvents(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	srv := newFeedServer(t, hub, nil)

	a := dial(t, srv, "")
	b := dial(t, srv, "")

	for _, conn := range []*websocket.Conn{a, b} {
		if got := readType(t, conn); got["type"] != MsgReady {
			t.Fatalf("first message=%v, want ready", got)
		}
	}
	waitForClients(t, hub, 2)

	task := &domain.Task{ID: "t1", Title: "Write report", Status: domain.StatusPending}
	hub.Publish(context.Background(), domain.TaskEvent{Type: domain.EventTaskCreated, TaskID: "t1", Task: task, At: time.Now()})

	for _, conn := range []*websocket.Conn{a, b} {
		got := readType(t, conn)
		if got["type"] != string(domain.EventTaskCreated) || got["taskId"] != "t1" {
			t.Fatalf("event=%v", got)
		}
	}
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	srv := newFeedServer(t, hub, nil)

	conn := dial(t, srv, "")
	readType(t, conn)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHandleWS_RequiresToken(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	srv := newFeedServer(t, hub, staticAuth{token: "good"})

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=bad"
	_, res, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("dial with bad token succeeded")
	}
	if res == nil || res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("response=%v, want 401", res)
	}

	conn := dial(t, srv, "?token=good")
	if got := readType(t, conn); got["type"] != MsgReady {
		t.Fatalf("first message=%v", got)
	}
}
