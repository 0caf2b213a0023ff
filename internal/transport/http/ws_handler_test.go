package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestLeaderboardFeed(t *testing.T) {
	h := newHarness(t, nil)
	h.do(http.MethodGet, "/api/contests/contest-1/attempt", h.alice, nil)

	u := "ws" + h.srv.URL[len("http"):] + "/ws/contests/contest-1/leaderboard?access_token=" + h.admin
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the current standings first.
	_, payload := readNext(conn, t, "leaderboard")
	entries := payload["entries"].([]any)
	if len(entries) != 1 || entries[0].(map[string]any)["completed"] != false {
		t.Fatalf("expected one in-progress entry, got %+v", entries)
	}

	status, _ := h.do(http.MethodPost, "/api/contests/contest-1/attempt", h.alice, map[string]any{
		"answers": map[string]any{"2 + 2": "4", "primes": []string{"2", "3"}},
	})
	if status != http.StatusOK {
		t.Fatalf("submit status %d", status)
	}

	_, payload = readNext(conn, t, "leaderboard")
	entry := payload["entries"].([]any)[0].(map[string]any)
	if entry["score"] != float64(10) || entry["completed"] != true {
		t.Fatalf("expected completed score 10, got %+v", entry)
	}
}

func TestLeaderboardFeedRequiresAdmin(t *testing.T) {
	h := newHarness(t, nil)

	u := "ws" + h.srv.URL[len("http"):] + "/ws/contests/contest-1/leaderboard?access_token=" + h.alice
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected handshake to fail for a student")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

func TestLeaderboardFeedUnknownContest(t *testing.T) {
	h := newHarness(t, nil)

	u := "ws" + h.srv.URL[len("http"):] + "/ws/contests/missing/leaderboard?access_token=" + h.admin
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	typ, payload := readNext(conn, t, "error")
	if typ != "error" || payload["message"] == "" {
		t.Fatalf("expected error frame, got %s %+v", typ, payload)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
