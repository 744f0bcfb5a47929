package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func TestWebSocketQuizFlow(t *testing.T) {
	server := newTestServer(t, "general")

	conn := dial(t, server, "display-1")
	defer conn.Close()

	var session sessionPayload
	decode(t, readUntil(t, conn, "session", nil), &session)
	if session.SessionID != "display-1" {
		t.Fatalf("expected session id echoed, got %q", session.SessionID)
	}

	var snap domain.Snapshot
	decode(t, readUntil(t, conn, "state", nil), &snap)
	if snap.Phase != domain.PhaseIdle || snap.Total != 2 {
		t.Fatalf("expected idle snapshot with 2 questions, got %+v", snap)
	}

	write(t, conn, map[string]any{"type": "start"})
	decode(t, readUntil(t, conn, "state", func(s domain.Snapshot) bool { return s.Phase == domain.PhaseInProgress }), &snap)
	if snap.Question == nil || snap.Question.Text != "What is 2 + 2?" {
		t.Fatalf("expected first question, got %+v", snap.Question)
	}

	write(t, conn, map[string]any{"type": "select", "payload": map[string]any{"index": 1}})
	decode(t, readUntil(t, conn, "state", func(s domain.Snapshot) bool { return s.Question != nil && s.Question.Resolved }), &snap)
	if snap.Question.Selected != 1 || snap.Question.Correct != 1 {
		t.Fatalf("expected correct selection echoed, got %+v", snap.Question)
	}

	write(t, conn, map[string]any{"type": "select"})
	var errMsg errorPayload
	decode(t, readUntil(t, conn, "error", nil), &errMsg)
	if errMsg.Message != "invalid select payload" {
		t.Fatalf("unexpected error %q", errMsg.Message)
	}

	write(t, conn, map[string]any{"type": "restart"})
	readUntil(t, conn, "state", func(s domain.Snapshot) bool { return s.Phase == domain.PhaseIdle })
}

func TestWebSocketReportsNoQuestions(t *testing.T) {
	server := newTestServer(t, "empty")

	conn := dial(t, server, "")
	defer conn.Close()

	var session sessionPayload
	decode(t, readUntil(t, conn, "session", nil), &session)
	if session.SessionID == "" {
		t.Fatalf("expected a generated session id")
	}

	write(t, conn, map[string]any{"type": "start"})
	var errMsg errorPayload
	decode(t, readUntil(t, conn, "error", nil), &errMsg)
	if errMsg.Message != domain.UserMessage(domain.ErrNoQuestions) {
		t.Fatalf("unexpected error %q", errMsg.Message)
	}
}

func TestWebSocketReportsLoadFailure(t *testing.T) {
	server := newTestServer(t, "missing")

	conn := dial(t, server, "")
	defer conn.Close()

	readUntil(t, conn, "session", nil)
	var errMsg errorPayload
	decode(t, readUntil(t, conn, "error", nil), &errMsg)
	if errMsg.Message != domain.UserMessage(domain.ErrLoadFailure) {
		t.Fatalf("unexpected error %q", errMsg.Message)
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	server := newTestServer(t, "general")

	resp, err := http.Get(server.URL + "/session?sessionId=nobody")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	conn := dial(t, server, "display-2")
	defer conn.Close()
	readUntil(t, conn, "state", nil)

	resp, err = http.Get(server.URL + "/session?sessionId=display-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var snap domain.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Phase != domain.PhaseIdle || snap.Total != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func newTestServer(t *testing.T, setID string) *httptest.Server {
	t.Helper()
	log := logrus.New()
	store := memory.NewSessionStore(log)
	repo := memory.NewQuestionRepository(memory.NewStaticLoader(sampleSets()), time.Minute)
	service := app.NewQuizService(store, repo, setID, log)
	wsHandler := NewWSHandler(service, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.HandleFunc("/session", wsHandler.ServeSnapshot)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	if sessionID != "" {
		u += "?sessionId=" + sessionID
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func write(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readUntil skips messages (countdown ticks included) until one of the
// wanted type arrives; for "state" messages match may narrow it further.
func readUntil(t *testing.T, conn *websocket.Conn, want string, match func(domain.Snapshot) bool) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var msg message
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", want, err)
		}
		if msg.Type != want {
			continue
		}
		if match != nil {
			var snap domain.Snapshot
			decode(t, msg.Payload, &snap)
			if !match(snap) {
				continue
			}
		}
		return msg.Payload
	}
}

func decode(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
}

func sampleSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"general": {
			ID: "general",
			Questions: []domain.Question{
				{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectIndex: 1},
				{Text: "What is the capital of France?", Options: []string{"Paris", "Rome"}, CorrectIndex: 0},
			},
		},
		"empty": {ID: "empty"},
	}
}
