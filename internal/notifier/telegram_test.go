package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testNotifier(apiBase string) *TelegramNotifier {
	n := NewTelegramNotifier("test-token", "42", "")
	n.APIBase = apiBase
	n.Backoff = time.Millisecond
	return n
}

func TestSendPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/bottest-token/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := testNotifier(srv.URL)
	if err := n.Send("<b>NVDA</b> CALL"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["chat_id"] != "42" || got["text"] != "<b>NVDA</b> CALL" {
		t.Errorf("payload = %v", got)
	}
	if got["parse_mode"] != "HTML" {
		t.Errorf("parse_mode = %q, want HTML by default", got["parse_mode"])
	}
}

func TestSendReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	err := testNotifier(srv.URL).Send("hi")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("err = %v, want the venue's error body surfaced", err)
	}
}

func TestSendWithRetryRecovers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := testNotifier(srv.URL)
	if err := n.SendWithRetry(context.Background(), "report", DefaultRetries); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want a retry after the first failure", calls.Load())
	}
}

func TestNormalizeCommand(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/scan", "/scan"},
		{"/scan@OptionPilotBot", "/scan"},
		{"/autopilot@OptionPilotBot stop", "/autopilot stop"},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		if got := normalizeCommand(tt.in); got != tt.want {
			t.Errorf("normalizeCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStartPollingDispatchesConfiguredChatOnly(t *testing.T) {
	var served atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "getUpdates") {
			if served.CompareAndSwap(false, true) {
				w.Write([]byte(`{"ok":true,"result":[
					{"update_id":1,"message":{"text":"/scan","chat":{"id":99}}},
					{"update_id":2,"message":{"text":"/scan@OptionPilotBot","chat":{"id":42}}}]}`))
				return
			}
			w.Write([]byte(`{"ok":true,"result":[]}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := testNotifier(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 2)
	go n.StartPolling(ctx, func(cmd string) string {
		got <- cmd
		return ""
	})

	select {
	case cmd := <-got:
		if cmd != "/scan" {
			t.Errorf("command = %q, want /scan with the bot suffix stripped", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never invoked")
	}
	// The chat-99 message must not reach the handler.
	select {
	case cmd := <-got:
		t.Errorf("unexpected second dispatch %q: foreign chats must be dropped", cmd)
	case <-time.After(50 * time.Millisecond):
	}
}
