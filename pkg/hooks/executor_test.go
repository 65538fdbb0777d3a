package hooks

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voicetyped/simdial/pkg/corpus"
	"github.com/voicetyped/simdial/pkg/events"
)

func summary() CompletionRequest {
	return CompletionRequest{
		RunID:      "run-1",
		Domain:     "restaurant",
		Complexity: "mix",
		Size:       10,
		Seed:       7,
		Output:     []string{"out/restaurant-mix-10.json"},
		Stats:      corpus.Stats{Dialogs: 10, AvgTurns: 12.5, MaxTurns: 20},
	}
}

func TestNotifySuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("expected application/json content type")
		}

		var req CompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.RunID != "run-1" {
			t.Errorf("run_id = %q, want %q", req.RunID, "run-1")
		}
		if req.Stats.Dialogs != 10 {
			t.Errorf("stats.dialogs = %d, want 10", req.Stats.Dialogs)
		}

		json.NewEncoder(w).Encode(CompletionResponse{Accepted: true, Message: "queued"})
	}))
	defer ts.Close()

	exec := NewExecutor(nil, AllowPrivateHosts())
	resp, err := exec.Notify(t.Context(), HookConfig{URL: ts.URL, TimeoutSec: 5}, summary())
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !resp.Accepted || resp.Message != "queued" {
		t.Errorf("response = %+v", resp)
	}
}

func TestNotifyEmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	resp, err := NewExecutor(nil, AllowPrivateHosts()).Notify(t.Context(), HookConfig{URL: ts.URL}, summary())
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !resp.Accepted {
		t.Error("empty 2xx response should count as accepted")
	}
}

func TestNotifyBearerAuth(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer ts.Close()

	cfg := HookConfig{URL: ts.URL, AuthType: AuthBearer, AuthSecret: "my-token", TimeoutSec: 5}
	if _, err := NewExecutor(nil, AllowPrivateHosts()).Notify(t.Context(), cfg, summary()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if gotAuth != "Bearer my-token" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer my-token")
	}
}

func TestNotifyHMACAuth(t *testing.T) {
	var gotSig string
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Hook-Signature")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer ts.Close()

	cfg := HookConfig{URL: ts.URL, AuthType: AuthHMAC, AuthSecret: "secret"}
	if _, err := NewExecutor(nil, AllowPrivateHosts()).Notify(t.Context(), cfg, summary()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if want := Sign("secret", gotBody); gotSig != want {
		t.Errorf("signature = %q, want %q", gotSig, want)
	}
	if !strings.HasPrefix(gotSig, "sha256=") {
		t.Errorf("signature %q lacks sha256= prefix", gotSig)
	}
}

func TestNotifyHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal error"))
	}))
	defer ts.Close()

	pub := events.NewPublisher(nil, "test", "")
	ch := pub.Subscribe("hooks", 4)
	defer pub.Unsubscribe("hooks")

	_, err := NewExecutor(pub, AllowPrivateHosts()).Notify(t.Context(), HookConfig{URL: ts.URL}, summary())
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
	env := <-ch
	if env.Type != events.HookError || env.RunID != "run-1" {
		t.Errorf("event = %s/%s, want %s/run-1", env.Type, env.RunID, events.HookError)
	}
}

func TestNotifyRejectsUnknownAuth(t *testing.T) {
	cfg := HookConfig{URL: "http://127.0.0.1:1", AuthType: "basic"}
	if _, err := NewExecutor(nil, AllowPrivateHosts()).Notify(t.Context(), cfg, summary()); err == nil {
		t.Error("expected error for unknown auth type")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"ftp scheme", "ftp://example.com/hook", true},
		{"no host", "http:///hook", true},
		{"loopback", "http://127.0.0.1/hook", true},
		{"private", "http://10.1.2.3/hook", true},
		{"cgn", "http://100.64.0.1/hook", true},
		{"link local v6", "http://[fe80::1]/hook", true},
		{"public", "https://93.184.216.34/hook", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateURL(t.Context(), tt.url, false)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
