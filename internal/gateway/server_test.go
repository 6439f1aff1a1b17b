package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sherzodv/tim/internal/ability"
	"github.com/sherzodv/tim/internal/identity"
	"github.com/sherzodv/tim/internal/message"
	"github.com/sherzodv/tim/internal/session"
	"github.com/sherzodv/tim/internal/space"
	"github.com/sherzodv/tim/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "tim.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg, err := identity.New(store)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	sessions := session.New(store)
	sp, err := space.New(store)
	if err != nil {
		t.Fatalf("new space: %v", err)
	}
	messages, err := message.New(store, sp)
	if err != nil {
		t.Fatalf("new message service: %v", err)
	}
	abilities, err := ability.New(store, sp)
	if err != nil {
		t.Fatalf("new ability coordinator: %v", err)
	}

	facade := NewFacade(reg, sessions, sp, messages, abilities)
	srv := NewServer(facade, "127.0.0.1", 0)
	return httptest.NewServer(srv.httpServer.Handler)
}

func postJSON(t *testing.T, ts *httptest.Server, path, sessionKey string, body any, out any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionKey != "" {
		req.Header.Set(session.HeaderKey, sessionKey)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func register(t *testing.T, ts *httptest.Server, nick string) *storage.Session {
	t.Helper()
	var out struct {
		Session *storage.Session `json:"session"`
	}
	resp := postJSON(t, ts, "/api/trusted-register", "", map[string]any{
		"nick":        nick,
		"client_info": storage.ClientInfo{Kind: "test"},
	}, &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register %s: status %d", nick, resp.StatusCode)
	}
	return out.Session
}

func TestTrustedRegisterRejectsEmptyNick(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp := postJSON(t, ts, "/api/trusted-register", "", map[string]any{"nick": ""}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestTrustedConnectUnknownParticipant(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	var out map[string]any
	resp := postJSON(t, ts, "/api/trusted-connect", "", map[string]any{"id": 999}, &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if out["error_code"] != "TimiteNotFound" {
		t.Fatalf("error_code = %v, want TimiteNotFound", out["error_code"])
	}
}

func TestProtectedRouteRequiresSession(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp := postJSON(t, ts, "/api/messages", "", map[string]any{"content": "hi"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	alpha := register(t, ts, "alpha")
	resp := postJSON(t, ts, "/api/messages", alpha.Key, map[string]any{"content": "   "}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDeclareAndListAbilities(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	alpha := register(t, ts, "alpha")
	resp := postJSON(t, ts, "/api/abilities/declare", alpha.Key, map[string]any{
		"abilities": []storage.Ability{{Name: "echo"}, {Name: "ping"}},
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("declare status = %d, want 200", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/abilities", nil)
	req.Header.Set(session.HeaderKey, alpha.Key)
	listResp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("list abilities: %v", err)
	}
	defer listResp.Body.Close()

	var out struct {
		Abilities []storage.ParticipantAbilities `json:"abilities"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Abilities) != 1 || len(out.Abilities[0].Abilities) != 2 {
		t.Fatalf("abilities = %+v, want one participant with 2 abilities", out.Abilities)
	}
}

func TestCallAbilityOutcomeTargetMismatch(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	alpha := register(t, ts, "alpha")
	beta := register(t, ts, "beta")

	var callOut struct {
		CallAbilityID uint64 `json:"call_ability_id"`
	}
	resp := postJSON(t, ts, "/api/abilities/call", beta.Key, map[string]any{
		"timite_id": alpha.ParticipantID,
		"name":      "echo",
		"payload":   "hi",
	}, &callOut)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("call status = %d, want 200", resp.StatusCode)
	}

	outcomeResp := postJSON(t, ts, "/api/abilities/call/outcome", beta.Key, map[string]any{
		"call_ability_id": callOut.CallAbilityID,
		"payload":         "nope",
	}, nil)
	if outcomeResp.StatusCode != http.StatusForbidden {
		t.Fatalf("outcome from non-target status = %d, want 403", outcomeResp.StatusCode)
	}
}

func TestGetTimelineAfterMessages(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	alpha := register(t, ts, "alpha")
	for _, content := range []string{"one", "two", "three"} {
		resp := postJSON(t, ts, "/api/messages", alpha.Key, map[string]any{"content": content}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("send %q status = %d, want 200", content, resp.StatusCode)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/timeline?offset=0&size=2", nil)
	req.Header.Set(session.HeaderKey, alpha.Key)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("get timeline: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		Events []storage.SpaceEvent `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Events) != 2 {
		t.Fatalf("events = %+v, want 2 entries", out.Events)
	}
	if out.Events[0].NewMessage.Content != "two" || out.Events[1].NewMessage.Content != "three" {
		t.Fatalf("events = %+v, want [two three]", out.Events)
	}
}
