// Package api is an HTTP/WebSocket client for the tim space gateway.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"

	"github.com/sherzodv/tim/internal/session"
	"github.com/sherzodv/tim/internal/storage"
)

// Client talks to a tim gateway over HTTP and WebSocket.
type Client struct {
	baseURL    string
	httpClient *http.Client
	SessionKey string
}

// New returns a Client pointed at baseURL (e.g. "http://127.0.0.1:18420").
func New(baseURL string) *Client {
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: http.DefaultClient}
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.SessionKey != "" {
		req.Header.Set(session.HeaderKey, c.SessionKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiError
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%s %s: %s: %s", method, path, apiErr.Error, apiErr.Message)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// TrustedRegister creates a new participant and binds this client to its
// first session.
func (c *Client) TrustedRegister(ctx context.Context, nick string, clientInfo storage.ClientInfo) (*storage.Session, error) {
	var out struct {
		Session *storage.Session `json:"session"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/trusted-register", map[string]any{
		"nick": nick, "client_info": clientInfo,
	}, &out); err != nil {
		return nil, err
	}
	c.SessionKey = out.Session.Key
	return out.Session, nil
}

// TrustedConnect issues a new session for an existing participant.
func (c *Client) TrustedConnect(ctx context.Context, participantID uint64, clientInfo storage.ClientInfo) (*storage.Session, error) {
	var out struct {
		Session   *storage.Session `json:"session"`
		ErrorCode string           `json:"error_code"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/trusted-connect", map[string]any{
		"id": participantID, "client_info": clientInfo,
	}, &out); err != nil {
		return nil, err
	}
	if out.ErrorCode == "TimiteNotFound" {
		return nil, fmt.Errorf("timite %d not found", participantID)
	}
	c.SessionKey = out.Session.Key
	return out.Session, nil
}

// DeclareAbilities replaces the connected participant's ability set.
func (c *Client) DeclareAbilities(ctx context.Context, abilities []storage.Ability) error {
	return c.do(ctx, http.MethodPost, "/api/abilities/declare", map[string]any{"abilities": abilities}, nil)
}

// ListAbilities returns every declared ability set in the space.
func (c *Client) ListAbilities(ctx context.Context) ([]storage.ParticipantAbilities, error) {
	var out struct {
		Abilities []storage.ParticipantAbilities `json:"abilities"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/abilities", nil, &out); err != nil {
		return nil, err
	}
	return out.Abilities, nil
}

// SendMessage broadcasts content on behalf of the connected participant.
func (c *Client) SendMessage(ctx context.Context, content string) (*storage.Message, error) {
	var out struct {
		Message *storage.Message `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/messages", map[string]any{"content": content}, &out); err != nil {
		return nil, err
	}
	return out.Message, nil
}

// CallAbility invokes targetID's ability on behalf of the connected participant.
func (c *Client) CallAbility(ctx context.Context, targetID uint64, name, payload string) (uint64, error) {
	var out struct {
		CallAbilityID uint64 `json:"call_ability_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/abilities/call", map[string]any{
		"timite_id": targetID, "name": name, "payload": payload,
	}, &out); err != nil {
		return 0, err
	}
	return out.CallAbilityID, nil
}

// SubmitOutcome reports the result of a previously-received CallAbility.
func (c *Client) SubmitOutcome(ctx context.Context, callAbilityID uint64, payload, errMsg string) error {
	return c.do(ctx, http.MethodPost, "/api/abilities/call/outcome", map[string]any{
		"call_ability_id": callAbilityID, "payload": payload, "error": errMsg,
	}, nil)
}

// Timeline reads a page of the historical event log.
func (c *Client) Timeline(ctx context.Context, offset uint64, size uint32) ([]storage.SpaceEvent, error) {
	var out struct {
		Events []storage.SpaceEvent `json:"events"`
	}
	path := fmt.Sprintf("/api/timeline?offset=%d&size=%d", offset, size)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// Subscribe opens a WebSocket connection streaming live SpaceEvents until ctx
// is cancelled or the connection closes. The returned channel is closed on
// disconnect.
func (c *Client) Subscribe(ctx context.Context, receiveOwn bool) (<-chan storage.SpaceEvent, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/api/space/subscribe"
	q := u.Query()
	q.Set("receive_own_messages", strconv.FormatBool(receiveOwn))
	u.RawQuery = q.Encode()

	header := http.Header{}
	if c.SessionKey != "" {
		header.Set(session.HeaderKey, c.SessionKey)
	}
	conn, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}

	ch := make(chan storage.SpaceEvent, 10)
	go func() {
		defer close(ch)
		defer conn.Close(websocket.StatusNormalClosure, "")
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var ev storage.SpaceEvent
			if err := json.Unmarshal(data, &ev); err != nil {
				continue
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
