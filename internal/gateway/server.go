package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/sherzodv/tim/internal/session"
	"github.com/sherzodv/tim/internal/storage"
)

type contextKey string

const (
	sessionContextKey   contextKey = "tim-session"
	correlationIDHeader            = "X-Request-Id"
)

// Server is the tim space HTTP/WS gateway.
type Server struct {
	facade     *Facade
	httpServer *http.Server
}

// NewServer builds the chi router and wraps it in an http.Server listening
// at host:port.
func NewServer(facade *Facade, host string, port int) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(correlationIDMiddleware)

	s := &Server{facade: facade}

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/trusted-register", s.handleTrustedRegister)
	r.Post("/api/trusted-connect", s.handleTrustedConnect)

	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)
		r.Post("/api/abilities/declare", s.handleDeclareAbilities)
		r.Get("/api/abilities", s.handleListAbilities)
		r.Post("/api/messages", s.handleSendMessage)
		r.Post("/api/abilities/call", s.handleSendCallAbility)
		r.Post("/api/abilities/call/outcome", s.handleSendCallAbilityOutcome)
		r.Get("/api/timeline", s.handleGetTimeline)
		r.Get("/api/space/subscribe", s.handleSubscribe)
	})

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: r,
	}
	return s
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("tim gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// sessionMiddleware resolves the tim-session-key header and attaches the
// session to the request context. TrustedRegister and TrustedConnect are
// registered outside this middleware group and never pass through it.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(session.HeaderKey)
		if key == "" {
			writeError(w, &APIError{Kind: Unauthenticated, Err: errors.New("missing " + session.HeaderKey + " header")})
			return
		}
		sess, err := s.facade.ResolveSession(key)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), sessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(r *http.Request) *storage.Session {
	sess, _ := r.Context().Value(sessionContextKey).(*storage.Session)
	return sess
}

// correlationIDMiddleware tags every request with a fresh uuid, returned in
// the X-Request-Id header and logged with the ability-call dispatch and
// outcome lines. Dispatch and outcome are separate requests with different
// ids; the call_ability_id both lines carry is what links them.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set(correlationIDHeader, id)
		ctx := context.WithValue(r.Context(), correlationIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

const correlationIDContextKey contextKey = "tim-correlation-id"

func correlationIDFromContext(r *http.Request) string {
	id, _ := r.Context().Value(correlationIDContextKey).(string)
	return id
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTrustedRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nick       string             `json:"nick"`
		ClientInfo storage.ClientInfo `json:"client_info"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &APIError{Kind: InvalidArgument, Err: err})
		return
	}
	sess, err := s.facade.TrustedRegister(req.Nick, req.ClientInfo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*storage.Session{"session": sess})
}

func (s *Server) handleTrustedConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID         uint64             `json:"id"`
		ClientInfo storage.ClientInfo `json:"client_info"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &APIError{Kind: InvalidArgument, Err: err})
		return
	}
	sess, err := s.facade.TrustedConnect(req.ID, req.ClientInfo)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Kind == TimiteNotFound {
			writeJSON(w, http.StatusOK, map[string]any{"session": nil, "error_code": "TimiteNotFound"})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess, "error_code": nil})
}

func (s *Server) handleDeclareAbilities(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Abilities []storage.Ability `json:"abilities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &APIError{Kind: InvalidArgument, Err: err})
		return
	}
	if err := s.facade.DeclareAbilities(sessionFromContext(r), req.Abilities); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) handleListAbilities(w http.ResponseWriter, r *http.Request) {
	list, err := s.facade.ListAbilities()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"abilities": list})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &APIError{Kind: InvalidArgument, Err: err})
		return
	}
	msg, err := s.facade.SendMessage(sessionFromContext(r), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*storage.Message{"message": msg})
}

func (s *Server) handleSendCallAbility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TimiteID uint64 `json:"timite_id"`
		Name     string `json:"name"`
		Payload  string `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &APIError{Kind: InvalidArgument, Err: err})
		return
	}
	call, err := s.facade.SendCallAbility(sessionFromContext(r), req.TimiteID, req.Name, req.Payload)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("ability call dispatched",
		"correlation_id", correlationIDFromContext(r),
		"call_ability_id", call.CallAbilityID,
		"name", call.Name,
		"timite_id", call.ParticipantID)
	writeJSON(w, http.StatusOK, map[string]uint64{"call_ability_id": call.CallAbilityID})
}

func (s *Server) handleSendCallAbilityOutcome(w http.ResponseWriter, r *http.Request) {
	var outcome storage.CallAbilityOutcome
	if err := json.NewDecoder(r.Body).Decode(&outcome); err != nil {
		writeError(w, &APIError{Kind: InvalidArgument, Err: err})
		return
	}
	if err := s.facade.SendCallAbilityOutcome(sessionFromContext(r), &outcome); err != nil {
		writeError(w, err)
		return
	}
	slog.Info("ability call outcome submitted",
		"correlation_id", correlationIDFromContext(r),
		"call_ability_id", outcome.CallAbilityID,
		"error", outcome.Error != "")
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.ParseUint(r.URL.Query().Get("offset"), 10, 64)
	size, _ := strconv.ParseUint(r.URL.Query().Get("size"), 10, 32)
	events, err := s.facade.GetTimeline(offset, uint32(size))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"offset": offset,
		"size":   size,
		"events": events,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, httpStatus(apiErr.Kind), map[string]string{"error": string(apiErr.Kind), "message": apiErr.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": string(Storage), "message": err.Error()})
}
