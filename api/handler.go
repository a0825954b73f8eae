// Package api exposes the HTTP surface: the chat endpoint, lead and
// routing-decision queries, operator actions, and health.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	contractx "github.com/thanawat-k/leadqual/agent/contract"
	leadx "github.com/thanawat-k/leadqual/agent/lead"
	orchestratorx "github.com/thanawat-k/leadqual/agent/orchestrator"
	journalx "github.com/thanawat-k/leadqual/pkg/journal"
)

// Conversation is the slice of the orchestrator the API depends on.
type Conversation interface {
	HandleTurn(ctx context.Context, sessionID string, text string) (string, error)
	EndSession(ctx context.Context, sessionID string) error
}

type Handler struct {
	conv         Conversation
	leads        leadx.Store
	router       contractx.Router
	mailer       contractx.Mailer
	ring         *journalx.Ring
	destinations []string
}

// NewHandler wires the API. Router, mailer, and ring may be nil; the
// endpoints that need them answer with service unavailable.
func NewHandler(
	conv Conversation,
	leads leadx.Store,
	router contractx.Router,
	mailer contractx.Mailer,
	ring *journalx.Ring,
	destinations []string,
) *Handler {
	return &Handler{
		conv:         conv,
		leads:        leads,
		router:       router,
		mailer:       mailer,
		ring:         ring,
		destinations: destinations,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Post("/chat", h.Chat)
	r.Delete("/sessions/{sessionID}", h.EndSession)

	r.Route("/leads", func(r chi.Router) {
		r.Get("/", h.ListLeads)
		r.Delete("/", h.ClearLeads)
		r.Get("/{sessionID}", h.GetLead)
		r.Get("/{sessionID}/decisions", h.ListDecisions)
		r.Post("/{sessionID}/notify", h.Notify)
	})

	r.Get("/logs", h.Logs)
	r.Post("/admin/mail/test", h.MailTest)

	return r
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	reply, err := h.conv.HandleTurn(r.Context(), sessionID, req.Message)
	switch {
	case err == nil:
	case errors.Is(err, orchestratorx.ErrInvalidMessage), errors.Is(err, orchestratorx.ErrInvalidSession):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	default:
		log.Error().Err(err).Str("session_id", sessionID).Msg("chat turn failed")
		respondError(w, http.StatusInternalServerError, "turn failed")
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{SessionID: sessionID, Reply: reply})
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	err := h.conv.EndSession(r.Context(), sessionID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, orchestratorx.ErrInvalidSession):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("session_id", sessionID).Msg("end session failed")
		respondError(w, http.StatusInternalServerError, "end session failed")
	}
}

func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	recs, err := h.leads.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("lead list failed")
		respondError(w, http.StatusInternalServerError, "lead list failed")
		return
	}
	if recs == nil {
		recs = []*leadx.Record{}
	}
	respondJSON(w, http.StatusOK, recs)
}

func (h *Handler) ClearLeads(w http.ResponseWriter, r *http.Request) {
	if err := h.leads.Clear(r.Context()); err != nil {
		log.Error().Err(err).Msg("lead clear failed")
		respondError(w, http.StatusInternalServerError, "lead clear failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	rec, err := h.leads.Get(r.Context(), sessionID)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, rec)
	case errors.Is(err, leadx.ErrNotFound):
		respondError(w, http.StatusNotFound, "lead not found")
	default:
		log.Error().Err(err).Str("session_id", sessionID).Msg("lead get failed")
		respondError(w, http.StatusInternalServerError, "lead get failed")
	}
}

func (h *Handler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	decs, err := h.leads.ListDecisions(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("decision list failed")
		respondError(w, http.StatusInternalServerError, "decision list failed")
		return
	}
	if decs == nil {
		decs = []*leadx.Decision{}
	}
	respondJSON(w, http.StatusOK, decs)
}

// Notify re-runs routing for one lead on operator demand. force=1 skips
// the duplicate check but never the qualification gate.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	if h.router == nil {
		respondError(w, http.StatusServiceUnavailable, "routing not configured")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	rec, err := h.leads.Get(r.Context(), sessionID)
	switch {
	case err == nil:
	case errors.Is(err, leadx.ErrNotFound):
		respondError(w, http.StatusNotFound, "lead not found")
		return
	default:
		log.Error().Err(err).Str("session_id", sessionID).Msg("lead get failed")
		respondError(w, http.StatusInternalServerError, "lead get failed")
		return
	}

	var outcome contractx.RouteOutcome
	if force := r.URL.Query().Get("force"); force == "1" || strings.EqualFold(force, "true") {
		outcome = h.router.ForceSend(r.Context(), rec)
	} else {
		outcome = h.router.RouteIfNeeded(r.Context(), rec)
	}

	respondJSON(w, http.StatusOK, outcome)
}

func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	entries := []journalx.Entry{}
	if h.ring != nil {
		entries = h.ring.Snapshot()
	}
	respondJSON(w, http.StatusOK, entries)
}

type mailTestResult struct {
	Destination string `json:"destination"`
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
}

// MailTest sends a test notification to every configured destination in
// parallel and reports per-destination results.
func (h *Handler) MailTest(w http.ResponseWriter, r *http.Request) {
	if h.mailer == nil {
		respondError(w, http.StatusServiceUnavailable, "mail not configured")
		return
	}
	if len(h.destinations) == 0 {
		respondError(w, http.StatusConflict, "no destinations configured")
		return
	}

	g, ctx := errgroup.WithContext(r.Context())
	results := make([]mailTestResult, len(h.destinations))
	for i, dest := range h.destinations {
		i, dest := i, dest
		g.Go(func() error {
			err := h.mailer.Send(ctx, dest, "Lead routing test", "This is a routing test notification; no action is needed.")
			results[i] = mailTestResult{Destination: dest, OK: err == nil}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	// Send failures land in results, not in the group error.
	_ = g.Wait()

	respondJSON(w, http.StatusOK, results)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response failed")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
