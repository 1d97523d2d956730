package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wagebud/wagebud/internal/pipeline"
	"github.com/wagebud/wagebud/internal/profile"
	"github.com/wagebud/wagebud/internal/session"
	"github.com/wagebud/wagebud/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// TurnRunner abstracts the pipeline for the HTTP layer.
type TurnRunner interface {
	Turn(ctx context.Context, in pipeline.TurnInput) pipeline.Outcome
}

// TurnStore records processed turns for diagnostics. Implemented by
// storage.Store; nil disables the audit log.
type TurnStore interface {
	SaveTurn(t storage.TurnRecord) error
}

// Deps holds the HTTP handler's collaborators. Sessions may be nil, in which
// case requests must carry currentState themselves.
type Deps struct {
	Runner   TurnRunner
	Sessions *session.Manager
	Turns    TurnStore
}

// TurnRequest is the body of POST /v1/turns. CurrentState and SessionID are
// alternative ways to carry state: explicit state wins when both are set.
type TurnRequest struct {
	Text         string           `json:"text"`
	CurrentState *profile.Profile `json:"currentState,omitempty"`
	SessionID    string           `json:"sessionId,omitempty"`
}

// TurnResponse is a pipeline outcome plus the session id when one was used.
type TurnResponse struct {
	pipeline.Outcome
	SessionID string `json:"sessionId,omitempty"`
}

// NewHandler returns the REST surface: health, the turn endpoint, and
// session inspection.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", handleHealth)
	r.Post("/v1/turns", handleTurn(deps))
	if deps.Sessions != nil {
		r.Get("/v1/sessions/{id}", handleGetSession(deps))
		r.Delete("/v1/sessions/{id}", handleDeleteSession(deps))
	}
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleTurn(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req TurnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Text == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
			return
		}

		state := req.CurrentState
		sessionID := req.SessionID
		useSession := state == nil && deps.Sessions != nil

		if useSession {
			var err error
			if sessionID == "" {
				if sessionID, err = deps.Sessions.Create(); err != nil {
					httpError(w, http.StatusInternalServerError, "api_error", "creating session: %v", err)
					return
				}
			}
			st, err := deps.Sessions.Get(sessionID)
			if errors.Is(err, session.ErrNotFound) {
				httpError(w, http.StatusNotFound, "invalid_request_error", "unknown session %q", sessionID)
				return
			}
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
				return
			}
			state = &st.Profile
		}

		out := deps.Runner.Turn(r.Context(), pipeline.TurnInput{Text: req.Text, CurrentState: state})

		if useSession {
			persistSessionState(deps.Sessions, sessionID, out)
		}
		recordTurn(deps.Turns, sessionID, req.Text, out)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(TurnResponse{Outcome: out, SessionID: sessionID})
	}
}

// SessionResponse is the body of GET /v1/sessions/{id}.
type SessionResponse struct {
	SessionID     string          `json:"sessionId"`
	Profile       profile.Profile `json:"profile"`
	Language      string          `json:"language"`
	MissingFields []string        `json:"missingFields"`
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		st, err := deps.Sessions.Get(id)
		if errors.Is(err, session.ErrNotFound) {
			httpError(w, http.StatusNotFound, "invalid_request_error", "unknown session %q", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SessionResponse{
			SessionID:     id,
			Profile:       st.Profile,
			Language:      st.Language,
			MissingFields: st.Profile.Missing(),
		})
	}
}

func handleDeleteSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := deps.Sessions.Reset(id); err != nil {
			if errors.Is(err, session.ErrNotFound) {
				httpError(w, http.StatusNotFound, "invalid_request_error", "unknown session %q", id)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "deleting session: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// persistSessionState advances the stored profile after a turn. Turns whose
// extraction failed (data_quality) are skipped so the session keeps its last
// known-good profile even though the outcome echoes the diagnostic marker.
func persistSessionState(sessions *session.Manager, id string, out pipeline.Outcome) {
	for _, f := range out.MissingFields {
		if f == pipeline.DataQualityField {
			return
		}
	}
	merged, ok := out.StructuredData.(profile.Profile)
	if !ok {
		return
	}
	if err := sessions.Advance(id, session.State{Profile: merged, Language: out.Language}); err != nil {
		slog.Warn("failed to persist session state", "session", id, "error", err)
	}
}

// recordTurn appends the turn to the audit log; failures are logged, never
// surfaced.
func recordTurn(turns TurnStore, sessionID, text string, out pipeline.Outcome) {
	if turns == nil {
		return
	}
	diagnostics, err := json.Marshal(map[string]any{
		"missingFields": out.MissingFields,
		"language":      out.Language,
	})
	if err != nil {
		diagnostics = []byte("{}")
	}
	rec := storage.TurnRecord{
		ID:          uuid.New().String(),
		SessionID:   sessionID,
		Status:      string(out.Status),
		UserText:    text,
		Message:     out.Message,
		Diagnostics: string(diagnostics),
		CreatedAt:   time.Now().UTC(),
	}
	if err := turns.SaveTurn(rec); err != nil {
		slog.Warn("failed to record turn", "session", sessionID, "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
