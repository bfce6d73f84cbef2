package http

import (
	"context"
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mblcrm/lendgate/internal/domain/call"
	"github.com/mblcrm/lendgate/internal/domain/meeting"
	"github.com/mblcrm/lendgate/internal/domain/risk"
	"github.com/mblcrm/lendgate/internal/resilience"
	"github.com/mblcrm/lendgate/internal/service"
)

const (
	defaultBodyLimit = 1 << 20
	// Base64 inflates the 8 MiB document cap by a third.
	documentBodyLimit = 12 << 20
)

// AuditReader reads back recent audit entries for the operations UI.
type AuditReader interface {
	Recent(ctx context.Context, dependency string, limit int) ([]call.AuditEntry, error)
}

// Handlers holds the services the HTTP layer dispatches to.
type Handlers struct {
	EIN        *service.EINService
	Meetings   *service.MeetingService
	Documents  *service.DocumentService
	Risk       *service.RiskService
	Resilience *resilience.Manager
	Audit      AuditReader
}

type einVerifyRequest struct {
	EIN       string `json:"ein"`
	LegalName string `json:"legal_name"`
}

// VerifyEIN handles POST /api/v1/ein/verify.
func (h *Handlers) VerifyEIN(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[einVerifyRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}
	out, err := h.EIN.Verify(r.Context(), req.EIN, req.LegalName)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type analyzeDocumentRequest struct {
	FileName      string `json:"file_name"`
	ContentBase64 string `json:"content_base64"`
}

// AnalyzeDocument handles POST /api/v1/documents/analyze.
func (h *Handlers) AnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[analyzeDocumentRequest](w, r, documentBodyLimit)
	if !ok {
		return
	}
	content, err := base64.StdEncoding.DecodeString(req.ContentBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "content_base64 is not valid base64")
		return
	}
	out, err := h.Documents.Analyze(r.Context(), req.FileName, content)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateMeeting handles POST /api/v1/meetings.
func (h *Handlers) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[meeting.Request](w, r, defaultBodyLimit)
	if !ok {
		return
	}
	out, err := h.Meetings.Create(r.Context(), req)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// NotifyTeams handles POST /api/v1/notifications/teams.
func (h *Handlers) NotifyTeams(w http.ResponseWriter, r *http.Request) {
	msg, ok := readJSON[meeting.ChannelMessage](w, r, defaultBodyLimit)
	if !ok {
		return
	}
	out, err := h.Meetings.Notify(r.Context(), msg)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// AssessRisk handles POST /api/v1/risk/assess.
func (h *Handlers) AssessRisk(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[risk.Request](w, r, defaultBodyLimit)
	if !ok {
		return
	}
	out, err := h.Risk.Assess(r.Context(), req)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ResilienceStatus handles GET /api/v1/resilience/status.
func (h *Handlers) ResilienceStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Resilience.StatusAll())
}

// ResilienceStatusByDependency handles GET /api/v1/resilience/status/{dependency}.
func (h *Handlers) ResilienceStatusByDependency(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dependency")
	st, ok := h.Resilience.Status(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown dependency")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// RecentAudit handles GET /api/v1/audit/recent.
func (h *Handlers) RecentAudit(w http.ResponseWriter, r *http.Request) {
	if h.Audit == nil {
		writeError(w, http.StatusServiceUnavailable, "audit store not configured")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	entries, err := h.Audit.Recent(r.Context(), r.URL.Query().Get("dependency"), limit)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
