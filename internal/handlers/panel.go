package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anonchat/anonchat/internal/auth"
	"github.com/anonchat/anonchat/internal/models"
	"github.com/anonchat/anonchat/internal/services"
	pkghttp "github.com/anonchat/anonchat/pkg/http"
)

// PanelServiceInterface defines the interface for the admin panel CRUD surface
type PanelServiceInterface interface {
	List(ctx context.Context, tableName, search string, limit, offset int) (*services.PanelListResult, error)
	Get(ctx context.Context, tableName string, id int64) (models.PanelRow, error)
	Update(ctx context.Context, tableName string, id int64, patch map[string]any) error
	DeleteMany(ctx context.Context, session *auth.Session, tableName string, ids []int64) (*services.PanelDeleteResult, error)
	Undo(ctx context.Context, session *auth.Session, token string) (int, error)
	Export(ctx context.Context, w io.Writer, tableName string) error
}

// Panel actions form a closed set like the chat protocol's.
const (
	panelActionList   = "list"
	panelActionGet    = "get"
	panelActionUpdate = "update"
	panelActionDelete = "delete_many"
	panelActionUndo   = "undo_delete"
)

// PanelRequest is the single POST body for all panel actions.
type PanelRequest struct {
	Action    string `json:"action" validate:"required"`
	CSRFToken string `json:"csrf_token" validate:"required"`
	Table     string `json:"table"`

	ID        int64          `json:"id"`
	IDs       []int64        `json:"ids"`
	Patch     map[string]any `json:"patch"`
	Search    string         `json:"search"`
	Limit     int            `json:"limit"`
	Offset    int            `json:"offset"`
	UndoToken string         `json:"undo_token"`
}

// PanelHandler serves the registry-driven admin CRUD panel
type PanelHandler struct {
	service   PanelServiceInterface
	authority *auth.Authority
	audit     SecurityAuditor
	ipConfig  *pkghttp.IPConfig
}

// NewPanelHandler creates a new PanelHandler
func NewPanelHandler(service PanelServiceInterface, authority *auth.Authority, audit SecurityAuditor, ipConfig *pkghttp.IPConfig) *PanelHandler {
	return &PanelHandler{
		service:   service,
		authority: authority,
		audit:     audit,
		ipConfig:  ipConfig,
	}
}

// Dispatch routes one panel request to its action. Admin-only: the claim is
// checked before the body is even looked at.
func (h *PanelHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authority.RequireAdmin(r); err != nil {
		pkghttp.WriteModelError(w, err)
		return
	}

	session, _ := h.authority.Current(r)

	var req PanelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteFailure(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ctx := r.Context()

	if !auth.ValidateCSRF(session, auth.PurposeAdminPanel, req.CSRFToken) {
		if h.audit != nil {
			h.audit.Suspicious(ctx, pkghttp.ExtractClientIP(r, h.ipConfig), r.Header.Get("User-Agent"),
				"csrf_mismatch:purpose="+auth.PurposeAdminPanel)
		}
		pkghttp.WriteFailure(w, http.StatusForbidden, "Invalid security token")
		return
	}

	switch req.Action {
	case panelActionList:
		result, err := h.service.List(ctx, req.Table, req.Search, req.Limit, req.Offset)
		if err != nil {
			pkghttp.WriteModelError(w, err)
			return
		}
		pkghttp.WriteSuccess(w, http.StatusOK, result)

	case panelActionGet:
		row, err := h.service.Get(ctx, req.Table, req.ID)
		if err != nil {
			pkghttp.WriteModelError(w, err)
			return
		}
		pkghttp.WriteSuccess(w, http.StatusOK, row)

	case panelActionUpdate:
		if err := h.service.Update(ctx, req.Table, req.ID, req.Patch); err != nil {
			pkghttp.WriteModelError(w, err)
			return
		}
		pkghttp.WriteSuccess(w, http.StatusOK, map[string]any{"updated": true})

	case panelActionDelete:
		result, err := h.service.DeleteMany(ctx, session, req.Table, req.IDs)
		if err != nil {
			pkghttp.WriteModelError(w, err)
			return
		}
		pkghttp.WriteSuccess(w, http.StatusOK, result)

	case panelActionUndo:
		restored, err := h.service.Undo(ctx, session, req.UndoToken)
		if err != nil {
			pkghttp.WriteModelError(w, err)
			return
		}
		pkghttp.WriteSuccess(w, http.StatusOK, map[string]any{"restored": restored})

	default:
		pkghttp.WriteModelError(w, models.NewValidationError("action", "unknown action"))
	}
}

// Export streams a registered table as a CSV download. GET with no side
// effects, so no CSRF token is involved; admin claim is still required.
func (h *PanelHandler) Export(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authority.RequireAdmin(r); err != nil {
		pkghttp.WriteModelError(w, err)
		return
	}

	tableName := r.URL.Query().Get("table")

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s-%s.csv", tableName, time.Now().UTC().Format("2006-01-02")))

	if err := h.service.Export(r.Context(), w, tableName); err != nil {
		// Headers may already be out; log-and-abort is all that's left.
		pkghttp.WriteModelError(w, err)
	}
}
