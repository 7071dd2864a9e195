package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/anonchat/anonchat/internal/auth"
	"github.com/anonchat/anonchat/internal/models"
	"github.com/anonchat/anonchat/internal/services"
	pkghttp "github.com/anonchat/anonchat/pkg/http"
)

// ChatServiceInterface defines the interface for chat business logic
type ChatServiceInterface interface {
	Details(ctx context.Context, claim auth.Claim, conversationID int64, ip, userAgent string) (*services.ConversationDetails, error)
	FetchSince(ctx context.Context, claim auth.Claim, conversationID, afterID int64, ip, userAgent string) ([]*models.Message, error)
	Send(ctx context.Context, claim auth.Claim, conversationID int64, sender, content, ip, userAgent string) (*models.Message, error)
	MarkRead(ctx context.Context, claim auth.Claim, conversationID int64, ids []int64, ip, userAgent string) (int64, error)
	Typing(ctx context.Context, claim auth.Claim, conversationID int64, active bool, ip, userAgent string) (bool, error)
	SaveReport(ctx context.Context, claim auth.Claim, conversationID int64, report, ip, userAgent string) error
	SetStatus(ctx context.Context, claim auth.Claim, conversationID int64, status string) error
	ListDeleted(ctx context.Context, claim auth.Claim) ([]*models.Message, error)
}

// Chat actions form a closed set; anything else is rejected before touching
// the service layer.
const (
	actionConversationDetails = "conversation_details"
	actionListMessages        = "list_messages"
	actionSendMessage         = "send_message"
	actionMarkRead            = "mark_read"
	actionTyping              = "typing"
	actionAdminSaveReport     = "admin_save_report"
	actionAdminListDeleted    = "admin_list_deleted"
	actionAdminSetStatus      = "admin_set_status"
)

// ChatRequest is the single POST body for all chat actions. Fields beyond
// action, csrf_token and conversation_id are per-action payloads.
type ChatRequest struct {
	Action         string `json:"action" validate:"required"`
	CSRFToken      string `json:"csrf_token" validate:"required"`
	ConversationID int64  `json:"conversation_id"`

	AfterID int64   `json:"after_id"`
	Sender  string  `json:"sender"`
	Content string  `json:"content"`
	IDs     []int64 `json:"ids"`
	Typing  bool    `json:"typing"`
	Report  string  `json:"report"`
	Status  string  `json:"status"`
}

// ChatHandler dispatches the polling chat protocol
type ChatHandler struct {
	service   ChatServiceInterface
	authority *auth.Authority
	audit     SecurityAuditor
	ipConfig  *pkghttp.IPConfig
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service ChatServiceInterface, authority *auth.Authority, audit SecurityAuditor, ipConfig *pkghttp.IPConfig) *ChatHandler {
	return &ChatHandler{
		service:   service,
		authority: authority,
		audit:     audit,
		ipConfig:  ipConfig,
	}
}

// Dispatch routes one chat request to its action.
func (h *ChatHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteFailure(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	session, ok := h.authority.Current(r)
	if !ok {
		if h.authority.Expired(r) {
			pkghttp.WriteModelError(w, models.ErrSessionExpired)
			return
		}
		pkghttp.WriteFailure(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	claim := session.Claim()
	if !claim.IsAuthenticated() {
		pkghttp.WriteFailure(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx := r.Context()
	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	if !auth.ValidateCSRF(session, auth.PurposeChat, req.CSRFToken) {
		if h.audit != nil {
			h.audit.Suspicious(ctx, ip, userAgent, "csrf_mismatch:purpose="+auth.PurposeChat)
		}
		pkghttp.WriteFailure(w, http.StatusForbidden, "Invalid security token")
		return
	}

	switch req.Action {
	case actionConversationDetails:
		details, err := h.service.Details(ctx, claim, req.ConversationID, ip, userAgent)
		if err != nil {
			pkghttp.WriteModelError(w, err)
			return
		}
		pkghttp.WriteSuccess(w, http.StatusOK, details)

	case actionListMessages:
		messages, err := h.service.FetchSince(ctx, claim, req.ConversationID, req.AfterID, ip, userAgent)
		if err != nil {
			pkghttp.WriteModelError(w, err)
			return
		}
		pkghttp.WriteSuccess(w, http.StatusOK, map[string]any{"messages": messages})

	case actionSendMessage:
		message, err := h.service.Send(ctx, claim, req.ConversationID, req.Sender, req.Content, ip, userAgent)
		if err != nil {
			pkghttp.WriteModelError(w, err)
			return
		}
		pkghttp.WriteSuccess(w, http.StatusOK, map[string]any{"message": message})

	case actionMarkRead:
		count, err := h.service.MarkRead(ctx, claim, req.ConversationID, req.IDs, ip, userAgent)
		if err != nil {
			pkghttp.WriteModelError(w, err)
			return
		}
		pkghttp.WriteSuccess(w, http.StatusOK, map[string]any{"marked_read": count})

	case actionTyping:
		peerTyping, err := h.service.Typing(ctx, claim, req.ConversationID, req.Typing, ip, userAgent)
		if err != nil {
			pkghttp.WriteModelError(w, err)
			return
		}
		pkghttp.WriteSuccess(w, http.StatusOK, map[string]any{"peer_typing": peerTyping})

	case actionAdminSaveReport:
		if err := h.service.SaveReport(ctx, claim, req.ConversationID, req.Report, ip, userAgent); err != nil {
			pkghttp.WriteModelError(w, err)
			return
		}
		pkghttp.WriteSuccess(w, http.StatusOK, map[string]any{"saved": true})

	case actionAdminListDeleted:
		messages, err := h.service.ListDeleted(ctx, claim)
		if err != nil {
			pkghttp.WriteModelError(w, err)
			return
		}
		pkghttp.WriteSuccess(w, http.StatusOK, map[string]any{"messages": messages})

	case actionAdminSetStatus:
		if err := h.service.SetStatus(ctx, claim, req.ConversationID, req.Status); err != nil {
			pkghttp.WriteModelError(w, err)
			return
		}
		pkghttp.WriteSuccess(w, http.StatusOK, map[string]any{"status": req.Status})

	default:
		pkghttp.WriteModelError(w, models.NewValidationError("action", "unknown action"))
	}
}
