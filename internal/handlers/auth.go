package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/anonchat/anonchat/internal/auth"
	"github.com/anonchat/anonchat/internal/models"
	pkghttp "github.com/anonchat/anonchat/pkg/http"
)

// LoginServiceInterface defines the interface for admin authentication
type LoginServiceInterface interface {
	Login(ctx context.Context, username, password, ip, userAgent string) (*models.Account, error)
}

// SecurityAuditor records security-relevant events. Satisfied by
// services.AuditService.
type SecurityAuditor interface {
	Suspicious(ctx context.Context, ip, userAgent, details string)
}

// ConversationServiceInterface defines the interface for conversation lifecycle
type ConversationServiceInterface interface {
	Create(ctx context.Context, ip, userAgent string) (*models.Conversation, error)
	Join(ctx context.Context, code, ip, userAgent string) (*models.Conversation, error)
}

// AuthHandler handles login, join, logout and session introspection
type AuthHandler struct {
	login         LoginServiceInterface
	conversations ConversationServiceInterface
	authority     *auth.Authority
	audit         SecurityAuditor
	ipConfig      *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(login LoginServiceInterface, conversations ConversationServiceInterface, authority *auth.Authority, audit SecurityAuditor, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		login:         login,
		conversations: conversations,
		authority:     authority,
		audit:         audit,
		ipConfig:      ipConfig,
	}
}

// rejectCSRF audits a token mismatch and writes the 403. A bad or missing
// token on a cookie-bearing request is a cross-site attempt or a broken
// client; either way it goes to the security log.
func (h *AuthHandler) rejectCSRF(w http.ResponseWriter, r *http.Request, purpose, ip, userAgent string) {
	if h.audit != nil {
		h.audit.Suspicious(r.Context(), ip, userAgent, "csrf_mismatch:purpose="+purpose)
	}
	pkghttp.WriteFailure(w, http.StatusForbidden, "Invalid security token")
}

// Request DTOs

// LoginRequest represents the request body for admin login
type LoginRequest struct {
	Username  string `json:"username" validate:"required,min=1,max=64"`
	Password  string `json:"password" validate:"required"`
	CSRFToken string `json:"csrf_token" validate:"required"`
}

// JoinRequest represents the request body for joining a conversation by code
type JoinRequest struct {
	Code      string `json:"code" validate:"required,len=8"`
	CSRFToken string `json:"csrf_token" validate:"required"`
}

// CreateConversationRequest represents the request body for starting a conversation
type CreateConversationRequest struct {
	CSRFToken string `json:"csrf_token" validate:"required"`
}

// SessionResponse describes the caller's session for UI bootstrapping
type SessionResponse struct {
	Role           string            `json:"role"`
	Username       string            `json:"username,omitempty"`
	ConversationID int64             `json:"conversation_id,omitempty"`
	CSRFTokens     map[string]string `json:"csrf_tokens"`
}

// Login authenticates an admin and elevates the session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteFailure(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	session, err := h.authority.Ensure(w, r)
	if err != nil {
		pkghttp.WriteFailure(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	if !auth.ValidateCSRF(session, auth.PurposeAdminLogin, req.CSRFToken) {
		h.rejectCSRF(w, r, auth.PurposeAdminLogin, ip, userAgent)
		return
	}

	account, err := h.login.Login(r.Context(), strings.TrimSpace(req.Username), req.Password, ip, userAgent)
	if err != nil {
		pkghttp.WriteModelError(w, err)
		return
	}

	if err := h.authority.Elevate(w, session, auth.AdminClaim(account.ID, account.Username)); err != nil {
		pkghttp.WriteModelError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]any{
		"username": account.Username,
	})
}

// CreateConversation starts a new conversation and binds the caller to it as
// the anonymous participant.
func (h *AuthHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteFailure(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	session, err := h.authority.Ensure(w, r)
	if err != nil {
		pkghttp.WriteFailure(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	if !auth.ValidateCSRF(session, auth.PurposeJoin, req.CSRFToken) {
		h.rejectCSRF(w, r, auth.PurposeJoin, ip, userAgent)
		return
	}

	conversation, err := h.conversations.Create(r.Context(), ip, userAgent)
	if err != nil {
		pkghttp.WriteModelError(w, err)
		return
	}

	if err := h.authority.Elevate(w, session, auth.ParticipantClaim(conversation.ID)); err != nil {
		pkghttp.WriteModelError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, map[string]any{
		"conversation_id": conversation.ID,
		"code":            conversation.Code,
		"status":          conversation.Status,
	})
}

// Join admits an anonymous visitor into an existing conversation by code.
func (h *AuthHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteFailure(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	session, err := h.authority.Ensure(w, r)
	if err != nil {
		pkghttp.WriteFailure(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	ip := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	if !auth.ValidateCSRF(session, auth.PurposeJoin, req.CSRFToken) {
		h.rejectCSRF(w, r, auth.PurposeJoin, ip, userAgent)
		return
	}

	conversation, err := h.conversations.Join(r.Context(), strings.ToUpper(strings.TrimSpace(req.Code)), ip, userAgent)
	if err != nil {
		pkghttp.WriteModelError(w, err)
		return
	}

	if err := h.authority.Elevate(w, session, auth.ParticipantClaim(conversation.ID)); err != nil {
		pkghttp.WriteModelError(w, err)
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]any{
		"conversation_id": conversation.ID,
		"status":          conversation.Status,
	})
}

// Logout destroys the session regardless of its claim.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authority.End(w, r)
	pkghttp.WriteSuccess(w, http.StatusOK, map[string]any{"logged_out": true})
}

// Session describes the current session and hands out the CSRF tokens the
// caller's role may use. Tokens for purposes beyond the caller's role are
// never issued.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, err := h.authority.Ensure(w, r)
	if err != nil {
		pkghttp.WriteFailure(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	claim := session.Claim()
	resp := SessionResponse{
		Role:       "none",
		CSRFTokens: make(map[string]string),
	}

	var purposes []string
	switch claim.Kind {
	case auth.ClaimAdmin:
		resp.Role = "admin"
		resp.Username = claim.Username
		purposes = []string{auth.PurposeChat, auth.PurposeAdminPanel}
	case auth.ClaimParticipant:
		resp.Role = "participant"
		resp.ConversationID = claim.ConversationID
		purposes = []string{auth.PurposeChat}
	default:
		purposes = []string{auth.PurposeAdminLogin, auth.PurposeJoin}
	}

	for _, purpose := range purposes {
		token, err := auth.IssueCSRF(session, purpose)
		if err != nil {
			pkghttp.WriteFailure(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		resp.CSRFTokens[purpose] = token
	}

	pkghttp.WriteSuccess(w, http.StatusOK, resp)
}
