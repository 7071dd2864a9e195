package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonchat/anonchat/internal/auth"
	"github.com/anonchat/anonchat/internal/models"
	"github.com/anonchat/anonchat/internal/services"
	pkghttp "github.com/anonchat/anonchat/pkg/http"
	"github.com/stretchr/testify/require"
)

var testCookieConfig = auth.CookieConfig{
	Name:     "anonchat_session",
	Secret:   []byte("0123456789abcdef0123456789abcdef"),
	Secure:   false,
	Lifetime: 12 * time.Hour,
}

// harness wires a real store and authority around a handler under test, so
// requests travel the same cookie and context path they do in production.
type harness struct {
	store     *auth.Store
	authority *auth.Authority
}

func newHarness() *harness {
	store := auth.NewStore(30*time.Minute, 12*time.Hour)
	return &harness{
		store:     store,
		authority: auth.NewAuthority(store, testCookieConfig),
	}
}

// session creates a live session, optionally elevated to claim, and returns it
// with its chat-ready CSRF token minted.
func (h *harness) session(t *testing.T, claim *auth.Claim) *auth.Session {
	t.Helper()

	s := h.store.Create()
	if claim != nil {
		require.NoError(t, h.store.Authenticate(s, *claim))
	}
	return s
}

func (h *harness) csrf(t *testing.T, s *auth.Session, purpose string) string {
	t.Helper()

	token, err := auth.IssueCSRF(s, purpose)
	require.NoError(t, err)
	return token
}

// request builds a JSON POST carrying the session's signed cookie.
func (h *harness) request(t *testing.T, method, target string, body any, s *auth.Session) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	if s != nil {
		rec := httptest.NewRecorder()
		require.NoError(t, auth.SetSessionCookie(rec, s.ID(), testCookieConfig))
		for _, cookie := range rec.Result().Cookies() {
			req.AddCookie(cookie)
		}
	}

	return req
}

// serve runs the request through the session middleware into the handler.
func (h *harness) serve(handlerFunc http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.authority.Middleware(handlerFunc).ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func adminClaim() *auth.Claim {
	c := auth.AdminClaim(1, "root")
	return &c
}

func participantClaim(conversationID int64) *auth.Claim {
	c := auth.ParticipantClaim(conversationID)
	return &c
}

func testIPConfig() *pkghttp.IPConfig {
	return &pkghttp.IPConfig{}
}

// Mock services

// MockSecurityAuditor implements SecurityAuditor for testing
type MockSecurityAuditor struct {
	Details []string
}

func (m *MockSecurityAuditor) Suspicious(ctx context.Context, ip, userAgent, details string) {
	m.Details = append(m.Details, details)
}

// MockChatService implements ChatServiceInterface for testing
type MockChatService struct {
	DetailsFunc     func(ctx context.Context, claim auth.Claim, conversationID int64, ip, userAgent string) (*services.ConversationDetails, error)
	FetchSinceFunc  func(ctx context.Context, claim auth.Claim, conversationID, afterID int64, ip, userAgent string) ([]*models.Message, error)
	SendFunc        func(ctx context.Context, claim auth.Claim, conversationID int64, sender, content, ip, userAgent string) (*models.Message, error)
	MarkReadFunc    func(ctx context.Context, claim auth.Claim, conversationID int64, ids []int64, ip, userAgent string) (int64, error)
	TypingFunc      func(ctx context.Context, claim auth.Claim, conversationID int64, active bool, ip, userAgent string) (bool, error)
	SaveReportFunc  func(ctx context.Context, claim auth.Claim, conversationID int64, report, ip, userAgent string) error
	SetStatusFunc   func(ctx context.Context, claim auth.Claim, conversationID int64, status string) error
	ListDeletedFunc func(ctx context.Context, claim auth.Claim) ([]*models.Message, error)
}

func (m *MockChatService) Details(ctx context.Context, claim auth.Claim, conversationID int64, ip, userAgent string) (*services.ConversationDetails, error) {
	if m.DetailsFunc != nil {
		return m.DetailsFunc(ctx, claim, conversationID, ip, userAgent)
	}
	return &services.ConversationDetails{Conversation: &models.Conversation{ID: conversationID}}, nil
}

func (m *MockChatService) FetchSince(ctx context.Context, claim auth.Claim, conversationID, afterID int64, ip, userAgent string) ([]*models.Message, error) {
	if m.FetchSinceFunc != nil {
		return m.FetchSinceFunc(ctx, claim, conversationID, afterID, ip, userAgent)
	}
	return []*models.Message{}, nil
}

func (m *MockChatService) Send(ctx context.Context, claim auth.Claim, conversationID int64, sender, content, ip, userAgent string) (*models.Message, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, claim, conversationID, sender, content, ip, userAgent)
	}
	return &models.Message{ID: 1, ConversationID: conversationID, Content: content}, nil
}

func (m *MockChatService) MarkRead(ctx context.Context, claim auth.Claim, conversationID int64, ids []int64, ip, userAgent string) (int64, error) {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, claim, conversationID, ids, ip, userAgent)
	}
	return 0, nil
}

func (m *MockChatService) Typing(ctx context.Context, claim auth.Claim, conversationID int64, active bool, ip, userAgent string) (bool, error) {
	if m.TypingFunc != nil {
		return m.TypingFunc(ctx, claim, conversationID, active, ip, userAgent)
	}
	return false, nil
}

func (m *MockChatService) SaveReport(ctx context.Context, claim auth.Claim, conversationID int64, report, ip, userAgent string) error {
	if m.SaveReportFunc != nil {
		return m.SaveReportFunc(ctx, claim, conversationID, report, ip, userAgent)
	}
	return nil
}

func (m *MockChatService) SetStatus(ctx context.Context, claim auth.Claim, conversationID int64, status string) error {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ctx, claim, conversationID, status)
	}
	return nil
}

func (m *MockChatService) ListDeleted(ctx context.Context, claim auth.Claim) ([]*models.Message, error) {
	if m.ListDeletedFunc != nil {
		return m.ListDeletedFunc(ctx, claim)
	}
	return []*models.Message{}, nil
}

// MockLoginService implements LoginServiceInterface for testing
type MockLoginService struct {
	LoginFunc func(ctx context.Context, username, password, ip, userAgent string) (*models.Account, error)
}

func (m *MockLoginService) Login(ctx context.Context, username, password, ip, userAgent string) (*models.Account, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password, ip, userAgent)
	}
	return nil, models.ErrUnauthorized
}

// MockConversationService implements ConversationServiceInterface for testing
type MockConversationService struct {
	CreateFunc func(ctx context.Context, ip, userAgent string) (*models.Conversation, error)
	JoinFunc   func(ctx context.Context, code, ip, userAgent string) (*models.Conversation, error)
}

func (m *MockConversationService) Create(ctx context.Context, ip, userAgent string) (*models.Conversation, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ip, userAgent)
	}
	return &models.Conversation{ID: 5, Code: "ABCD2345", Status: models.StatusPending}, nil
}

func (m *MockConversationService) Join(ctx context.Context, code, ip, userAgent string) (*models.Conversation, error) {
	if m.JoinFunc != nil {
		return m.JoinFunc(ctx, code, ip, userAgent)
	}
	return &models.Conversation{ID: 5, Code: code, Status: models.StatusActive}, nil
}

// MockPanelService implements PanelServiceInterface for testing
type MockPanelService struct {
	ListFunc       func(ctx context.Context, tableName, search string, limit, offset int) (*services.PanelListResult, error)
	GetFunc        func(ctx context.Context, tableName string, id int64) (models.PanelRow, error)
	UpdateFunc     func(ctx context.Context, tableName string, id int64, patch map[string]any) error
	DeleteManyFunc func(ctx context.Context, session *auth.Session, tableName string, ids []int64) (*services.PanelDeleteResult, error)
	UndoFunc       func(ctx context.Context, session *auth.Session, token string) (int, error)
	ExportFunc     func(ctx context.Context, w io.Writer, tableName string) error
}

func (m *MockPanelService) List(ctx context.Context, tableName, search string, limit, offset int) (*services.PanelListResult, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tableName, search, limit, offset)
	}
	return &services.PanelListResult{Rows: []models.PanelRow{}, Limit: limit, Offset: offset}, nil
}

func (m *MockPanelService) Get(ctx context.Context, tableName string, id int64) (models.PanelRow, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, tableName, id)
	}
	return models.PanelRow{"id": id}, nil
}

func (m *MockPanelService) Update(ctx context.Context, tableName string, id int64, patch map[string]any) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tableName, id, patch)
	}
	return nil
}

func (m *MockPanelService) DeleteMany(ctx context.Context, session *auth.Session, tableName string, ids []int64) (*services.PanelDeleteResult, error) {
	if m.DeleteManyFunc != nil {
		return m.DeleteManyFunc(ctx, session, tableName, ids)
	}
	return &services.PanelDeleteResult{Deleted: len(ids), UndoToken: "token"}, nil
}

func (m *MockPanelService) Undo(ctx context.Context, session *auth.Session, token string) (int, error) {
	if m.UndoFunc != nil {
		return m.UndoFunc(ctx, session, token)
	}
	return 0, models.ErrNotFound
}

func (m *MockPanelService) Export(ctx context.Context, w io.Writer, tableName string) error {
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, w, tableName)
	}
	return nil
}
