package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

type fakeAuth struct {
	loginFn    func(ctx context.Context, login, password string) (*domain.TokenResponse, error)
	registerFn func(ctx context.Context, requester *domain.User, in domain.RegisterInput) (*domain.User, error)
}

func (f *fakeAuth) Login(ctx context.Context, login, password string) (*domain.TokenResponse, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, login, password)
	}
	return &domain.TokenResponse{AccessToken: "tok", TokenType: "bearer"}, nil
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*domain.User, error) {
	switch token {
	case "ca-token":
		return &domain.User{ID: "user-1", Username: "ca", Role: domain.RoleCA, IsActive: true}, nil
	case "admin-token":
		return &domain.User{ID: "admin-1", Username: "root", Role: domain.RoleAdmin, IsActive: true}, nil
	default:
		return nil, domain.WrapError(domain.ErrUnauthorized, "authenticate",
			errors.New("could not validate credentials"))
	}
}

func (f *fakeAuth) Register(ctx context.Context, requester *domain.User, in domain.RegisterInput) (*domain.User, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, requester, in)
	}
	return &domain.User{ID: "user-2", Username: in.Username, Role: domain.RoleCA, IsActive: true}, nil
}

func (f *fakeAuth) UpdateProfile(_ context.Context, user *domain.User, _ domain.UserUpdate) (*domain.User, error) {
	return user, nil
}

func (f *fakeAuth) RequestPasswordReset(context.Context, string) error { return nil }

type fakeIngestor struct {
	err error
}

func (f *fakeIngestor) Upload(_ context.Context, owner *domain.User, in domain.UploadInput) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: "doc-1", Title: in.Title, UserID: owner.ID, Status: domain.StatusUploaded, FileType: "pdf"}, nil
}

type fakeLifecycle struct {
	getErr     error
	triggerErr error
}

func (f *fakeLifecycle) List(context.Context, string, domain.DocumentFilter) ([]domain.Document, error) {
	return nil, nil
}

func (f *fakeLifecycle) Get(_ context.Context, userID, id string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &domain.Document{ID: id, UserID: userID, Status: domain.StatusUploaded}, nil
}

func (f *fakeLifecycle) TriggerProcessing(_ context.Context, _, id string) (*domain.ProcessResponse, error) {
	if f.triggerErr != nil {
		return nil, f.triggerErr
	}
	return &domain.ProcessResponse{DocumentID: id, Status: domain.StatusProcessing, Message: "Document processing started"}, nil
}

func (f *fakeLifecycle) Status(_ context.Context, _, id string) (*domain.StatusResponse, error) {
	return &domain.StatusResponse{DocumentID: id, Status: domain.StatusUploaded}, nil
}

func (f *fakeLifecycle) Delete(context.Context, string, string) error { return nil }

type fakeAnalysis struct {
	resultsErr error
}

func (f *fakeAnalysis) Results(context.Context, string, string) (*domain.AnalysisResults, error) {
	if f.resultsErr != nil {
		return nil, f.resultsErr
	}
	return &domain.AnalysisResults{Analysis: domain.AnalysisSnapshot{CibilScore: 840}}, nil
}

func (f *fakeAnalysis) Cibil(context.Context, string, string) (*domain.CibilScore, error) {
	return &domain.CibilScore{Score: 840}, nil
}

func (f *fakeAnalysis) UpdateCibil(_ context.Context, _, _ string, fields domain.FinancialFields) (*domain.CibilScore, error) {
	return &domain.CibilScore{Score: 800, ExtractedData: fields}, nil
}

func (f *fakeAnalysis) Summary(context.Context, string, string) (*domain.SummaryResponse, error) {
	return &domain.SummaryResponse{Title: "Statement"}, nil
}

func (f *fakeAnalysis) Tables(context.Context, string, string) ([]domain.Table, error) {
	return []domain.Table{{ID: 1, Title: "Income Statement"}}, nil
}

func (f *fakeAnalysis) OCRText(context.Context, string, string) (*domain.OCRResult, error) {
	return &domain.OCRResult{Text: "text", Confidence: 0.9}, nil
}

func (f *fakeAnalysis) DownloadReport(context.Context, string, string, string) ([]byte, string, string, error) {
	return []byte("%PDF-fake"), "analysis-report-doc-1.pdf", "application/pdf", nil
}

func (f *fakeAnalysis) Chat(_ context.Context, _, _, message string) (string, error) {
	return "The reported income is 500000.00.", nil
}

type fakeClients struct{}

func (fakeClients) List(context.Context, string, string, int, int) ([]domain.Client, error) {
	return nil, nil
}
func (fakeClients) Create(_ context.Context, caID string, in domain.ClientInput) (*domain.Client, error) {
	return &domain.Client{ID: "client-1", Name: in.Name, CAID: caID}, nil
}
func (fakeClients) Get(context.Context, string, string) (*domain.Client, error) {
	return &domain.Client{ID: "client-1"}, nil
}
func (fakeClients) Update(context.Context, string, string, domain.ClientInput) (*domain.Client, error) {
	return &domain.Client{ID: "client-1"}, nil
}
func (fakeClients) Delete(context.Context, string, string) error { return nil }

type fakeAdmin struct{}

func (fakeAdmin) Dashboard(context.Context) (*domain.DashboardStats, error) {
	return &domain.DashboardStats{TotalUsers: 1}, nil
}
func (fakeAdmin) ListUsers(context.Context, int, int) ([]domain.User, error) { return nil, nil }
func (fakeAdmin) UpdateUser(context.Context, string, domain.UserUpdate) (*domain.User, error) {
	return &domain.User{ID: "user-2"}, nil
}
func (fakeAdmin) DeleteUser(context.Context, *domain.User, string) error { return nil }
func (fakeAdmin) Stats(_ context.Context, timeRange string) (*domain.UsageStats, error) {
	return &domain.UsageStats{TimeRange: timeRange, TotalDocuments: 3}, nil
}
func (fakeAdmin) CreateUser(_ context.Context, in domain.RegisterInput) (*domain.User, error) {
	return &domain.User{ID: "user-3", Username: in.Username, Role: domain.RoleCA, IsActive: true}, nil
}
func (fakeAdmin) GetUser(_ context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id, Username: "ca", Role: domain.RoleCA, IsActive: true}, nil
}

type fakeCA struct{}

func (fakeCA) Dashboard(context.Context, string) (*domain.CADashboard, error) {
	return &domain.CADashboard{TotalClients: 2, TotalDocuments: 5, ProcessedDocuments: 4}, nil
}

func newTestRouter(overrides func(*RouterConfig)) http.Handler {
	cfg := RouterConfig{
		Ingestor:  &fakeIngestor{},
		Lifecycle: &fakeLifecycle{},
		Analysis:  &fakeAnalysis{},
		Auth:      &fakeAuth{},
		Clients:   fakeClients{},
		Admin:     fakeAdmin{},
		CA:        fakeCA{},
	}
	if overrides != nil {
		overrides(&cfg)
	}
	return NewRouter(cfg).Handler()
}

func doRequest(handler http.Handler, method, target, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestMissingTokenReturns401(t *testing.T) {
	handler := newTestRouter(nil)

	res := doRequest(handler, http.MethodGet, "/api/documents", "", nil, "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["detail"] == "" {
		t.Fatalf("expected detail message")
	}
}

func TestInvalidTokenReturns401(t *testing.T) {
	handler := newTestRouter(nil)

	res := doRequest(handler, http.MethodGet, "/api/documents", "garbage", nil, "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestUnownedDocumentReturns404(t *testing.T) {
	handler := newTestRouter(func(cfg *RouterConfig) {
		cfg.Lifecycle = &fakeLifecycle{
			getErr: domain.WrapError(domain.ErrNotFound, "fetch document", errors.New("document not found")),
		}
	})

	res := doRequest(handler, http.MethodGet, "/api/documents/doc-9", "ca-token", nil, "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestUploadRejectsBadExtensionWith400(t *testing.T) {
	handler := newTestRouter(func(cfg *RouterConfig) {
		cfg.Ingestor = &fakeIngestor{
			err: domain.WrapError(domain.ErrInvalidInput, "upload",
				errors.New("only PDF and image files (JPG, JPEG, PNG) are allowed")),
		}
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "statement.docx")
	_, _ = part.Write([]byte("content"))
	_ = mw.WriteField("title", "Statement")
	_ = mw.Close()

	res := doRequest(handler, http.MethodPost, "/api/documents/upload", "ca-token", &buf, mw.FormDataContentType())
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "only PDF and image files") {
		t.Fatalf("expected extension detail, got %s", res.Body.String())
	}
}

func TestTriggerWhileProcessingReturns400(t *testing.T) {
	handler := newTestRouter(func(cfg *RouterConfig) {
		cfg.Lifecycle = &fakeLifecycle{
			triggerErr: domain.WrapError(domain.ErrInvalidInput, "trigger processing",
				errors.New("document is already being processed")),
		}
	})

	res := doRequest(handler, http.MethodPost, "/api/documents/doc-1/process", "ca-token", nil, "")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestRegisterRequiresAdmin(t *testing.T) {
	handler := newTestRouter(nil)

	payload, _ := json.Marshal(domain.RegisterInput{Username: "new", Email: "new@x.io", Password: "pw"})
	res := doRequest(handler, http.MethodPost, "/api/auth/register", "ca-token",
		bytes.NewBuffer(payload), "application/json")
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}

	res = doRequest(handler, http.MethodPost, "/api/auth/register", "admin-token",
		bytes.NewBuffer(payload), "application/json")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", res.Code)
	}
}

func TestLoginAcceptsFormAndJSON(t *testing.T) {
	handler := newTestRouter(nil)

	form := bytes.NewBufferString("username=ca&password=pw")
	res := doRequest(handler, http.MethodPost, "/api/auth/login", "", form, "application/x-www-form-urlencoded")
	if res.Code != http.StatusOK {
		t.Fatalf("form login: expected 200, got %d", res.Code)
	}
	var token domain.TokenResponse
	if err := json.NewDecoder(res.Body).Decode(&token); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if token.AccessToken == "" {
		t.Fatalf("expected access token")
	}

	payload, _ := json.Marshal(loginRequest{Username: "ca", Password: "pw"})
	res = doRequest(handler, http.MethodPost, "/api/auth/login", "", bytes.NewBuffer(payload), "application/json")
	if res.Code != http.StatusOK {
		t.Fatalf("json login: expected 200, got %d", res.Code)
	}
}

func TestLoginFailureReturns401(t *testing.T) {
	handler := newTestRouter(func(cfg *RouterConfig) {
		cfg.Auth = &fakeAuth{
			loginFn: func(context.Context, string, string) (*domain.TokenResponse, error) {
				return nil, domain.WrapError(domain.ErrUnauthorized, "login",
					errors.New("incorrect username or password"))
			},
		}
	})

	form := bytes.NewBufferString("username=ca&password=bad")
	res := doRequest(handler, http.MethodPost, "/api/auth/login", "", form, "application/x-www-form-urlencoded")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestRateLimitReturns429(t *testing.T) {
	handler := newTestRouter(func(cfg *RouterConfig) {
		cfg.RateLimitRPS = 1
		cfg.RateLimitBurst = 1
	})

	res := doRequest(handler, http.MethodGet, "/healthz", "", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", res.Code)
	}

	res = doRequest(handler, http.MethodGet, "/healthz", "", nil, "")
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", res.Code)
	}
	if res.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestDownloadReportSetsAttachmentHeaders(t *testing.T) {
	handler := newTestRouter(nil)

	res := doRequest(handler, http.MethodGet, "/api/analysis/doc-1/download?format=pdf", "ca-token", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("content type = %q", res.Header().Get("Content-Type"))
	}
	if !strings.Contains(res.Header().Get("Content-Disposition"), "attachment") {
		t.Fatalf("expected attachment disposition, got %q", res.Header().Get("Content-Disposition"))
	}
}

func TestAnalysisNotProcessedReturns400(t *testing.T) {
	handler := newTestRouter(func(cfg *RouterConfig) {
		cfg.Analysis = &fakeAnalysis{
			resultsErr: domain.WrapError(domain.ErrInvalidInput, "analysis results",
				errors.New("document has not been processed yet")),
		}
	})

	res := doRequest(handler, http.MethodGet, "/api/analysis/doc-1", "ca-token", nil, "")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestResetPasswordAlwaysAcknowledges(t *testing.T) {
	handler := newTestRouter(nil)

	payload, _ := json.Marshal(resetPasswordRequest{Email: "someone@x.io"})
	res := doRequest(handler, http.MethodPost, "/api/auth/reset-password", "",
		bytes.NewBuffer(payload), "application/json")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "Password reset email sent if account exists" {
		t.Fatalf("message = %q", body["message"])
	}
}

func TestResetPasswordRequiresEmail(t *testing.T) {
	handler := newTestRouter(nil)

	payload, _ := json.Marshal(resetPasswordRequest{})
	res := doRequest(handler, http.MethodPost, "/api/auth/reset-password", "",
		bytes.NewBuffer(payload), "application/json")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestCADashboardReturnsCounts(t *testing.T) {
	handler := newTestRouter(nil)

	res := doRequest(handler, http.MethodGet, "/api/ca/dashboard", "ca-token", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body domain.CADashboard
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.TotalClients != 2 || body.TotalDocuments != 5 {
		t.Fatalf("dashboard = %+v", body)
	}
}

func TestAnalysisChatRepliesToMessage(t *testing.T) {
	handler := newTestRouter(nil)

	payload, _ := json.Marshal(chatRequest{Message: "what is the income?"})
	res := doRequest(handler, http.MethodPost, "/api/analysis/doc-1/chat", "ca-token",
		bytes.NewBuffer(payload), "application/json")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] == "" {
		t.Fatalf("expected a reply, got %s", res.Body.String())
	}
}

func TestAnalysisChatRequiresMessage(t *testing.T) {
	handler := newTestRouter(nil)

	payload, _ := json.Marshal(chatRequest{})
	res := doRequest(handler, http.MethodPost, "/api/analysis/doc-1/chat", "ca-token",
		bytes.NewBuffer(payload), "application/json")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestAdminStatsAndUserManagement(t *testing.T) {
	handler := newTestRouter(nil)

	res := doRequest(handler, http.MethodGet, "/api/admin/stats?time_range=week", "ca-token", nil, "")
	if res.Code != http.StatusForbidden {
		t.Fatalf("stats as CA: expected 403, got %d", res.Code)
	}

	res = doRequest(handler, http.MethodGet, "/api/admin/stats?time_range=week", "admin-token", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("stats as admin: expected 200, got %d", res.Code)
	}
	var stats domain.UsageStats
	if err := json.NewDecoder(res.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TimeRange != "week" {
		t.Fatalf("time range = %q", stats.TimeRange)
	}

	payload, _ := json.Marshal(domain.RegisterInput{Username: "new", Email: "new@x.io", Password: "pw"})
	res = doRequest(handler, http.MethodPost, "/api/admin/users", "ca-token",
		bytes.NewBuffer(payload), "application/json")
	if res.Code != http.StatusForbidden {
		t.Fatalf("create as CA: expected 403, got %d", res.Code)
	}

	res = doRequest(handler, http.MethodPost, "/api/admin/users", "admin-token",
		bytes.NewBuffer(payload), "application/json")
	if res.Code != http.StatusOK {
		t.Fatalf("create as admin: expected 200, got %d", res.Code)
	}

	res = doRequest(handler, http.MethodGet, "/api/admin/users/user-3", "admin-token", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("get user: expected 200, got %d", res.Code)
	}
}

func uploadBody(t *testing.T, filename string, size int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("a"), size)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	_ = mw.WriteField("title", "Statement")
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadNearLimitReachesSizeCheck(t *testing.T) {
	handler := newTestRouter(func(cfg *RouterConfig) {
		cfg.MaxUploadSize = 1024
	})

	body, contentType := uploadBody(t, "statement.pdf", 4000)
	res := doRequest(handler, http.MethodPost, "/api/documents/upload", "ca-token", body, contentType)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
}

func TestUploadHugeBodyGetsSizeMessage(t *testing.T) {
	handler := newTestRouter(func(cfg *RouterConfig) {
		cfg.MaxUploadSize = 1 << 20
	})

	body, contentType := uploadBody(t, "statement.pdf", 3<<20)
	res := doRequest(handler, http.MethodPost, "/api/documents/upload", "ca-token", body, contentType)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "file too large, maximum size is 1MB") {
		t.Fatalf("expected size detail, got %s", res.Body.String())
	}
	if strings.Contains(res.Body.String(), "invalid multipart body") {
		t.Fatalf("generic parse error leaked: %s", res.Body.String())
	}
}

func TestAdminEndpointsForbiddenForCA(t *testing.T) {
	handler := newTestRouter(nil)

	res := doRequest(handler, http.MethodGet, "/api/admin/dashboard", "ca-token", nil, "")
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}

	res = doRequest(handler, http.MethodGet, "/api/admin/dashboard", "admin-token", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", res.Code)
	}
}
