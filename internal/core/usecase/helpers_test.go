package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type docRepoFake struct {
	docs map[string]*domain.Document

	createErr  error
	markErr    error
	saveErr    error
	saved      *domain.ProcessingOutput
	markedFail []string
	deleted    []string
}

func newDocRepoFake(docs ...*domain.Document) *docRepoFake {
	f := &docRepoFake{docs: map[string]*domain.Document{}}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id, userID string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok || doc.UserID != userID {
		return nil, domain.WrapError(domain.ErrNotFound, "fetch document", errors.New("document not found"))
	}
	copied := *doc
	return &copied, nil
}

func (f *docRepoFake) GetAny(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "fetch document", errors.New("document not found"))
	}
	copied := *doc
	return &copied, nil
}

func (f *docRepoFake) List(_ context.Context, userID string, _ domain.DocumentFilter) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range f.docs {
		if doc.UserID == userID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *docRepoFake) MarkProcessing(_ context.Context, id string) error {
	if f.markErr != nil {
		return f.markErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "mark processing", errors.New("document not found"))
	}
	if doc.Status != domain.StatusUploaded && doc.Status != domain.StatusFailed {
		return domain.WrapError(domain.ErrConflict, "mark processing", errors.New("document not in a processable state"))
	}
	doc.Status = domain.StatusProcessing
	return nil
}

func (f *docRepoFake) MarkFailed(_ context.Context, id string) error {
	f.markedFail = append(f.markedFail, id)
	if doc, ok := f.docs[id]; ok {
		doc.Status = domain.StatusFailed
	}
	return nil
}

func (f *docRepoFake) SaveResults(_ context.Context, out domain.ProcessingOutput) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = &out
	if doc, ok := f.docs[out.OCR.DocumentID]; ok {
		doc.Status = domain.StatusCompleted
		now := time.Now().UTC()
		doc.ProcessedAt = &now
	}
	return nil
}

func (f *docRepoFake) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.docs, id)
	return nil
}

func (f *docRepoFake) CountByStatus(context.Context) (int, int, error) {
	total, completed := 0, 0
	for _, doc := range f.docs {
		total++
		if doc.Status == domain.StatusCompleted {
			completed++
		}
	}
	return total, completed, nil
}

func (f *docRepoFake) CountForUser(_ context.Context, userID string) (int, int, error) {
	total, completed := 0, 0
	for _, doc := range f.docs {
		if doc.UserID != userID {
			continue
		}
		total++
		if doc.Status == domain.StatusCompleted {
			completed++
		}
	}
	return total, completed, nil
}

func (f *docRepoFake) CountByFileTypeSince(_ context.Context, since time.Time) (map[string]int, error) {
	counts := map[string]int{}
	for _, doc := range f.docs {
		if doc.CreatedAt.Before(since) {
			continue
		}
		counts[doc.FileType]++
	}
	return counts, nil
}

type analysisRepoFake struct {
	analysis  *domain.Analysis
	extracted *domain.ExtractedData
	ocr       *domain.OCRResult

	updatedFields *domain.FinancialFields
	updatedScore  float64
}

func (f *analysisRepoFake) GetAnalysis(_ context.Context, documentID string) (*domain.Analysis, error) {
	if f.analysis == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "fetch analysis", errors.New("analysis not found"))
	}
	return f.analysis, nil
}

func (f *analysisRepoFake) GetExtractedData(_ context.Context, documentID string) (*domain.ExtractedData, error) {
	if f.extracted == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "fetch extracted data", errors.New("extracted data not found"))
	}
	return f.extracted, nil
}

func (f *analysisRepoFake) GetOCRResult(_ context.Context, documentID string) (*domain.OCRResult, error) {
	if f.ocr == nil {
		return nil, domain.WrapError(domain.ErrNotFound, "fetch ocr result", errors.New("ocr result not found"))
	}
	return f.ocr, nil
}

func (f *analysisRepoFake) UpdateFinancials(_ context.Context, _ string, fields domain.FinancialFields, score float64) error {
	f.updatedFields = &fields
	f.updatedScore = score
	return nil
}

type storageFake struct {
	files   map[string]string
	saveErr error
	deleted []string
}

func newStorageFake() *storageFake {
	return &storageFake{files: map[string]string{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.files[key] = string(raw)
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := f.files[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "open file", errors.New("no such file"))
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.files, key)
	return nil
}

type dispatcherFake struct {
	enqueued []string
	err      error
}

func (f *dispatcherFake) Enqueue(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, documentID)
	return nil
}

func (f *dispatcherFake) Subscribe(context.Context, func(context.Context, string) error, func(context.Context, string, error)) error {
	return nil
}

type clientRepoFake struct {
	clients map[string]*domain.Client
}

func newClientRepoFake(clients ...*domain.Client) *clientRepoFake {
	f := &clientRepoFake{clients: map[string]*domain.Client{}}
	for _, c := range clients {
		f.clients[c.ID] = c
	}
	return f
}

func (f *clientRepoFake) Create(_ context.Context, client *domain.Client) error {
	f.clients[client.ID] = client
	return nil
}

func (f *clientRepoFake) GetByID(_ context.Context, id, caID string) (*domain.Client, error) {
	client, ok := f.clients[id]
	if !ok || client.CAID != caID {
		return nil, domain.WrapError(domain.ErrNotFound, "fetch client", errors.New("client not found"))
	}
	return client, nil
}

func (f *clientRepoFake) List(_ context.Context, caID, _ string, _, _ int) ([]domain.Client, error) {
	var out []domain.Client
	for _, c := range f.clients {
		if c.CAID == caID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *clientRepoFake) Update(_ context.Context, client *domain.Client) error {
	if _, ok := f.clients[client.ID]; !ok {
		return domain.WrapError(domain.ErrNotFound, "update client", errors.New("client not found"))
	}
	f.clients[client.ID] = client
	return nil
}

func (f *clientRepoFake) Delete(_ context.Context, id, caID string) error {
	client, ok := f.clients[id]
	if !ok || client.CAID != caID {
		return domain.WrapError(domain.ErrNotFound, "delete client", errors.New("client not found"))
	}
	delete(f.clients, id)
	return nil
}

func (f *clientRepoFake) Count(_ context.Context, caID string) (int, error) {
	n := 0
	for _, c := range f.clients {
		if c.CAID == caID {
			n++
		}
	}
	return n, nil
}

type extractorFake struct {
	text    ports.OCRText
	textErr error
	fields  domain.FinancialFields
	tables  []domain.Table
}

func (f *extractorFake) ExtractText(context.Context, *domain.Document) (ports.OCRText, error) {
	return f.text, f.textErr
}

func (f *extractorFake) ExtractFields(context.Context, *domain.Document, string) (domain.FinancialFields, error) {
	return f.fields, nil
}

func (f *extractorFake) ExtractTables(context.Context, *domain.Document) ([]domain.Table, error) {
	return f.tables, nil
}

type scorerFake struct {
	score float64
}

func (f scorerFake) Score(domain.FinancialFields) float64 { return f.score }

type summarizerFake struct{}

func (summarizerFake) Summarize(context.Context, string, domain.FinancialFields) (string, error) {
	return "summary", nil
}

type chatFake struct {
	lastMessage string
}

func (f *chatFake) Respond(_ context.Context, _ string, _ domain.FinancialFields, message string) (string, error) {
	f.lastMessage = message
	return "reply", nil
}

type userRepoFake struct {
	users map[string]*domain.User
	taken bool
}

func newUserRepoFake(users ...*domain.User) *userRepoFake {
	f := &userRepoFake{users: map[string]*domain.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *userRepoFake) Create(_ context.Context, user *domain.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *userRepoFake) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "fetch user", errors.New("user not found"))
	}
	copied := *user
	return &copied, nil
}

func (f *userRepoFake) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Username == login || user.Email == login {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "fetch user", errors.New("user not found"))
}

func (f *userRepoFake) LoginTaken(context.Context, string, string, string) (bool, error) {
	return f.taken, nil
}

func (f *userRepoFake) Update(_ context.Context, user *domain.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return domain.WrapError(domain.ErrNotFound, "update user", errors.New("user not found"))
	}
	f.users[user.ID] = user
	return nil
}

func (f *userRepoFake) RecordLogin(_ context.Context, id string, at time.Time) error {
	if user, ok := f.users[id]; ok {
		user.LastLogin = &at
	}
	return nil
}

func (f *userRepoFake) List(context.Context, int, int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *userRepoFake) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return domain.WrapError(domain.ErrNotFound, "delete user", errors.New("user not found"))
	}
	delete(f.users, id)
	return nil
}

func (f *userRepoFake) Count(context.Context) (int, error) { return len(f.users), nil }

type hasherFake struct{}

func (hasherFake) Hash(password string) (string, error) { return "hash:" + password, nil }

func (hasherFake) Verify(hash, password string) bool { return hash == "hash:"+password }

type tokenIssuerFake struct{}

func (tokenIssuerFake) Issue(userID string) (string, error) { return "token:" + userID, nil }

func (tokenIssuerFake) Verify(token string) (string, error) {
	subject, ok := strings.CutPrefix(token, "token:")
	if !ok {
		return "", domain.WrapError(domain.ErrUnauthorized, "verify token", errors.New("bad token"))
	}
	return subject, nil
}

type reportsFake struct{}

func (reportsFake) Render(_ context.Context, format string, _ *domain.Document, _ *domain.AnalysisResults) ([]byte, string, error) {
	return []byte("report-" + format), "application/octet-stream", nil
}
