package httpadapter

import (
	"net/http"

	"github.com/finsight-labs/finsight/internal/core/ports"
	"github.com/finsight-labs/finsight/internal/observability/metrics"
)

const serviceName = "finsight-api"

type Router struct {
	ingestor  ports.DocumentIngestor
	lifecycle ports.DocumentLifecycle
	analysis  ports.AnalysisService
	auth      ports.AuthService
	clients   ports.ClientDirectory
	admin     ports.AdminService
	ca        ports.CAService

	metrics       *metrics.HTTPServerMetrics
	rateLimitRPS  int
	rateLimitBrst int
	maxUploadSize int64
}

type RouterConfig struct {
	Ingestor  ports.DocumentIngestor
	Lifecycle ports.DocumentLifecycle
	Analysis  ports.AnalysisService
	Auth      ports.AuthService
	Clients   ports.ClientDirectory
	Admin     ports.AdminService
	CA        ports.CAService

	Metrics        *metrics.HTTPServerMetrics
	RateLimitRPS   int
	RateLimitBurst int
	MaxUploadSize  int64
}

func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		ingestor:      cfg.Ingestor,
		lifecycle:     cfg.Lifecycle,
		analysis:      cfg.Analysis,
		auth:          cfg.Auth,
		clients:       cfg.Clients,
		admin:         cfg.Admin,
		ca:            cfg.CA,
		metrics:       cfg.Metrics,
		rateLimitRPS:  cfg.RateLimitRPS,
		rateLimitBrst: cfg.RateLimitBurst,
		maxUploadSize: cfg.MaxUploadSize,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("POST /api/auth/login", rt.login)
	mux.HandleFunc("POST /api/auth/register", rt.requireAdmin(rt.register))
	mux.HandleFunc("POST /api/auth/reset-password", rt.resetPassword)
	mux.HandleFunc("GET /api/auth/profile", rt.requireUser(rt.profile))
	mux.HandleFunc("PUT /api/auth/profile", rt.requireUser(rt.updateProfile))

	mux.HandleFunc("POST /api/documents/upload", rt.requireUser(rt.uploadDocument))
	mux.HandleFunc("GET /api/documents", rt.requireUser(rt.listDocuments))
	mux.HandleFunc("GET /api/documents/{document_id}", rt.requireUser(rt.getDocument))
	mux.HandleFunc("DELETE /api/documents/{document_id}", rt.requireUser(rt.deleteDocument))
	mux.HandleFunc("POST /api/documents/{document_id}/process", rt.requireUser(rt.triggerProcessing))
	mux.HandleFunc("GET /api/documents/{document_id}/status", rt.requireUser(rt.documentStatus))

	mux.HandleFunc("GET /api/analysis/{document_id}", rt.requireUser(rt.analysisResults))
	mux.HandleFunc("GET /api/analysis/{document_id}/cibil", rt.requireUser(rt.cibilScore))
	mux.HandleFunc("PUT /api/analysis/{document_id}/cibil", rt.requireUser(rt.updateCibilScore))
	mux.HandleFunc("GET /api/analysis/{document_id}/summary", rt.requireUser(rt.analysisSummary))
	mux.HandleFunc("GET /api/analysis/{document_id}/tables", rt.requireUser(rt.analysisTables))
	mux.HandleFunc("GET /api/analysis/{document_id}/ocr", rt.requireUser(rt.analysisOCR))
	mux.HandleFunc("POST /api/analysis/{document_id}/chat", rt.requireUser(rt.analysisChat))
	mux.HandleFunc("GET /api/analysis/{document_id}/download", rt.requireUser(rt.downloadReport))

	mux.HandleFunc("GET /api/clients", rt.requireUser(rt.listClients))
	mux.HandleFunc("POST /api/clients", rt.requireUser(rt.createClient))
	mux.HandleFunc("GET /api/clients/{client_id}", rt.requireUser(rt.getClient))
	mux.HandleFunc("PUT /api/clients/{client_id}", rt.requireUser(rt.updateClient))
	mux.HandleFunc("DELETE /api/clients/{client_id}", rt.requireUser(rt.deleteClient))

	mux.HandleFunc("GET /api/ca/dashboard", rt.requireUser(rt.caDashboard))

	mux.HandleFunc("GET /api/admin/dashboard", rt.requireAdmin(rt.adminDashboard))
	mux.HandleFunc("GET /api/admin/stats", rt.requireAdmin(rt.adminStats))
	mux.HandleFunc("GET /api/admin/users", rt.requireAdmin(rt.adminListUsers))
	mux.HandleFunc("POST /api/admin/users", rt.requireAdmin(rt.adminCreateUser))
	mux.HandleFunc("GET /api/admin/users/{user_id}", rt.requireAdmin(rt.adminGetUser))
	mux.HandleFunc("PUT /api/admin/users/{user_id}", rt.requireAdmin(rt.adminUpdateUser))
	mux.HandleFunc("DELETE /api/admin/users/{user_id}", rt.requireAdmin(rt.adminDeleteUser))

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBrst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
