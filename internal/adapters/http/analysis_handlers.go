package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

func (rt *Router) analysisResults(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	results, err := rt.analysis.Results(r.Context(), user.ID, r.PathValue("document_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (rt *Router) cibilScore(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	score, err := rt.analysis.Cibil(r.Context(), user.ID, r.PathValue("document_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

func (rt *Router) updateCibilScore(w http.ResponseWriter, r *http.Request) {
	var fields domain.FinancialFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}

	user := userFromContext(r.Context())
	score, err := rt.analysis.UpdateCibil(r.Context(), user.ID, r.PathValue("document_id"), fields)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordScoreCorrection(serviceName)
	}
	writeJSON(w, http.StatusOK, score)
}

func (rt *Router) analysisSummary(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	summary, err := rt.analysis.Summary(r.Context(), user.ID, r.PathValue("document_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (rt *Router) analysisTables(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	tables, err := rt.analysis.Tables(r.Context(), user.ID, r.PathValue("document_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.TableData{Tables: tables})
}

func (rt *Router) analysisOCR(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	result, err := rt.analysis.OCRText(r.Context(), user.ID, r.PathValue("document_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (rt *Router) analysisChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeDetail(w, http.StatusBadRequest, "message is required")
		return
	}

	user := userFromContext(r.Context())
	reply, err := rt.analysis.Chat(r.Context(), user.ID, r.PathValue("document_id"), req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": reply})
}

func (rt *Router) downloadReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "pdf"
	}

	user := userFromContext(r.Context())
	content, filename, contentType, err := rt.analysis.DownloadReport(r.Context(), user.ID, r.PathValue("document_id"), format)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordReportDownload(serviceName, format)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
