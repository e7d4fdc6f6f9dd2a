package httpadapter

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// multipartOverhead leaves room for boundaries and form fields on top of the
// file itself, so a file just over the limit reaches the size check in the
// upload flow instead of tripping the body cap mid-parse.
const multipartOverhead = 1 << 20

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if rt.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadSize+multipartOverhead)
	}
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusBadRequest,
				fmt.Sprintf("file too large, maximum size is %dMB", rt.maxUploadSize/(1024*1024)))
			return
		}
		writeDetail(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	user := userFromContext(r.Context())
	doc, err := rt.ingestor.Upload(r.Context(), user, domain.UploadInput{
		Filename:    fileHeader.Filename,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		ClientID:    r.FormValue("client_id"),
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Content:     file,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, doc.FileType, fileHeader.Size)
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	query := r.URL.Query()

	filter := domain.DocumentFilter{
		Status:   domain.DocumentStatus(query.Get("status")),
		ClientID: query.Get("client_id"),
		Skip:     queryInt(query.Get("skip"), 0),
		Limit:    queryInt(query.Get("limit"), 100),
	}

	docs, err := rt.lifecycle.List(r.Context(), user.ID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	doc, err := rt.lifecycle.Get(r.Context(), user.ID, r.PathValue("document_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if err := rt.lifecycle.Delete(r.Context(), user.ID, r.PathValue("document_id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

func (rt *Router) triggerProcessing(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	resp, err := rt.lifecycle.TriggerProcessing(r.Context(), user.ID, r.PathValue("document_id"))
	if err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordTrigger(serviceName, "rejected")
		}
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordTrigger(serviceName, string(resp.Status))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) documentStatus(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	status, err := rt.lifecycle.Status(r.Context(), user.ID, r.PathValue("document_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
