package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

func (rt *Router) adminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.admin.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) adminStats(w http.ResponseWriter, r *http.Request) {
	timeRange := r.URL.Query().Get("time_range")
	if timeRange == "" {
		timeRange = "month"
	}

	stats, err := rt.admin.Stats(r.Context(), timeRange)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) adminCreateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}

	user, err := rt.admin.CreateUser(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (rt *Router) adminGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := rt.admin.GetUser(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (rt *Router) adminListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	users, err := rt.admin.ListUsers(r.Context(),
		queryInt(query.Get("skip"), 0), queryInt(query.Get("limit"), 100))
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (rt *Router) adminUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}

	user, err := rt.admin.UpdateUser(r.Context(), r.PathValue("user_id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (rt *Router) adminDeleteUser(w http.ResponseWriter, r *http.Request) {
	requester := userFromContext(r.Context())
	if err := rt.admin.DeleteUser(r.Context(), requester, r.PathValue("user_id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
