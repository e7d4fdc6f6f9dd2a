package httpadapter

import "net/http"

func (rt *Router) caDashboard(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	dashboard, err := rt.ca.Dashboard(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
