package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

func (rt *Router) listClients(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	query := r.URL.Query()

	clients, err := rt.clients.List(r.Context(), user.ID, query.Get("search"),
		queryInt(query.Get("skip"), 0), queryInt(query.Get("limit"), 100))
	if err != nil {
		writeError(w, err)
		return
	}
	if clients == nil {
		clients = []domain.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

func (rt *Router) createClient(w http.ResponseWriter, r *http.Request) {
	var in domain.ClientInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}

	user := userFromContext(r.Context())
	client, err := rt.clients.Create(r.Context(), user.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (rt *Router) getClient(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	client, err := rt.clients.Get(r.Context(), user.ID, r.PathValue("client_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (rt *Router) updateClient(w http.ResponseWriter, r *http.Request) {
	var in domain.ClientInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}

	user := userFromContext(r.Context())
	client, err := rt.clients.Update(r.Context(), user.ID, r.PathValue("client_id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (rt *Router) deleteClient(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if err := rt.clients.Delete(r.Context(), user.ID, r.PathValue("client_id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Client deleted successfully"})
}
