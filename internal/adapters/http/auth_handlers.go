package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login accepts either an OAuth2-style form body or JSON with the same
// username/password pair. Username may also be an email.
func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid json")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid form body")
			return
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := rt.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if rt.metrics != nil && domain.IsKind(err, domain.ErrUnauthorized) {
			rt.metrics.RecordAuthFailure(serviceName, "bad_credentials")
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (rt *Router) register(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}

	user, err := rt.auth.Register(r.Context(), userFromContext(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

// resetPassword is unauthenticated and answers identically whether or not the
// email has an account.
func (rt *Router) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeDetail(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := rt.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent if account exists"})
}

func (rt *Router) profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFromContext(r.Context()))
}

func (rt *Router) updateProfile(w http.ResponseWriter, r *http.Request) {
	var in domain.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return
	}

	user, err := rt.auth.UpdateProfile(r.Context(), userFromContext(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
