package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nicfuji87/sistema-respira-kids/internal/agenda"
	"github.com/nicfuji87/sistema-respira-kids/internal/identity"
)

func signUpHandler(holder *identity.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Email == "" || req.Password == "" || req.FullName == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "email, password and nome_completo are required")
			return
		}
		role := agenda.Role(req.Role)
		switch role {
		case agenda.RolePatient, agenda.RoleProfessional, agenda.RoleAdministrative:
		default:
			writeError(w, http.StatusBadRequest, "invalid_role", "tipo_pessoa must be PACIENTE, PROFISSIONAL or ADMINISTRATIVO")
			return
		}

		principal, err := holder.SignUp(r.Context(), req.Email, req.Password, req.FullName, role)
		if err != nil {
			if errors.Is(err, identity.ErrEmailTaken) {
				writeError(w, http.StatusConflict, "email_taken", "an account with this email already exists")
				return
			}
			writeError(w, http.StatusBadGateway, "signup_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": principal.ID.String(), "email": principal.Email})
	}
}

func signInHandler(holder *identity.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		session, err := holder.SignIn(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
				return
			}
			writeError(w, http.StatusBadGateway, "signin_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse(holder, session))
	}
}

func signOutHandler(holder *identity.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := holder.SignOut(r.Context()); err != nil {
			writeError(w, http.StatusBadGateway, "signout_failed", err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func resetPasswordHandler(holder *identity.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "email is required")
			return
		}
		if err := holder.ResetPassword(r.Context(), req.Email); err != nil {
			writeError(w, http.StatusBadGateway, "reset_failed", err.Error())
			return
		}
		// 202 regardless of whether the email exists.
		w.WriteHeader(http.StatusAccepted)
	}
}

func externalSignInHandler(holder *identity.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := r.URL.Query().Get("provider")
		if provider == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "provider is required")
			return
		}
		redirectTo := r.URL.Query().Get("redirect_to")

		url, err := holder.ExternalProviderSignIn(r.Context(), provider, redirectTo)
		if err != nil {
			writeError(w, http.StatusBadGateway, "external_signin_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	}
}

func sessionHandler(holder *identity.Holder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := holder.Session()
		if session == nil {
			writeError(w, http.StatusUnauthorized, "no_session", "not signed in")
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse(holder, session))
	}
}

func sessionResponse(holder *identity.Holder, s *identity.Session) SessionResponse {
	resp := SessionResponse{
		AccessToken: s.AccessToken,
		Email:       s.Principal.Email,
		ExpiresAt:   s.ExpiresAt,
		DisplayName: holder.DisplayName(),
	}
	if p := holder.Person(); p != nil {
		resp.Role = string(p.Role)
	}
	return resp
}
