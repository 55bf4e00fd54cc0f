package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"authsvc/internal/domain"
	"authsvc/internal/dto"
	"authsvc/internal/service"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

const (
	msgRegistered         = "Registration successful. Please check your email to verify your account."
	msgRegisteredNoEmail  = "Registration successful, but the verification email could not be sent. Please request a new verification email."
	msgVerified           = "Email verified successfully. You can now log in."
	msgVerificationResent = "If the account exists and is not yet verified, a new verification email has been sent."
	msgLoginOK            = "Login successful"
	msgLogoutOK           = "Logout successful"
)

type handler struct {
	auth    service.AuthService
	cookies cookiePolicy
	now     func() time.Time
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !res.VerificationSent {
		writeJSON(w, http.StatusCreated, dto.StatusResponse{Success: false, Message: msgRegisteredNoEmail})
		return
	}
	writeJSON(w, http.StatusCreated, dto.StatusResponse{Success: true, Message: msgRegistered})
}

func (h *handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyEmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		// An unreadable body cannot carry a valid token.
		writeError(w, r, domain.ErrInvalidToken)
		return
	}
	if err := h.auth.VerifyEmail(r.Context(), req.Token); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: msgVerified})
}

func (h *handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req dto.ResendVerificationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.auth.ResendVerification(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: msgVerificationResent})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, domain.ErrInvalidCredentials)
		return
	}
	tok, err := h.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.SetCookie(w, h.cookies.session(*tok, h.now()))
	writeJSON(w, http.StatusOK, dto.StatusResponse{Success: true, Message: msgLoginOK})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	_ = h.auth.Logout(r.Context(), sessionTokenFrom(r))
	http.SetCookie(w, h.cookies.cleared())
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: msgLogoutOK})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	me, err := h.auth.WhoAmI(r.Context(), sessionTokenFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, me)
}

func (h *handler) user(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrValidation
		}
		return errors.Join(domain.ErrValidation, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
