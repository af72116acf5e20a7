package handlers

import (
	"net/http"

	"github.com/mroshb/friends_api/internal/metrics"
	"github.com/mroshb/friends_api/internal/models"
	"github.com/mroshb/friends_api/internal/services"
)

func sessionResponse(session *services.Session) models.LoginResponse {
	return models.LoginResponse{
		AccessToken: session.Token,
		User:        session.User.ToResponse(),
	}
}

// HandleRegister handles POST /auth/register
func (h *HandlerManager) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeInput(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.AuthSvc.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if h.AuthSvc.RequiresVerification() {
		message := "registration successful, check your email to verify your account"
		if !result.VerificationSent {
			message = "registration successful, but the verification email could not be sent; request a new one"
		}
		writeJSON(w, http.StatusAccepted, models.MessageResponse{Message: message})
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, sessionResponse(&result.Session))
}

// HandleLogin handles POST /auth/login
func (h *HandlerManager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeInput(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.AuthSvc.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setSessionCookie(w, session.Token)
	writeJSON(w, http.StatusOK, sessionResponse(session))
}

// HandleLogout handles GET and POST /auth/logout. Tokens are not revoked,
// the cookie is simply dropped.
func (h *HandlerManager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	metrics.AuthEvents.WithLabelValues("logout").Inc()
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "logged out"})
}

// HandleDeleteAccount handles POST and DELETE /auth/del
func (h *HandlerManager) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthSvc.DeleteAccount(r.Context(), currentUserID(r)); err != nil {
		writeError(w, r, err)
		return
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, models.MessageResponse{Message: "account deleted"})
}

// HandleVerifyEmail handles GET and POST /auth/verify-email
func (h *HandlerManager) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyEmailRequest
	if err := decodeInput(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.AuthSvc.VerifyEmail(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setSessionCookie(w, session.Token)
	writeJSON(w, http.StatusOK, sessionResponse(session))
}

// HandleResendVerification handles POST /auth/resend-verification. The
// answer is the same whether or not the address belongs to an account.
func (h *HandlerManager) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req models.ResendVerificationRequest
	if err := decodeInput(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.AuthSvc.ResendVerification(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, models.MessageResponse{
		Message: "if the address belongs to an unverified account, a verification email is on its way",
	})
}

// HandleMe handles GET /auth/me
func (h *HandlerManager) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.AuthSvc.CurrentUser(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user.ToResponse())
}
