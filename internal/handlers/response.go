package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mroshb/friends_api/internal/middleware"
	"github.com/mroshb/friends_api/pkg/errors"
	"github.com/mroshb/friends_api/pkg/logger"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

func errorResponse(message string) map[string]string {
	return map[string]string{"error": message}
}

// statusFor maps an error code to the HTTP status the client sees
func statusFor(code string) int {
	switch code {
	case errors.ErrCodeValidation, errors.ErrCodeSelfRequest, errors.ErrCodeDuplicateRequest:
		return http.StatusBadRequest
	case errors.ErrCodeUniqueViolation, errors.ErrCodeAlreadyExists:
		return http.StatusConflict
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnauthorized, errors.ErrCodeInvalidToken, errors.ErrCodeExpiredToken:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the error's own message, except for server-side
// failures whose details are only logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(errors.CodeOf(err))
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
		writeJSON(w, status, errorResponse("internal server error"))
		return
	}

	writeJSON(w, status, errorResponse(errors.MessageOf(err)))
}

// decodeInput fills dst from a JSON body, then fills any string field still
// empty from the form or query parameter named by its json tag.
func decodeInput(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !stderrors.Is(err, io.EOF) {
			var tooLarge *http.MaxBytesError
			if stderrors.As(err, &tooLarge) {
				return errors.Wrap(err, errors.ErrCodeValidation, "request body too large")
			}
			return errors.Wrap(err, errors.ErrCodeValidation, "invalid request body")
		}
	}

	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() != reflect.String || !field.CanSet() || field.String() != "" {
			continue
		}
		name := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		field.SetString(r.FormValue(name))
	}

	return nil
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// requestID parses the request_id query parameter
func requestID(r *http.Request) (uint, error) {
	raw := r.URL.Query().Get("request_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New(errors.ErrCodeValidation, "request_id must be a positive integer")
	}
	return uint(id), nil
}

// currentUserID is only called behind Authenticate
func currentUserID(r *http.Request) uint {
	id, _ := middleware.UserIDFromContext(r.Context())
	return id
}

func (h *HandlerManager) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.AuthSvc.SessionMaxAge(),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *HandlerManager) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
