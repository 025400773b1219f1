package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/josh-kwaku/evend-recon/internal/auth"
	"github.com/josh-kwaku/evend-recon/internal/logging"
)

type AuthHandler struct {
	creds     auth.Credentials
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthHandler(creds auth.Credentials, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		creds:     creds,
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Username == "" {
		errs = append(errs, FieldError{Field: "username", Message: "required"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required"})
	}
	return errs
}

type loginResponse struct {
	Token     string    `json:"token"`
	Operator  string    `json:"operator"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	if !h.creds.Verify(req.Username, req.Password) {
		logging.FromContext(r.Context()).Warn("login rejected", "username", req.Username)
		RespondAppError(w, ErrInvalidCredentials, nil)
		return
	}

	token, err := auth.GenerateToken(req.Username, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, loginResponse{
		Token:     token,
		Operator:  req.Username,
		ExpiresAt: time.Now().UTC().Add(h.jwtExpiry).Truncate(time.Second),
	})
}
