package httpserver

import (
	"errors"
	"net/http"

	"github.com/and161185/jobtrack/internal/convert"
	"github.com/and161185/jobtrack/internal/errs"
	"github.com/and161185/jobtrack/internal/metrics"
	"github.com/and161185/jobtrack/internal/model"
)

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool            `json:"success"`
	Token   string          `json:"token"`
	User    convert.UserDTO `json:"user"`
}

func authBody(tok model.Tokens, u model.User) authResponse {
	return authResponse{Success: true, Token: tok.AccessToken, User: convert.ToUserDTO(u)}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := parseJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}
	tok, u, err := s.auth.Register(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authBody(tok, u))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := parseJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return
	}
	tok, u, err := s.auth.Login(r.Context(), req.Email, req.Password, clientIP(r))
	switch {
	case err == nil:
		s.metrics.ObserveLogin(metrics.LoginSuccess)
	case errors.Is(err, errs.ErrUnauthorized):
		s.metrics.ObserveLogin(metrics.LoginFailure)
		writeError(w, http.StatusUnauthorized, msgInvalidCreds)
		return
	case errors.Is(err, errs.ErrRateLimited):
		s.metrics.ObserveLogin(metrics.LoginRateLimited)
		s.fail(w, r, err)
		return
	default:
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authBody(tok, u))
}
