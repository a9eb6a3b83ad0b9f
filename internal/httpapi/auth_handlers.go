package httpapi

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"truckFleetManagement/internal/auth"
)

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleToken issues an access/refresh pair for valid credentials.
// Invalid username and invalid password are indistinguishable to the caller.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, unauthorized("invalid credentials"))
		return
	}

	u, err := s.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, err)
		return
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, unauthorized("invalid credentials"))
		return
	}

	pair, err := auth.IssueTokenPair(s.cfg.Auth.JWTSecret, u.ID, u.Username, s.cfg.Auth.AccessTTL, s.cfg.Auth.RefreshTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// handleTokenRefresh exchanges a valid refresh token for a new access token.
func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := auth.ParseRefresh(req.Refresh, s.cfg.Auth.JWTSecret)
	if err != nil {
		writeError(w, err)
		return
	}
	// The account may have been removed since the refresh token was issued.
	u, err := s.users.GetByID(r.Context(), p.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if u == nil {
		writeError(w, unauthorized("unknown user"))
		return
	}

	access, err := auth.IssueAccess(s.cfg.Auth.JWTSecret, u.ID, u.Username, s.cfg.Auth.AccessTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}
