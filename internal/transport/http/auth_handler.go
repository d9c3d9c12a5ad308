package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"quizhub-service/internal/app"
	"quizhub-service/internal/domain"
)

type AuthHandler struct {
	service      *app.AuthService
	secureCookie bool
	errs         errorResponder
}

func NewAuthHandler(service *app.AuthService, errs errorResponder, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookie: secureCookie, errs: errs}
}

type authResponse struct {
	Success      bool        `json:"success"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	Data         domain.User `json:"data"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	session, err := h.service.Register(r.Context(), domain.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	h.writeSession(w, http.StatusCreated, session)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		h.errs.write(w, r, err)
		return
	}
	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	h.writeSession(w, http.StatusOK, session)
}

// Refresh takes the refresh token from its cookie, falling back to the body.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(refreshCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.errs.write(w, r, domain.Validation("invalid request body"))
			return
		}
		token = req.RefreshToken
	}

	session, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	h.setCookie(w, accessCookie, session.AccessToken, "/", session.AccessExpiry)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"accessToken": session.AccessToken,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), requesterFrom(r.Context()), tokenFrom(r.Context())); err != nil {
		h.errs.write(w, r, err)
		return
	}
	h.clearCookie(w, accessCookie, "/")
	h.clearCookie(w, refreshCookie, refreshPath)
	writeMessage(w, http.StatusOK, "user logged out successfully")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), requesterFrom(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, status int, s domain.Session) {
	h.setCookie(w, accessCookie, s.AccessToken, "/", s.AccessExpiry)
	h.setCookie(w, refreshCookie, s.RefreshToken, refreshPath, s.RefreshExpiry)
	writeJSON(w, status, authResponse{
		Success:      true,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		Data:         s.User,
	})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value, path string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}
