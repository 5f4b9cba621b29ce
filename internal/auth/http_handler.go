package auth

import (
	"net/http"
	"time"

	"booksvc/internal/httpx"

	"github.com/rs/zerolog/hlog"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (h *HTTPHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/token", h.Token)
}

// Token handles POST /auth/token. The caller is already authenticated by
// httpx.AuthMiddleware with Basic credentials; the new token carries the
// caller's roles. Bearer tokens cannot mint successors.
func (h *HTTPHandler) Token(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFrom(r)
	if !ok || id.Method != httpx.AuthBasic {
		w.Header().Set("WWW-Authenticate", `Basic realm="booksvc"`)
		httpx.Text(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	token, expiresAt, err := h.service.IssueToken(id)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("issue token")
		httpx.Text(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.JSON(w, r, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(expiresAt).Round(time.Second).Seconds()),
	})
}
