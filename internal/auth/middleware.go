package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/medhub/gallery-backend/internal/session"
	"golang.org/x/oauth2"
)

// CookieName is the session cookie set on the OAuth callback.
const CookieName = "sessionId"

const tokenContextKey = "gallery.token"

// TokenFrom returns the current, guard-refreshed token for the request.
// Only valid inside handlers wrapped by Require.
func TokenFrom(c echo.Context) *oauth2.Token {
	tok, _ := c.Get(tokenContextKey).(*oauth2.Token)
	return tok
}

// Require gates a file operation on a valid session. It resolves the session
// cookie against the credential store, refreshes an expiring access token and
// attaches the current token to the request context. Requests without valid
// credentials are rejected before anything reaches the Drive API.
func (s *Service) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
		}

		tok, err := s.Freshen(c.Request().Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
			}
			// Refresh failed; the caller restarts the OAuth flow.
			log.Printf("token refresh failed for session: %v", err)
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication error"})
		}

		c.Set(tokenContextKey, tok)
		return next(c)
	}
}
