package auth

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/medhub/gallery-backend/internal/config"
	"github.com/medhub/gallery-backend/internal/googledrive"
	"github.com/medhub/gallery-backend/internal/session"
)

const sessionMaxAge = 30 * 24 * 60 * 60 // 30 days

// Handler exposes the OAuth endpoints: auth-url generation and the provider
// callback that establishes the session and bootstraps the gallery folders.
type Handler struct {
	service  *Service
	registry *googledrive.Registry
	drive    *googledrive.Factory
	cfg      config.Config
}

// NewHandler creates the auth Handler.
func NewHandler(service *Service, registry *googledrive.Registry, drive *googledrive.Factory, cfg config.Config) *Handler {
	return &Handler{service: service, registry: registry, drive: drive, cfg: cfg}
}

// RegisterRoutes registers the unauthenticated OAuth routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/auth-url", h.handleAuthURL)
	e.GET("/oauth2callback", h.handleCallback)
}

func (h *Handler) handleAuthURL(c echo.Context) error {
	url, err := h.service.AuthURL()
	if err != nil {
		log.Printf("auth URL generation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Could not generate auth URL"})
	}
	return c.JSON(http.StatusOK, map[string]string{"authUrl": url})
}

// handleCallback completes the code exchange, reuses or mints the session id,
// persists the cookie, runs the folder bootstrap and sends the browser back
// to the dashboard. Every failure surfaces as the generic failure page; the
// cause goes to the server log.
func (h *Handler) handleCallback(c echo.Context) error {
	ctx := c.Request().Context()

	code := c.QueryParam("code")
	if code == "" {
		return c.String(http.StatusBadRequest, "Missing code")
	}
	if !h.service.ConsumeState(c.QueryParam("state")) {
		return c.String(http.StatusBadRequest, "Invalid state")
	}

	tok, err := h.service.Exchange(ctx, code)
	if err != nil {
		log.Printf("oauth code exchange failed: %v", err)
		return c.String(http.StatusInternalServerError, "Authentication failed. Please try again.")
	}

	// Reuse the browser's existing session id so re-authentication updates
	// the same credential entry instead of minting a second one.
	sessionID := sessionIDFromCookie(c)
	if sessionID == "" {
		sessionID, err = session.NewSessionID()
		if err != nil {
			log.Printf("session id generation failed: %v", err)
			return c.String(http.StatusInternalServerError, "Authentication failed. Please try again.")
		}
	}

	h.service.Establish(sessionID, tok)
	c.SetCookie(h.sessionCookie(sessionID))

	client, err := h.drive.Client(ctx, h.service.TokenSource(ctx, tok))
	if err != nil {
		log.Printf("drive client setup failed: %v", err)
		return c.String(http.StatusInternalServerError, "Authentication failed. Please try again.")
	}
	if err := h.registry.EnsureFolders(ctx, client); err != nil {
		log.Printf("folder bootstrap failed: %v", err)
		return c.String(http.StatusInternalServerError, "Authentication failed. Please try again.")
	}

	return c.Redirect(http.StatusFound, h.cfg.FrontendRedirect)
}

func sessionIDFromCookie(c echo.Context) string {
	cookie, err := c.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *Handler) sessionCookie(sessionID string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	// Cross-site dashboard in production needs SameSite=None, which browsers
	// only accept together with Secure.
	if h.cfg.IsProduction() {
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}
