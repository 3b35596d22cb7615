// Package app wires the configuration, secret resolution, OAuth flow, Drive
// client factory and HTTP routes into a runnable server.
package app

import (
	"context"
	"fmt"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/medhub/gallery-backend/internal/auth"
	"github.com/medhub/gallery-backend/internal/config"
	"github.com/medhub/gallery-backend/internal/gallery"
	"github.com/medhub/gallery-backend/internal/googledrive"
	"github.com/medhub/gallery-backend/internal/middleware"
	"github.com/medhub/gallery-backend/internal/secret"
	"github.com/medhub/gallery-backend/internal/session"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
)

// New assembles the server. The Google client secret is resolved from SSM in
// production and from the environment otherwise.
func New(ctx context.Context, cfg config.Config) (*echo.Echo, error) {
	resolver, err := newResolver(ctx, cfg)
	if err != nil {
		return nil, err
	}
	clientSecret, err := resolver.GetSecret(ctx, secret.GoogleClientSecretParam)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve Google client secret: %w", err)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: clientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{drive.DriveScope},
		Endpoint:     google.Endpoint,
	}

	sessions := session.NewStore()
	registry := googledrive.NewRegistry()
	factory := googledrive.NewFactory()
	authService := auth.NewService(oauthConfig, sessions)
	galleryService := gallery.NewService(registry)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.CORS(cfg))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	auth.NewHandler(authService, registry, factory, cfg).RegisterRoutes(e)
	gallery.NewHandler(galleryService, factory, cfg).RegisterRoutes(e, authService.Require)

	return e, nil
}

func newResolver(ctx context.Context, cfg config.Config) (secret.Resolver, error) {
	if !cfg.IsProduction() {
		return secret.NewEnvResolver(), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return secret.NewSSMResolver(ssm.NewFromConfig(awsCfg)), nil
}
