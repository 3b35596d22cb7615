// Package config reads the service configuration from the environment.
package config

import (
	"os"
	"strings"
)

// Config holds everything the server needs to run. The Google client secret is
// resolved separately through secret.Resolver because it may live in SSM
// Parameter Store rather than the environment.
type Config struct {
	Port             string
	Env              string
	GoogleClientID   string
	RedirectURI      string
	FrontendRedirect string
	UploadDir        string
}

const (
	envPort             = "PORT"
	envAppEnv           = "APP_ENV"
	envGoogleClientID   = "GOOGLE_CLIENT_ID"
	envRedirectURI      = "REDIRECT_URI"
	envFrontendRedirect = "FRONTEND_REDIRECT"
	envUploadDir        = "UPLOAD_DIR"
)

// Load reads the configuration, applying defaults for anything unset.
func Load() Config {
	return Config{
		Port:             getenv(envPort, "5000"),
		Env:              getenv(envAppEnv, "development"),
		GoogleClientID:   getenv(envGoogleClientID, ""),
		RedirectURI:      getenv(envRedirectURI, "http://localhost:5000/oauth2callback"),
		FrontendRedirect: getenv(envFrontendRedirect, "http://localhost:3000"),
		UploadDir:        getenv(envUploadDir, "uploads"),
	}
}

// IsProduction reports whether the service runs with production settings
// (Secure cookies, SameSite=None, secrets from SSM).
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getenv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}
