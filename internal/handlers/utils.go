package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jason-s-yu/bloodrecall/internal/auth"
)

const authCookie = "auth_token"

var errNoToken = errors.New("no auth token")

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// requestToken reads the bearer token, falling back to the auth cookie.
func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return extractCookieToken(r.Header.Get("Cookie"), authCookie)
}

// authenticate returns the user id carried by the request's token.
func authenticate(r *http.Request) (string, error) {
	token := requestToken(r)
	if token == "" {
		return "", errNoToken
	}
	return auth.AuthenticateJWT(token)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
