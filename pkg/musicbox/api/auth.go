package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/jwtauth"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

type contextKey string

const viewerKey contextKey = "viewer"

// Identify resolves the request's Viewer from a verified bearer token. It
// must run after jwtauth.Verifier. Requests without a token are anonymous;
// requests carrying an invalid token are rejected.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if errors.Is(err, jwtauth.ErrNoTokenFound) || (err == nil && token == nil) {
			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), musicbox.Anonymous())))
			return
		}
		if err != nil {
			slog.Warn("Rejected bearer token", "path", r.URL.Path, "error", err)
			writeStatus(w, r, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		viewer, err := viewerFromClaims(claims)
		if err != nil {
			slog.Warn("Rejected token claims", "path", r.URL.Path, "error", err)
			writeStatus(w, r, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
	})
}

// RequireRole rejects viewers whose role is not one of roles.
func RequireRole(roles ...musicbox.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := ViewerFrom(r.Context())
			if viewer.Role == "" {
				writeStatus(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			for _, role := range roles {
				if viewer.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeStatus(w, r, http.StatusForbidden, "forbidden", "insufficient role")
		})
	}
}

// WithViewer stores viewer in ctx.
func WithViewer(ctx context.Context, viewer musicbox.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, viewer)
}

// ViewerFrom returns the viewer stored in ctx, or the anonymous viewer.
func ViewerFrom(ctx context.Context) musicbox.Viewer {
	if v, ok := ctx.Value(viewerKey).(musicbox.Viewer); ok {
		return v
	}
	return musicbox.Anonymous()
}

func viewerFromClaims(claims map[string]interface{}) (musicbox.Viewer, error) {
	rawRole, _ := claims["role"].(string)
	role := musicbox.Role(rawRole)
	if !role.IsValid() {
		return musicbox.Viewer{}, errors.New("token has no valid role claim")
	}

	userID, ok := int64Claim(claims["user_id"])
	if !ok && role != musicbox.RoleAdmin {
		return musicbox.Viewer{}, errors.New("token has no user_id claim")
	}
	return musicbox.NewViewer(role, userID), nil
}

// int64Claim accepts the numeric shapes a decoded JSON claim can take.
func int64Claim(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), n > 0
	case int64:
		return n, n > 0
	case int:
		return int64(n), n > 0
	case json.Number:
		id, err := n.Int64()
		return id, err == nil && id > 0
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		return id, err == nil && id > 0
	}
	return 0, false
}
