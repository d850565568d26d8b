// GeoKey - Participatory Mapping and Contribution Data Engine
// Copyright 2026 GeoKey contributors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/geokey/geokey

package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/geokey/geokey/internal/logging"
	"github.com/geokey/geokey/internal/metrics"
	"github.com/geokey/geokey/internal/models"
)

type contextKey string

const userKey contextKey = "geokey.user"

// TokenVerifier resolves a personal access token to its user. The database
// layer implements it.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, userID int64, token string) (*models.User, error)
}

// UserFromContext returns the request's principal, nil when anonymous.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// ContextWithUser attaches a principal, mainly for tests.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// Middleware authenticates requests. Two header forms are accepted:
//
//	Authorization: Bearer <jwt>
//	Authorization: Token <user-id>:<personal-access-token>
//
// Absent or empty headers pass through as anonymous; a credential that is
// present but invalid is rejected with 401.
func Middleware(jwtManager *JWTManager, tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, credential, found := strings.Cut(header, " ")
			if !found {
				unauthorized(w)
				return
			}

			var user *models.User
			switch strings.ToLower(scheme) {
			case "bearer":
				claims, err := jwtManager.ValidateToken(credential)
				metrics.RecordTokenValidation("bearer", err == nil)
				if err != nil {
					logging.Ctx(r.Context()).Debug().Err(err).Msg("rejected bearer token")
					unauthorized(w)
					return
				}
				user = &models.User{ID: claims.UserID, DisplayName: claims.DisplayName}

			case "token":
				verified, err := verifyAccessToken(r.Context(), tokens, credential)
				metrics.RecordTokenValidation("token", err == nil)
				if err != nil {
					logging.Ctx(r.Context()).Debug().Err(err).Msg("rejected access token")
					unauthorized(w)
					return
				}
				user = verified

			default:
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

func verifyAccessToken(ctx context.Context, tokens TokenVerifier, credential string) (*models.User, error) {
	idPart, secret, found := strings.Cut(credential, ":")
	if !found {
		return nil, errMalformedToken
	}
	userID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return nil, errMalformedToken
	}
	return tokens.VerifyAccessToken(ctx, userID, secret)
}

var errMalformedToken = &malformedTokenError{}

type malformedTokenError struct{}

func (*malformedTokenError) Error() string {
	return "malformed access token, expected <user-id>:<token>"
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"invalid or expired credentials"}`))
}
