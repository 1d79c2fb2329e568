// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package auth

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/newsclust/internal/authz"
	"github.com/tomtom215/newsclust/internal/logging"
)

// roleToken pairs a role name with the bcrypt hash of its bearer token.
type roleToken struct {
	role string
	hash []byte
}

// RoleAuthenticator authenticates a bearer token to one of several
// configured roles, then authorizes the requested action against an
// authz.Enforcer. Unlike BearerAuthenticator, which gates a route behind a
// single all-or-nothing token, RoleAuthenticator lets the operator surface
// grant a lower-privilege "reviewer" token that can trigger review/curate
// but not the costlier backfill.
type RoleAuthenticator struct {
	tokens   []roleToken
	enforcer *authz.Enforcer
	sec      *logging.SecurityLogger
}

// NewRoleAuthenticator builds a RoleAuthenticator from a role-name to
// token map. Roles with a blank token are skipped, so an unconfigured
// reviewer token simply never matches rather than matching an empty
// Authorization header.
func NewRoleAuthenticator(tokensByRole map[string]string, enforcer *authz.Enforcer) *RoleAuthenticator {
	ra := &RoleAuthenticator{
		enforcer: enforcer,
		sec:      logging.NewSecurityLogger(),
	}
	for role, token := range tokensByRole {
		if token == "" {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
		if err != nil {
			continue
		}
		ra.tokens = append(ra.tokens, roleToken{role: role, hash: hash})
	}
	return ra
}

// Authenticate builds chi-compatible middleware that requires a bearer
// token mapping to a role permitted to perform action.
func (a *RoleAuthenticator) Authenticate(action string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if len(a.tokens) == 0 {
				http.Error(w, "operator endpoints disabled", http.StatusServiceUnavailable)
				return
			}

			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				a.sec.LogAuthFailure(r.RemoteAddr, r.UserAgent(), "missing bearer token")
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			got := []byte(strings.TrimPrefix(header, prefix))
			role := a.matchRole(got)
			if role == "" {
				a.sec.LogAuthFailure(r.RemoteAddr, r.UserAgent(), "invalid bearer token")
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			if !a.enforcer.Can(role, action) {
				a.sec.LogAuthzDenied(role, action, r.RemoteAddr)
				http.Error(w, "role lacks permission for this action", http.StatusForbidden)
				return
			}

			a.sec.LogAuthSuccess(role, r.RemoteAddr, r.UserAgent())
			next(w, r)
		}
	}
}

// matchRole returns the role whose token hash matches got, or "" if none
// do. bcrypt.CompareHashAndPassword runs in time independent of where the
// mismatch occurs, so checking each configured token in turn does not leak
// which token (if any) was a partial match.
func (a *RoleAuthenticator) matchRole(got []byte) string {
	for _, t := range a.tokens {
		if bcrypt.CompareHashAndPassword(t.hash, got) == nil {
			return t.role
		}
	}
	return ""
}
