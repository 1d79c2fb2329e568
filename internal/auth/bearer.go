// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BearerAuthenticator gates requests behind a single static token. The
// configured token is hashed once at construction time and each request's
// token is checked with bcrypt's comparison against that hash. The plaintext
// token is also kept: it decides whether the routes are enabled at all, and
// if hashing failed at construction it is compared directly with
// subtle.ConstantTimeCompare instead.
type BearerAuthenticator struct {
	token     string
	tokenHash []byte
}

// NewBearerAuthenticator builds a BearerAuthenticator over the configured
// admin token. A blank token disables every route it guards (Authenticate
// always rejects), since an empty token would otherwise accept an empty
// Authorization header.
func NewBearerAuthenticator(token string) *BearerAuthenticator {
	a := &BearerAuthenticator{token: token}
	if token != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
		if err == nil {
			a.tokenHash = hash
		}
	}
	return a
}

// Authenticate is chi-compatible admin middleware: it requires
// "Authorization: Bearer <token>" matching the configured token.
func (a *BearerAuthenticator) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.token == "" {
			http.Error(w, "admin endpoints disabled", http.StatusServiceUnavailable)
			return
		}

		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		got := strings.TrimPrefix(header, prefix)
		if a.tokenHash != nil {
			if bcrypt.CompareHashAndPassword(a.tokenHash, []byte(got)) != nil {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}
		} else if subtle.ConstantTimeCompare([]byte(got), []byte(a.token)) != 1 {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}
