// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBearerAuthenticator_RejectsMissingHeader(t *testing.T) {
	a := NewBearerAuthenticator("secret")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	called := false
	a.Authenticate(func(w http.ResponseWriter, r *http.Request) { called = true }).ServeHTTP(rr, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBearerAuthenticator_RejectsWrongToken(t *testing.T) {
	a := NewBearerAuthenticator("secret")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer wrong")

	a.Authenticate(func(w http.ResponseWriter, r *http.Request) {}).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestBearerAuthenticator_AcceptsCorrectToken(t *testing.T) {
	a := NewBearerAuthenticator("secret")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer secret")

	called := false
	a.Authenticate(func(w http.ResponseWriter, r *http.Request) { called = true }).ServeHTTP(rr, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestBearerAuthenticator_EmptyTokenDisablesRoute(t *testing.T) {
	a := NewBearerAuthenticator("")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")

	a.Authenticate(func(w http.ResponseWriter, r *http.Request) {}).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
