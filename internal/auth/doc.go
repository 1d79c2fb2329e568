// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package auth gates the admin-only HTTP surface behind static bearer
// tokens configured operationally rather than per-user: curation and
// review triggers are operator tools, not multi-tenant endpoints.
//
// BearerAuthenticator is the simple case: one token, full access. For
// routes that should distinguish a full-privilege admin from a
// lower-privilege reviewer, RoleAuthenticator maps several tokens to role
// names and checks the requested action against internal/authz's Casbin
// policy before calling the handler.
package auth
