// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

/*
Package authz authorizes operator actions using Casbin.

internal/auth authenticates an operator bearer token to a role ("admin" or
"reviewer"); this package then decides whether that role may perform the
requested action ("review", "curate", or "backfill"). The model and policy
are small enough to embed directly rather than load from an external store:

	p, admin, review
	p, admin, curate
	p, admin, backfill
	p, reviewer, review
	p, reviewer, curate

backfill reprocesses up to 50,000 posts over a window of up to a year, so
it is reserved for the admin role; review and curate are routine enough to
also grant to the lower-privilege reviewer role. Changing who can do what
is a policy.csv edit, not a code change.
*/
package authz
