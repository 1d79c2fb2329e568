// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package authz

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Enforcer decides whether a role may perform an operator action. It wraps
// a Casbin SyncedEnforcer, which is itself safe for concurrent use.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an Enforcer from the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("authz: parse model: %w", err)
	}

	adapter := stringadapter.NewAdapter(embeddedPolicy)
	e, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("authz: build enforcer: %w", err)
	}

	return &Enforcer{enforcer: e}, nil
}

// Can reports whether role is permitted to perform act. A Casbin evaluation
// error is treated as a denial: an authorization check that cannot be
// evaluated must never fail open.
func (e *Enforcer) Can(role, act string) bool {
	allowed, err := e.enforcer.Enforce(role, act)
	if err != nil {
		return false
	}
	return allowed
}
