// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package authz

import "testing"

func TestEnforcer_AdminCanDoEverything(t *testing.T) {
	t.Parallel()

	e, err := NewEnforcer()
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}

	for _, act := range []string{"review", "curate", "backfill"} {
		if !e.Can("admin", act) {
			t.Errorf("Can(admin, %q) = false, want true", act)
		}
	}
}

func TestEnforcer_ReviewerCannotBackfill(t *testing.T) {
	t.Parallel()

	e, err := NewEnforcer()
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}

	if !e.Can("reviewer", "review") {
		t.Error("Can(reviewer, review) = false, want true")
	}
	if !e.Can("reviewer", "curate") {
		t.Error("Can(reviewer, curate) = false, want true")
	}
	if e.Can("reviewer", "backfill") {
		t.Error("Can(reviewer, backfill) = true, want false")
	}
}

func TestEnforcer_UnknownRoleDenied(t *testing.T) {
	t.Parallel()

	e, err := NewEnforcer()
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}

	if e.Can("guest", "review") {
		t.Error("Can(guest, review) = true, want false")
	}
}
