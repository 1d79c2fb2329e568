// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

// Package validation provides struct validation using go-playground/validator v10.
//
// It wraps the library in a thread-safe singleton and translates field errors
// into the operator API's error response shape.
//
//	type backfillRequest struct {
//	    Limit         int `json:"limit" validate:"omitempty,min=1,max=50000"`
//	    LookbackHours int `json:"lookback_hours" validate:"omitempty,min=1,max=8760"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    writeError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message)
//	    return
//	}
package validation
