package api

import (
	"context"
	"net/http"
)

// Scope header names understood by the PG API.
const (
	HeaderOrganizationID = "X-Organization-Id"
	HeaderLocationID     = "X-PG-Location-Id"
	HeaderUserID         = "X-User-Id"
	HeaderRequestID      = "X-Request-Id"
)

// Scope identifies the tenant context a request runs in.
type Scope struct {
	OrganizationID string
	LocationID     string
	UserID         string
}

// Apply sets the non-empty scope identifiers as request headers.
func (s Scope) Apply(h http.Header) {
	if s.OrganizationID != "" {
		h.Set(HeaderOrganizationID, s.OrganizationID)
	}
	if s.LocationID != "" {
		h.Set(HeaderLocationID, s.LocationID)
	}
	if s.UserID != "" {
		h.Set(HeaderUserID, s.UserID)
	}
}

// Merge returns s with empty fields filled from fallback.
func (s Scope) Merge(fallback Scope) Scope {
	if s.OrganizationID == "" {
		s.OrganizationID = fallback.OrganizationID
	}
	if s.LocationID == "" {
		s.LocationID = fallback.LocationID
	}
	if s.UserID == "" {
		s.UserID = fallback.UserID
	}
	return s
}

// ScopeProvider supplies the scope for each request. The session store
// implements it so a newly selected location applies to the next request.
type ScopeProvider interface {
	Scope(ctx context.Context) (Scope, error)
}

// StaticScope is a ScopeProvider that always returns the same scope.
type StaticScope Scope

// Scope implements ScopeProvider.
func (s StaticScope) Scope(context.Context) (Scope, error) {
	return Scope(s), nil
}
