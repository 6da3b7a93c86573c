// internal/app/system/tenant/errors.go
package tenant

import "errors"

// Error taxonomy for tenant resolution. Callers classify with errors.Is;
// the route layer is the first place these become user-visible messages.
var (
	// ErrOrgNotFound means the slug has no record in the central directory.
	ErrOrgNotFound = errors.New("organization not found")

	// ErrAccessDenied means the backing store refused the read. The route
	// layer presents it as not-found so existence is not leaked.
	ErrAccessDenied = errors.New("organization access denied")

	// ErrBadConnectionConfig means the organization record has a missing or
	// malformed connection config. This is an operator problem, not a user
	// retry case.
	ErrBadConnectionConfig = errors.New("missing or invalid tenant connection config")

	// ErrTenantUnavailable wraps transient I/O failures while fetching a
	// record or provisioning a connection. A fresh navigation may succeed.
	ErrTenantUnavailable = errors.New("tenant backend unavailable")

	// ErrSuperseded is returned by Activate when a later activation for a
	// different organization started before this one finished. The stale
	// activation's work is discarded; no event fires for it.
	ErrSuperseded = errors.New("tenant activation superseded")
)
