package domain

import "fmt"

// CredentialReason classifies why credential resolution failed.
type CredentialReason string

const (
	CredentialNotFound CredentialReason = "not_found"
	CredentialRevoked  CredentialReason = "revoked"
)

// CredentialError reports that no usable credential exists for a principal.
// Callers must not place, modify, or cancel orders when resolution fails.
type CredentialError struct {
	Principal string
	Reason    CredentialReason
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential %s for principal %q", e.Reason, e.Principal)
}

// ValidationError reports a malformed or incomplete order request, detected
// before any network call.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order request: %s: %s", e.Field, e.Msg)
}

// MappingError reports an enum value with no defined translation. Product
// mapping is never allowed to default silently: squaring off the wrong
// product bucket moves real money.
type MappingError struct {
	Value string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("no mapping for product type %q", e.Value)
}

// TransportError reports a network-level failure (timeout, refused
// connection, unreadable body) on a broker call. The broker may or may not
// have seen the request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("broker transport failure on %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BrokerRejection reports a well-formed call the broker refused at the
// application level (envelope status=false). Message carries the broker's
// text verbatim.
type BrokerRejection struct {
	Op      string
	Message string
}

func (e *BrokerRejection) Error() string {
	return fmt.Sprintf("broker rejected %s: %s", e.Op, e.Message)
}

// PositionUnavailableError aborts a smart-order flow when the current
// position cannot be fetched. Assuming a flat position on fetch failure is
// forbidden; the error must propagate instead.
type PositionUnavailableError struct {
	Err error
}

func (e *PositionUnavailableError) Error() string {
	return fmt.Sprintf("current position unavailable: %v", e.Err)
}

func (e *PositionUnavailableError) Unwrap() error { return e.Err }
