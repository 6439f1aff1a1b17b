package gateway

import "net/http"

// Kind is one of the error taxonomy entries named in spec.md §7.
type Kind string

const (
	InvalidArgument           Kind = "invalid_argument"
	Unauthenticated           Kind = "unauthenticated"
	TimiteNotFound            Kind = "timite_not_found"
	CallAbilityMissing        Kind = "call_ability_missing"
	CallAbilityTargetMismatch Kind = "call_ability_target_mismatch"
	Storage                   Kind = "storage"
)

// APIError carries a taxonomy Kind alongside the underlying error.
type APIError struct {
	Kind Kind
	Err  error
}

func (e *APIError) Error() string { return e.Err.Error() }
func (e *APIError) Unwrap() error { return e.Err }

// httpStatus maps a Kind to the HTTP status the facade's transport surfaces
// it as. TimiteNotFound is never mapped here: per spec.md §7 it is returned
// in-band in TrustedConnect's response body, not as a transport error.
func httpStatus(k Kind) int {
	switch k {
	case InvalidArgument:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case CallAbilityMissing:
		return http.StatusNotFound
	case CallAbilityTargetMismatch:
		return http.StatusForbidden
	case Storage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
