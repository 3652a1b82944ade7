package wasm

import "errors"

// Sentinel error kinds. Decoding/validation errors wrap one of these with
// fmt.Errorf("...: %w", ErrX) so callers can errors.Is against the kind
// without parsing message text, rather than a bespoke exception hierarchy.
var (
	// ErrMalformed indicates the binary failed to decode.
	ErrMalformed = errors.New("malformed module")
	// ErrInvalid indicates a structural validation check failed.
	ErrInvalid = errors.New("invalid module")
	// ErrUnsupported indicates an opcode or type outside the core subset.
	ErrUnsupported = errors.New("unsupported")
)
