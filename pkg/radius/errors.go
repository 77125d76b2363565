package radius

import "errors"

var (
	// ErrInvalidBandwidthToken indicates a bandwidth field that does not match
	// the accepted grammar (digits with an optional k/M/G suffix).
	ErrInvalidBandwidthToken = errors.New("invalid bandwidth token")

	// ErrInvalidTimeToken indicates a burst-time field that does not match the
	// accepted grammar (seconds, optionally as an rx/tx pair).
	ErrInvalidTimeToken = errors.New("invalid time token")

	// ErrInvalidPriority indicates a priority outside the 1-8 range.
	ErrInvalidPriority = errors.New("priority must be between 1 and 8")

	// ErrMalformedPolicy indicates an attribute value that cannot be parsed
	// back into a policy.
	ErrMalformedPolicy = errors.New("malformed rate-limit attribute")

	// ErrProfileNotFound indicates an unknown NAS vendor profile.
	ErrProfileNotFound = errors.New("nas profile not found")
)
