package recommend

import "errors"

var (
	// ErrUnavailable indicates the recommendation client is not configured.
	ErrUnavailable = errors.New("recommendation site unavailable")
	// ErrBadResponse indicates the recommendation site answered with an error status.
	ErrBadResponse = errors.New("recommendation site returned an error")

	errPageMissing = errors.New("page not found")
)
