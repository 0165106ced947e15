package domain

import "fmt"

// NetworkError reports a failed feed or zone fetch: a transport failure,
// timeout, non-2xx status after retries, or a malformed payload.
type NetworkError struct {
	URI        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URI, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URI, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// GeometryProcessingError reports geometry that cannot be simplified or
// rewound.
type GeometryProcessingError struct {
	Reason string
	Err    error
}

func (e *GeometryProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process geometry: %s: %v", e.Reason, e.Err)
	}
	return "process geometry: " + e.Reason
}

func (e *GeometryProcessingError) Unwrap() error { return e.Err }

func geometryErrorf(format string, args ...any) *GeometryProcessingError {
	return &GeometryProcessingError{Reason: fmt.Sprintf(format, args...)}
}
