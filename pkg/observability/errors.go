package observability

import "errors"

// ErrRegisterMetrics is returned when a collector cannot be registered,
// typically because NewMetrics was called twice on the same registry.
var ErrRegisterMetrics = errors.New("failed to register tenant metrics")
