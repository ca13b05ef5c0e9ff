package gateway

import "errors"

// ErrDataUnavailable is returned when snapshot recursion exhausts its
// maxLookback bound without finding a usable trading day.
var ErrDataUnavailable = errors.New("gateway: data unavailable within lookback bound")

// ErrNotImplemented marks the sector-comparison data source Open Question
// (spec §9): left undecided rather than guessed at.
var ErrNotImplemented = errors.New("gateway: sector comparison data source not implemented")
