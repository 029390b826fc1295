package snapshot

import "errors"

// ErrInvalidInput is returned for malformed or truncated snapshot
// blobs: decoder overflow, wrong header, or content shorter than the
// fixed header. Per spec §7 this is a host programmer error — the
// function fails without mutating anything.
var ErrInvalidInput = errors.New("snapshot: invalid input")
