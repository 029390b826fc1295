package replay

import "errors"

// ErrInvalidInput is returned when a replay document can't be decoded
// (malformed gzip, truncated JSON), per spec §7's "Host programmer
// error" category.
var ErrInvalidInput = errors.New("replay: invalid input")
