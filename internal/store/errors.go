package store

import "errors"

// ErrStorage marks failures to read, write or (de)serialize persisted values.
var ErrStorage = errors.New("storage failure")
