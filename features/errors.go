package features

import "errors"

// ErrEmptySignal is returned for a zero-length buffer or a non-positive sample rate
var ErrEmptySignal = errors.New("empty signal")
