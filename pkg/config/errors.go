package config

import "errors"

var (
	ErrNilPointer  = errors.New("config: nil pointer provided")
	ErrParseFailed = errors.New("config: failed to parse environment variables")
)
