package builder

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPipeline   = errors.New("no loaders to combine")
	ErrUnknownPipeline = errors.New("unknown pipeline")
	ErrDuplicateLabel  = errors.New("pipeline already defined")
	ErrMalformedPrefix = errors.New("prefix must be empty or end with \"/\"")
	ErrInvalidLoader   = errors.New("invalid loader")
)

// ConfigError reports a pipeline that cannot be assembled. It is returned by
// Build and Err and wraps one of the Err* sentinels.
type ConfigError struct {
	Op    string // builder method that failed, e.g. "NameThat"
	Label string // pipeline label or argument involved, may be empty
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Label, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
