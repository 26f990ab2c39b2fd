package config

import (
	"fmt"
	"runtime"

	"github.com/pingcap/errors"
)

// ConfigError is a validation failure annotated with the file:line of the
// validate() call site that raised it, grounded on
// exception_location_helpers.hpp's location-tagged exceptions.
type ConfigError struct {
	File string
	Line int
	Msg  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s:%d: config: %s", e.File, e.Line, e.Msg)
}

// configErrorf builds a ConfigError pointing at its caller, traced through
// pingcap/errors so callers can still errors.Cause/errors.ErrorStack it.
func configErrorf(format string, args ...interface{}) error {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file, line = "unknown", 0
	}
	return errors.Trace(&ConfigError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)})
}
