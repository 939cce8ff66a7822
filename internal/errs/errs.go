// Package errs defines the typed, sentinel-wrapped error taxonomy used
// across the module and maps each kind to a stable process exit code.
package errs

import (
	"errors"
	"fmt"
)

// Exit codes returned by the command-line tools.
const (
	ExitUsage        = 1
	ExitRawFormat    = 7
	ExitRawWrite     = 8
	ExitRawRead      = 9
	ExitAllocation   = 13
	ExitFatal        = 42
	ExitDirectory    = 54
	ExitDirectoryAlt = 55
)

// Sentinel kinds. Wrap one of these with fmt.Errorf("...: %w", Kind) at the
// call site so errors.Is still matches it through any number of layers.
var (
	ErrUsage      = errors.New("usage error")
	ErrRawFormat  = errors.New("raw log format error")
	ErrRawWrite   = errors.New("raw log write error")
	ErrRawRead    = errors.New("raw log read error")
	ErrAllocation = errors.New("allocation failure")
	ErrFatal      = errors.New("fatal runtime error")
	ErrDirectory  = errors.New("directory error")
)

// ExitCode maps an error produced anywhere in this module to its process
// exit code, falling back to ExitFatal for an error not wrapping one of
// the known sentinels.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrRawFormat):
		return ExitRawFormat
	case errors.Is(err, ErrRawWrite):
		return ExitRawWrite
	case errors.Is(err, ErrRawRead):
		return ExitRawRead
	case errors.Is(err, ErrAllocation):
		return ExitAllocation
	case errors.Is(err, ErrDirectory):
		return ExitDirectory
	default:
		return ExitFatal
	}
}

// Usage formats a message and wraps it as a usage error.
func Usage(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrUsage)
}

// RawFormat wraps err as a corrupt-or-unsupported raw log format error.
func RawFormat(err error) error {
	return fmt.Errorf("%w: %v", ErrRawFormat, err)
}

// RawWrite wraps err as a raw log write failure.
func RawWrite(err error) error {
	return fmt.Errorf("%w: %v", ErrRawWrite, err)
}

// RawRead wraps err as a raw log read failure.
func RawRead(err error) error {
	return fmt.Errorf("%w: %v", ErrRawRead, err)
}

// Directory wraps err as a directory-access failure (twin-mode temp dir,
// raw log parent directory).
func Directory(err error) error {
	return fmt.Errorf("%w: %v", ErrDirectory, err)
}

// Fatal wraps err as an unrecoverable runtime failure.
func Fatal(err error) error {
	return fmt.Errorf("%w: %v", ErrFatal, err)
}
