package artifact

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("artifact: configuration error")

	// ErrNoBundle is returned when the store has no CURRENT pointer.
	ErrNoBundle = errors.New("artifact: no bundle published")

	// ErrChecksumMismatch is returned when an artifact does not match the
	// checksum recorded in the manifest.
	ErrChecksumMismatch = errors.New("artifact: checksum mismatch")

	// ErrNoReport is returned by ReadReport for bundles without a report.
	ErrNoReport = errors.New("artifact: bundle has no report")

	// ErrIncompatibleFormat is returned for manifests of an unknown format.
	ErrIncompatibleFormat = errors.New("artifact: incompatible manifest format")
)

// ConfigurationError reports a missing, malformed or inconsistent artifact.
type ConfigurationError struct {
	Artifact string
	Err      error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("artifact %s: %v", e.Artifact, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func configErr(artifact string, err error) error {
	return &ConfigurationError{Artifact: artifact, Err: err}
}

func configErrf(artifact, format string, args ...any) error {
	return &ConfigurationError{Artifact: artifact, Err: fmt.Errorf(format, args...)}
}
