package segmento

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/segmento/analytics"
	"github.com/hupe1980/segmento/artifact"
	"github.com/hupe1980/segmento/assign"
	"github.com/hupe1980/segmento/catalog"
	"github.com/hupe1980/segmento/projection"
	"github.com/hupe1980/segmento/schema"
	"github.com/hupe1980/segmento/standardize"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrInvariant matches every *InvariantError.
	ErrInvariant = errors.New("internal invariant violated")

	// ErrNotReady is returned by a Gate whose bundle failed to load.
	ErrNotReady = errors.New("engine not ready")

	// ErrClosed is returned by operations on a closed Engine.
	ErrClosed = errors.New("engine closed")

	// ErrUnknownCluster is returned when a caller names a cluster index the
	// model does not have.
	ErrUnknownCluster = analytics.ErrUnknownCluster

	// ErrNoComponents is returned by Points when the reference dataset has
	// no component-space columns.
	ErrNoComponents = analytics.ErrNoComponents

	// ErrNoReport is returned by Report when the bundle carries none.
	ErrNoReport = errors.New("bundle has no report")
)

// ConfigurationError indicates an artifact that is missing, malformed or
// inconsistent with the others. It prevents the engine from becoming ready.
//
// The original underlying error can be accessed via errors.Unwrap.
type ConfigurationError struct {
	Artifact string
	cause    error
}

func (e *ConfigurationError) Error() string {
	if e.Artifact == "" {
		return fmt.Sprintf("configuration error: %v", e.cause)
	}
	return fmt.Sprintf("configuration error in %s: %v", e.Artifact, e.cause)
}

func (e *ConfigurationError) Unwrap() error { return e.cause }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ValidationError reports a rejected request record.
//
// Missing lists absent features in schema order. Invalid names the first
// feature whose value is not a finite number and is only set when nothing is
// missing.
type ValidationError struct {
	Missing []string
	Invalid string
	Reason  string
	cause   error
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("validation failed: missing features %s", strings.Join(e.Missing, ", "))
	}
	if e.Invalid == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: invalid value for %s: %s", e.Invalid, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.cause }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvariantError indicates that loaded artifacts are mutually inconsistent,
// e.g. a dimension mismatch between pipeline stages or an unlabeled cluster.
// It signals a deployment or data bug, never bad user input.
//
// The original underlying error can be accessed via errors.Unwrap.
type InvariantError struct {
	Stage    string
	Expected int
	Actual   int
	cause    error
}

func (e *InvariantError) Error() string {
	if e.Expected != 0 || e.Actual != 0 {
		return fmt.Sprintf("internal invariant violated in %s: expected dimension %d, got %d", e.Stage, e.Expected, e.Actual)
	}
	return fmt.Sprintf("internal invariant violated in %s: %v", e.Stage, e.cause)
}

func (e *InvariantError) Unwrap() error { return e.cause }

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

// Pipeline stages reported by InvariantError.
const (
	StageStandardize = "standardize"
	StageProject     = "project"
	StageAssign      = "assign"
	StageCatalog     = "catalog"
	StageAnalytics   = "analytics"
)

// translateError maps subpackage errors onto the public taxonomy.
func translateError(stage string, err error) error {
	if err == nil {
		return nil
	}

	var ce *artifact.ConfigurationError
	if errors.As(err, &ce) {
		return &ConfigurationError{Artifact: ce.Artifact, cause: err}
	}

	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		return &ValidationError{Missing: slices.Clone(ve.Missing), Invalid: ve.Invalid, Reason: ve.Reason, cause: err}
	}

	var sdm *standardize.ErrDimensionMismatch
	if errors.As(err, &sdm) {
		return &InvariantError{Stage: StageStandardize, Expected: sdm.Expected, Actual: sdm.Actual, cause: err}
	}
	var pdm *projection.ErrDimensionMismatch
	if errors.As(err, &pdm) {
		return &InvariantError{Stage: StageProject, Expected: pdm.Expected, Actual: pdm.Actual, cause: err}
	}
	var adm *assign.ErrDimensionMismatch
	if errors.As(err, &adm) {
		return &InvariantError{Stage: StageAssign, Expected: adm.Expected, Actual: adm.Actual, cause: err}
	}
	if errors.Is(err, assign.ErrNoCentroids) {
		return &InvariantError{Stage: StageAssign, cause: err}
	}

	var le *catalog.LookupError
	if errors.As(err, &le) {
		return &InvariantError{Stage: StageCatalog, cause: err}
	}

	switch {
	case stage == "",
		errors.Is(err, ErrUnknownCluster),
		errors.Is(err, ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return &InvariantError{Stage: stage, cause: err}
}
