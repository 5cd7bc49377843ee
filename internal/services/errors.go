package services

import (
	"errors"
	"fmt"
	"strings"

	"omnisync/internal/runstore"
)

var (
	ErrMissingInput    = errors.New("missing input")
	ErrAlignment       = errors.New("alignment error")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmptyRegion     = errors.New("empty region")
	ErrCodec           = errors.New("codec error")
	ErrExternalTool    = errors.New("external tool error")
	ErrConfiguration   = errors.New("configuration error")
	ErrNotImplemented  = errors.New("not implemented")
	ErrOutputBusy      = errors.New("output busy")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a pipeline error to the run status recorded once the run
// aborts. Problems with the caller's inputs or configuration are rejections;
// everything else is a failure.
func FailureStatus(err error) runstore.Status {
	switch {
	case errors.Is(err, ErrMissingInput), errors.Is(err, ErrConfiguration), errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrOutputBusy):
		return runstore.StatusRejected
	default:
		return runstore.StatusFailed
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
