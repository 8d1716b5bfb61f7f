package port

import (
	"context"
	"fmt"
	"strings"

	"github.com/agroscan/agroscan-bot/internal/domain/entity"
)

// ImageAnalyzer is the remote diagnosis service.
type ImageAnalyzer interface {
	// Analyze diagnoses the image. Failures are reported as *ServiceError.
	Analyze(ctx context.Context, image *entity.Image) (*entity.AnalysisResult, error)
}

// ErrorKind classifies analysis service failures for diagnostics.
type ErrorKind string

const (
	ErrKindNetwork     ErrorKind = "network"
	ErrKindTimeout     ErrorKind = "timeout"
	ErrKindRejected    ErrorKind = "rejected"
	ErrKindMalformed   ErrorKind = "malformed"
	ErrKindUnsupported ErrorKind = "unsupported"
)

// ServiceError is returned by ImageAnalyzer implementations.
type ServiceError struct {
	Kind       ErrorKind
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	parts := make([]string, 0, 5)
	if e.Service != "" {
		parts = append(parts, "service="+e.Service)
	}
	parts = append(parts, "kind="+string(e.Kind))
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Err != nil {
		parts = append(parts, "cause="+e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is matches another *ServiceError by kind.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	return ok && t.Kind == e.Kind
}
