package port

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServiceError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ServiceError{Kind: ErrKindNetwork, Service: "gemini", Message: "request failed", Err: cause}

	require.Equal(t, "service=gemini: kind=network: request failed: cause=connection refused", err.Error())
	require.ErrorIs(t, err, cause)
}

func TestServiceError_IsMatchesKind(t *testing.T) {
	wrapped := fmt.Errorf("analyze: %w", &ServiceError{Kind: ErrKindTimeout, StatusCode: 504})

	require.ErrorIs(t, wrapped, &ServiceError{Kind: ErrKindTimeout})
	require.NotErrorIs(t, wrapped, &ServiceError{Kind: ErrKindMalformed})

	var se *ServiceError
	require.True(t, errors.As(wrapped, &se))
	require.Equal(t, 504, se.StatusCode)
}
