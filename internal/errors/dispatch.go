package errors

import (
	"context"
	stderrors "errors"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/routelens/routelens/internal/core/engine"
	"github.com/routelens/routelens/internal/ors"
)

// FromDispatchError maps dispatcher and endpoint errors onto error envelopes
// with the correlation ID of ctx attached.
func FromDispatchError(ctx context.Context, err error) *errors.ErrorEnvelope {
	if err == nil {
		return EnsureEnvelope(nil)
	}

	var (
		envelope  *errors.ErrorEnvelope
		configErr *engine.ConfigurationError
		quotaErr  *engine.QuotaExceededError
		apiErr    *engine.APIError
		transErr  *engine.TransportError
	)

	switch {
	case stderrors.As(err, &envelope):
		return EnsureCorrelationID(envelope, ctx)
	case stderrors.Is(err, ors.ErrInvalidRequest):
		return WrapInvalidInput(ctx, err, "Invalid routing request")
	case stderrors.As(err, &configErr):
		return WrapConfigInvalid(ctx, err, configErr.Message)
	case stderrors.As(err, &quotaErr):
		env := Wrap(ctx, CodeRateLimited, err, "Upstream query limit exceeded")
		return withUpstream(env, quotaErr.StatusCode, quotaErr.Body)
	case stderrors.As(err, &apiErr):
		env := Wrap(ctx, CodeUpstream, err, "Upstream request failed")
		return withUpstream(env, apiErr.StatusCode, apiErr.Body)
	case stderrors.Is(err, engine.ErrTimeout), stderrors.Is(err, context.DeadlineExceeded):
		return Wrap(ctx, CodeTimeout, err, "Request timed out")
	case stderrors.As(err, &transErr):
		return Wrap(ctx, CodeExternalService, err, "Upstream unreachable")
	default:
		return WrapInternal(ctx, err, "Unexpected dispatch error")
	}
}

func withUpstream(envelope *errors.ErrorEnvelope, status int, body string) *errors.ErrorEnvelope {
	updated, err := envelope.WithContext(map[string]interface{}{
		"wrapped_error":   envelope.Context["wrapped_error"],
		"upstream_status": status,
		"upstream_body":   body,
	})
	if err != nil {
		return envelope
	}
	return updated
}
