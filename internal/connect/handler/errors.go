package handler

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/0xc0d3d00d/candleseries/internal/domain"
	"github.com/0xc0d3d00d/candleseries/internal/upstream"
)

func errorToConnect(err error) error {
	var apiErr *upstream.APIError

	switch {
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case domain.IsValidation(err):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, domain.ErrNoTradingDays):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.As(err, &apiErr):
		return connect.NewError(upstreamCode(apiErr.Status), err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func upstreamCode(status int) connect.Code {
	switch status {
	case http.StatusUnauthorized:
		return connect.CodeUnauthenticated
	case http.StatusForbidden:
		return connect.CodePermissionDenied
	case http.StatusTooManyRequests:
		return connect.CodeResourceExhausted
	default:
		return connect.CodeUnavailable
	}
}
