package payment

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/stripe/stripe-go/v76"

	"github.com/seu-repo/invoice-stripe-driver/internal/domain"
)

// translateError turns anything the Stripe client returns into a
// *domain.GatewayError. It is the only place SDK error types are inspected.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ge *domain.GatewayError
	if errors.As(err, &ge) {
		return ge
	}

	var se *stripe.Error
	if errors.As(err, &se) {
		return fromStripeError(se)
	}

	if isConnectivity(err) {
		return &domain.GatewayError{Kind: domain.GatewayErrorConnectivity, Message: err.Error(), Err: err}
	}

	return &domain.GatewayError{Kind: domain.GatewayErrorUnclassified, Message: err.Error(), Err: err}
}

func fromStripeError(se *stripe.Error) *domain.GatewayError {
	ge := &domain.GatewayError{
		Code:       string(se.Code),
		Message:    se.Msg,
		HTTPStatus: se.HTTPStatusCode,
		RequestID:  se.RequestID,
		Err:        se,
	}
	if se.DeclineCode != "" && ge.Code == "" {
		ge.Code = string(se.DeclineCode)
	}

	switch {
	case se.Type == stripe.ErrorTypeCard:
		ge.Kind = domain.GatewayErrorCardDeclined
	case se.Type == stripe.ErrorTypeAPI,
		se.HTTPStatusCode >= http.StatusInternalServerError,
		se.HTTPStatusCode == http.StatusTooManyRequests:
		ge.Kind = domain.GatewayErrorUnavailable
	case se.Type == stripe.ErrorTypeInvalidRequest, se.Type == stripe.ErrorTypeIdempotency:
		ge.Kind = domain.GatewayErrorMalformedRequest
	default:
		ge.Kind = domain.GatewayErrorUnclassified
	}
	return ge
}

func isConnectivity(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
