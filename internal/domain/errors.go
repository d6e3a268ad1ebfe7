package domain

import (
	"errors"
	"fmt"
)

// ConfigurationError signals integration misuse: a missing key, an
// unusable source reference or a missing intent id. It is never converted
// into a Failed outcome.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Msg, e.Err)
	}
	return "configuration error: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func NewConfigurationError(msg string) error {
	return &ConfigurationError{Msg: msg}
}

var (
	ErrMissingAPIKey    = &ConfigurationError{Msg: "Stripe secret key is not configured for this environment"}
	ErrNoPaymentSource  = &ConfigurationError{Msg: "must provide a payment source"}
	ErrSourceIDsMissing = &ConfigurationError{Msg: "Could not ascertain the source/customer id"}
	ErrMissingIntentID  = &ConfigurationError{Msg: "missing or invalid payment intent id"}
	ErrMissingChargeID  = &ConfigurationError{Msg: "missing original transaction id"}
)

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// GatewayErrorKind is the closed set of gateway failure classes
type GatewayErrorKind string

const (
	GatewayErrorConnectivity     GatewayErrorKind = "connectivity"
	GatewayErrorMalformedRequest GatewayErrorKind = "malformed_request"
	GatewayErrorUnavailable      GatewayErrorKind = "unavailable"
	GatewayErrorCardDeclined     GatewayErrorKind = "card_declined"
	GatewayErrorUnclassified     GatewayErrorKind = "unclassified"
)

const (
	msgConnectivity = "There was a problem connecting to Stripe, you may wish to try again."
	msgMalformed    = "The payment request was rejected, you may wish to try again."
	msgUnavailable  = "There was a problem connecting to Stripe, this is a temporary problem. You may wish to try again."
	msgDeclined     = "The payment card was declined."
	msgUnclassified = "An unexpected error occurred while processing the payment."
)

// GatewayError is the only error type a GatewayClient returns
type GatewayError struct {
	Kind       GatewayErrorKind
	Code       string
	Message    string
	HTTPStatus int
	RequestID  string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe %s (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("stripe %s: %s", e.Kind, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// UserMessage is the text safe to show to the paying customer.
func (e *GatewayError) UserMessage() string {
	switch e.Kind {
	case GatewayErrorConnectivity:
		return msgConnectivity
	case GatewayErrorMalformedRequest:
		return msgMalformed
	case GatewayErrorUnavailable:
		return msgUnavailable
	case GatewayErrorCardDeclined:
		if e.Message == "" {
			return msgDeclined
		}
		return msgDeclined + " " + e.Message
	default:
		return msgUnclassified
	}
}

// Failure converts the error into the Failed variant payload.
func (e *GatewayError) Failure() Failure {
	return Failure{
		RawMessage:  e.Message,
		RawCode:     e.Code,
		UserMessage: e.UserMessage(),
	}
}

// AsGatewayError returns err as a GatewayError, classifying anything else
// as unclassified.
func AsGatewayError(err error) *GatewayError {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge
	}
	return &GatewayError{Kind: GatewayErrorUnclassified, Message: err.Error(), Err: err}
}

// UnclassifiedFailure builds a Failed payload for non-gateway errors.
func UnclassifiedFailure(rawMessage string) Failure {
	return Failure{RawMessage: rawMessage, UserMessage: msgUnclassified}
}
