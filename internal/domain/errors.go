package domain

import (
	"errors"
	"fmt"

	pkgerrors "github.com/kevin07696/virtualmerchant/pkg/errors"
)

// ErrorKind classifies where a failure originated
type ErrorKind string

const (
	// KindLocalPolicy - rejected by a local rule before any network call
	KindLocalPolicy ErrorKind = "local_policy"
	// KindProtocol - the gateway answered but no txn/txnlist could be read
	KindProtocol ErrorKind = "protocol"
	// KindGateway - the gateway reported a decline or an invalid request
	KindGateway ErrorKind = "gateway"
)

// Fixed messages surfaced by the adapter itself
const (
	RestrictedCardMessage    = "usage of this card has been restricted due to its undocumented behavior"
	UnprocessableMessage     = "unable to process the gateway response"
	RestrictedTestCardNumber = "5000300020003003"
)

// GatewayError is the classified error returned by every gateway operation.
// Original holds the raw txn fields verbatim whenever the gateway answered.
type GatewayError struct {
	Kind     ErrorKind
	Code     string // gateway errorCode, empty for plain declines
	Message  string
	Original Fields
	Raw      []byte // raw body for protocol errors
	Err      error
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code %s)", e.Kind, e.Message, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is matches sentinel GatewayErrors by kind and message
func (e *GatewayError) Is(target error) bool {
	t, ok := target.(*GatewayError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Declined reports whether the gateway rejected the transaction without an errorCode
func (e *GatewayError) Declined() bool {
	return e.Kind == KindGateway && e.Code == ""
}

// ErrRestrictedCard is returned when the gateway's negative-testing card is used
var ErrRestrictedCard = &GatewayError{Kind: KindLocalPolicy, Message: RestrictedCardMessage}

// NewProtocolError creates a protocol error carrying the raw body
func NewProtocolError(raw []byte, err error) *GatewayError {
	return &GatewayError{
		Kind:    KindProtocol,
		Message: UnprocessableMessage,
		Raw:     raw,
		Err:     err,
	}
}

// NewGatewayReportedError creates an error for a decline or invalid request reported by the gateway
func NewGatewayReportedError(code, message string, original Fields) *GatewayError {
	return &GatewayError{
		Kind:     KindGateway,
		Code:     code,
		Message:  message,
		Original: original,
	}
}

// NewLocalPolicyError creates an error for a rule enforced before transmission
func NewLocalPolicyError(message string) *GatewayError {
	return &GatewayError{Kind: KindLocalPolicy, Message: message}
}

// AsGatewayError extracts a GatewayError from an error chain
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}

func hasKind(err error, kind ErrorKind) bool {
	gwErr, ok := AsGatewayError(err)
	return ok && gwErr.Kind == kind
}

// IsLocalPolicyError checks if an error was raised before any network call
func IsLocalPolicyError(err error) bool {
	return hasKind(err, KindLocalPolicy)
}

// IsProtocolError checks if the gateway response could not be associated with a transaction
func IsProtocolError(err error) bool {
	return hasKind(err, KindProtocol)
}

// IsGatewayError checks if the gateway reported a decline or an invalid request
func IsGatewayError(err error) bool {
	return hasKind(err, KindGateway)
}

// IsRetriable reports whether a caller may reasonably resubmit.
// Declines and local policy failures never are.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if gwErr, ok := AsGatewayError(err); ok {
		return gwErr.Kind == KindProtocol
	}
	var validationErr *pkgerrors.ValidationError
	if errors.As(err, &validationErr) {
		return false
	}
	// transport failures pass through unclassified
	return true
}

// Categorize maps an operation outcome to an error category
func Categorize(err error) pkgerrors.ErrorCategory {
	if err == nil {
		return pkgerrors.CategoryApproved
	}

	var validationErr *pkgerrors.ValidationError
	if errors.As(err, &validationErr) {
		return pkgerrors.CategoryInvalidRequest
	}

	if gwErr, ok := AsGatewayError(err); ok {
		switch gwErr.Kind {
		case KindLocalPolicy:
			return pkgerrors.CategoryLocalPolicy
		case KindProtocol:
			return pkgerrors.CategorySystemError
		case KindGateway:
			if gwErr.Declined() {
				return pkgerrors.CategoryDeclined
			}
			return pkgerrors.CategoryInvalidRequest
		}
	}

	return pkgerrors.CategoryNetworkError
}
